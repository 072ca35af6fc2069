package xhttp

import (
	"fmt"
	"net/http"

	"github.com/garrettladley/inbox/internal/version"
)

type inboxTransport struct {
	base http.RoundTripper
}

var _ http.RoundTripper = (*inboxTransport)(nil)

func (t *inboxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	req = req.Clone(req.Context())
	req.Header.Set(UserAgent, "inbox/"+version.Get())
	req.Header.Set(version.Header, version.Get())
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform round trip: %w", err)
	}
	return resp, nil
}

// NewTransport returns an http.RoundTripper with standard inbox headers.
func NewTransport() http.RoundTripper {
	return WrapTransport(http.DefaultTransport)
}

// WrapTransport layers the inbox headers over base.
func WrapTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &inboxTransport{base: base}
}
