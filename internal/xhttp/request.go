package xhttp

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidBearer = errors.New("invalid bearer token")
)

func GetRequestIP(r *http.Request) string {
	if xff := r.Header.Get(XForwardedFor); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			xff = strings.TrimSpace(first)
		}
		if ip, _, err := net.SplitHostPort(xff); err == nil {
			return ip
		}
		return xff
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func GetRequestHeaderSessionID(r *http.Request) string {
	return r.Header.Get(XSessionID)
}

// GetRequestBearer extracts the token from an "Authorization: Bearer" header.
func GetRequestBearer(r *http.Request) (string, error) {
	authHeader := r.Header.Get(Authorization)
	if authHeader == "" {
		return "", ErrMissingBearer
	}

	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", ErrInvalidBearer
	}
	return strings.TrimSpace(token), nil
}
