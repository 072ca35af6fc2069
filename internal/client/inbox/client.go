package inbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

// Client talks to the notification store REST API. It holds no credentials;
// every call authenticates as the session it is given.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(baseURL string, opts ...Option) *Client {
	cfg := &clientConfig{
		logger:  slog.Default(),
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	httpOpts := []xhttp.ClientOption{xhttp.WithTimeout(cfg.timeout)}
	if cfg.transport != nil {
		httpOpts = append(httpOpts, xhttp.WithTransport(cfg.transport))
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: xhttp.NewHTTPClient(httpOpts...),
		logger:     cfg.logger,
	}
}

type clientConfig struct {
	logger    *slog.Logger
	timeout   time.Duration
	transport http.RoundTripper
}

type Option func(*clientConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) { cfg.logger = logger }
}

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *clientConfig) { cfg.transport = rt }
}

func (c *Client) do(ctx context.Context, sess session.Session, method string, path string, body any, result any) error {
	token, err := sess.Token()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		b, err := go_json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	xhttp.SetRequestHeaderBearer(req, token.AccessToken)
	req.Header.Set(xhttp.Accept, xhttp.MIMEApplicationJSON)
	if body != nil {
		req.Header.Set(xhttp.ContentType, xhttp.MIMEApplicationJSON)
	}
	if sess.ID != "" {
		xhttp.SetRequestHeaderSessionID(req, sess.ID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "inbox api request",
		xslog.RequestMethod(req),
		xslog.RequestPath(req),
		xslog.HTTPStatus(resp.StatusCode),
	)

	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if err := go_json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("decoding response: %w\nbody: %s", err, string(raw))
		}
	}

	return nil
}
