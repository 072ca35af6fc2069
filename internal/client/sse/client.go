package sse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

const (
	EventConnect         = "connect"
	EventNewNotification = "newNotification"
	EventHeartbeat       = "heartbeat"
	EventShutdown        = "shutdown"

	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 30 * time.Second
	backoffFactor         = 2

	maxEventSize = 1 << 20
)

var ErrEmptyNamespace = errors.New("sse: namespace is required")

type Event struct {
	Type string
	Data []byte
}

// Handlers are invoked on the connection's reader goroutine. Nil handlers are skipped.
type Handlers struct {
	// OnConnect runs after every successful (re)connection.
	OnConnect func()
	// OnNotification receives parsed newNotification events. Events without a
	// recipient are dropped before reaching it.
	OnNotification func(storage.Notification)
	OnState        func(State)
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient = xhttp.NewHTTPClient(xhttp.WithTransport(rt)) }
}

// WithBackoff sets the reconnect delay bounds. The delay doubles after each
// failed attempt and resets after a clean close.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = initial
		c.maxBackoff = maxDelay
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     xhttp.NewHTTPClient(), // no timeout for SSE
		logger:         slog.Default(),
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscription is a running connection loop started by Subscribe.
type Subscription struct {
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Close stops the connection loop and waits for it to exit. After Close
// returns no handler is invoked again.
func (s *Subscription) Close() {
	s.closeOnce.Do(s.cancel)
	<-s.done
}

// Subscribe validates its arguments and runs Connect in the background until
// ctx is done or the subscription is closed.
func (c *Client) Subscribe(ctx context.Context, sess session.Session, namespace string, h Handlers) (*Subscription, error) {
	if namespace == "" {
		return nil, ErrEmptyNamespace
	}
	if sess.TokenSource == nil {
		return nil, session.ErrNoCredentials
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		_ = c.Connect(ctx, sess, namespace, h)
	}()

	return sub, nil
}

// Connect establishes an SSE connection and dispatches events to h.
// It automatically reconnects with exponential backoff on disconnection.
// Returns when the context is cancelled.
func (c *Client) Connect(ctx context.Context, sess session.Session, namespace string, h Handlers) error {
	backoff := c.initialBackoff
	logger := c.logger.With(xslog.Namespace(namespace))

	c.setState(h, StateConnecting)
	defer c.setState(h, StateClosed)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := c.connectOnce(ctx, sess, namespace, h, logger)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.setState(h, StateReconnecting)
		if err == nil {
			// connection closed cleanly, reset backoff
			backoff = c.initialBackoff
			logger.InfoContext(ctx, "SSE stream closed, reconnecting", xslog.Backoff(backoff))
		} else {
			logger.WarnContext(ctx, "SSE connection failed, reconnecting",
				xslog.Error(err),
				xslog.Backoff(backoff),
			)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err != nil {
			backoff = min(backoff*backoffFactor, c.maxBackoff)
		}
	}
}

func (c *Client) connectOnce(ctx context.Context, sess session.Session, namespace string, h Handlers, logger *slog.Logger) error {
	token, err := sess.Token()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/realtime/"+url.PathEscape(namespace), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	xhttp.SetRequestHeaderBearer(req, token.AccessToken)
	req.Header.Set(xhttp.Accept, xhttp.MIMETextEventStream)
	req.Header.Set(xhttp.CacheControl, "no-cache")
	if sess.ID != "" {
		xhttp.SetRequestHeaderSessionID(req, sess.ID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	logger.InfoContext(ctx, "SSE connection established")

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), maxEventSize)

	var current Event
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// empty line signals end of event
			if current.Type != "" {
				if stop := c.handleEvent(ctx, current, h, logger); stop {
					return nil
				}
			}
			current = Event{}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}
		if eventType, found := strings.CutPrefix(line, "event:"); found {
			current.Type = strings.TrimSpace(eventType)
		} else if data, found := strings.CutPrefix(line, "data:"); found {
			data = strings.TrimPrefix(data, " ")
			if len(current.Data) > 0 {
				current.Data = append(current.Data, '\n')
			}
			current.Data = append(current.Data, data...)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}

	return nil
}

// handleEvent dispatches one event and reports whether the server asked the
// client to go away.
func (c *Client) handleEvent(ctx context.Context, event Event, h Handlers, logger *slog.Logger) bool {
	switch event.Type {
	case EventConnect:
		logger.DebugContext(ctx, "received connect event", xslog.Data(string(event.Data)))
		c.setState(h, StateLive)
		if h.OnConnect != nil {
			h.OnConnect()
		}

	case EventNewNotification:
		var n storage.Notification
		if err := go_json.Unmarshal(event.Data, &n); err != nil {
			logger.WarnContext(ctx, "failed to parse notification",
				xslog.Error(err),
				xslog.Data(string(event.Data)),
			)
			return false
		}
		if n.RecipientID == "" {
			logger.WarnContext(ctx, "notification without recipient", xslog.Data(string(event.Data)))
			return false
		}
		if h.OnNotification != nil {
			h.OnNotification(n)
		}

	case EventHeartbeat:
		logger.DebugContext(ctx, "received heartbeat")

	case EventShutdown:
		logger.InfoContext(ctx, "server is shutting down", xslog.Data(string(event.Data)))
		return true

	default:
		logger.DebugContext(ctx, "received unknown event type", xslog.Event(event.Type))
	}
	return false
}

func (c *Client) setState(h Handlers, s State) {
	if h.OnState != nil {
		h.OnState(s)
	}
}
