package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/inbox/internal/apperr"
	"github.com/garrettladley/inbox/internal/service/notification"
	"github.com/garrettladley/inbox/internal/xcontext"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

const (
	EventConnect         = "connect"
	EventNewNotification = "newNotification"
	EventHeartbeat       = "heartbeat"
	EventShutdown        = "shutdown"

	defaultHeartbeatInterval = 30 * time.Second
	sseWriteTimeout          = 45 * time.Second
)

type SSE struct {
	service           notification.Service
	namespace         string
	heartbeatInterval time.Duration
}

type SSEOption func(*SSE)

func WithHeartbeatInterval(d time.Duration) SSEOption {
	return func(h *SSE) {
		h.heartbeatInterval = d
	}
}

// NewSSE serves the event channel for a single namespace.
func NewSSE(service notification.Service, namespace string, opts ...SSEOption) *SSE {
	h := &SSE{
		service:           service,
		namespace:         namespace,
		heartbeatInterval: defaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type connectEvent struct {
	UserID    string `json:"userId"`
	Namespace string `json:"namespace"`
	Time      string `json:"time"`
}

type heartbeatEvent struct {
	Time string `json:"time"`
}

type shutdownEvent struct {
	Reason string `json:"reason"`
	Time   string `json:"time"`
}

// HandleStream handles GET /api/realtime/{namespace}.
func (h *SSE) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	if ns := r.PathValue("namespace"); ns != h.namespace {
		apperr.WriteError(ctx, w, apperr.NotFound("unknown_namespace", "unknown event namespace"))
		return
	}

	userID, ok := xcontext.GetUserID(ctx)
	if !ok {
		apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "missing user context"))
		return
	}

	notifCh, unsubscribe, err := h.service.Subscribe(ctx, userID)
	if err != nil {
		apperr.WriteError(ctx, w, apperr.Internal("internal_error", "failed to subscribe", err))
		return
	}
	defer unsubscribe()

	xhttp.SetHeadersEventStream(w)

	logger.InfoContext(ctx, "SSE connection established", xslog.Namespace(h.namespace))

	rc := http.NewResponseController(w)

	if err := writeSSEEvent(rc, w, EventConnect, connectEvent{
		UserID:    userID,
		Namespace: h.namespace,
		Time:      time.Now().Format(time.RFC3339),
	}); err != nil {
		logger.ErrorContext(ctx, "failed to send connect event", xslog.Error(err))
		return
	}

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			if xcontext.IsShutdownInProgress(ctx) {
				logger.InfoContext(ctx, "SSE graceful shutdown initiated")

				// best effort
				_ = writeSSEEvent(rc, w, EventShutdown, shutdownEvent{
					Reason: "server-restart",
					Time:   time.Now().Format(time.RFC3339),
				})
				return
			}
			logger.InfoContext(ctx, "SSE connection closed by client")
			return

		case n, ok := <-notifCh:
			if !ok {
				if ctx.Err() != nil {
					notifCh = nil
					continue
				}
				logger.InfoContext(ctx, "notification channel closed")
				return
			}

			if err := writeSSEEvent(rc, w, EventNewNotification, n); err != nil {
				logger.ErrorContext(ctx, "failed to send notification event", xslog.Error(err))
				return
			}
			logger.DebugContext(ctx, "sent notification event", xslog.NotificationID(n.ID))

		case t := <-heartbeat.C:
			if err := writeSSEEvent(rc, w, EventHeartbeat, heartbeatEvent{
				Time: t.Format(time.RFC3339),
			}); err != nil {
				logger.ErrorContext(ctx, "failed to send heartbeat", xslog.Error(err))
				return
			}
		}
	}
}

func writeSSEEvent(rc *http.ResponseController, w http.ResponseWriter, event string, data any) error {
	if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	jsonData, err := go_json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	if err := rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	return nil
}
