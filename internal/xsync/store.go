package xsync

import (
	"context"

	"github.com/garrettladley/inbox/internal/client/inbox"
	"github.com/garrettladley/inbox/internal/client/sse"
	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/storage"
)

// Store is the authoritative notification store, scoped per call to the
// session's user.
type Store interface {
	UnreadCount(ctx context.Context, sess session.Session) (int, error)
	// ListUnread returns unread notifications in server order, newest first.
	ListUnread(ctx context.Context, sess session.Session) ([]storage.Notification, error)
	// MarkServiceRead must be idempotent.
	MarkServiceRead(ctx context.Context, sess session.Session, serviceID string) (int64, error)
	MarkAllRead(ctx context.Context, sess session.Session) (int64, error)
}

var _ Store = (*inbox.Client)(nil)

type Subscription interface {
	// Close stops event delivery. No handler runs after Close returns.
	Close()
}

// Channel pushes events for a namespace to the handlers until the
// subscription is closed or ctx is done.
type Channel interface {
	Subscribe(ctx context.Context, sess session.Session, namespace string, h sse.Handlers) (Subscription, error)
}

// SSEChannel adapts the SSE client to Channel.
type SSEChannel struct {
	client *sse.Client
}

var _ Channel = (*SSEChannel)(nil)

func NewSSEChannel(client *sse.Client) *SSEChannel {
	return &SSEChannel{client: client}
}

func (c *SSEChannel) Subscribe(ctx context.Context, sess session.Session, namespace string, h sse.Handlers) (Subscription, error) {
	sub, err := c.client.Subscribe(ctx, sess, namespace, h)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
