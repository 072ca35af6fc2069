package storage

import (
	"context"
	"fmt"
	"time"
)

// Notification is one unread item for a recipient, grouped by the marketplace
// service (conversation) it belongs to.
type Notification struct {
	ID          string    `json:"id"`
	ServiceID   string    `json:"serviceId"`
	RecipientID string    `json:"recipientId"`
	SenderID    string    `json:"senderId,omitempty"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NotificationStore is the server-side source of truth for unread notifications.
type NotificationStore interface {
	// Add persists n and publishes it to the recipient's live channel.
	Add(ctx context.Context, n Notification) error

	UnreadCount(ctx context.Context, userID string) (int, error)

	// ListUnread returns the user's unread notifications, newest first.
	ListUnread(ctx context.Context, userID string) ([]Notification, error)

	// MarkServiceRead marks every unread notification of serviceID as read.
	// Repeated calls are no-ops and report zero rows updated.
	MarkServiceRead(ctx context.Context, userID string, serviceID string) (int64, error)

	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// Subscribe returns a channel that receives notifications for a user.
	// The returned function should be called to unsubscribe.
	Subscribe(ctx context.Context, userID string) (<-chan Notification, func(), error)
}

// NotificationRecords is the persistence half of a NotificationStore.
type NotificationRecords interface {
	Insert(ctx context.Context, n Notification) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	ListUnread(ctx context.Context, userID string) ([]Notification, error)
	MarkServiceRead(ctx context.Context, userID string, serviceID string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// LivePublisher is the real-time half of a NotificationStore.
type LivePublisher interface {
	Publish(ctx context.Context, n Notification) error
	Subscribe(ctx context.Context, userID string) (<-chan Notification, func(), error)
}

var _ NotificationStore = (*LiveNotificationStore)(nil)

// LiveNotificationStore pairs a record store with a live publisher.
type LiveNotificationStore struct {
	NotificationRecords
	live LivePublisher
}

func NewNotificationStore(records NotificationRecords, live LivePublisher) *LiveNotificationStore {
	return &LiveNotificationStore{
		NotificationRecords: records,
		live:                live,
	}
}

func (s *LiveNotificationStore) Add(ctx context.Context, n Notification) error {
	if err := s.Insert(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if err := s.live.Publish(ctx, n); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (s *LiveNotificationStore) Subscribe(ctx context.Context, userID string) (<-chan Notification, func(), error) {
	return s.live.Subscribe(ctx, userID)
}
