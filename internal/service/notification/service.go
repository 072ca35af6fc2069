package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garrettladley/inbox/internal/apperr"
	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/validator"
)

type Store struct {
	store storage.NotificationStore
	now   func() time.Time
	newID func() string
}

var _ Service = (*Store)(nil)

func NewStore(store storage.NotificationStore) *Store {
	return &Store{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (s *Store) Create(ctx context.Context, senderID string, req CreateRequest) (storage.Notification, error) {
	if err := validator.Validate(req); err != nil {
		return storage.Notification{}, err
	}

	n := storage.Notification{
		ID:          s.newID(),
		ServiceID:   strings.TrimSpace(req.ServiceID),
		RecipientID: strings.TrimSpace(req.RecipientID),
		SenderID:    senderID,
		Message:     req.Message,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.store.Add(ctx, n); err != nil {
		return storage.Notification{}, fmt.Errorf("adding notification: %w", err)
	}
	return n, nil
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *Store) ListUnread(ctx context.Context, userID string) ([]storage.Notification, error) {
	notifications, err := s.store.ListUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	if notifications == nil {
		notifications = []storage.Notification{}
	}
	return notifications, nil
}

func (s *Store) MarkServiceRead(ctx context.Context, userID string, serviceID string) (int64, error) {
	if strings.TrimSpace(serviceID) == "" {
		return 0, apperr.BadRequest("missing_service_id", "service id is required")
	}
	return s.store.MarkServiceRead(ctx, userID, serviceID)
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Store) Subscribe(ctx context.Context, userID string) (<-chan storage.Notification, func(), error) {
	return s.store.Subscribe(ctx, userID)
}
