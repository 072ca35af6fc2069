package notification

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/garrettladley/inbox/internal/storage"
)

const MaxMessageLength = 2000

type CreateRequest struct {
	RecipientID string `json:"recipientId"`
	ServiceID   string `json:"serviceId"`
	Message     string `json:"message"`
}

func (r CreateRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.RecipientID) == "" {
		errs["recipientId"] = "required"
	}
	if strings.TrimSpace(r.ServiceID) == "" {
		errs["serviceId"] = "required"
	}
	switch n := utf8.RuneCountInString(r.Message); {
	case strings.TrimSpace(r.Message) == "":
		errs["message"] = "required"
	case n > MaxMessageLength:
		errs["message"] = "must be at most 2000 characters"
	}
	return errs
}

type Service interface {
	// Create stores a new unread notification sent by senderID and fans it out
	// to the recipient's live subscribers.
	Create(ctx context.Context, senderID string, req CreateRequest) (storage.Notification, error)

	UnreadCount(ctx context.Context, userID string) (int, error)

	ListUnread(ctx context.Context, userID string) ([]storage.Notification, error)

	// MarkServiceRead is idempotent; a repeat call reports zero updated rows.
	MarkServiceRead(ctx context.Context, userID string, serviceID string) (int64, error)

	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// Subscribe creates a subscription for live notifications addressed to userID.
	// Returns a channel that receives notifications and an unsubscribe function.
	Subscribe(ctx context.Context, userID string) (<-chan storage.Notification, func(), error)
}
