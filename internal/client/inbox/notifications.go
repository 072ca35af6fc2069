package inbox

import (
	"context"
	"net/http"
	"net/url"

	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/storage"
)

type countResponse struct {
	Count int `json:"count"`
}

type updatedResponse struct {
	Updated int64 `json:"updated"`
}

type SendRequest struct {
	RecipientID string `json:"recipientId"`
	ServiceID   string `json:"serviceId"`
	Message     string `json:"message"`
}

func (c *Client) UnreadCount(ctx context.Context, sess session.Session) (int, error) {
	const route = "/api/notifications/unread-count"

	var resp countResponse
	if err := c.do(ctx, sess, http.MethodGet, route, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// ListUnread returns unread notifications in server order, newest first.
func (c *Client) ListUnread(ctx context.Context, sess session.Session) ([]storage.Notification, error) {
	const route = "/api/notifications/unread"

	var notifications []storage.Notification
	if err := c.do(ctx, sess, http.MethodGet, route, nil, &notifications); err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []storage.Notification{}
	}
	return notifications, nil
}

// MarkServiceRead marks every unread notification for serviceID as read.
// Marking an already read service succeeds with zero updated.
func (c *Client) MarkServiceRead(ctx context.Context, sess session.Session, serviceID string) (int64, error) {
	route := "/api/notifications/services/" + url.PathEscape(serviceID) + "/read"

	var resp updatedResponse
	if err := c.do(ctx, sess, http.MethodPost, route, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (c *Client) MarkAllRead(ctx context.Context, sess session.Session) (int64, error) {
	const route = "/api/notifications/read-all"

	var resp updatedResponse
	if err := c.do(ctx, sess, http.MethodPost, route, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

// Send creates a notification from the session's user to req.RecipientID.
func (c *Client) Send(ctx context.Context, sess session.Session, req SendRequest) (*storage.Notification, error) {
	const route = "/api/notifications"

	var n storage.Notification
	if err := c.do(ctx, sess, http.MethodPost, route, req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
