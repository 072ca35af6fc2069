package handler

import (
	"net/http"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/inbox/internal/apperr"
	"github.com/garrettladley/inbox/internal/service/notification"
	"github.com/garrettladley/inbox/internal/xcontext"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

type Notifications struct {
	service notification.Service
}

func NewNotifications(service notification.Service) *Notifications {
	return &Notifications{service: service}
}

type countResponse struct {
	Count int `json:"count"`
}

type updatedResponse struct {
	Updated int64 `json:"updated"`
}

// HandleUnreadCount handles GET /api/notifications/unread-count requests.
func (h *Notifications) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := xcontext.GetUserID(ctx)
	if !ok {
		apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "missing user context"))
		return
	}

	count, err := h.service.UnreadCount(ctx, userID)
	if err != nil {
		apperr.WriteError(ctx, w, apperr.Internal("internal_error", "failed to count notifications", err))
		return
	}

	xhttp.WriteOK(w, countResponse{Count: count})
}

// HandleListUnread handles GET /api/notifications/unread requests.
// Notifications are returned newest first.
func (h *Notifications) HandleListUnread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	userID, ok := xcontext.GetUserID(ctx)
	if !ok {
		apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "missing user context"))
		return
	}

	notifications, err := h.service.ListUnread(ctx, userID)
	if err != nil {
		apperr.WriteError(ctx, w, apperr.Internal("internal_error", "failed to fetch notifications", err))
		return
	}

	logger.DebugContext(ctx, "fetched unread notifications", xslog.Count(len(notifications)))

	xhttp.WriteOK(w, notifications)
}

// HandleMarkServiceRead handles POST /api/notifications/services/{serviceId}/read.
// Repeating the call is not an error; it reports zero updated.
func (h *Notifications) HandleMarkServiceRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	userID, ok := xcontext.GetUserID(ctx)
	if !ok {
		apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "missing user context"))
		return
	}

	serviceID := r.PathValue("serviceId")
	updated, err := h.service.MarkServiceRead(ctx, userID, serviceID)
	if err != nil {
		if appErr := apperr.AsError(err); appErr != nil {
			apperr.WriteError(ctx, w, appErr)
			return
		}
		apperr.WriteError(ctx, w, apperr.Internal("internal_error", "failed to mark notifications read", err))
		return
	}

	logger.InfoContext(ctx, "marked service read",
		xslog.ServiceID(serviceID),
		xslog.Updated(updated),
	)

	xhttp.WriteOK(w, updatedResponse{Updated: updated})
}

// HandleMarkAllRead handles POST /api/notifications/read-all.
func (h *Notifications) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	userID, ok := xcontext.GetUserID(ctx)
	if !ok {
		apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "missing user context"))
		return
	}

	updated, err := h.service.MarkAllRead(ctx, userID)
	if err != nil {
		apperr.WriteError(ctx, w, apperr.Internal("internal_error", "failed to mark notifications read", err))
		return
	}

	logger.InfoContext(ctx, "marked all read", xslog.Updated(updated))

	xhttp.WriteOK(w, updatedResponse{Updated: updated})
}

// HandleCreate handles POST /api/notifications. The caller is the sender.
func (h *Notifications) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	userID, ok := xcontext.GetUserID(ctx)
	if !ok {
		apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "missing user context"))
		return
	}

	var req notification.CreateRequest
	if err := go_json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(ctx, w, apperr.BadRequest("invalid_request", "invalid JSON body"))
		return
	}

	n, err := h.service.Create(ctx, userID, req)
	if err != nil {
		if appErr := apperr.AsError(err); appErr != nil {
			apperr.WriteError(ctx, w, appErr)
			return
		}
		apperr.WriteError(ctx, w, apperr.Internal("internal_error", "failed to create notification", err))
		return
	}

	logger.InfoContext(ctx, "notification created",
		xslog.NotificationID(n.ID),
		xslog.RecipientID(n.RecipientID),
		xslog.ServiceID(n.ServiceID),
	)

	xhttp.WriteCreated(w, n)
}
