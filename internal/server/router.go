package server

import (
	"log/slog"
	"net/http"

	"github.com/garrettladley/inbox/internal/server/handler"
	servermw "github.com/garrettladley/inbox/internal/server/middleware"
	"github.com/garrettladley/inbox/internal/service/notification"
	"github.com/garrettladley/inbox/internal/service/user"
	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/xhttp/middleware"
)

type Deps struct {
	Logger        *slog.Logger
	Notifications notification.Service
	Users         user.Service
	Limiter       storage.RateLimiter
	// Namespace is the only event channel namespace served.
	Namespace  string
	SSEOptions []handler.SSEOption
}

func NewRouter(d Deps) http.Handler {
	notificationsHandler := handler.NewNotifications(d.Notifications)
	sseHandler := handler.NewSSE(d.Notifications, d.Namespace, d.SSEOptions...)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/notifications/unread-count", notificationsHandler.HandleUnreadCount)
	apiMux.HandleFunc("GET /api/notifications/unread", notificationsHandler.HandleListUnread)
	apiMux.HandleFunc("POST /api/notifications/services/{serviceId}/read", notificationsHandler.HandleMarkServiceRead)
	apiMux.HandleFunc("POST /api/notifications/read-all", notificationsHandler.HandleMarkAllRead)
	apiMux.HandleFunc("POST /api/notifications", notificationsHandler.HandleCreate)
	apiWrapped := middleware.Chain(apiMux,
		middleware.VersionCheck,
		servermw.BearerAuth(d.Users),
		middleware.Gzip,
	)

	realtimeMux := http.NewServeMux()
	realtimeMux.HandleFunc("GET /api/realtime/{namespace}", sseHandler.HandleStream)
	realtimeWrapped := middleware.Chain(realtimeMux,
		middleware.VersionCheck,
		servermw.BearerAuth(d.Users),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.HandleHealth)
	mux.Handle("/api/notifications", apiWrapped)
	mux.Handle("/api/notifications/", apiWrapped)
	mux.Handle("/api/realtime/", realtimeWrapped)

	return middleware.Chain(mux,
		middleware.RequestID(middleware.TrustRequestIDHeader()),
		middleware.Logger(d.Logger),
		middleware.ClientSessionID,
		middleware.Recovery,
		middleware.Logging,
		middleware.ShutdownContext,
		middleware.SecurityHeaders,
		servermw.RateLimit(d.Limiter),
	)
}
