package xhttp

import (
	"net/http"
	"strconv"
	"time"
)

const (
	XForwardedFor    = "X-Forwarded-For"
	XContentTypeOpts = "X-Content-Type-Options"
	XFrameOpts       = "X-Frame-Options"
	XXSSProtection   = "X-Xss-Protection"
	ReferrerPolicy   = "Referrer-Policy"
	XRateLimitReason = "X-Ratelimit-Reason"
	XSessionID       = "X-Client-Session-Id"
	XRequestID       = "X-Request-Id"
	XAccelBuffering  = "X-Accel-Buffering"
)

const (
	Accept          = "Accept"
	AcceptEncoding  = "Accept-Encoding"
	Authorization   = "Authorization"
	CacheControl    = "Cache-Control"
	Connection      = "Connection"
	ContentEncoding = "Content-Encoding"
	ContentLength   = "Content-Length"
	ContentType     = "Content-Type"
	RetryAfter      = "Retry-After"
	UserAgent       = "User-Agent"
	Vary            = "Vary"
)

const (
	MIMEApplicationJSON = "application/json"
	MIMETextEventStream = "text/event-stream"
	MIMETextHTML        = "text/html"
)

func SetHeaderRequestID(w http.ResponseWriter, requestID string) {
	w.Header().Set(XRequestID, requestID)
}

func SetHeaderContentTypeApplicationJSON(w http.ResponseWriter) {
	w.Header().Set(ContentType, MIMEApplicationJSON)
}

func SetHeaderContentTypeTextHTML(w http.ResponseWriter) {
	w.Header().Set(ContentType, MIMETextHTML)
}

// SetHeadersEventStream prepares w for a server-sent event stream.
func SetHeadersEventStream(w http.ResponseWriter) {
	h := w.Header()
	h.Set(ContentType, MIMETextEventStream)
	h.Set(CacheControl, "no-cache")
	h.Set(Connection, "keep-alive")
	h.Set(XAccelBuffering, "no")
}

func SetHeaderRetryAfter(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set(RetryAfter, strconv.Itoa(int(retryAfter.Seconds())))
}

func SetRequestHeaderSessionID(r *http.Request, sessionID string) {
	r.Header.Set(XSessionID, sessionID)
}

func SetRequestHeaderBearer(r *http.Request, token string) {
	r.Header.Set(Authorization, "Bearer "+token)
}
