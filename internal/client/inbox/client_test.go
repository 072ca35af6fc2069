package inbox

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/version"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithLogger(xslog.Discard()), WithTimeout(5*time.Second))
}

func TestClientRequests(t *testing.T) {
	t.Parallel()

	sess := session.New("alice", "secret")
	sess.ID = "session-1"

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	unread := []storage.Notification{
		{ID: "n2", ServiceID: "svc-2", RecipientID: "alice", SenderID: "bob", Message: "b", CreatedAt: created.Add(time.Minute)},
		{ID: "n1", ServiceID: "svc/1", RecipientID: "alice", SenderID: "bob", Message: "a", CreatedAt: created},
	}

	tests := []struct {
		name       string
		wantMethod string
		wantPath   string
		respond    any
		call       func(t *testing.T, c *Client) any
		want       any
	}{
		{
			name:       "unread count",
			wantMethod: http.MethodGet,
			wantPath:   "/api/notifications/unread-count",
			respond:    map[string]int{"count": 3},
			call: func(t *testing.T, c *Client) any {
				n, err := c.UnreadCount(t.Context(), sess)
				if err != nil {
					t.Fatalf("UnreadCount() error = %v", err)
				}
				return n
			},
			want: 3,
		},
		{
			name:       "list unread",
			wantMethod: http.MethodGet,
			wantPath:   "/api/notifications/unread",
			respond:    unread,
			call: func(t *testing.T, c *Client) any {
				list, err := c.ListUnread(t.Context(), sess)
				if err != nil {
					t.Fatalf("ListUnread() error = %v", err)
				}
				return list
			},
			want: unread,
		},
		{
			name:       "empty list is not nil",
			wantMethod: http.MethodGet,
			wantPath:   "/api/notifications/unread",
			respond:    nil,
			call: func(t *testing.T, c *Client) any {
				list, err := c.ListUnread(t.Context(), sess)
				if err != nil {
					t.Fatalf("ListUnread() error = %v", err)
				}
				return list
			},
			want: []storage.Notification{},
		},
		{
			name:       "mark service read escapes id",
			wantMethod: http.MethodPost,
			wantPath:   "/api/notifications/services/svc%2F1/read",
			respond:    map[string]int{"updated": 2},
			call: func(t *testing.T, c *Client) any {
				n, err := c.MarkServiceRead(t.Context(), sess, "svc/1")
				if err != nil {
					t.Fatalf("MarkServiceRead() error = %v", err)
				}
				return n
			},
			want: int64(2),
		},
		{
			name:       "mark all read",
			wantMethod: http.MethodPost,
			wantPath:   "/api/notifications/read-all",
			respond:    map[string]int{"updated": 5},
			call: func(t *testing.T, c *Client) any {
				n, err := c.MarkAllRead(t.Context(), sess)
				if err != nil {
					t.Fatalf("MarkAllRead() error = %v", err)
				}
				return n
			},
			want: int64(5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.wantMethod {
					t.Errorf("method = %s, want %s", r.Method, tt.wantMethod)
				}
				if r.URL.EscapedPath() != tt.wantPath {
					t.Errorf("path = %s, want %s", r.URL.EscapedPath(), tt.wantPath)
				}
				if got := r.Header.Get(xhttp.Authorization); got != "Bearer secret" {
					t.Errorf("Authorization = %q, want Bearer secret", got)
				}
				if got := r.Header.Get(xhttp.XSessionID); got != "session-1" {
					t.Errorf("%s = %q, want session-1", xhttp.XSessionID, got)
				}
				if r.Header.Get(version.Header) == "" {
					t.Errorf("missing %s header", version.Header)
				}
				xhttp.WriteOK(w, tt.respond)
			})

			if diff := cmp.Diff(tt.want, tt.call(t, c)); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClientSend(t *testing.T) {
	t.Parallel()

	want := SendRequest{RecipientID: "alice", ServiceID: "svc-1", Message: "hello"}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var got SendRequest
		if err := go_json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("body mismatch (-want +got):\n%s", diff)
		}
		xhttp.WriteCreated(w, storage.Notification{ID: "n1", RecipientID: got.RecipientID, ServiceID: got.ServiceID, SenderID: "bob", Message: got.Message})
	})

	n, err := c.Send(t.Context(), session.New("bob", "token"), want)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if n.ID != "n1" || n.SenderID != "bob" {
		t.Errorf("Send() = %+v, want id n1 from bob", n)
	}
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		status        int
		header        map[string]string
		body          string
		want          *APIError
		wantRetryable bool
	}{
		{
			name:   "json error",
			status: http.StatusUnauthorized,
			body:   `{"error":"unauthorized","message":"invalid token"}`,
			want:   &APIError{StatusCode: http.StatusUnauthorized, Code: "unauthorized", Message: "invalid token"},
		},
		{
			name:          "plain text error",
			status:        http.StatusBadGateway,
			body:          "upstream down",
			want:          &APIError{StatusCode: http.StatusBadGateway, Message: "upstream down"},
			wantRetryable: true,
		},
		{
			name:          "rate limited",
			status:        http.StatusTooManyRequests,
			header:        map[string]string{xhttp.RetryAfter: "7"},
			body:          `{"error":"rate_limited","message":"rate limit exceeded"}`,
			want:          &APIError{StatusCode: http.StatusTooManyRequests, Code: "rate_limited", Message: "rate limit exceeded", RetryAfter: 7 * time.Second},
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.UnreadCount(t.Context(), session.New("alice", "token"))
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if diff := cmp.Diff(tt.want, apiErr); diff != "" {
				t.Errorf("APIError mismatch (-want +got):\n%s", diff)
			}
			if apiErr.Retryable() != tt.wantRetryable {
				t.Errorf("Retryable() = %v, want %v", apiErr.Retryable(), tt.wantRetryable)
			}
		})
	}
}

func TestClientWithoutCredentials(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("request sent without credentials")
	})

	if _, err := c.UnreadCount(t.Context(), session.Session{UserID: "alice"}); !errors.Is(err, session.ErrNoCredentials) {
		t.Errorf("UnreadCount() error = %v, want ErrNoCredentials", err)
	}
}
