package sse

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

func writeEvents(w http.ResponseWriter, frames ...string) {
	for _, f := range frames {
		_, _ = fmt.Fprint(w, f)
	}
	_ = http.NewResponseController(w).Flush()
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL,
		WithLogger(xslog.Discard()),
		WithBackoff(10*time.Millisecond, 50*time.Millisecond),
	)
}

func TestSubscribeDispatchesEvents(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/realtime/marketplace-chat" {
			t.Errorf("path = %s, want /api/realtime/marketplace-chat", r.URL.Path)
		}
		if got := r.Header.Get(xhttp.Authorization); got != "Bearer token" {
			t.Errorf("Authorization = %q, want Bearer token", got)
		}
		if got := r.Header.Get(xhttp.Accept); got != xhttp.MIMETextEventStream {
			t.Errorf("Accept = %q, want %q", got, xhttp.MIMETextEventStream)
		}

		xhttp.SetHeadersEventStream(w)
		writeEvents(w,
			"event: connect\ndata: {\"userId\":\"alice\"}\n\n",
			": comment line\n\n",
			"event: heartbeat\ndata: {}\n\n",
			"event: newNotification\ndata: not json\n\n",
			"event: newNotification\ndata: {\"serviceId\":\"svc-0\"}\n\n",
			"event: newNotification\ndata: {\"id\":\"n1\",\"serviceId\":\"svc-1\",\n",
			"data: \"recipientId\":\"alice\"}\n\n",
		)
		<-r.Context().Done()
	})

	connected := make(chan struct{}, 4)
	received := make(chan storage.Notification, 4)

	sub, err := c.Subscribe(t.Context(), session.New("alice", "token"), "marketplace-chat", Handlers{
		OnConnect:      func() { connected <- struct{}{} },
		OnNotification: func(n storage.Notification) { received <- n },
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect not called")
	}

	select {
	case n := <-received:
		if n.ID != "n1" || n.ServiceID != "svc-1" || n.RecipientID != "alice" {
			t.Errorf("notification = %+v, want n1/svc-1/alice", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnNotification not called")
	}

	select {
	case n := <-received:
		t.Errorf("unexpected extra notification %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeReconnects(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch attempts.Add(1) {
		case 1:
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		case 2:
			xhttp.SetHeadersEventStream(w)
			writeEvents(w,
				"event: connect\ndata: {}\n\n",
				"event: shutdown\ndata: {\"reason\":\"server-restart\"}\n\n",
			)
		default:
			xhttp.SetHeadersEventStream(w)
			writeEvents(w, "event: connect\ndata: {}\n\n")
			<-r.Context().Done()
		}
	})

	var connects atomic.Int32
	states := make(chan State, 16)
	sub, err := c.Subscribe(t.Context(), session.New("alice", "token"), "marketplace-chat", Handlers{
		OnConnect: func() { connects.Add(1) },
		OnState:   func(s State) { states <- s },
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	deadline := time.After(3 * time.Second)
	for connects.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("connects = %d, want 2", connects.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	sub.Close()
	sub.Close()

	var seen []State
	for len(states) > 0 {
		seen = append(seen, <-states)
	}
	if len(seen) == 0 || seen[0] != StateConnecting || seen[len(seen)-1] != StateClosed {
		t.Errorf("states = %v, want connecting first and closed last", seen)
	}
	if got := attempts.Load(); got < 3 {
		t.Errorf("attempts = %d, want at least 3", got)
	}
}

func TestSubscribeValidation(t *testing.T) {
	t.Parallel()

	c := NewClient("http://127.0.0.1:0", WithLogger(xslog.Discard()))

	if _, err := c.Subscribe(t.Context(), session.New("alice", "token"), "", Handlers{}); err != ErrEmptyNamespace {
		t.Errorf("Subscribe(empty namespace) error = %v, want ErrEmptyNamespace", err)
	}
	if _, err := c.Subscribe(t.Context(), session.Session{UserID: "alice"}, "marketplace-chat", Handlers{}); err != session.ErrNoCredentials {
		t.Errorf("Subscribe(no token) error = %v, want ErrNoCredentials", err)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateConnecting, "connecting"},
		{StateLive, "live"},
		{StateReconnecting, "reconnecting"},
		{StateClosed, "closed"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
