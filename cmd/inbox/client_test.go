package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/xhttp"
)

type requestLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *requestLog) add(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}

func newInboxServer(t *testing.T) *requestLog {
	t.Helper()

	log := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.Path)
		switch {
		case r.URL.Path == "/api/notifications/unread-count":
			xhttp.WriteOK(w, map[string]int{"count": 2})
		case r.URL.Path == "/api/notifications/unread":
			xhttp.WriteOK(w, []storage.Notification{
				{ID: "n2", ServiceID: "svc-1", SenderID: "bob", Message: "hello"},
				{ID: "n1", ServiceID: "svc-2", SenderID: "carol", Message: "hi"},
			})
		case strings.HasSuffix(r.URL.Path, "/read"), r.URL.Path == "/api/notifications/read-all":
			xhttp.WriteOK(w, map[string]int64{"updated": 1})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("INBOX_SERVER_URL", srv.URL)
	t.Setenv("INBOX_USER_ID", "alice")
	t.Setenv("INBOX_TOKEN", "tok")
	return log
}

func TestOneShotCommandsFetchOnce(t *testing.T) {
	tests := []struct {
		name      string
		cmd       func() *cobra.Command
		args      []string
		wantPaths []string
		wantOut   string
	}{
		{
			name:      "count",
			cmd:       countCmd,
			wantPaths: []string{"/api/notifications/unread-count"},
			wantOut:   "2",
		},
		{
			name:      "list",
			cmd:       listCmd,
			wantPaths: []string{"/api/notifications/unread"},
			wantOut:   "svc-1",
		},
		{
			name:      "read-all",
			cmd:       readAllCmd,
			wantPaths: []string{"/api/notifications/read-all"},
			wantOut:   "0 unread",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := newInboxServer(t)

			var out bytes.Buffer
			cmd := tt.cmd()
			cmd.SetOut(&out)
			cmd.SetArgs(append([]string{}, tt.args...))
			if err := cmd.ExecuteContext(t.Context()); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			if diff := cmp.Diff(tt.wantPaths, log.all()); diff != "" {
				t.Errorf("requests mismatch (-want +got):\n%s", diff)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output = %q, want it to contain %q", out.String(), tt.wantOut)
			}
		})
	}
}
