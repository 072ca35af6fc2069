package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/garrettladley/inbox/internal/storage"
)

func TestPrintNotifications(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		messages []storage.Notification
		want     []string
	}{
		{name: "empty", want: []string{"nothing unread"}},
		{
			name: "rows",
			messages: []storage.Notification{
				{ServiceID: "svc-1", SenderID: "bob", Message: "is this\nstill available?", CreatedAt: time.Now()},
				{ServiceID: "svc-2", SenderID: "carol", Message: "hi"},
			},
			want: []string{"SERVICE", "svc-1", "bob", "is this still available?", "svc-2", "carol"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := printNotifications(&buf, tt.messages); err != nil {
				t.Fatalf("printNotifications() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}
