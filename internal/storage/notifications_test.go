package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/garrettladley/inbox/internal/db"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedNotifications() []Notification {
	return []Notification{
		{ID: "n1", ServiceID: "svc-1", RecipientID: "alice", SenderID: "bob", Message: "hi", CreatedAt: baseTime},
		{ID: "n2", ServiceID: "svc-2", RecipientID: "alice", SenderID: "carol", Message: "offer", CreatedAt: baseTime.Add(time.Minute)},
		{ID: "n3", ServiceID: "svc-1", RecipientID: "alice", SenderID: "bob", Message: "still there?", CreatedAt: baseTime.Add(2 * time.Minute)},
		{ID: "n4", ServiceID: "svc-1", RecipientID: "bob", SenderID: "alice", Message: "yes", CreatedAt: baseTime.Add(3 * time.Minute)},
	}
}

// testRecordsContract exercises the behaviour every NotificationRecords must share.
func testRecordsContract(t *testing.T, records NotificationRecords) {
	t.Helper()
	ctx := t.Context()

	for _, n := range seedNotifications() {
		if err := records.Insert(ctx, n); err != nil {
			t.Fatalf("Insert(%s) error = %v", n.ID, err)
		}
	}
	// duplicate ids are ignored
	if err := records.Insert(ctx, seedNotifications()[0]); err != nil {
		t.Fatalf("Insert(duplicate) error = %v", err)
	}

	assertUnread(t, ctx, records, "alice", []string{"n3", "n2", "n1"})
	assertUnread(t, ctx, records, "bob", []string{"n4"})

	updated, err := records.MarkServiceRead(ctx, "alice", "svc-1")
	if err != nil {
		t.Fatalf("MarkServiceRead() error = %v", err)
	}
	if updated != 2 {
		t.Errorf("MarkServiceRead() updated = %d, want 2", updated)
	}
	assertUnread(t, ctx, records, "alice", []string{"n2"})
	// bob's svc-1 is untouched
	assertUnread(t, ctx, records, "bob", []string{"n4"})

	updated, err = records.MarkServiceRead(ctx, "alice", "svc-1")
	if err != nil {
		t.Fatalf("MarkServiceRead() second call error = %v", err)
	}
	if updated != 0 {
		t.Errorf("MarkServiceRead() second call updated = %d, want 0", updated)
	}

	updated, err = records.MarkAllRead(ctx, "alice")
	if err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	if updated != 1 {
		t.Errorf("MarkAllRead() updated = %d, want 1", updated)
	}
	assertUnread(t, ctx, records, "alice", []string{})

	if _, err := records.MarkAllRead(ctx, "alice"); err != nil {
		t.Errorf("MarkAllRead() on empty inbox error = %v", err)
	}
}

func assertUnread(t *testing.T, ctx context.Context, records NotificationRecords, userID string, wantIDs []string) {
	t.Helper()

	count, err := records.UnreadCount(ctx, userID)
	if err != nil {
		t.Fatalf("UnreadCount(%s) error = %v", userID, err)
	}
	if count != len(wantIDs) {
		t.Errorf("UnreadCount(%s) = %d, want %d", userID, count, len(wantIDs))
	}

	list, err := records.ListUnread(ctx, userID)
	if err != nil {
		t.Fatalf("ListUnread(%s) error = %v", userID, err)
	}
	gotIDs := make([]string, len(list))
	for i, n := range list {
		gotIDs[i] = n.ID
	}
	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Errorf("ListUnread(%s) ids mismatch (-want +got):\n%s", userID, diff)
	}
}

func TestMemoryNotificationRecords(t *testing.T) {
	t.Parallel()
	testRecordsContract(t, NewMemoryNotificationRecords())
}

func TestSQLiteNotificationRecords(t *testing.T) {
	t.Parallel()

	sqlDB, err := db.OpenSQLite(t.Context(), filepath.Join(t.TempDir(), "inbox.db"))
	if err != nil {
		if strings.Contains(err.Error(), "cgo") {
			t.Skip("go-sqlite3 requires cgo")
		}
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	testRecordsContract(t, NewSQLiteNotificationRecords(sqlDB))
}

func TestLiveNotificationStoreAdd(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	live := NewMemoryLivePublisher()
	store := NewNotificationStore(NewMemoryNotificationRecords(), live)

	ch, unsubscribe, err := store.Subscribe(ctx, "alice")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsubscribe()

	n := seedNotifications()[0]
	if err := store.Add(ctx, n); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	select {
	case got := <-ch:
		if diff := cmp.Diff(n, got); diff != "" {
			t.Errorf("published notification mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published notification")
	}

	count, err := store.UnreadCount(ctx, "alice")
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("UnreadCount() = %d, want 1", count)
	}
}
