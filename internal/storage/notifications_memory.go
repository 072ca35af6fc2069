package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

var _ NotificationRecords = (*MemoryNotificationRecords)(nil)

type memoryRecord struct {
	n    Notification
	seq  uint64
	read bool
}

// MemoryNotificationRecords keeps notifications in process. Used for local
// development and tests.
type MemoryNotificationRecords struct {
	mu      sync.RWMutex
	seq     uint64
	records map[string][]*memoryRecord
}

func NewMemoryNotificationRecords() *MemoryNotificationRecords {
	return &MemoryNotificationRecords{
		records: make(map[string][]*memoryRecord),
	}
}

func (m *MemoryNotificationRecords) Insert(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records[n.RecipientID] {
		if r.n.ID == n.ID {
			return nil
		}
	}

	m.seq++
	m.records[n.RecipientID] = append(m.records[n.RecipientID], &memoryRecord{n: n, seq: m.seq})
	return nil
}

func (m *MemoryNotificationRecords) UnreadCount(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int
	for _, r := range m.records[userID] {
		if !r.read {
			count++
		}
	}
	return count, nil
}

func (m *MemoryNotificationRecords) ListUnread(_ context.Context, userID string) ([]Notification, error) {
	m.mu.RLock()
	unread := make([]*memoryRecord, 0, len(m.records[userID]))
	for _, r := range m.records[userID] {
		if !r.read {
			unread = append(unread, r)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(unread, func(a, b *memoryRecord) int {
		if c := b.n.CreatedAt.Compare(a.n.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	notifications := make([]Notification, len(unread))
	for i, r := range unread {
		notifications[i] = r.n
	}
	return notifications, nil
}

func (m *MemoryNotificationRecords) MarkServiceRead(_ context.Context, userID string, serviceID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var updated int64
	for _, r := range m.records[userID] {
		if !r.read && r.n.ServiceID == serviceID {
			r.read = true
			updated++
		}
	}
	return updated, nil
}

func (m *MemoryNotificationRecords) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var updated int64
	for _, r := range m.records[userID] {
		if !r.read {
			r.read = true
			updated++
		}
	}
	return updated, nil
}
