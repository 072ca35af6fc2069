package storage

import (
	"context"
	"sync"
)

const memorySubscriberBuffer = 16

var _ LivePublisher = (*MemoryLivePublisher)(nil)

// MemoryLivePublisher fans notifications out to subscribers in this process.
// Slow subscribers drop events; clients reconcile by pulling.
type MemoryLivePublisher struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]chan Notification
}

func NewMemoryLivePublisher() *MemoryLivePublisher {
	return &MemoryLivePublisher{
		subs: make(map[string]map[uint64]chan Notification),
	}
}

func (p *MemoryLivePublisher) Publish(_ context.Context, n Notification) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.subs[n.RecipientID] {
		select {
		case ch <- n:
		default:
		}
	}
	return nil
}

func (p *MemoryLivePublisher) Subscribe(ctx context.Context, userID string) (<-chan Notification, func(), error) {
	ch := make(chan Notification, memorySubscriberBuffer)

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	if p.subs[userID] == nil {
		p.subs[userID] = make(map[uint64]chan Notification)
	}
	p.subs[userID][id] = ch
	p.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			p.mu.Lock()
			delete(p.subs[userID], id)
			if len(p.subs[userID]) == 0 {
				delete(p.subs, userID)
			}
			p.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-done:
		}
	}()

	return ch, unsubscribe, nil
}

// Subscribers reports how many live subscriptions userID has.
func (p *MemoryLivePublisher) Subscribers(userID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs[userID])
}
