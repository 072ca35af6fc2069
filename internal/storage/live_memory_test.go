package storage

import (
	"context"
	"testing"
	"testing/synctest"
	"time"
)

func TestMemoryLivePublisherScopesByRecipient(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	p := NewMemoryLivePublisher()

	aliceCh, unsubAlice, err := p.Subscribe(ctx, "alice")
	if err != nil {
		t.Fatalf("Subscribe(alice) error = %v", err)
	}
	defer unsubAlice()

	bobCh, unsubBob, err := p.Subscribe(ctx, "bob")
	if err != nil {
		t.Fatalf("Subscribe(bob) error = %v", err)
	}
	defer unsubBob()

	if err := p.Publish(ctx, Notification{ID: "n1", RecipientID: "alice"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case n := <-aliceCh:
		if n.ID != "n1" {
			t.Errorf("alice received %q, want n1", n.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("alice did not receive notification")
	}

	select {
	case n := <-bobCh:
		t.Errorf("bob received %q, want nothing", n.ID)
	default:
	}
}

func TestMemoryLivePublisherUnsubscribe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	p := NewMemoryLivePublisher()

	ch, unsubscribe, err := p.Subscribe(ctx, "alice")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if got := p.Subscribers("alice"); got != 1 {
		t.Fatalf("Subscribers() = %d, want 1", got)
	}

	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Error("channel still open after unsubscribe")
	}
	if got := p.Subscribers("alice"); got != 0 {
		t.Errorf("Subscribers() = %d, want 0", got)
	}

	// cancelling after an explicit unsubscribe must not panic
	cancel()

	if err := p.Publish(t.Context(), Notification{ID: "n1", RecipientID: "alice"}); err != nil {
		t.Errorf("Publish() with no subscribers error = %v", err)
	}
}

// openContext is never cancelled; its Done channel belongs to the synctest
// bubble so goroutines waiting on it count as durably blocked.
type openContext struct {
	context.Context
	done chan struct{}
}

func (c openContext) Done() <-chan struct{} { return c.done }

func TestMemoryLivePublisherUnsubscribeReleasesWatcher(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := openContext{Context: context.Background(), done: make(chan struct{})}
		p := NewMemoryLivePublisher()

		_, unsubscribe, err := p.Subscribe(ctx, "alice")
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		unsubscribe()

		// synctest.Test fails if the context watcher is still parked when the
		// bubble ends.
		synctest.Wait()
		if got := p.Subscribers("alice"); got != 0 {
			t.Errorf("Subscribers() = %d, want 0", got)
		}
	})
}
