package storage

import (
	"context"
	"fmt"

	go_json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const notificationsLivePrefix = "inbox:live:"

var _ LivePublisher = (*RedisLivePublisher)(nil)

// RedisLivePublisher publishes notifications over Redis pub/sub so that every
// server instance can serve a user's event stream.
type RedisLivePublisher struct {
	client *redis.Client
}

func NewRedisLivePublisher(client *redis.Client) *RedisLivePublisher {
	return &RedisLivePublisher{client: client}
}

func (p *RedisLivePublisher) liveKey(userID string) string {
	return notificationsLivePrefix + userID
}

func (p *RedisLivePublisher) Publish(ctx context.Context, n Notification) error {
	data, err := go_json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := p.client.Publish(ctx, p.liveKey(n.RecipientID), string(data)).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (p *RedisLivePublisher) Subscribe(ctx context.Context, userID string) (<-chan Notification, func(), error) {
	pubsub := p.client.Subscribe(ctx, p.liveKey(userID))

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	notifCh := make(chan Notification)

	go func() {
		defer close(notifCh)

		for msg := range pubsub.Channel() {
			var n Notification
			if err := go_json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue
			}

			select {
			case notifCh <- n:
			case <-ctx.Done():
				return
			}
		}
	}()

	unsubscribe := func() {
		_ = pubsub.Close()
	}

	return notifCh, unsubscribe, nil
}
