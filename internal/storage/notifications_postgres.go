package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ NotificationRecords = (*PostgresNotificationRecords)(nil)

type PostgresNotificationRecords struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationRecords(pool *pgxpool.Pool) *PostgresNotificationRecords {
	return &PostgresNotificationRecords{pool: pool}
}

func (s *PostgresNotificationRecords) Insert(ctx context.Context, n Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, service_id, recipient_id, sender_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		n.ID, n.ServiceID, n.RecipientID, n.SenderID, n.Message, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresNotificationRecords) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read_at IS NULL`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (s *PostgresNotificationRecords) ListUnread(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, service_id, recipient_id, sender_id, message, created_at
		FROM notifications
		WHERE recipient_id = $1 AND read_at IS NULL
		ORDER BY created_at DESC, seq DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}

	notifications, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		err := row.Scan(&n.ID, &n.ServiceID, &n.RecipientID, &n.SenderID, &n.Message, &n.CreatedAt)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect notifications: %w", err)
	}
	if notifications == nil {
		notifications = []Notification{}
	}
	return notifications, nil
}

func (s *PostgresNotificationRecords) MarkServiceRead(ctx context.Context, userID string, serviceID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE recipient_id = $1 AND service_id = $2 AND read_at IS NULL`,
		userID, serviceID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark service read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresNotificationRecords) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE recipient_id = $1 AND read_at IS NULL`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}
