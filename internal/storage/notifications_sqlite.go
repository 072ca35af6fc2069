package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ NotificationRecords = (*SQLiteNotificationRecords)(nil)

// SQLiteNotificationRecords stores notifications in a single SQLite file.
// The schema is created by migrations.Apply.
type SQLiteNotificationRecords struct {
	db *sql.DB
}

func NewSQLiteNotificationRecords(db *sql.DB) *SQLiteNotificationRecords {
	return &SQLiteNotificationRecords{db: db}
}

func (s *SQLiteNotificationRecords) Insert(ctx context.Context, n Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, service_id, recipient_id, sender_id, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		n.ID, n.ServiceID, n.RecipientID, n.SenderID, n.Message, n.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *SQLiteNotificationRecords) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND read_at IS NULL`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (s *SQLiteNotificationRecords) ListUnread(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, service_id, recipient_id, sender_id, message, created_at
		FROM notifications
		WHERE recipient_id = ? AND read_at IS NULL
		ORDER BY created_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	defer func() { _ = rows.Close() }()

	notifications := []Notification{}
	for rows.Next() {
		var (
			n         Notification
			createdAt int64
		)
		if err := rows.Scan(&n.ID, &n.ServiceID, &n.RecipientID, &n.SenderID, &n.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.CreatedAt = time.UnixMilli(createdAt).UTC()
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

func (s *SQLiteNotificationRecords) MarkServiceRead(ctx context.Context, userID string, serviceID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = ?
		WHERE recipient_id = ? AND service_id = ? AND read_at IS NULL`,
		time.Now().UTC().UnixMilli(), userID, serviceID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark service read: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteNotificationRecords) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = ?
		WHERE recipient_id = ? AND read_at IS NULL`,
		time.Now().UTC().UnixMilli(), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.RowsAffected()
}
