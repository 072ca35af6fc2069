package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type SQLiteService struct {
	db *sql.DB
}

var _ Service = (*SQLiteService)(nil)

func NewSQLiteService(db *sql.DB) *SQLiteService {
	return &SQLiteService{db: db}
}

func (s *SQLiteService) ValidateToken(ctx context.Context, token string) (string, error) {
	var (
		userID  string
		revoked sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, revoked_at FROM api_tokens WHERE token_hash = ?`,
		hashSecret(token),
	).Scan(&userID, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting token by hash: %w", err)
	}
	if revoked.Valid {
		return "", ErrTokenRevoked
	}
	return userID, nil
}

func (s *SQLiteService) IssueToken(ctx context.Context, userID string) (string, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id) VALUES (?) ON CONFLICT (id) DO NOTHING`, userID,
	); err != nil {
		return "", fmt.Errorf("creating user: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO api_tokens (token_hash, user_id) VALUES (?, ?)`, hashSecret(token), userID,
	); err != nil {
		return "", fmt.Errorf("creating token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing token: %w", err)
	}
	return token, nil
}

func (s *SQLiteService) RevokeToken(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE api_tokens SET revoked_at = COALESCE(revoked_at, CURRENT_TIMESTAMP) WHERE token_hash = ?`,
		hashSecret(token),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	if n == 0 {
		return ErrTokenNotFound
	}
	return nil
}
