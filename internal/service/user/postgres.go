package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresService struct {
	pool *pgxpool.Pool
}

var _ Service = (*PostgresService)(nil)

func NewPostgresService(pool *pgxpool.Pool) *PostgresService {
	return &PostgresService{pool: pool}
}

func (s *PostgresService) ValidateToken(ctx context.Context, token string) (string, error) {
	var (
		userID  string
		revoked *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, revoked_at FROM api_tokens WHERE token_hash = $1`,
		hashSecret(token),
	).Scan(&userID, &revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting token by hash: %w", err)
	}
	if revoked != nil {
		return "", ErrTokenRevoked
	}
	return userID, nil
}

func (s *PostgresService) IssueToken(ctx context.Context, userID string) (string, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID,
		); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO api_tokens (token_hash, user_id) VALUES ($1, $2)`, hashSecret(token), userID,
		); err != nil {
			return fmt.Errorf("creating token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *PostgresService) RevokeToken(ctx context.Context, token string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_tokens SET revoked_at = COALESCE(revoked_at, NOW()) WHERE token_hash = $1`,
		hashSecret(token),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}
