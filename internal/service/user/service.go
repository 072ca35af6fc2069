package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenRevoked  = errors.New("token has been revoked")
	ErrEmptyUserID   = errors.New("user id is required")
)

type Service interface {
	// ValidateToken resolves a bearer token to the user it was issued for.
	// Returns ErrTokenNotFound if the token doesn't exist
	// or ErrTokenRevoked if it has been revoked.
	ValidateToken(ctx context.Context, token string) (userID string, err error)

	// IssueToken creates the user if needed and returns a new plaintext token.
	// The plaintext is only available here; the store keeps its hash.
	IssueToken(ctx context.Context, userID string) (string, error)

	// RevokeToken marks a token unusable. Revoking twice is not an error.
	RevokeToken(ctx context.Context, token string) error
}

func hashSecret(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

const (
	tokenPrefix = "inb_"
	tokenLength = 32
)

func generateToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrEmptyUserID
	}
	return userID, nil
}
