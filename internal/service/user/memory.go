package user

import (
	"context"
	"sync"
)

type memoryToken struct {
	userID  string
	revoked bool
}

// MemoryService keeps users and token hashes in process. Intended for
// development servers and tests.
type MemoryService struct {
	mu     sync.RWMutex
	tokens map[string]*memoryToken
}

var _ Service = (*MemoryService)(nil)

func NewMemoryService() *MemoryService {
	return &MemoryService{tokens: make(map[string]*memoryToken)}
}

func (s *MemoryService) ValidateToken(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[hashSecret(token)]
	if !ok {
		return "", ErrTokenNotFound
	}
	if rec.revoked {
		return "", ErrTokenRevoked
	}
	return rec.userID, nil
}

func (s *MemoryService) IssueToken(_ context.Context, userID string) (string, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.tokens[hashSecret(token)] = &memoryToken{userID: userID}
	s.mu.Unlock()

	return token, nil
}

func (s *MemoryService) RevokeToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[hashSecret(token)]
	if !ok {
		return ErrTokenNotFound
	}
	rec.revoked = true
	return nil
}
