package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

var ErrNoCredentials = errors.New("session has no credentials")

// Session is the identity a sync controller is attached to. It is passed
// explicitly instead of being read from ambient state so that switching users
// is a detach/attach pair.
type Session struct {
	UserID      string
	TokenSource oauth2.TokenSource
	// ID correlates client requests in server logs.
	ID string
}

// New returns a session for userID authenticating with a static bearer token.
func New(userID, token string) Session {
	var ts oauth2.TokenSource
	if token != "" {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	}
	return Session{
		UserID:      userID,
		TokenSource: ts,
		ID:          NewID(),
	}
}

// Anonymous reports whether there is no user to sync for.
func (s Session) Anonymous() bool {
	return s.UserID == ""
}

// Token returns the current bearer token.
func (s Session) Token() (*oauth2.Token, error) {
	if s.TokenSource == nil {
		return nil, ErrNoCredentials
	}
	return s.TokenSource.Token()
}

func NewID() string {
	now := time.Now()
	timestamp := now.Format("20060102-150405")
	randomBytes := make([]byte, 3)
	if _, err := rand.Read(randomBytes); err != nil {
		// fallback to nanoseconds if random fails
		return timestamp + "-" + now.Format("000000")
	}

	return timestamp + "-" + hex.EncodeToString(randomBytes)
}
