package auth

import (
	"context"
	"time"
)

// SessionStore persists at most one session record per user.
type SessionStore interface {
	// Find returns ErrNotFound when the user holds no session.
	Find(ctx context.Context, userID string) (*SessionToken, error)
	Put(ctx context.Context, token *SessionToken) error
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, userID string) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
