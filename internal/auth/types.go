package auth

import "time"

// Principal is the identity resolved for an authenticated request.
type Principal struct {
	UserID   string
	Role     Role
	Email    string
	Username string
}

// SessionToken is the single live session record kept per user.
type SessionToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the record is no longer usable at now.
func (s SessionToken) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
