package auth

import (
	"context"
	"errors"
	"strings"
)

// PrincipalResolver loads the current identity for a user id. It returns an
// error wrapping ErrNotFound when the user no longer exists.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID string) (Principal, error)
}

// Gate authenticates bearer tokens and resolves them to principals.
type Gate struct {
	tokens *Service
	users  PrincipalResolver
}

func NewGate(tokens *Service, users PrincipalResolver) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate returns the principal for token, or exactly one of
// ErrUnauthenticated (no token) and ErrInvalidToken (bad, expired, replaced,
// or orphaned token). Other errors are infrastructure failures.
func (g *Gate) Authenticate(ctx context.Context, token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrUnauthenticated
	}
	userID, err := g.tokens.AuthenticateToken(ctx, token)
	if err != nil {
		return Principal{}, err
	}
	principal, err := g.users.ResolvePrincipal(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}
	return principal, nil
}
