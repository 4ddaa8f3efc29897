package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service issues and verifies the three token kinds and owns the stored
// session record of every user.
type Service struct {
	sessions SessionStore
	signer   *Signer
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		issuer = strings.TrimSpace(issuer)
		if issuer == "" {
			return errors.New("auth: issuer is empty")
		}
		s.signer.issuer = issuer
		return nil
	}
}

// WithTTL overrides the lifetime of one token kind.
func WithTTL(kind Kind, ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl <= 0 {
			return fmt.Errorf("auth: ttl for %s must be positive", kind)
		}
		s.signer.ttl[kind] = ttl
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.signer.now = fn
		}
		return nil
	}
}

// NewService constructs Service with optional configuration.
func NewService(sessions SessionStore, keys Keys, opts ...ServiceOption) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("auth: session store is required")
	}
	if err := keys.Validate(); err != nil {
		return nil, err
	}
	svc := &Service{sessions: sessions, signer: newSigner(keys)}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.signer.now() }

// Issue mints a session token for userID, replacing any record the user
// already holds. Only the returned token verifies afterwards.
func (s *Service) Issue(ctx context.Context, userID string) (SessionToken, error) {
	token, expires, err := s.signer.Sign(KindSession, userID)
	if err != nil {
		return SessionToken{}, err
	}
	if _, err := s.sessions.Delete(ctx, userID); err != nil {
		return SessionToken{}, fmt.Errorf("drop previous session: %w", err)
	}
	rec := &SessionToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expires,
		CreatedAt: s.signer.now().UTC(),
	}
	if err := s.sessions.Put(ctx, rec); err != nil {
		return SessionToken{}, fmt.Errorf("store session: %w", err)
	}
	return *rec, nil
}

// Revoke deletes the user's stored session. Missing records are not an error.
func (s *Service) Revoke(ctx context.Context, userID string) error {
	if _, err := s.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// AuthenticateToken verifies a session token against its signature and the
// stored record, returning the subject user id.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (string, error) {
	claims, err := s.signer.Parse(KindSession, token)
	if err != nil {
		return "", err
	}
	rec, err := s.sessions.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if subtle.ConstantTimeCompare([]byte(rec.Token), []byte(token)) != 1 {
		return "", ErrInvalidToken
	}
	if rec.Expired(s.signer.now()) {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// SignEmailConfirmation mints a confirmation token for userID.
func (s *Service) SignEmailConfirmation(userID string) (string, error) {
	token, _, err := s.signer.Sign(KindEmailConfirmation, userID)
	return token, err
}

// VerifyEmailConfirmation returns the user id carried by a confirmation token.
func (s *Service) VerifyEmailConfirmation(token string) (string, error) {
	claims, err := s.signer.Parse(KindEmailConfirmation, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// SignPasswordReset mints a password reset grant for userID.
func (s *Service) SignPasswordReset(userID string) (string, error) {
	token, _, err := s.signer.Sign(KindPasswordReset, userID)
	return token, err
}

// VerifyPasswordReset returns the user id carried by a reset grant.
func (s *Service) VerifyPasswordReset(token string) (string, error) {
	claims, err := s.signer.Parse(KindPasswordReset, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// PurgeExpired removes session records past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.signer.now().UTC())
}
