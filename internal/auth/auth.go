package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "jobsearch"

// Kind distinguishes token purposes. Every kind is signed with its own key.
type Kind int

const (
	KindSession Kind = iota + 1
	KindEmailConfirmation
	KindPasswordReset
)

func (k Kind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindEmailConfirmation:
		return "email_confirmation"
	case KindPasswordReset:
		return "password_reset"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TTL is the default lifetime for tokens of kind k.
func (k Kind) TTL() time.Duration {
	switch k {
	case KindSession:
		return 24 * time.Hour
	case KindEmailConfirmation:
		return 10 * time.Minute
	case KindPasswordReset:
		return 20 * time.Minute
	default:
		return 0
	}
}

// Keys holds one HMAC secret per token kind.
type Keys struct {
	Session           []byte
	EmailConfirmation []byte
	PasswordReset     []byte
}

// Validate rejects empty secrets and secrets shared between kinds.
func (k Keys) Validate() error {
	secrets := map[Kind][]byte{
		KindSession:           k.Session,
		KindEmailConfirmation: k.EmailConfirmation,
		KindPasswordReset:     k.PasswordReset,
	}
	seen := make(map[string]Kind, len(secrets))
	for _, kind := range []Kind{KindSession, KindEmailConfirmation, KindPasswordReset} {
		secret := secrets[kind]
		if len(secret) == 0 {
			return fmt.Errorf("%w: %s secret is not configured", ErrInvalidInput, kind)
		}
		if other, dup := seen[string(secret)]; dup {
			return fmt.Errorf("%w: %s and %s share a secret", ErrInvalidInput, other, kind)
		}
		seen[string(secret)] = kind
	}
	return nil
}

func (k Keys) secret(kind Kind) ([]byte, error) {
	switch kind {
	case KindSession:
		return k.Session, nil
	case KindEmailConfirmation:
		return k.EmailConfirmation, nil
	case KindPasswordReset:
		return k.PasswordReset, nil
	default:
		return nil, fmt.Errorf("%w: unknown token kind %d", ErrInvalidInput, int(kind))
	}
}

// Claims represents JWT claims used across the service.
type Claims struct {
	Kind string `json:"knd"`
	jwt.RegisteredClaims
}

// Signer mints and verifies tokens of every kind.
type Signer struct {
	keys   Keys
	issuer string
	ttl    map[Kind]time.Duration
	now    func() time.Time
}

func newSigner(keys Keys) *Signer {
	return &Signer{
		keys:   keys,
		issuer: defaultIssuer,
		ttl:    map[Kind]time.Duration{},
		now:    time.Now,
	}
}

func (s *Signer) lifetime(kind Kind) time.Duration {
	if ttl, ok := s.ttl[kind]; ok {
		return ttl
	}
	return kind.TTL()
}

// Sign issues an HS256 token of the given kind for userID.
func (s *Signer) Sign(kind Kind, userID string) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("userID is required")
	}
	secret, err := s.keys.secret(kind)
	if err != nil {
		return "", time.Time{}, err
	}
	if len(secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%s secret is not configured", kind)
	}

	now := s.now().UTC()
	expires := now.Add(s.lifetime(kind))
	claims := Claims{
		Kind: kind.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies signature, kind and timestamps, returning the claims.
func (s *Signer) Parse(kind Kind, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	secret, err := s.keys.secret(kind)
	if err != nil || len(secret) == 0 {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := s.validateClaims(kind, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Signer) validateClaims(kind Kind, claims *Claims) error {
	if claims.Kind != kind.String() {
		return fmt.Errorf("unexpected kind: %s", claims.Kind)
	}
	if claims.Issuer != s.issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := s.now().UTC()
	if !now.Before(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	return nil
}
