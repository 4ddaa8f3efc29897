package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var _ SessionStore = (*PGSessionStore)(nil)

// PGSessionStore implements SessionStore using PostgreSQL. The primary key on
// user_id keeps a single record per user.
type PGSessionStore struct {
	db *sql.DB
}

func NewPGSessionStore(db *sql.DB) *PGSessionStore {
	return &PGSessionStore{db: db}
}

func (s *PGSessionStore) Find(ctx context.Context, userID string) (*SessionToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select user_id, token, expires_at, created_at from session_tokens where user_id=$1`, userID)
	var rec SessionToken
	if err := row.Scan(&rec.UserID, &rec.Token, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *PGSessionStore) Put(ctx context.Context, token *SessionToken) error {
	if token == nil || token.UserID == "" {
		return ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx,
		`insert into session_tokens(user_id, token, expires_at, created_at) values($1,$2,$3,$4)
		 on conflict (user_id) do update set token=excluded.token, expires_at=excluded.expires_at, created_at=excluded.created_at`,
		token.UserID, token.Token, token.ExpiresAt, token.CreatedAt,
	)
	return err
}

func (s *PGSessionStore) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `delete from session_tokens where user_id=$1`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PGSessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from session_tokens where expires_at <= $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
