package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CodeStore persists outstanding verification codes. It is the only
// component that touches the verify_codes table.
type CodeStore struct {
	DB *pgxpool.Pool
}

func NewCodeStore(db *pgxpool.Pool) *CodeStore {
	return &CodeStore{DB: db}
}

// Put replaces any live code for (email, purpose) with a fresh one. A single
// upsert keyed by the unique (email, purpose) index makes the last writer
// win even when two issuers race; the loser's row is overwritten, never left
// behind and never surfaced as a conflict.
func (s *CodeStore) Put(ctx context.Context, email string, purpose Purpose, code string, ttl time.Duration) (*VerifyCode, error) {
	rec := &VerifyCode{
		ID:        uuid.NewString(),
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: time.Now().Add(ttl),
	}

	row := s.DB.QueryRow(ctx, `
		INSERT INTO verify_codes (id, email, purpose, code, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email, purpose) DO UPDATE
		SET id=EXCLUDED.id,
		    code=EXCLUDED.code,
		    expires_at=EXCLUDED.expires_at,
		    created_at=NOW()
		RETURNING created_at
	`, rec.ID, email, purpose, code, rec.ExpiresAt)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return nil, err
	}

	return rec, nil
}

// FindLatest returns the current live code for (email, purpose), or nil when
// none exists. The invariant allows at most one row, but legacy duplicates
// are tolerated by taking the newest.
func (s *CodeStore) FindLatest(ctx context.Context, email string, purpose Purpose) (*VerifyCode, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, email, purpose, code, expires_at, created_at
		FROM verify_codes
		WHERE email=$1 AND purpose=$2
		ORDER BY created_at DESC
		LIMIT 1
	`, email, purpose)

	var rec VerifyCode
	if err := row.Scan(&rec.ID, &rec.Email, &rec.Purpose, &rec.Code, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Delete removes a code by id. Deleting an already-consumed code is a no-op.
func (s *CodeStore) Delete(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM verify_codes WHERE id=$1`, id)
	return err
}
