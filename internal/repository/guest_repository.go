package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/recital-seat-booking/internal/model"
)

// GuestRepo persists guests and their one-time login credentials.  Only the
// SHA-256 hash of a login token is ever stored.
type GuestRepo struct{ DB *sql.DB }

func NewGuestRepo(db *sql.DB) *GuestRepo { return &GuestRepo{DB: db} }

// UpsertLoginToken creates the guest for email if needed and replaces any
// pending login token with tokenHash.  An empty displayName keeps the
// stored one.
func (r *GuestRepo) UpsertLoginToken(ctx context.Context, email, displayName, tokenHash string, exp time.Time) (*model.Guest, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	q := conn(ctx, r.DB)
	_, err := q.ExecContext(ctx,
		`INSERT INTO guests (email, display_name, login_token_hash, login_token_expires_at)
		 VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   display_name = IF(VALUES(display_name) = '', display_name, VALUES(display_name)),
		   login_token_hash = VALUES(login_token_hash),
		   login_token_expires_at = VALUES(login_token_expires_at)`,
		email, displayName, tokenHash, exp)
	if err != nil {
		return nil, classify(err)
	}
	var g model.Guest
	err = q.QueryRowContext(ctx,
		"SELECT id, email, display_name, created_at FROM guests WHERE email=? LIMIT 1",
		email).Scan(&g.ID, &g.Email, &g.DisplayName, &g.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &g, nil
}

// ConsumeLoginToken locks the guest owning tokenHash and clears the token so
// it cannot be used twice.  It must run inside TxManager.WithTx; the
// returned expiry lets the caller reject stale tokens, which rolls the
// clear back harmlessly.
func (r *GuestRepo) ConsumeLoginToken(ctx context.Context, tokenHash string) (*model.Guest, time.Time, error) {
	q := conn(ctx, r.DB)
	var (
		g   model.Guest
		exp sql.NullTime
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, email, display_name, created_at, login_token_expires_at
		 FROM guests WHERE login_token_hash=? LIMIT 1 FOR UPDATE`,
		tokenHash).Scan(&g.ID, &g.Email, &g.DisplayName, &g.CreatedAt, &exp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, ErrGuestNotFound
		}
		return nil, time.Time{}, classify(err)
	}
	if _, err := q.ExecContext(ctx,
		"UPDATE guests SET login_token_hash=NULL, login_token_expires_at=NULL WHERE id=?",
		g.ID); err != nil {
		return nil, time.Time{}, classify(err)
	}
	return &g, exp.Time, nil
}

// GetByID fetches a guest by primary key.
func (r *GuestRepo) GetByID(ctx context.Context, id uint64) (*model.Guest, error) {
	var g model.Guest
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT id, email, display_name, created_at FROM guests WHERE id=? LIMIT 1",
		id).Scan(&g.ID, &g.Email, &g.DisplayName, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGuestNotFound
		}
		return nil, classify(err)
	}
	return &g, nil
}
