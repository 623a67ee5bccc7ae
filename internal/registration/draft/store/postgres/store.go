package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"membership/pkg/platform/sentinel"
	"membership/pkg/requestcontext"
)

//go:embed schema.sql
var Schema string

const DefaultTTL = 7 * 24 * time.Hour

// Store persists drafts as jsonb documents in PostgreSQL.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides how long an untouched draft stays readable.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// EnsureSchema creates the drafts table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create registration_drafts: %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, key string, doc []byte) error {
	now := requestcontext.Now(ctx).UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registration_drafts (session_key, document, updated_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_key) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at
	`, key, doc, now, now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT document FROM registration_drafts
		WHERE session_key = $1 AND expires_at > $2
	`, key, requestcontext.Now(ctx).UTC()).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select draft: %w", err)
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM registration_drafts WHERE session_key = $1`, key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// PurgeExpired removes drafts past their expiry and reports how many went.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM registration_drafts WHERE expires_at <= $1`, requestcontext.Now(ctx).UTC())
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
