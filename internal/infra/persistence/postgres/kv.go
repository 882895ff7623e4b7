package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domsession "example.com/storefront/internal/domain/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS storefront_kv (
    k          TEXT PRIMARY KEY,
    v          TEXT NOT NULL,
    expires_at TIMESTAMPTZ
)`

// NewPool parses databaseURL, connects and pings.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return pool, nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type KV struct {
	db querier
}

func NewKV(db querier) *KV {
	return &KV{db: db}
}

func (s *KV) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "create storefront_kv")
	}
	return nil
}

func (s *KV) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT v FROM storefront_kv WHERE k = $1 AND (expires_at IS NULL OR expires_at > now())`, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domsession.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "select %s", key)
	}
	return value, nil
}

func (s *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO storefront_kv (k, v, expires_at) VALUES ($1, $2, $3)
        ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, expires_at = EXCLUDED.expires_at
    `, key, value, expiresAt)
	if err != nil {
		return errors.Wrapf(err, "upsert %s", key)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM storefront_kv WHERE k = $1`, key); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}
