package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	gomysql "github.com/go-sql-driver/mysql"

	domsession "example.com/storefront/internal/domain/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS storefront_kv (
    k          VARCHAR(255) NOT NULL PRIMARY KEY,
    v          TEXT         NOT NULL,
    expires_at DATETIME(6)  NULL
)`

// NormalizeDSN forces parseTime and UTC so DATETIME columns scan into time.Time.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "parse mysql dsn")
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// Open connects with a normalized dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "mysql open")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "mysql ping")
	}
	return db, nil
}

type KVRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db, now: time.Now}
}

func (r *KVRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "create storefront_kv")
	}
	return nil
}

func (r *KVRepository) Get(ctx context.Context, key string) (string, error) {
	var (
		value     string
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT v, expires_at FROM storefront_kv WHERE k = ?`, key,
	).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domsession.ErrNotFound
		}
		return "", errors.Wrapf(err, "select %s", key)
	}
	if expiresAt.Valid && !r.now().Before(expiresAt.Time) {
		return "", domsession.ErrNotFound
	}
	return value, nil
}

func (r *KVRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: r.now().Add(ttl).UTC(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO storefront_kv (k, v, expires_at)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE v = VALUES(v), expires_at = VALUES(expires_at)
    `, key, value, expiresAt)
	if err != nil {
		return errors.Wrapf(err, "upsert %s", key)
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM storefront_kv WHERE k = ?`, key); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// PurgeExpired removes rows whose expiry has passed and reports how many.
func (r *KVRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM storefront_kv WHERE expires_at IS NOT NULL AND expires_at <= ?`, r.now().UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purge expired")
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
