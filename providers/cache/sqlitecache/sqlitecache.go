// Package sqlitecache provides a SQLite-backed cache.Store so triage
// verdicts survive gateway restarts. A single file on disk is the whole
// deployment story; no external service is involved.
package sqlitecache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/modelmux/modelmux/providers/cache"
	"github.com/modelmux/modelmux/providers/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);`

// Cache stores entries in a local SQLite database. Expiry is checked at read
// time; [Cache.Purge] removes stale rows in bulk.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Ensure Cache implements cache.Store at compile time.
var _ cache.Store = (*Cache)(nil)

// Open opens (or creates) the database at path and ensures the schema
// exists. SQLite allows a single writer, so the pool is capped at one
// connection.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open cache db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache db ping failed: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("can't create cache table: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Get returns the stored value for key. A row past its expiry is deleted and
// reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value     string
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)

	hit := true
	switch {
	case err == sql.ErrNoRows:
		hit = false
	case err != nil:
		return "", false, fmt.Errorf("cache read failed: %w", err)
	case expiresAt != 0 && c.now().Unix() > expiresAt:
		if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
			return "", false, fmt.Errorf("can't delete expired entry: %w", err)
		}
		hit = false
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventCacheGet,
			observability.String(observability.AttrCacheKey, key),
			observability.Bool(observability.AttrCacheHit, hit),
		)
	}

	if !hit {
		return "", false, nil
	}
	return value, true, nil
}

// Put stores value under key. A non-positive TTL stores the entry without
// expiry.
func (c *Cache) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).Unix()
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventCachePut,
			observability.String(observability.AttrCacheKey, key),
		)
	}
	return nil
}

// Purge deletes every expired row and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at <= ?`,
		c.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("cache purge failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
