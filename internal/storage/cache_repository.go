package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"srank/internal/cache"
	"srank/internal/log"

	_ "modernc.org/sqlite"
)

const (
	upsertEntrySQL = `
INSERT INTO cache (key, value, created_at, ttl)
VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    created_at = excluded.created_at,
    ttl = excluded.ttl`
	selectEntrySQL   = `SELECT value, created_at, ttl FROM cache WHERE key = ?`
	deleteEntrySQL   = `DELETE FROM cache WHERE key = ?`
	deleteExpiredSQL = `DELETE FROM cache WHERE created_at + ttl <= ?`
	deleteAllSQL     = `DELETE FROM cache`
	countEntriesSQL  = `SELECT COUNT(*) FROM cache`
)

// CacheRepository is the SQLite-backed cache.Store. Timestamps and TTLs are
// stored in milliseconds.
type CacheRepository struct {
	db     *sql.DB
	now    cache.Clock
	logger *log.Logger
}

// Option configures a CacheRepository.
type Option func(*CacheRepository)

// WithClock overrides time.Now.
func WithClock(c cache.Clock) Option {
	return func(r *CacheRepository) { r.now = c }
}

// WithLogger sets the repository logger.
func WithLogger(l *log.Logger) Option {
	return func(r *CacheRepository) { r.logger = l.WithComponent(log.ComponentStorage) }
}

// NewCacheRepository opens (creating if needed) the SQLite file at dbPath
// and applies the schema.
func NewCacheRepository(dbPath string, opts ...Option) (*CacheRepository, error) {
	if !isMemoryPath(dbPath) {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &CacheRepository{
		db:     db,
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

var _ cache.Store = (*CacheRepository)(nil)

// isMemoryPath reports whether dbPath names a private in-memory database.
func isMemoryPath(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// Close releases the database handle.
func (r *CacheRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Set upserts value under key and restarts its validity window.
func (r *CacheRepository) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	entry, err := cache.NewEntry(key, value, ttl, r.now())
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, upsertEntrySQL,
		entry.Key, entry.Value, entry.CreatedAt.UnixMilli(), entry.TTL.Milliseconds())
	if err != nil {
		return fmt.Errorf("upsert cache entry %q: %w", key, err)
	}

	r.logger.DebugContext(ctx, "Cache entry stored",
		log.FieldCacheKey, key,
		"ttl", ttl.String())
	return nil
}

// Get decodes a valid entry into dst. Expired entries are deleted; payloads
// that fail to decode are logged and reported as a miss.
func (r *CacheRepository) Get(ctx context.Context, key string, dst any) (bool, error) {
	entry, ok, err := r.lookup(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	if err := entry.Decode(dst); err != nil {
		r.logger.WarnContext(ctx, "Failed to decode cached value",
			log.NewFields().
				WithCache(key, false).
				WithError(err).
				WithErrorType(log.ErrorTypeDeserialize).
				ToSlice()...)
		return false, nil
	}
	return true, nil
}

// Has reports whether a valid entry exists for key.
func (r *CacheRepository) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := r.lookup(ctx, key)
	return ok, err
}

func (r *CacheRepository) lookup(ctx context.Context, key string) (cache.Entry, bool, error) {
	var (
		value     string
		createdAt int64
		ttl       int64
	)
	err := r.db.QueryRowContext(ctx, selectEntrySQL, key).Scan(&value, &createdAt, &ttl)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("read cache entry %q: %w", key, err)
	}

	entry := cache.Entry{
		Key:       key,
		Value:     value,
		CreatedAt: time.UnixMilli(createdAt),
		TTL:       time.Duration(ttl) * time.Millisecond,
	}
	if entry.ValidAt(r.now()) {
		return entry, true, nil
	}

	if _, err := r.db.ExecContext(ctx, deleteEntrySQL, key); err != nil {
		return cache.Entry{}, false, fmt.Errorf("delete expired cache entry %q: %w", key, err)
	}
	r.logger.DebugContext(ctx, "Expired cache entry removed", log.FieldCacheKey, key)
	return cache.Entry{}, false, nil
}

// SweepExpired deletes every entry with created_at + ttl <= now.
func (r *CacheRepository) SweepExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredSQL, r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sweep expired cache entries: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep expired cache entries: %w", err)
	}
	return removed, nil
}

// Clear deletes every entry regardless of validity.
func (r *CacheRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, deleteAllSQL); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	r.logger.InfoContext(ctx, "Cache cleared")
	return nil
}

// Count returns the number of stored rows, expired ones included.
func (r *CacheRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, countEntriesSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}

