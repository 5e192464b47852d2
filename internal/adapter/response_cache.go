package adapter

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	m "reportminer.dev/pkg/reportminer/internal/model"

	// Register the pure Go sqlite driver.
	_ "modernc.org/sqlite"
)

// Cache backends selectable through configuration.
const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
)

const (
	cacheNamespace   = "jira"
	cacheKeyHashLen  = 16
	cacheFileExt     = ".json"
	sqliteCacheFile  = "cache.db"
	sqliteBusyMillis = 5000
)

// ResponseCache stores tracker responses with a time to live.
type ResponseCache interface {
	Get(key string) (m.TrackerIssue, bool)
	Set(key string, issue m.TrackerIssue) error
	Clear() (int, error)
}

// NewResponseCache opens the cache backend rooted at dir.
func NewResponseCache(backend, dir string, ttl time.Duration) (ResponseCache, error) {
	switch backend {
	case "", CacheBackendFile:
		return NewFileCache(dir, ttl), nil
	case CacheBackendSQLite:
		return NewSQLiteCache(dir, ttl)
	}

	return nil, fmt.Errorf("unknown cache backend %q", backend)
}

// DefaultCacheDir follows XDG_CACHE_HOME, falling back to ~/.cache.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "reportminer")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "reportminer")
	}

	return filepath.Join(home, ".cache", "reportminer")
}

type cacheEntry struct {
	CachedAt time.Time      `json:"cached_at"`
	Key      string         `json:"key"`
	Value    m.TrackerIssue `json:"value"`
}

// FileCache keeps one JSON file per key.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileCache creates a FileCache under dir/jira.
func NewFileCache(dir string, ttl time.Duration) *FileCache {
	return &FileCache{
		dir: filepath.Join(dir, cacheNamespace),
		ttl: ttl,
		now: time.Now,
	}
}

func (c *FileCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))

	return filepath.Join(c.dir, hex.EncodeToString(sum[:])[:cacheKeyHashLen]+cacheFileExt)
}

// Get returns a cached issue that has not expired.
func (c *FileCache) Get(key string) (m.TrackerIssue, bool) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return m.TrackerIssue{}, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Debug("ignoring corrupt cache entry", "path", path, "error", err)
		return m.TrackerIssue{}, false
	}

	if c.now().Sub(entry.CachedAt) > c.ttl {
		if err := os.Remove(path); err != nil {
			slog.Debug("failed to remove expired cache entry", "path", path, "error", err)
		}

		return m.TrackerIssue{}, false
	}

	return entry.Value, true
}

// Set stores an issue under key.
func (c *FileCache) Set(key string, issue m.TrackerIssue) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(cacheEntry{CachedAt: c.now(), Key: key, Value: issue}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := os.WriteFile(c.path(key), data, 0o600); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	return nil
}

// Clear removes every cached entry and returns how many were removed.
func (c *FileCache) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+cacheFileExt))
	if err != nil {
		return 0, fmt.Errorf("list cache entries: %w", err)
	}

	count := 0

	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return count, fmt.Errorf("remove cache entry: %w", err)
		}

		count++
	}

	return count, nil
}

// SQLiteCache keeps entries in a single sqlite database.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteCache opens (or creates) dir/jira/cache.db.
func NewSQLiteCache(dir string, ttl time.Duration) (*SQLiteCache, error) {
	base := filepath.Join(dir, cacheNamespace)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	dsn := filepath.Join(base, sqliteCacheFile) +
		fmt.Sprintf("?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", sqliteBusyMillis)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		cached_at INTEGER NOT NULL
	)`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &SQLiteCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns a cached issue that has not expired.
func (c *SQLiteCache) Get(key string) (m.TrackerIssue, bool) {
	var (
		value    string
		cachedAt int64
	)

	err := c.db.QueryRow(`SELECT value, cached_at FROM responses WHERE key = ?`, key).Scan(&value, &cachedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Debug("cache lookup failed", "key", key, "error", err)
		}

		return m.TrackerIssue{}, false
	}

	if c.now().Sub(time.Unix(cachedAt, 0)) > c.ttl {
		if _, err := c.db.Exec(`DELETE FROM responses WHERE key = ?`, key); err != nil {
			slog.Debug("failed to delete expired cache entry", "key", key, "error", err)
		}

		return m.TrackerIssue{}, false
	}

	var issue m.TrackerIssue
	if err := json.Unmarshal([]byte(value), &issue); err != nil {
		return m.TrackerIssue{}, false
	}

	return issue, true
}

// Set stores an issue under key.
func (c *SQLiteCache) Set(key string, issue m.TrackerIssue) error {
	data, err := json.Marshal(issue)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT INTO responses (key, value, cached_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, cached_at = excluded.cached_at`,
		key, string(data), c.now().Unix())
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	return nil
}

// Clear removes every cached entry and returns how many were removed.
func (c *SQLiteCache) Clear() (int, error) {
	res, err := c.db.Exec(`DELETE FROM responses`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}

	return int(n), nil
}

// Close releases the database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
