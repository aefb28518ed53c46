// Package blockcache memoizes byte-range fetches against a remote stream
// URL in a local SQLite database, so the out-of-band "moov" resolution
// path never re-fetches the same range twice for a given track.
package blockcache

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Fetcher performs the actual remote byte-range request. Concrete HTTP
// range-request plumbing lives outside this package; blockcache only
// decides whether a fetch is needed at all.
type Fetcher interface {
	Fetch(ctx context.Context, url string, offset, length uint64) ([]byte, error)
}

// Cache is a SQLite-backed implementation of mp4.IContainerUrlBlockWriter:
// every TryGet first checks for a previously cached identical range before
// falling through to the configured Fetcher.
type Cache struct {
	db    *sql.DB
	fetch Fetcher
}

// Open opens (or creates) the cache database at path and runs its schema
// migration. A blank path uses an in-memory database, useful for tests and
// for callers that only want request de-duplication within one process
// lifetime.
func Open(path string, fetch Fetcher) (*Cache, error) {
	if fetch == nil {
		return nil, fmt.Errorf("blockcache: a Fetcher is required")
	}
	dsn := path
	if strings.TrimSpace(dsn) == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create blockcache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open blockcache database: %w", err)
	}

	c := &Cache{db: db, fetch: fetch}
	if err := c.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("block cache opened", "path", path)
	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	url TEXT NOT NULL,
	offset INTEGER NOT NULL,
	length INTEGER NOT NULL,
	data BLOB NOT NULL,
	fetched_at_unix_ms INTEGER NOT NULL,
	PRIMARY KEY (url, offset, length)
);
`
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("run blockcache migrations: %w", err)
	}
	slog.Debug("blockcache migrations applied")
	return nil
}

// TryGet implements mp4.IContainerUrlBlockWriter. It serves a previously
// cached (url, offset, bytes) range verbatim, or fetches it, stores it, and
// then serves it.
func (c *Cache) TryGet(w io.Writer, url string, offset, bytes uint64) error {
	ctx := context.Background()

	data, err := c.lookup(ctx, url, offset, bytes)
	if err != nil {
		return err
	}
	if data != nil {
		slog.Debug("block cache hit", "url", url, "offset", offset, "length", len(data))
		_, err := w.Write(data)
		return err
	}

	data, err = c.fetch.Fetch(ctx, url, offset, bytes)
	if err != nil {
		return fmt.Errorf("blockcache: fetch %s [%d,+%d): %w", url, offset, bytes, err)
	}
	if len(data) > 0 {
		if err := c.store(ctx, url, offset, bytes, data); err != nil {
			slog.Warn("block cache store failed", "url", url, "offset", offset, "error", err)
		}
	}
	slog.Debug("block cache miss, fetched", "url", url, "offset", offset, "length", len(data))
	_, err = w.Write(data)
	return err
}

func (c *Cache) lookup(ctx context.Context, url string, offset, bytes uint64) ([]byte, error) {
	const q = `SELECT data FROM blocks WHERE url = ? AND offset = ? AND length = ?`
	var data []byte
	err := c.db.QueryRowContext(ctx, q, url, offset, bytes).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blockcache: lookup: %w", err)
	}
	return data, nil
}

func (c *Cache) store(ctx context.Context, url string, offset, bytes uint64, data []byte) error {
	const q = `INSERT OR REPLACE INTO blocks (url, offset, length, data, fetched_at_unix_ms) VALUES (?, ?, ?, ?, ?)`
	_, err := c.db.ExecContext(ctx, q, url, offset, bytes, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("blockcache: store: %w", err)
	}
	return nil
}
