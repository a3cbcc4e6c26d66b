// Package castloader provides the default external-cast fetch path: a
// singleflight-coalesced fetch through a host-supplied Fetcher, with an
// optional SQLite-backed disk cache, plugged into
// castlib.Registry.Fetch (§4.4, §5). It does no HTTP or file I/O of
// its own.
//
// This is dev-harness/default wiring, not something the core's data
// model depends on — a host is free to supply its own FetchFunc.
package castloader

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"lingoplayer/internal/playererr"
)

// Fetcher is a host-provided async byte fetcher for one normalized
// path (§6 "External cast fetcher").
type Fetcher interface {
	Fetch(ctx context.Context, normalizedPath string) ([]byte, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, normalizedPath string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, normalizedPath string) ([]byte, error) {
	return f(ctx, normalizedPath)
}

// Loader wraps a Fetcher with request coalescing and an optional disk
// cache, so that N concurrent requests for the same path result in
// exactly one underlying Fetch call — the same guarantee castlib's
// per-library BeginLoad/FinishLoad latch gives at the library level,
// applied here at the byte-fetch level so two libraries that happen to
// share a source path don't double-fetch either.
type Loader struct {
	fetcher Fetcher
	group   singleflight.Group
	disk    *DiskCache
}

// New returns a Loader around fetcher. disk may be nil to disable the
// on-disk cache.
func New(fetcher Fetcher, disk *DiskCache) *Loader {
	return &Loader{fetcher: fetcher, disk: disk}
}

// Load fetches normalizedPath, consulting the disk cache first and
// coalescing concurrent callers for the same path via singleflight.
func (l *Loader) Load(ctx context.Context, normalizedPath string) ([]byte, error) {
	if l.disk != nil {
		if data, ok, err := l.disk.Get(normalizedPath); err == nil && ok {
			return data, nil
		}
	}

	v, err, _ := l.group.Do(normalizedPath, func() (interface{}, error) {
		data, ferr := l.fetcher.Fetch(ctx, normalizedPath)
		if ferr != nil {
			return nil, playererr.Wrap(playererr.NetError, ferr, "fetch external cast %q", normalizedPath)
		}
		if l.disk != nil {
			_ = l.disk.Put(normalizedPath, data)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// DiskCache persists fetched external-cast bytes across process runs,
// keyed by normalized path, using an embedded pure-Go SQLite database
// (no cgo) so a host CLI can warm-start without re-fetching.
type DiskCache struct {
	db *sql.DB
}

// OpenDiskCache opens (creating if absent) a disk cache at dbPath.
func OpenDiskCache(dbPath string) (*DiskCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open cast cache db")
	}
	const schema = `CREATE TABLE IF NOT EXISTS cast_cache (
		path TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create cast cache schema")
	}
	return &DiskCache{db: db}, nil
}

func (c *DiskCache) Close() error { return c.db.Close() }

// Get returns the cached bytes for path, if present.
func (c *DiskCache) Get(path string) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRow(`SELECT data FROM cast_cache WHERE path = ?`, path).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cast cache lookup %q: %w", path, err)
	}
	return data, true, nil
}

// Put stores data for path, overwriting any existing entry.
func (c *DiskCache) Put(path string, data []byte) error {
	_, err := c.db.Exec(`INSERT INTO cast_cache(path, data) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data`, path, data)
	return err
}
