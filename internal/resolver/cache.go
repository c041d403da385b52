package resolver

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName     = "mixtape"
	cacheDBName = "resolver.db"
)

// Cache wraps a Resolver with a SQLite cache so a page that has already been
// resolved never hits the network again while its entry is fresh. Only
// resolver output is cached; playback state is never persisted.
type Cache struct {
	inner   Resolver
	db      *sql.DB
	ttlDays int
}

// OpenCache opens (or creates) the cache database under the XDG cache dir
// and wraps inner with it.
func OpenCache(inner Resolver, ttlDays int) (*Cache, error) {
	dbPath, err := xdg.CacheFile(filepath.Join(appName, cacheDBName))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return NewCacheWithDB(inner, db, ttlDays), nil
}

// NewCacheWithDB wraps inner with a cache over an existing database.
// The schema must already be initialized for databases not created by
// OpenCache; tests pass an in-memory db through InitSchema.
func NewCacheWithDB(inner Resolver, db *sql.DB, ttlDays int) *Cache {
	if ttlDays <= 0 {
		ttlDays = 7
	}
	return &Cache{inner: inner, db: db, ttlDays: ttlDays}
}

// InitSchema creates the cache tables. Idempotent.
func InitSchema(db *sql.DB) error {
	return initSchema(db)
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS resolved_tracks (
			page_url TEXT NOT NULL,
			track_index INTEGER NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT NOT NULL,
			artwork_url TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			stream_url TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (page_url, track_index)
		);
	`)
	return err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) isExpired(fetchedAt int64) bool {
	expiry := time.Now().AddDate(0, 0, -c.ttlDays).Unix()
	return fetchedAt < expiry
}

// Resolve returns cached tracks when fresh, otherwise delegates to the
// wrapped resolver and stores its result. Cache failures fall through to the
// network rather than failing the resolve.
func (c *Cache) Resolve(ctx context.Context, pageURL string) ([]Track, error) {
	if tracks, err := c.get(pageURL); err == nil && tracks != nil {
		return tracks, nil
	}

	tracks, err := c.inner.Resolve(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	_ = c.set(pageURL, tracks)
	return tracks, nil
}

func (c *Cache) get(pageURL string) ([]Track, error) {
	rows, err := c.db.Query(`
		SELECT title, artist, album, artwork_url, duration_ms, stream_url, fetched_at
		FROM resolved_tracks
		WHERE page_url = ?
		ORDER BY track_index
	`, pageURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Track
	for rows.Next() {
		var t Track
		var durationMs, fetchedAt int64
		if err := rows.Scan(&t.Title, &t.Artist, &t.Album, &t.ArtworkURL, &durationMs, &t.StreamURL, &fetchedAt); err != nil {
			return nil, err
		}
		if c.isExpired(fetchedAt) {
			return nil, nil // trigger refresh
		}
		t.Duration = time.Duration(durationMs) * time.Millisecond
		result = append(result, t)
	}
	if result == nil {
		return nil, rows.Err()
	}
	return result, rows.Err()
}

func (c *Cache) set(pageURL string, tracks []Track) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck // rollback on error path, result doesn't matter
		}
	}()

	_, err = tx.Exec(`DELETE FROM resolved_tracks WHERE page_url = ?`, pageURL)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO resolved_tracks
			(page_url, track_index, title, artist, album, artwork_url, duration_ms, stream_url, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i, t := range tracks {
		_, err = stmt.Exec(pageURL, i, t.Title, t.Artist, t.Album, t.ArtworkURL,
			t.Duration.Milliseconds(), t.StreamURL, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Verify Cache implements Resolver at compile time.
var _ Resolver = (*Cache)(nil)
