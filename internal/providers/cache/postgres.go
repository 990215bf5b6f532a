package cache

import (
	"context"
	"database/sql"
	"log"

	_ "github.com/lib/pq"

	"github.com/sylphlab/mediadedup/internal/dederr"
	"github.com/sylphlab/mediadedup/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS file_info_cache (
	path         TEXT NOT NULL,
	size         BIGINT NOT NULL,
	content_hash TEXT NOT NULL,
	payload      BYTEA NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (path, size, content_hash)
)`

// Store is a Postgres-backed implementation of pipeline.Cache.
type Store struct {
	db *sql.DB
}

// Connect opens a Postgres connection pool and ensures the cache table
// exists, mirroring the reference engine's db.Connect/Migrate pair.
func Connect(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, dederr.New(dederr.Cache, "cache.Connect: open", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	if err := db.Ping(); err != nil {
		return nil, dederr.New(dederr.Cache, "cache.Connect: ping", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, dederr.New(dederr.Cache, "cache.Connect: migrate", err)
	}
	return &Store{db: db}, nil
}

// Get implements pipeline.Cache.
func (s *Store) Get(ctx context.Context, key models.CacheKey) (models.FileInfo, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM file_info_cache WHERE path = $1 AND size = $2 AND content_hash = $3`,
		key.Path, key.Size, key.ContentHash,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return models.FileInfo{}, false, nil
	}
	if err != nil {
		return models.FileInfo{}, false, dederr.New(dederr.Cache, "cache.Get", err).WithPath(key.Path)
	}
	info, err := DecodeFileInfo(payload)
	if err != nil {
		log.Printf("cache: discarding entry for %q: %v", key.Path, err)
		return models.FileInfo{}, false, nil
	}
	return info, true, nil
}

// Put implements pipeline.Cache.
func (s *Store) Put(ctx context.Context, key models.CacheKey, info models.FileInfo) error {
	payload := EncodeFileInfo(info)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_info_cache (path, size, content_hash, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (path, size, content_hash) DO UPDATE SET payload = EXCLUDED.payload`,
		key.Path, key.Size, key.ContentHash, payload,
	)
	if err != nil {
		return dederr.New(dederr.Cache, "cache.Put", err).WithPath(key.Path)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
