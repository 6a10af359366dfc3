// Package cache persists raw model replies in a local sqlite database so
// repeated runs over unchanged sources do not re-bill the provider.
package cache

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	key        TEXT PRIMARY KEY,
	response   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Store is a sqlite-backed response cache. It satisfies the analyzer's
// ResponseCache contract: storage failures are logged and surface as
// misses, never as analysis errors.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open creates or opens the cache database at path, creating parent
// directories as needed.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "response_cache").Logger()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug().Str("path", path).Msg("Response cache opened")
	return &Store{db: db, logger: logger}, nil
}

// Get returns the cached reply for key, if any.
func (s *Store) Get(key string) (string, bool) {
	var response string
	err := s.db.QueryRow(`SELECT response FROM responses WHERE key = ?`, key).Scan(&response)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn().Err(err).Msg("Cache read failed")
		}
		return "", false
	}
	return response, true
}

// Put stores a reply under key, replacing any previous entry.
func (s *Store) Put(key string, response string) {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO responses (key, response, created_at) VALUES (?, ?, ?)`,
		key, response, time.Now().Unix(),
	)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cache write failed")
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
