// Package sqlitecache provides an I/O-backed courier.Cache implementation
// on SQLite via modernc.org/sqlite (pure Go). It persists raw response
// envelopes and re-applies the codec's decode table on load.
package sqlitecache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	_ "modernc.org/sqlite"

	"github.com/courierhttp/courier"
)

// Store is a persistent response cache. It tolerates concurrent calls;
// consistency beyond last-writer-wins is not guaranteed.
type Store struct {
	db     *sql.DB
	logger courier.Logger
}

// Compile-time check that Store implements courier.Cache.
var _ courier.Cache = (*Store)(nil)

// New opens (or creates) the cache database at dbPath; use ":memory:" for
// testing.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlitecache: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitecache: ping database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS cache_entries (
			key          TEXT PRIMARY KEY,
			status       INTEGER NOT NULL,
			status_text  TEXT NOT NULL DEFAULT '',
			headers_json TEXT NOT NULL DEFAULT '{}',
			body         BLOB,
			expires_at   INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitecache: create table: %w", err)
	}

	return &Store{db: db, logger: courier.NoopLogger{}}, nil
}

// SetLogger installs a diagnostic sink for swallowed storage errors.
func (s *Store) SetLogger(logger courier.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Get loads the entry for key unless it has expired. Expired rows are
// removed on access.
func (s *Store) Get(key string) (*courier.Entry, bool) {
	var (
		status      int
		statusText  string
		headersJSON string
		body        []byte
		expiresAt   int64
	)
	row := s.db.QueryRow(
		`SELECT status, status_text, headers_json, body, expires_at FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&status, &statusText, &headersJSON, &body, &expiresAt); err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("cache read failed", "key", key, "error", err.Error())
		}
		return nil, false
	}

	expiry := time.Unix(0, expiresAt)
	if !time.Now().Before(expiry) {
		s.Delete(key)
		return nil, false
	}

	headers := http.Header{}
	if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
		s.logger.Warn("cache entry has corrupt headers", "key", key, "error", err.Error())
		s.Delete(key)
		return nil, false
	}

	decoded, _ := courier.DecodeBody(headers, body, s.logger)
	return &courier.Entry{
		Response: &courier.Response{
			Status:     status,
			StatusText: statusText,
			Headers:    headers,
			Body:       decoded,
			RawBody:    body,
		},
		ExpiresAt: expiry,
	}, true
}

// Set stores the entry's envelope under key with the given ttl.
func (s *Store) Set(key string, entry *courier.Entry, ttl time.Duration) {
	if entry == nil || entry.Response == nil {
		return
	}
	headersJSON, err := json.Marshal(entry.Response.Headers)
	if err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err.Error())
		return
	}
	expiresAt := time.Now().Add(ttl).UnixNano()

	_, err = s.db.Exec(
		`INSERT INTO cache_entries (key, status, status_text, headers_json, body, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   status = excluded.status,
		   status_text = excluded.status_text,
		   headers_json = excluded.headers_json,
		   body = excluded.body,
		   expires_at = excluded.expires_at`,
		key, entry.Response.Status, entry.Response.StatusText,
		string(headersJSON), entry.Response.RawBody, expiresAt)
	if err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err.Error())
	}
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	if _, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		s.logger.Warn("cache delete failed", "key", key, "error", err.Error())
	}
}

// Clear removes every entry.
func (s *Store) Clear() {
	if _, err := s.db.Exec(`DELETE FROM cache_entries`); err != nil {
		s.logger.Warn("cache clear failed", "error", err.Error())
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
