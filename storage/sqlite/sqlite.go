// Package sqlite stores sessions in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/Comcast/tale/storage"

	_ "modernc.org/sqlite"
)

// SQLite keeps every session's keys in one table.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// New opens (or creates) the database at path.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS session_values (
			session TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (session, key)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Session returns a view of the rows for id.
func (s *SQLite) Session(ctx context.Context, id string) (storage.Session, error) {
	return &session{s: s, id: id}, nil
}

// RemSession deletes every key for id.
func (s *SQLite) RemSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM session_values WHERE session = ?", id)
	return err
}

type session struct {
	s  *SQLite
	id string
}

func (ss *session) Set(ctx context.Context, key string, value interface{}) error {
	js, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	_, err = ss.s.db.ExecContext(ctx, `
		INSERT INTO session_values (session, key, value) VALUES (?, ?, ?)
		ON CONFLICT(session, key) DO UPDATE SET value = excluded.value
	`, ss.id, key, string(js))
	return err
}

func (ss *session) Get(ctx context.Context, key string, into interface{}) (bool, error) {
	ss.s.mu.Lock()
	var value string
	err := ss.s.db.QueryRowContext(ctx,
		"SELECT value FROM session_values WHERE session = ? AND key = ?", ss.id, key).Scan(&value)
	ss.s.mu.Unlock()

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(value), into)
}

func (ss *session) Has(ctx context.Context, key string) (bool, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	var n int
	err := ss.s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM session_values WHERE session = ? AND key = ?", ss.id, key).Scan(&n)
	return 0 < n, err
}

func (ss *session) Delete(ctx context.Context, key string) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	_, err := ss.s.db.ExecContext(ctx,
		"DELETE FROM session_values WHERE session = ? AND key = ?", ss.id, key)
	return err
}
