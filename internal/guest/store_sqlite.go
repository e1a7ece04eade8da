package guest

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const storageSchema = `
	CREATE TABLE IF NOT EXISTS storage (
		session_id TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		PRIMARY KEY (session_id, key)
	)`

// SQLiteStore persists guest state in a local SQLite file, one row per
// session/key pair. No network is involved.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (and if needed creates) the storage database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open guest store %s: %w", path, err)
	}
	if _, err := db.Exec(storageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create storage table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStore wraps an existing connection. Used by tests.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(sessionID, key string) (string, bool) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM storage WHERE session_id = ? AND key = ?`, sessionID, key)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		log.Printf("guest: read of %s failed for session %s: %v", key, sessionID, err)
		return "", false
	}
	return value, true
}

func (s *SQLiteStore) Set(sessionID, key, value string) {
	_, err := s.db.Exec(`
		INSERT INTO storage (session_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value`,
		sessionID, key, value)
	if err != nil {
		log.Printf("guest: write of %s failed for session %s: %v", key, sessionID, err)
	}
}

func (s *SQLiteStore) Remove(sessionID, key string) {
	if _, err := s.db.Exec(`DELETE FROM storage WHERE session_id = ? AND key = ?`, sessionID, key); err != nil {
		log.Printf("guest: delete of %s failed for session %s: %v", key, sessionID, err)
	}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
