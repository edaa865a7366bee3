// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable persistence for the session collection.
//
// The store is deliberately simple: the entire session list is serialized as
// one JSON blob kept under a fixed key in a SQLite key-value table. It is read
// once at startup and overwritten wholesale on every registry change, matching
// the whole-collection snapshot model of the session registry. Corrupt or
// missing data degrades to an empty session list; it is never fatal.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/gemchat/internal/model"
)

// sessionsKey is the fixed key the whole session collection lives under.
const sessionsKey = "sessions"

const schema = `
CREATE TABLE IF NOT EXISTS state (
    key   TEXT PRIMARY KEY,
    value BLOB NOT NULL
);
`

// =============================================================================
// ERRORS
// =============================================================================

// DecodeError reports that the persisted blob exists but could not be decoded.
// Callers are expected to treat it as "no sessions" and start empty.
type DecodeError struct {
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return "storage: corrupt session blob: " + e.Err.Error()
}

// Unwrap returns the underlying decode failure.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// =============================================================================
// STORE
// =============================================================================

// Store persists the session collection to a SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database location (~/.gemchat/sessions.db).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gemchat", "sessions.db"), nil
}

// Open opens (or creates) the store at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single writer, single connection keeps SQLite happy without WAL tuning.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the persisted session collection. A missing blob yields an empty
// list and no error; a blob that exists but will not decode yields an empty
// list and a *DecodeError so the caller can log the degradation.
func (s *Store) Load() ([]*model.ChatSession, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, sessionsKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return []*model.ChatSession{}, nil
	}
	if err != nil {
		// Unreadable storage is treated like corruption: start empty.
		return []*model.ChatSession{}, &DecodeError{Err: err}
	}

	var sessions []*model.ChatSession
	if err := json.Unmarshal(blob, &sessions); err != nil {
		return []*model.ChatSession{}, &DecodeError{Err: err}
	}
	if sessions == nil {
		sessions = []*model.ChatSession{}
	}
	return sessions, nil
}

// Save overwrites the persisted collection with the given sessions.
func (s *Store) Save(sessions []*model.ChatSession) error {
	blob, err := json.Marshal(sessions)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO state (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		sessionsKey, blob,
	)
	return err
}
