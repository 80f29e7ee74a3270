// Package sqlitestore persists draft snapshots in a local SQLite database,
// the durable analog of the browser profile storage the web views use.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/buildmetric/costmap/pkg/draft"
	"github.com/buildmetric/costmap/pkg/errors"
)

// Store is a draft.Store backed by SQLite.
type Store struct {
	sql     *sql.DB
	horizon time.Duration
}

// Open opens (and migrates) the database at path and prunes snapshots past
// the horizon, so abandoned drafts do not accumulate across sessions.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStorageError("open", path, err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, errors.NewStorageError("open", path, err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, errors.NewStorageError("open", path, err)
	}

	s := &Store{sql: conn, horizon: draft.DefaultHorizon}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	if err := s.pruneExpired(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.sql.Close()
}

func (s *Store) migrate() error {
	_, err := s.sql.Exec(`
		CREATE TABLE IF NOT EXISTS drafts (
			entity_key  TEXT PRIMARY KEY,
			payload     BLOB NOT NULL,
			captured_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return errors.NewStorageError("open", "drafts", err)
	}
	return nil
}

func (s *Store) pruneExpired() error {
	cutoff := time.Now().Add(-s.horizon).Unix()
	if _, err := s.sql.Exec(`DELETE FROM drafts WHERE captured_at < ?`, cutoff); err != nil {
		return errors.NewStorageError("delete", "drafts", err)
	}
	return nil
}

// Put implements draft.Store. Same-key writes replace: two editors racing
// on one entity resolve last-write-wins.
func (s *Store) Put(snapshot draft.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errors.NewStorageError("put", snapshot.Entity.Key(), err)
	}
	_, err = s.sql.Exec(`
		INSERT INTO drafts (entity_key, payload, captured_at) VALUES (?, ?, ?)
		ON CONFLICT(entity_key) DO UPDATE SET
			payload = excluded.payload,
			captured_at = excluded.captured_at
	`, snapshot.Entity.Key(), payload, snapshot.CapturedAt.Unix())
	if err != nil {
		return errors.NewStorageError("put", snapshot.Entity.Key(), err)
	}
	return nil
}

// Get implements draft.Store.
func (s *Store) Get(e draft.EntityRef) (draft.Snapshot, bool, error) {
	var payload []byte
	err := s.sql.QueryRow(`SELECT payload FROM drafts WHERE entity_key = ?`, e.Key()).Scan(&payload)
	if err == sql.ErrNoRows {
		return draft.Snapshot{}, false, nil
	}
	if err != nil {
		return draft.Snapshot{}, false, errors.NewStorageError("get", e.Key(), err)
	}

	var snapshot draft.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return draft.Snapshot{}, false, errors.NewStorageError("get", e.Key(), err)
	}
	return snapshot, true, nil
}

// Delete implements draft.Store.
func (s *Store) Delete(e draft.EntityRef) error {
	if _, err := s.sql.Exec(`DELETE FROM drafts WHERE entity_key = ?`, e.Key()); err != nil {
		return errors.NewStorageError("delete", e.Key(), err)
	}
	return nil
}

// List implements draft.Store.
func (s *Store) List() ([]draft.Snapshot, error) {
	rows, err := s.sql.Query(`SELECT payload FROM drafts ORDER BY captured_at DESC`)
	if err != nil {
		return nil, errors.NewStorageError("get", "drafts", err)
	}
	defer func() { _ = rows.Close() }()

	var out []draft.Snapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.NewStorageError("get", "drafts", err)
		}
		var snapshot draft.Snapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return nil, errors.NewStorageError("get", "drafts", err)
		}
		out = append(out, snapshot)
	}
	return out, rows.Err()
}
