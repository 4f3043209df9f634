// Package localstore implements reportstore.Store on SQLite for
// single-user local runs: sqlx.Connect against a WAL-mode database
// file.
package localstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/biomedkg/kgxchange/internal/reportstore"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the sqlite-backed reportstore.Store implementation.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS run_reports (
	run_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	payload BLOB NOT NULL,
	PRIMARY KEY (run_id, kind)
)`

// New opens (creating if needed) the sqlite database at path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("localstore: create directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("localstore: connect: %w", err)
	}
	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	s := &Store{db: db}
	if _, err := s.db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("localstore: init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Save(ctx context.Context, r reportstore.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_reports (run_id, kind, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, kind) DO UPDATE SET
			created_at = excluded.created_at,
			payload = excluded.payload
	`, r.RunID, string(r.Kind), r.CreatedAt, r.Payload)
	if err != nil {
		return fmt.Errorf("localstore: save: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, runID string) ([]reportstore.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, kind, created_at, payload FROM run_reports WHERE run_id = ? ORDER BY kind
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("localstore: list: %w", err)
	}
	defer rows.Close()

	var out []reportstore.Report
	for rows.Next() {
		var r reportstore.Report
		var kind string
		if err := rows.Scan(&r.RunID, &kind, &r.CreatedAt, &r.Payload); err != nil {
			return nil, fmt.Errorf("localstore: scan: %w", err)
		}
		r.Kind = reportstore.Kind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
