package reportstore

// PGStore implements Store on Postgres: a pgxpool connection and one
// upserted run-report row per (run id, kind).

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	pool *pgxpool.Pool
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS run_reports (
	run_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	payload JSONB NOT NULL,
	PRIMARY KEY (run_id, kind)
)`

// NewPGStore connects to dsn and ensures the run_reports table exists.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("reportstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reportstore: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reportstore: init schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Save(ctx context.Context, r Report) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO run_reports (run_id, kind, created_at, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, kind) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			payload = EXCLUDED.payload
	`, r.RunID, string(r.Kind), r.CreatedAt, r.Payload)
	if err != nil {
		return fmt.Errorf("reportstore: save: %w", err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, runID string) ([]Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, kind, created_at, payload FROM run_reports WHERE run_id = $1 ORDER BY kind
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("reportstore: list: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		var kind string
		if err := rows.Scan(&r.RunID, &kind, &r.CreatedAt, &r.Payload); err != nil {
			return nil, fmt.Errorf("reportstore: scan: %w", err)
		}
		r.Kind = Kind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
