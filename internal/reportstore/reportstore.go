// Package reportstore defines the shared persisted-reporting
// contract: validator error trees, InfoRes catalogs, and
// summary/meta-KG reports from a completed run, stored as one row per
// (run, kind). PGStore here is the pgxpool-backed implementation for
// shared/team deployments; the sibling internal/localstore package is
// the sqlite-backed implementation for single-user runs.
package reportstore

import (
	"context"
	"time"
)

// Kind distinguishes the payload shapes a run can persist.
type Kind string

const (
	KindValidation Kind = "validation"
	KindInfoRes    Kind = "infores_catalog"
	KindSummary    Kind = "summary"
	KindMetaKG     Kind = "meta_kg"
)

// Report is one persisted run artifact.
type Report struct {
	RunID     string
	Kind      Kind
	CreatedAt time.Time
	Payload   []byte // JSON-encoded
}

// Store persists and retrieves Reports; the backend is selected by
// internal/config's Storage.Type.
type Store interface {
	Save(ctx context.Context, r Report) error
	List(ctx context.Context, runID string) ([]Report, error)
	Close() error
}
