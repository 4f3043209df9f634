// Package sink defines the Sink contract: a write-only,
// single-use consumer of model.Record values, plus the shared writer
// configuration every format-specific Sink under internal/sink/*
// recognizes.
package sink

import (
	"context"

	"github.com/biomedkg/kgxchange/internal/model"
)

// Sink is a write-only, single-use consumer of records. WriteNode and
// WriteEdge receive one record at a time; Finalize flushes buffers and
// closes handles, and must be safe to call even if writes failed
// partway through.
type Sink interface {
	WriteNode(ctx context.Context, n *model.Node) error
	WriteEdge(ctx context.Context, e *model.Edge) error
	Finalize(ctx context.Context) error
}

// Config is the shared writer configuration.
type Config struct {
	Filename    string
	Format      string
	Compression string // "gz", "tar.gz", or ""

	// ArchiveTogether requests that multiple output files (e.g. a
	// tabular Sink's node and edge files) be combined into one tarball
	// on Finalize.
	ArchiveTogether bool
}

// Null is the discard Sink, used when only Inspectors matter.
type Null struct {
	NodeCount int
	EdgeCount int
}

func NewNull() *Null { return &Null{} }

func (s *Null) WriteNode(_ context.Context, _ *model.Node) error { s.NodeCount++; return nil }
func (s *Null) WriteEdge(_ context.Context, _ *model.Edge) error { s.EdgeCount++; return nil }
func (s *Null) Finalize(_ context.Context) error                 { return nil }
