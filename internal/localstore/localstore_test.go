package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/biomedkg/kgxchange/internal/reportstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "reports", "kgx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, reportstore.Report{
		RunID: "run-1", Kind: reportstore.KindSummary, CreatedAt: created,
		Payload: []byte(`{"nodes": 2}`),
	}))
	require.NoError(t, s.Save(ctx, reportstore.Report{
		RunID: "run-1", Kind: reportstore.KindValidation, CreatedAt: created,
		Payload: []byte(`{}`),
	}))

	reports, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, reportstore.KindSummary, reports[0].Kind) // ordered by kind
	assert.Equal(t, reportstore.KindValidation, reports[1].Kind)
	assert.JSONEq(t, `{"nodes": 2}`, string(reports[0].Payload))
}

func TestSaveUpsertsOnRunAndKind(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := reportstore.Report{
		RunID: "run-1", Kind: reportstore.KindSummary,
		CreatedAt: time.Now().UTC(), Payload: []byte(`{"nodes": 1}`),
	}
	require.NoError(t, s.Save(ctx, first))
	first.Payload = []byte(`{"nodes": 5}`)
	require.NoError(t, s.Save(ctx, first))

	reports, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.JSONEq(t, `{"nodes": 5}`, string(reports[0].Payload))
}

func TestListUnknownRunIsEmpty(t *testing.T) {
	s := newStore(t)
	reports, err := s.List(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, reports)
}
