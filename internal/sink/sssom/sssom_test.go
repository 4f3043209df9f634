package sssom

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = '\t'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestEdgeBecomesMappingRowWithLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.sssom.tsv")
	s, err := New(path)
	require.NoError(t, err)
	ctx := context.Background()

	a := model.NewNode("HGNC:11603")
	a.Name = "TBX4"
	b := model.NewNode("NCBIGene:9496")
	b.Name = "TBX4"
	require.NoError(t, s.WriteNode(ctx, a))
	require.NoError(t, s.WriteNode(ctx, b))

	e := model.NewEdge("e1", "HGNC:11603", "biolink:same_as", "NCBIGene:9496")
	e.Properties["mapping_justification"] = model.StringValue("semapv:ManualMappingCuration")
	require.NoError(t, s.WriteEdge(ctx, e))
	require.NoError(t, s.Finalize(ctx))

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"subject_id", "subject_label", "predicate_id", "object_id", "object_label",
		"mapping_justification", "mapping_tool", "confidence",
	}, rows[0])
	assert.Equal(t, "HGNC:11603", rows[1][0])
	assert.Equal(t, "TBX4", rows[1][1])
	assert.Equal(t, "skos:exactMatch", rows[1][2])
	assert.Equal(t, "NCBIGene:9496", rows[1][3])
	assert.Equal(t, "semapv:ManualMappingCuration", rows[1][5])
}

func TestOriginalEndpointsAddExtensionColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.sssom.tsv")
	s, err := New(path)
	require.NoError(t, err)
	ctx := context.Background()

	e := model.NewEdge("e1", "HGNC:1", "biolink:same_as", "ENSEMBL:e")
	e.OriginalSubject = "NCBIGene:7"
	require.NoError(t, s.WriteEdge(ctx, e))
	require.NoError(t, s.Finalize(ctx))

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], 10)
	assert.Equal(t, "_original_subject", rows[0][8])
	assert.Equal(t, "_original_object", rows[0][9])
	assert.Equal(t, "NCBIGene:7", rows[1][8])
	assert.Empty(t, rows[1][9])
}

func TestUnmappedPredicatePassesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.sssom.tsv")
	s, err := New(path)
	require.NoError(t, err)
	ctx := context.Background()

	e := model.NewEdge("e1", "A:1", "skos:exactMatch", "B:2")
	require.NoError(t, s.WriteEdge(ctx, e))
	require.NoError(t, s.Finalize(ctx))

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "skos:exactMatch", rows[1][2])
	assert.Empty(t, rows[1][1]) // no label observed for A:1
}
