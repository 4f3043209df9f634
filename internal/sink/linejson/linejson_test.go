package linejson

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
	linejsonsource "github.com/biomedkg/kgxchange/internal/source/linejson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGraph(t *testing.T, nodes []*model.Node, edges []*model.Edge) string {
	t.Helper()
	base := filepath.Join(t.TempDir(), "graph")
	s, err := New(base)
	require.NoError(t, err)
	ctx := context.Background()
	for _, n := range nodes {
		require.NoError(t, s.WriteNode(ctx, n))
	}
	for _, e := range edges {
		require.NoError(t, s.WriteEdge(ctx, e))
	}
	require.NoError(t, s.Finalize(ctx))
	return base
}

func readBack(t *testing.T, base string) (nodes []*model.Node, edges []*model.Edge) {
	t.Helper()
	src, err := linejsonsource.New(source.Config{}, base)
	require.NoError(t, err)
	defer src.Close()
	for {
		rec, ok, err := src.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return nodes, edges
		}
		if rec.IsNode() {
			nodes = append(nodes, rec.Node)
		} else {
			edges = append(edges, rec.Edge)
		}
	}
}

func TestSinkWritesOneRecordPerLine(t *testing.T) {
	a := model.NewNode("HGNC:1")
	b := model.NewNode("HGNC:2")
	base := writeGraph(t, []*model.Node{a, b}, nil)

	data, err := os.ReadFile(base + "_nodes.jsonl")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}

func TestSinkSourceRoundTrip(t *testing.T) {
	n := model.NewNode("HGNC:11603")
	n.Name = "TBX4"
	n.Category.Add("biolink:Gene")
	e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
	e.KnowledgeLevel = "knowledge_assertion"
	base := writeGraph(t, []*model.Node{n}, []*model.Edge{e})

	nodes, edges := readBack(t, base)
	require.Len(t, nodes, 1)
	require.Len(t, edges, 1)
	assert.Equal(t, "TBX4", nodes[0].Name)
	assert.Equal(t, "knowledge_assertion", edges[0].KnowledgeLevel)
}

func TestSinkSerializesOriginalEndpointsAfterCliqueRewrite(t *testing.T) {
	e := model.NewEdge("e1", "HGNC:1", "biolink:contributes_to", "MONDO:0005002")
	e.OriginalSubject = "NCBIGene:7"
	e.OriginalObject = "MONDO:0005002"
	base := writeGraph(t, nil, []*model.Edge{e})

	data, err := os.ReadFile(base + "_edges.jsonl")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"_original_subject":"NCBIGene:7"`)

	_, edges := readBack(t, base)
	require.Len(t, edges, 1)
	assert.Equal(t, "NCBIGene:7", edges[0].OriginalSubject)
	assert.Equal(t, "MONDO:0005002", edges[0].OriginalObject)
	_, leaked := edges[0].Properties["_original_subject"]
	assert.False(t, leaked)
}
