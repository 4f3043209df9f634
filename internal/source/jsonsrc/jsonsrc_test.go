package jsonsrc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	jsonsink "github.com/biomedkg/kgxchange/internal/sink/jsonsrc"
	"github.com/biomedkg/kgxchange/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func drain(t *testing.T, src *Source) (nodes []*model.Node, edges []*model.Edge) {
	t.Helper()
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

func TestSourceStreamsNodesThenEdges(t *testing.T) {
	path := writeDoc(t, `{
		"nodes": [
			{"id": "HGNC:11603", "category": ["biolink:Gene"], "name": "TBX4"},
			{"id": "MONDO:0005002", "category": ["biolink:Disease"], "name": "COPD"}
		],
		"edges": [
			{"id": "e1", "subject": "HGNC:11603", "predicate": "biolink:contributes_to", "object": "MONDO:0005002"}
		]
	}`)
	src, err := New(source.Config{}, path)
	require.NoError(t, err)
	defer src.Close()

	nodes, edges := drain(t, src)
	require.Len(t, nodes, 2)
	require.Len(t, edges, 1)
	assert.Equal(t, "HGNC:11603", nodes[0].ID)
	assert.Equal(t, "TBX4", nodes[0].Name)
	assert.True(t, nodes[0].Category.Has("biolink:Gene"))
	assert.Equal(t, "e1", edges[0].ID)
	assert.Equal(t, "biolink:contributes_to", edges[0].Predicate)
}

func TestSourceFoldsUnknownFieldsIntoProperties(t *testing.T) {
	path := writeDoc(t, `{
		"nodes": [{"id": "HGNC:1", "category": ["biolink:Gene"], "taxon": "NCBITaxon:9606", "score": 0.9}],
		"edges": []
	}`)
	src, err := New(source.Config{}, path)
	require.NoError(t, err)
	defer src.Close()

	nodes, _ := drain(t, src)
	require.Len(t, nodes, 1)
	taxon, ok := nodes[0].Properties["taxon"]
	require.True(t, ok)
	s, _ := taxon.String()
	assert.Equal(t, "NCBITaxon:9606", s)
	score, ok := nodes[0].Properties["score"]
	require.True(t, ok)
	n, _ := score.Number()
	assert.Equal(t, 0.9, n)
}

func TestSourceSkipsUnknownTopLevelKeys(t *testing.T) {
	path := writeDoc(t, `{
		"version": "1.0",
		"meta": {"producer": "test"},
		"nodes": [{"id": "HGNC:1", "category": ["biolink:Gene"]}],
		"edges": []
	}`)
	src, err := New(source.Config{}, path)
	require.NoError(t, err)
	defer src.Close()

	nodes, edges := drain(t, src)
	assert.Len(t, nodes, 1)
	assert.Empty(t, edges)
}

func TestSourceAppliesProvidedByDefault(t *testing.T) {
	path := writeDoc(t, `{"nodes": [{"id": "HGNC:1", "category": ["biolink:Gene"]}], "edges": []}`)
	src, err := New(source.Config{ProvidedBy: "infores:test"}, path)
	require.NoError(t, err)
	defer src.Close()

	nodes, _ := drain(t, src)
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].ProvidedBy.Has("infores:test"))
}

func TestSourceMintsEdgeIDWhenAbsent(t *testing.T) {
	path := writeDoc(t, `{"nodes": [], "edges": [{"subject": "A:1", "predicate": "biolink:related_to", "object": "B:2"}]}`)
	src, err := New(source.Config{}, path)
	require.NoError(t, err)
	defer src.Close()

	_, edges := drain(t, src)
	require.Len(t, edges, 1)
	assert.NotEmpty(t, edges[0].ID)
	assert.Equal(t, model.MintEdgeID("A:1", "biolink:related_to", "B:2"), edges[0].ID)
}

func TestSinkSourceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	snk, err := jsonsink.New(path)
	require.NoError(t, err)
	n := model.NewNode("HGNC:11603")
	n.Category.Add("biolink:Gene")
	n.Name = "TBX4"
	n.Properties["taxon"] = model.StringValue("NCBITaxon:9606")
	require.NoError(t, snk.WriteNode(context.Background(), n))
	e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
	require.NoError(t, snk.WriteEdge(context.Background(), e))
	require.NoError(t, snk.Finalize(context.Background()))

	src, err := New(source.Config{}, path)
	require.NoError(t, err)
	defer src.Close()

	nodes, edges := drain(t, src)
	require.Len(t, nodes, 1)
	require.Len(t, edges, 1)
	assert.Equal(t, "TBX4", nodes[0].Name)
	taxon, ok := nodes[0].Properties["taxon"]
	require.True(t, ok)
	s, _ := taxon.String()
	assert.Equal(t, "NCBITaxon:9606", s)
	assert.Equal(t, "e1", edges[0].ID)
}
