package trapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
	trapisource "github.com/biomedkg/kgxchange/internal/source/trapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGraph(t *testing.T, nodes []*model.Node, edges []*model.Edge) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kg.json")
	s := New(path)
	ctx := context.Background()
	for _, n := range nodes {
		require.NoError(t, s.WriteNode(ctx, n))
	}
	for _, e := range edges {
		require.NoError(t, s.WriteEdge(ctx, e))
	}
	require.NoError(t, s.Finalize(ctx))
	return path
}

func readBack(t *testing.T, path string) (nodes []*model.Node, edges []*model.Edge) {
	t.Helper()
	src, err := trapisource.New(source.Config{}, path)
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

func TestSinkEmitsSourcesByResourceRole(t *testing.T) {
	e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
	e.PrimaryKnowledgeSource.Add("infores:string")
	e.AggregatorKnowledgeSource.Add("infores:monarch")
	path := writeGraph(t, nil, []*model.Edge{e})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"resource_id": "infores:string"`)
	assert.Contains(t, string(data), `"resource_role": "primary_knowledge_source"`)
}

func TestSinkSourceRoundTrip(t *testing.T) {
	n := model.NewNode("HGNC:11603")
	n.Name = "TBX4"
	n.Category.Add("biolink:Gene")
	e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
	e.PrimaryKnowledgeSource.Add("infores:string")
	path := writeGraph(t, []*model.Node{n}, []*model.Edge{e})

	nodes, edges := readBack(t, path)
	require.Len(t, nodes, 1)
	require.Len(t, edges, 1)
	assert.Equal(t, "TBX4", nodes[0].Name)
	assert.True(t, nodes[0].Category.Has("biolink:Gene"))
	assert.True(t, edges[0].PrimaryKnowledgeSource.Has("infores:string"))
}

func TestSinkSerializesOriginalEndpointsAfterCliqueRewrite(t *testing.T) {
	e := model.NewEdge("e1", "HGNC:1", "biolink:contributes_to", "MONDO:0005002")
	e.OriginalSubject = "NCBIGene:7"
	e.OriginalObject = "MONDO:0005002"
	path := writeGraph(t, nil, []*model.Edge{e})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"attribute_type_id": "_original_subject"`)

	_, edges := readBack(t, path)
	require.Len(t, edges, 1)
	assert.Equal(t, "NCBIGene:7", edges[0].OriginalSubject)
	assert.Equal(t, "MONDO:0005002", edges[0].OriginalObject)
	_, leaked := edges[0].Properties["_original_subject"]
	assert.False(t, leaked)
}
