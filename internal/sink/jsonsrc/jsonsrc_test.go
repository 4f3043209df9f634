package jsonsrc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
	jsonsource "github.com/biomedkg/kgxchange/internal/source/jsonsrc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGraph(t *testing.T, nodes []*model.Node, edges []*model.Edge) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	s, err := New(path)
	require.NoError(t, err)
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
	src, err := jsonsource.New(source.Config{}, path)
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

func TestSinkEmitsWellFormedDocumentForEmptyGraph(t *testing.T) {
	path := writeGraph(t, nil, nil)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, string(data))
}

func TestSinkSourceRoundTrip(t *testing.T) {
	n := model.NewNode("HGNC:11603")
	n.Name = "TBX4"
	n.Category.Add("biolink:Gene")
	n.Properties["taxon"] = model.StringValue("NCBITaxon:9606")
	e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
	e.PrimaryKnowledgeSource.Add("infores:string")
	path := writeGraph(t, []*model.Node{n}, []*model.Edge{e})

	nodes, edges := readBack(t, path)
	require.Len(t, nodes, 1)
	require.Len(t, edges, 1)
	assert.Equal(t, "TBX4", nodes[0].Name)
	taxon, ok := nodes[0].Properties["taxon"]
	require.True(t, ok)
	v, _ := taxon.String()
	assert.Equal(t, "NCBITaxon:9606", v)
	assert.True(t, edges[0].PrimaryKnowledgeSource.Has("infores:string"))
}

func TestSinkSerializesOriginalEndpointsAfterCliqueRewrite(t *testing.T) {
	e := model.NewEdge("e1", "HGNC:1", "biolink:contributes_to", "MONDO:0005002")
	e.OriginalSubject = "NCBIGene:7"
	e.OriginalObject = "MONDO:0005002"
	path := writeGraph(t, nil, []*model.Edge{e})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"_original_subject":"NCBIGene:7"`)

	_, edges := readBack(t, path)
	require.Len(t, edges, 1)
	assert.Equal(t, "NCBIGene:7", edges[0].OriginalSubject)
	assert.Equal(t, "MONDO:0005002", edges[0].OriginalObject)
	_, leaked := edges[0].Properties["_original_subject"]
	assert.False(t, leaked)
}
