package tabular

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
	tabularsource "github.com/biomedkg/kgxchange/internal/source/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGraph(t *testing.T, nodes []*model.Node, edges []*model.Edge) (nodePath, edgePath string) {
	t.Helper()
	dir := t.TempDir()
	nodePath = filepath.Join(dir, "nodes.tsv")
	edgePath = filepath.Join(dir, "edges.tsv")
	s := New(nodePath, edgePath, false)
	ctx := context.Background()
	for _, n := range nodes {
		require.NoError(t, s.WriteNode(ctx, n))
	}
	for _, e := range edges {
		require.NoError(t, s.WriteEdge(ctx, e))
	}
	require.NoError(t, s.Finalize(ctx))
	return nodePath, edgePath
}

func readBack(t *testing.T, nodePath, edgePath string) (nodes []*model.Node, edges []*model.Edge) {
	t.Helper()
	src, err := tabularsource.New(source.Config{},
		tabularsource.WithNodeFile(nodePath), tabularsource.WithEdgeFile(edgePath))
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

func TestSinkWritesCoreColumnsInStableOrder(t *testing.T) {
	n := model.NewNode("HGNC:11603")
	n.Name = "TBX4"
	n.Category.Add("biolink:Gene")
	nodePath, _ := writeGraph(t, []*model.Node{n}, nil)

	data, err := os.ReadFile(nodePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id\tcategory\tname\t"), "header %q", lines[0])
}

func TestSinkSourceRoundTrip(t *testing.T) {
	n := model.NewNode("HGNC:11603")
	n.Name = "TBX4"
	n.Category.Add("biolink:Gene")
	n.Xref.Add("NCBIGene:9496")
	e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
	e.Publications = []string{"PMID:123"}
	nodePath, edgePath := writeGraph(t, []*model.Node{n}, []*model.Edge{e})

	nodes, edges := readBack(t, nodePath, edgePath)
	require.Len(t, nodes, 1)
	require.Len(t, edges, 1)
	assert.Equal(t, "TBX4", nodes[0].Name)
	assert.True(t, nodes[0].Xref.Has("NCBIGene:9496"))
	assert.Equal(t, "biolink:contributes_to", edges[0].Predicate)
	assert.Equal(t, []string{"PMID:123"}, edges[0].Publications)
}

func TestSinkSerializesOriginalEndpointsAfterCliqueRewrite(t *testing.T) {
	e := model.NewEdge("e1", "HGNC:1", "biolink:contributes_to", "MONDO:0005002")
	e.OriginalSubject = "NCBIGene:7"
	e.OriginalObject = "MONDO:0005002"
	nodePath, edgePath := writeGraph(t, nil, []*model.Edge{e})

	data, err := os.ReadFile(edgePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "_original_subject")
	assert.Contains(t, string(data), "NCBIGene:7")

	_, edges := readBack(t, nodePath, edgePath)
	require.Len(t, edges, 1)
	assert.Equal(t, "NCBIGene:7", edges[0].OriginalSubject)
	assert.Equal(t, "MONDO:0005002", edges[0].OriginalObject)
	_, leaked := edges[0].Properties["_original_subject"]
	assert.False(t, leaked)
}
