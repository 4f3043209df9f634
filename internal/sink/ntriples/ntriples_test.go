package ntriples

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/source"
	ntsource "github.com/biomedkg/kgxchange/internal/source/ntriples"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *prefixmgr.Manager {
	t.Helper()
	m := prefixmgr.New("biolink")
	m.Update(map[string]string{
		"biolink": "https://w3id.org/biolink/vocab/",
		"HGNC":    "http://identifiers.org/hgnc/",
		"MONDO":   "http://purl.obolibrary.org/obo/MONDO_",
		"infores": "https://w3id.org/information-resource-registry/",
	})
	return m
}

func writeOut(t *testing.T, fn func(s *Sink)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.nt")
	s, err := New(newManager(t), path)
	require.NoError(t, err)
	fn(s)
	require.NoError(t, s.Finalize(context.Background()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBareEdgeEmitsPlainTriple(t *testing.T) {
	out := writeOut(t, func(s *Sink) {
		e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
		require.NoError(t, s.WriteEdge(context.Background(), e))
	})
	assert.Equal(t,
		"<http://identifiers.org/hgnc/11603> <https://w3id.org/biolink/vocab/contributes_to> <http://purl.obolibrary.org/obo/MONDO_0005002> .\n",
		out)
}

func TestAnnotatedEdgeEmitsReifiedStatement(t *testing.T) {
	out := writeOut(t, func(s *Sink) {
		e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
		e.PrimaryKnowledgeSource.Add("infores:string")
		require.NoError(t, s.WriteEdge(context.Background(), e))
	})
	assert.Contains(t, out, "<https://w3id.org/biolink/reified/edge/e1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/1999/02/22-rdf-syntax-ns#Statement> .")
	assert.Contains(t, out, "<http://www.w3.org/1999/02/22-rdf-syntax-ns#subject> <http://identifiers.org/hgnc/11603>")
	assert.Contains(t, out, "<http://www.w3.org/1999/02/22-rdf-syntax-ns#object> <http://purl.obolibrary.org/obo/MONDO_0005002>")
	assert.Contains(t, out, "property/primary_knowledge_source> <https://w3id.org/information-resource-registry/string>")
	// every statement line is a proper N-Triples terminator
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.True(t, strings.HasSuffix(line, " ."), "line %q missing terminator", line)
	}
}

func TestNodeEmitsLabelAndTypeTriples(t *testing.T) {
	out := writeOut(t, func(s *Sink) {
		n := model.NewNode("HGNC:11603")
		n.Name = "TBX4"
		n.Category.Add("biolink:Gene")
		require.NoError(t, s.WriteNode(context.Background(), n))
	})
	assert.Contains(t, out, `<http://identifiers.org/hgnc/11603> <http://www.w3.org/2000/01/rdf-schema#label> "TBX4" .`)
	assert.Contains(t, out, "<http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://w3id.org/biolink/vocab/Gene>")
}

func TestLiteralEscaping(t *testing.T) {
	out := writeOut(t, func(s *Sink) {
		n := model.NewNode("HGNC:1")
		n.Name = `has "quotes" and a \ backslash`
		require.NoError(t, s.WriteNode(context.Background(), n))
	})
	assert.Contains(t, out, `"has \"quotes\" and a \\ backslash"`)
}

func TestReifiedEdgeRoundTripsThroughSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.nt")
	s, err := New(newManager(t), path)
	require.NoError(t, err)
	e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
	e.Properties["score"] = model.StringValue("0.9")
	e.OriginalSubject = "HGNC:99"
	require.NoError(t, s.WriteEdge(context.Background(), e))
	require.NoError(t, s.Finalize(context.Background()))

	src, err := ntsource.New(source.Config{}, newManager(t), path)
	require.NoError(t, err)
	defer src.Close()

	var edges []*model.Edge
	for {
		rec, ok, err := src.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		require.True(t, rec.IsEdge())
		edges = append(edges, rec.Edge)
	}
	require.Len(t, edges, 1)
	assert.Equal(t, "HGNC:11603", edges[0].Subject)
	assert.Equal(t, "biolink:contributes_to", edges[0].Predicate)
	assert.Equal(t, "MONDO:0005002", edges[0].Object)
	score, ok := edges[0].Properties["score"]
	require.True(t, ok)
	v, _ := score.String()
	assert.Equal(t, "0.9", v)
	assert.Equal(t, "HGNC:99", edges[0].OriginalSubject)
	_, leaked := edges[0].Properties["_original_subject"]
	assert.False(t, leaked)
}

func TestOriginalEndpointsAloneForceReification(t *testing.T) {
	out := writeOut(t, func(s *Sink) {
		e := model.NewEdge("e1", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
		e.OriginalSubject = "HGNC:99"
		require.NoError(t, s.WriteEdge(context.Background(), e))
	})
	assert.Contains(t, out, "<http://www.w3.org/1999/02/22-rdf-syntax-ns#Statement>")
	assert.Contains(t, out, "property/_original_subject> <http://identifiers.org/hgnc/99>")
}
