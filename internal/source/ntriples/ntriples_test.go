package ntriples

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triples.nt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newPrefixes(t *testing.T) *prefixmgr.Manager {
	t.Helper()
	m := prefixmgr.New("biolink")
	m.Update(map[string]string{
		"HGNC":    "http://identifiers.org/hgnc/",
		"MONDO":   "http://purl.obolibrary.org/obo/MONDO_",
		"biolink": "https://w3id.org/biolink/vocab/",
	})
	return m
}

func drain(t *testing.T, s *Source) []model.Record {
	t.Helper()
	var out []model.Record
	for {
		rec, ok, err := s.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, rec)
	}
	return out
}

// TestReifiedEdgeFlushesOnSubjectChange verifies that a
// reified rdf:Statement buffered across several triples on the same
// subject becomes one Edge once a new subject arrives.
func TestReifiedEdgeFlushesOnSubjectChange(t *testing.T) {
	path := writeFile(t, ""+
		"<http://example.org/assoc/1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/1999/02/22-rdf-syntax-ns#Statement> .\n"+
		"<http://example.org/assoc/1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#subject> <http://identifiers.org/hgnc/11603> .\n"+
		"<http://example.org/assoc/1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#predicate> <https://w3id.org/biolink/vocab/contributes_to> .\n"+
		"<http://example.org/assoc/1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#object> <http://purl.obolibrary.org/obo/MONDO_0005002> .\n"+
		"<http://example.org/assoc/2> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/1999/02/22-rdf-syntax-ns#Statement> .\n")

	prefixes := newPrefixes(t)
	src, err := New(source.Config{}, prefixes, path)
	require.NoError(t, err)
	defer src.Close()

	records := drain(t, src)
	require.Len(t, records, 1)
	require.True(t, records[0].IsEdge())
	e := records[0].Edge
	assert.Equal(t, "HGNC:11603", e.Subject)
	assert.Equal(t, "biolink:contributes_to", e.Predicate)
	assert.Equal(t, "MONDO:0005002", e.Object)
}

// TestNodePropertyPredicateFoldsIntoProperty verifies the
// node-property-predicates path.
func TestNodePropertyPredicateFoldsIntoProperty(t *testing.T) {
	path := writeFile(t, `<http://identifiers.org/hgnc/11603> <http://purl.org/dc/terms/title> "TBX4" .`+"\n")

	prefixes := newPrefixes(t)
	src, err := New(source.Config{}, prefixes, path)
	require.NoError(t, err)
	defer src.Close()
	src.NodePropertyPredicates["http://purl.org/dc/terms/title"] = "name"

	records := drain(t, src)
	require.Len(t, records, 1)
	require.True(t, records[0].IsNode())
	n := records[0].Node
	assert.Equal(t, "HGNC:11603", n.ID)
	v, ok := n.Properties["name"]
	require.True(t, ok)
	s, _ := v.String()
	assert.Equal(t, "TBX4", s)
}

// TestPlainTripleBecomesEdge covers the default fallthrough path: a
// triple that is neither reification nor a node-property predicate
// becomes a plain subject-predicate-object edge.
func TestPlainTripleBecomesEdge(t *testing.T) {
	path := writeFile(t, `<http://identifiers.org/hgnc/11603> <https://w3id.org/biolink/vocab/contributes_to> <http://purl.obolibrary.org/obo/MONDO_0005002> .`+"\n")

	prefixes := newPrefixes(t)
	src, err := New(source.Config{}, prefixes, path)
	require.NoError(t, err)
	defer src.Close()

	records := drain(t, src)
	require.Len(t, records, 1)
	require.True(t, records[0].IsEdge())
	e := records[0].Edge
	assert.Equal(t, "HGNC:11603", e.Subject)
	assert.Equal(t, "biolink:contributes_to", e.Predicate)
	assert.Equal(t, "MONDO:0005002", e.Object)
}

func TestMalformedLineIsSkippedAndReported(t *testing.T) {
	path := writeFile(t, "this is not a triple\n"+
		`<http://identifiers.org/hgnc/11603> <https://w3id.org/biolink/vocab/contributes_to> <http://purl.obolibrary.org/obo/MONDO_0005002> .`+"\n")

	prefixes := newPrefixes(t)
	src, err := New(source.Config{}, prefixes, path)
	require.NoError(t, err)
	defer src.Close()

	var malformed []MalformedLine
	src.OnMalformedLine = func(m MalformedLine) { malformed = append(malformed, m) }

	records := drain(t, src)
	require.Len(t, records, 1)
	require.Len(t, malformed, 1)
	assert.Equal(t, 1, malformed[0].Line)
}
