package prefixmgr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	m := New("biolink")
	m.Update(map[string]string{
		"HGNC":     "https://identifiers.org/HGNC:",
		"MONDO":    "http://purl.obolibrary.org/obo/MONDO_",
		"NCBIGene": "https://identifiers.org/ncbigene/",
		"biolink":  "https://w3id.org/biolink/vocab/",
	})
	m.SetPriority([]string{"HGNC", "NCBIGene", "ENSEMBL"})
	return m
}

func TestExpandAndContractRoundTrip(t *testing.T) {
	m := newTestManager()
	iri, err := m.Expand("HGNC:11603")
	require.NoError(t, err)
	assert.Equal(t, "https://identifiers.org/HGNC:11603", iri)

	curie, err := m.Contract(iri, true)
	require.NoError(t, err)
	assert.Equal(t, "HGNC:11603", curie)
}

func TestExpandUnknownPrefix(t *testing.T) {
	m := newTestManager()
	_, err := m.Expand("BOGUS:1")
	var target *ErrUnknownPrefix
	assert.True(t, errors.As(err, &target))
}

func TestExpandPassesThroughIRI(t *testing.T) {
	m := newTestManager()
	iri, err := m.Expand("https://example.org/already/an/iri")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/already/an/iri", iri)
}

func TestContractNonStrictPassesThroughUnmatched(t *testing.T) {
	m := newTestManager()
	out, err := m.Contract("https://unregistered.example/x", false)
	require.NoError(t, err)
	assert.Equal(t, "https://unregistered.example/x", out)
}

func TestContractStrictFailsOnUnmatched(t *testing.T) {
	m := newTestManager()
	_, err := m.Contract("https://unregistered.example/x", true)
	var target *ErrNoContraction
	assert.True(t, errors.As(err, &target))
}

func TestCanonicalProperty(t *testing.T) {
	m := newTestManager()
	for _, c := range []string{"HGNC:11603", "MONDO:0005002"} {
		expanded, err := m.Expand(c)
		require.NoError(t, err)
		contracted, err := m.Contract(expanded, false)
		require.NoError(t, err)
		canon, err := m.Canonical(c)
		require.NoError(t, err)
		assert.Equal(t, contracted, canon)
	}
}

func TestUpdateLaterBindingWinsAndWarns(t *testing.T) {
	m := New("biolink")
	var redefined []string
	m.OnRedefinition(func(prefix, oldBase, newBase string) {
		redefined = append(redefined, prefix)
	})
	m.Update(map[string]string{"X": "https://a.example/"})
	m.Update(map[string]string{"X": "https://b.example/"})
	iri, err := m.Expand("X:1")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example/1", iri)
	assert.Equal(t, []string{"X"}, redefined)
}

func TestIsValidCURIE(t *testing.T) {
	m := newTestManager()
	assert.True(t, m.IsValidCURIE("HGNC:11603"))
	assert.False(t, m.IsValidCURIE("not-a-curie"))
	assert.False(t, m.IsValidCURIE("BOGUS:1"))
	assert.False(t, m.IsValidCURIE("https://example.org/iri"))
}

func TestPriorityRankBreaksContractionTies(t *testing.T) {
	m := New("biolink")
	// Two bases of equal length matching the same IRI; priority decides.
	m.Update(map[string]string{
		"AAA": "https://identifiers.org/x/",
		"BBB": "https://identifiers.org/y/",
	})
	m.SetPriority([]string{"BBB", "AAA"})
	rankA, _ := m.PriorityRank("AAA")
	rankB, _ := m.PriorityRank("BBB")
	assert.Less(t, rankB, rankA)
}
