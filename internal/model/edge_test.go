package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEdgeMintsDeterministicID(t *testing.T) {
	e1 := NewEdge("", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
	e2 := NewEdge("", "HGNC:11603", "biolink:contributes_to", "MONDO:0005002")
	require.NotEmpty(t, e1.ID)
	assert.Equal(t, e1.ID, e2.ID, "minting must be deterministic for idempotent re-transforms")
}

func TestNewEdgeKeepsExplicitID(t *testing.T) {
	e := NewEdge("e1", "A:1", "biolink:related_to", "B:1")
	assert.Equal(t, "e1", e.ID)
}

func TestEdgeMergeKeyIncludesPrimaryKnowledgeSource(t *testing.T) {
	e := NewEdge("e1", "A:1", "biolink:related_to", "B:1")
	e.PrimaryKnowledgeSource.Add("infores:string")
	other := NewEdge("e2", "A:1", "biolink:related_to", "B:1")
	other.PrimaryKnowledgeSource.Add("infores:ctd")
	assert.NotEqual(t, e.MergeKey(), other.MergeKey())
}

func TestEdgeMergeIntoUnionsSetsAndFlagsScalarConflict(t *testing.T) {
	a := NewEdge("e1", "A:1", "biolink:related_to", "B:1")
	a.KnowledgeLevel = "knowledge_assertion"
	a.Publications = []string{"PMID:1"}

	b := NewEdge("e1", "A:1", "biolink:related_to", "B:1")
	b.KnowledgeLevel = "logical_entailment"
	b.Publications = []string{"PMID:1", "PMID:2"}

	conflicts := a.MergeInto(b)

	assert.Equal(t, "knowledge_assertion", a.KnowledgeLevel, "scalar conflicts resolve first-wins")
	assert.Equal(t, []string{"PMID:1", "PMID:2"}, a.Publications)
	assert.Contains(t, conflicts, "knowledge_level")
}
