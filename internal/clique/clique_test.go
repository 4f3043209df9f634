package clique

import (
	"testing"

	"github.com/biomedkg/kgxchange/internal/graphstore"
	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStore() (*graphstore.Store, *model.Node, *model.Node) {
	store := graphstore.New()
	a := model.NewNode("HGNC:11603")
	a.Category.Add("biolink:Gene")
	b := model.NewNode("ENSEMBL:ENSG00000141510")
	b.Category.Add("biolink:Gene")
	store.AddNode(a)
	store.AddNode(b)
	store.AddEdge(model.NewEdge("", a.ID, SameAsPredicate, b.ID))
	store.AddEdge(model.NewEdge("", "MONDO:0005002", "biolink:contributes_to", a.ID))
	return store, a, b
}

func TestResolveCollapsesSameAsClique(t *testing.T) {
	store, a, b := buildStore()
	prefixes := prefixmgr.New("biolink")
	prefixes.SetPriority([]string{"HGNC", "ENSEMBL"})

	n, err := Resolve(store, Options{Prefixes: prefixes})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	leader := store.GetNode(a.ID)
	require.NotNil(t, leader, "higher-priority prefix wins leadership")
	assert.Nil(t, store.GetNode(b.ID))
	assert.True(t, leader.Xref.Has(b.ID), "merged ids land in the leader's xref")

	for _, e := range store.Edges() {
		assert.NotEqual(t, b.ID, e.Subject)
		assert.NotEqual(t, b.ID, e.Object)
	}
}

func TestResolveRecordsOriginalEndpointsOnRewrittenEdges(t *testing.T) {
	store, a, b := buildStore()
	store.AddEdge(model.NewEdge("", b.ID, "biolink:affects", "MONDO:0005002"))
	prefixes := prefixmgr.New("biolink")
	prefixes.SetPriority([]string{"HGNC", "ENSEMBL"})

	_, err := Resolve(store, Options{Prefixes: prefixes})
	require.NoError(t, err)

	var rewritten *model.Edge
	for _, e := range store.Edges() {
		if e.Predicate == "biolink:affects" {
			rewritten = e
		}
	}
	require.NotNil(t, rewritten)
	assert.Equal(t, a.ID, rewritten.Subject)
	assert.Equal(t, b.ID, rewritten.OriginalSubject)
	assert.Equal(t, "MONDO:0005002", rewritten.OriginalObject)
}

func TestResolveHonorsExplicitLeaderFlag(t *testing.T) {
	store, a, b := buildStore()
	b.Properties[CliqueLeaderProperty] = model.BoolValue(true)
	prefixes := prefixmgr.New("biolink")
	prefixes.SetPriority([]string{"HGNC", "ENSEMBL"})

	_, err := Resolve(store, Options{Prefixes: prefixes})
	require.NoError(t, err)

	assert.Nil(t, store.GetNode(a.ID))
	assert.NotNil(t, store.GetNode(b.ID), "clique_leader flag overrides prefix priority")
}

func TestResolveDropsSelfLoopUnlessAllowed(t *testing.T) {
	store := graphstore.New()
	a := model.NewNode("A:1")
	b := model.NewNode("A:2")
	store.AddNode(a)
	store.AddNode(b)
	store.AddEdge(model.NewEdge("", a.ID, SameAsPredicate, b.ID))
	store.AddEdge(model.NewEdge("", a.ID, "biolink:related_to", b.ID))

	prefixes := prefixmgr.New("biolink")
	_, err := Resolve(store, Options{Prefixes: prefixes, AllowSelfLoops: false})
	require.NoError(t, err)
	assert.Equal(t, 0, store.EdgeCount(), "related_to collapses into a self-loop and is dropped")
}

func TestResolveKeepsSelfLoopWhenAllowed(t *testing.T) {
	store := graphstore.New()
	a := model.NewNode("A:1")
	b := model.NewNode("A:2")
	store.AddNode(a)
	store.AddNode(b)
	store.AddEdge(model.NewEdge("", a.ID, SameAsPredicate, b.ID))
	store.AddEdge(model.NewEdge("", a.ID, "biolink:related_to", b.ID))

	prefixes := prefixmgr.New("biolink")
	_, err := Resolve(store, Options{Prefixes: prefixes, AllowSelfLoops: true})
	require.NoError(t, err)
	assert.Equal(t, 1, store.EdgeCount())
}

func TestResolveStrictRejectsIncompatibleCategories(t *testing.T) {
	store := graphstore.New()
	a := model.NewNode("A:1")
	a.Category.Add("biolink:Gene")
	b := model.NewNode("A:2")
	b.Category.Add("biolink:Disease")
	store.AddNode(a)
	store.AddNode(b)
	store.AddEdge(model.NewEdge("", a.ID, SameAsPredicate, b.ID))

	prefixes := prefixmgr.New("biolink")
	svc := vocab.NewStaticService("test").
		AddClass("biolink:Gene", "biolink:NamedThing").
		AddClass("biolink:Disease", "biolink:NamedThing")
	_, err := Resolve(store, Options{Prefixes: prefixes, Strict: true, Vocab: svc})
	require.Error(t, err)
	var conflict *CliqueConflict
	require.ErrorAs(t, err, &conflict)
}
