package transform

import (
	"context"
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/sink"
	"github.com/biomedkg/kgxchange/internal/source"
	"github.com/biomedkg/kgxchange/internal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource replays a fixed record slice, for driving the pipeline
// without file I/O.
type sliceSource struct {
	recs []model.Record
	i    int
}

func (s *sliceSource) Next(_ context.Context) (model.Record, bool, error) {
	if s.i >= len(s.recs) {
		return model.Record{}, false, nil
	}
	rec := s.recs[s.i]
	s.i++
	return rec, true, nil
}

func (s *sliceSource) Close() error { return nil }

func testPrefixes(t *testing.T) *prefixmgr.Manager {
	t.Helper()
	m := prefixmgr.New("biolink")
	m.Update(map[string]string{
		"HGNC":    "http://identifiers.org/hgnc/",
		"MONDO":   "http://purl.obolibrary.org/obo/MONDO_",
		"biolink": "https://w3id.org/biolink/vocab/",
	})
	return m
}

func testVocab() *vocab.StaticService {
	return vocab.NewStaticService("test").
		AddClass("biolink:Gene", "biolink:NamedThing").
		AddClass("biolink:Disease", "biolink:NamedThing").
		AddPredicate("biolink:contributes_to", "biolink:related_to")
}

func fixtureRecords(nNodes, nEdges int) []model.Record {
	recs := make([]model.Record, 0, nNodes+nEdges)
	for i := 0; i < nNodes; i++ {
		n := model.NewNode(nodeID(i))
		n.Category.Add("biolink:Gene")
		recs = append(recs, model.NodeRec(n))
	}
	for i := 0; i < nEdges; i++ {
		e := model.NewEdge("", nodeID(i%nNodes), "biolink:contributes_to", nodeID((i+1)%nNodes))
		recs = append(recs, model.EdgeRec(e))
	}
	return recs
}

func nodeID(i int) string {
	return "HGNC:" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('a'+(i/676)%26))
}

// TestStreamNullSinkInspectorCounts exercises a
// streaming transform into the null sink with a counting inspector
// sees exactly the source's record counts.
func TestStreamNullSinkInspectorCounts(t *testing.T) {
	src := &sliceSource{recs: fixtureRecords(178, 503)}
	snk := sink.NewNull()
	tr := New(Options{Prefixes: testPrefixes(t), Vocab: testVocab()})

	var nodes, edges int
	err := tr.Stream(context.Background(), src, snk, func(kind model.RecordKind, _ model.Record) {
		if kind == model.NodeRecord {
			nodes++
		} else {
			edges++
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 178, nodes)
	assert.Equal(t, 503, edges)
	assert.Equal(t, 178, snk.NodeCount)
	assert.Equal(t, 503, snk.EdgeCount)
}

// orderSink records write order to verify P6: the sink sees records in
// source emission order after filtering.
type orderSink struct{ ids []string }

func (s *orderSink) WriteNode(_ context.Context, n *model.Node) error {
	s.ids = append(s.ids, n.ID)
	return nil
}
func (s *orderSink) WriteEdge(_ context.Context, e *model.Edge) error {
	s.ids = append(s.ids, e.ID)
	return nil
}
func (s *orderSink) Finalize(_ context.Context) error { return nil }

func TestStreamPreservesEmissionOrder(t *testing.T) {
	var recs []model.Record
	var want []string
	for i := 0; i < 50; i++ {
		n := model.NewNode(nodeID(i))
		n.Category.Add("biolink:Gene")
		recs = append(recs, model.NodeRec(n))
		want = append(want, n.ID)
	}
	src := &sliceSource{recs: recs}
	snk := &orderSink{}
	tr := New(Options{Prefixes: testPrefixes(t)})

	require.NoError(t, tr.Stream(context.Background(), src, snk, nil))
	assert.Equal(t, want, snk.ids)
}

func TestStreamAppliesNodeFilter(t *testing.T) {
	gene := model.NewNode("HGNC:1")
	gene.Category.Add("biolink:Gene")
	disease := model.NewNode("MONDO:1")
	disease.Category.Add("biolink:Disease")
	src := &sliceSource{recs: []model.Record{model.NodeRec(gene), model.NodeRec(disease)}}
	snk := sink.NewNull()
	tr := New(Options{
		Prefixes: testPrefixes(t),
		NodeFilters: []source.NodeFilter{func(n *model.Node) bool {
			return n.Category.Has("biolink:Gene")
		}},
	})

	require.NoError(t, tr.Stream(context.Background(), src, snk, nil))
	assert.Equal(t, 1, snk.NodeCount)
}

func TestTransformNormalizesBarePredicate(t *testing.T) {
	a := model.NewNode("HGNC:1")
	a.Category.Add("biolink:Gene")
	b := model.NewNode("MONDO:1")
	b.Category.Add("biolink:Disease")
	e := model.NewEdge("e1", "HGNC:1", "contributes_to", "MONDO:1")
	src := &sliceSource{recs: []model.Record{model.NodeRec(a), model.NodeRec(b), model.EdgeRec(e)}}

	tr := New(Options{Prefixes: testPrefixes(t), Vocab: testVocab()})
	store, err := tr.Transform(context.Background(), src)
	require.NoError(t, err)

	edges := store.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "biolink:contributes_to", edges[0].Predicate)
}

func TestTransformTagsUnknownPredicate(t *testing.T) {
	e := model.NewEdge("e1", "HGNC:1", "bogus:rel", "MONDO:1")
	src := &sliceSource{recs: []model.Record{model.EdgeRec(e)}}

	tr := New(Options{Prefixes: testPrefixes(t), Vocab: testVocab()})
	store, err := tr.Transform(context.Background(), src)
	require.NoError(t, err)

	edges := store.Edges()
	require.Len(t, edges, 1)
	v, ok := edges[0].Properties["_invalid"]
	require.True(t, ok, "unknown predicate tags the record invalid but still emits it")
	b, _ := v.Bool()
	assert.True(t, b)
	assert.False(t, tr.Findings().IsEmpty())
}

func TestTransformDefaultsEdgeCategory(t *testing.T) {
	a := model.NewNode("HGNC:1")
	a.Category.Add("biolink:Gene")
	b := model.NewNode("MONDO:1")
	b.Category.Add("biolink:Disease")
	e := model.NewEdge("e1", "HGNC:1", "biolink:contributes_to", "MONDO:1")
	src := &sliceSource{recs: []model.Record{model.NodeRec(a), model.NodeRec(b), model.EdgeRec(e)}}

	tr := New(Options{Prefixes: testPrefixes(t), Vocab: testVocab()})
	store, err := tr.Transform(context.Background(), src)
	require.NoError(t, err)

	edges := store.Edges()
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Category.Has("biolink:Association"))
}

func TestTransformInjectsProvenanceDefaults(t *testing.T) {
	e := model.NewEdge("e1", "HGNC:1", "biolink:contributes_to", "MONDO:1")
	src := &sliceSource{recs: []model.Record{model.EdgeRec(e)}}

	tr := New(Options{
		Prefixes: testPrefixes(t),
		KnowledgeSourceDefaults: source.KnowledgeSourceDefaults{
			PrimaryKnowledgeSource:    "infores:string",
			AggregatorKnowledgeSource: []string{"infores:monarchinitiative"},
		},
	})
	store, err := tr.Transform(context.Background(), src)
	require.NoError(t, err)

	edges := store.Edges()
	require.Len(t, edges, 1)
	assert.True(t, edges[0].PrimaryKnowledgeSource.Has("infores:string"))
	assert.True(t, edges[0].AggregatorKnowledgeSource.Has("infores:monarchinitiative"))
}

func TestTransformRewritesProvenanceThroughInfoResRule(t *testing.T) {
	e := model.NewEdge("e1", "HGNC:1", "biolink:contributes_to", "MONDO:1")
	e.PrimaryKnowledgeSource.Add("STRING database")
	src := &sliceSource{recs: []model.Record{model.EdgeRec(e)}}

	rule, err := NewInfoResRule().WithPattern(` database$`, "")
	require.NoError(t, err)
	tr := New(Options{Prefixes: testPrefixes(t), InfoRes: rule})

	store, err := tr.Transform(context.Background(), src)
	require.NoError(t, err)

	edges := store.Edges()
	require.Len(t, edges, 1)
	assert.True(t, edges[0].PrimaryKnowledgeSource.Has("infores:string"))
	assert.Equal(t, map[string]string{"STRING database": "infores:string"}, tr.Catalog().Entries())
}

func TestTransformCancelledContextStopsDrain(t *testing.T) {
	src := &sliceSource{recs: fixtureRecords(10, 0)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := New(Options{Prefixes: testPrefixes(t)})
	_, err := tr.Transform(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalogPreloadSeedsSharedEntries(t *testing.T) {
	catalog := NewCatalog()
	catalog.Preload(map[string]string{"STRING database": "infores:string"})

	got := catalog.Rewrite("STRING database", NewInfoResRule())
	assert.Equal(t, "infores:string", got, "preloaded entries win over fresh minting")
}
