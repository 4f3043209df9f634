// Package transform implements the Transformer pipeline: the six-stage per-record normalization applied between a
// Source and a Sink, in both non-streaming (drain-to-store,
// operate-on-store, drain-to-sink) and streaming (lock-step
// Source->Sink) modes.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/biomedkg/kgxchange/internal/graphstore"
	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/sink"
	"github.com/biomedkg/kgxchange/internal/source"
	"github.com/biomedkg/kgxchange/internal/validate"
	"github.com/biomedkg/kgxchange/internal/vocab"
	"golang.org/x/sync/errgroup"
)

// ErrStreamingUnsupportedOperation is returned when a caller asks a
// streaming Transformer to perform an operation that requires a
// populated Graph Store (clique merge, graph merge, whole-graph
// filters).
var ErrStreamingUnsupportedOperation = errors.New("transform: operation requires a populated graph store; use non-streaming mode")

// Inspector observes each record immediately before it is handed to
// the Sink.
type Inspector func(kind model.RecordKind, rec model.Record)

// Options configures a Transformer's pipeline stages.
type Options struct {
	Prefixes *prefixmgr.Manager
	Vocab    vocab.Service

	NodeFilters []source.NodeFilter
	EdgeFilters []source.EdgeFilter

	// PredicateMappings rewrites a predicate string before the
	// vocabulary lookup (stage 4).
	PredicateMappings map[string]string

	// KnowledgeSourceDefaults/ProvidedBy fill missing provenance from
	// input_args (stage 5), applied only when a Source didn't already
	// fill the slot via its own defaults.
	KnowledgeSourceDefaults source.KnowledgeSourceDefaults
	ProvidedBy              string

	// InfoRes, when non-nil, rewrites free-text knowledge-source names
	// into minted InfoRes CURIEs (stage 5).
	InfoRes *InfoResRule

	// Strict promotes an unrecognized predicate from a logged WARNING
	// to an ERROR (mirrors internal/validate.Options.Strict).
	Strict bool
}

// Transformer drives the six-stage pipeline and
// accumulates the artifacts a run produces: a validation-style finding
// log for predicate/category anomalies and an InfoRes catalog.
type Transformer struct {
	opts    Options
	catalog *Catalog
	agg     *validate.Aggregator

	// nodeCategories tracks node id -> category set as nodes stream
	// past, so stage 3's edge category-defaulting can consult subject/
	// object categories without a full Graph Store in streaming mode.
	nodeCategories map[string][]string
}

// New builds a Transformer. Pass a nil InfoRes to disable source-name
// rewriting.
func New(opts Options) *Transformer {
	return &Transformer{
		opts:           opts,
		catalog:        NewCatalog(),
		agg:            validate.NewAggregator(),
		nodeCategories: make(map[string][]string),
	}
}

// Catalog returns the InfoRes catalog accumulated by this run.
func (t *Transformer) Catalog() *Catalog { return t.catalog }

// Findings returns the predicate/category anomalies logged during this
// run.
func (t *Transformer) Findings() *validate.Aggregator { return t.agg }

// Transform drains src through the pipeline into a newly-owned Graph
// Store. Graph operations (merge,
// clique, whole-graph filters) are permitted on the returned store
// between this call and Save.
func (t *Transformer) Transform(ctx context.Context, src source.Source) (*graphstore.Store, error) {
	store := graphstore.New()
	store.OnScalarConflict = func(edgeID string, fields []string) {
		t.agg.Add(validate.Finding{Level: validate.LevelWarning, Type: "SCALAR_CONFLICT",
			Message: fmt.Sprintf("conflicting fields %v", fields), Subject: edgeID})
	}
	defer src.Close()
	for {
		rec, ok, err := src.Next(ctx)
		if err != nil {
			return store, err
		}
		if !ok {
			return store, nil
		}
		if err := ctx.Err(); err != nil {
			return store, err
		}
		kept, rec2 := t.apply(rec)
		if !kept {
			continue
		}
		if rec2.IsNode() {
			store.AddNode(rec2.Node)
		} else {
			store.AddEdge(rec2.Edge)
		}
	}
}

// Save drains store into snk; records are written as-is, without
// re-running the normalization pipeline, since Transform already
// normalized them on the way in.
func Save(ctx context.Context, store *graphstore.Store, snk sink.Sink, inspect Inspector) error {
	for _, n := range store.Nodes() {
		if inspect != nil {
			inspect(model.NodeRecord, model.NodeRec(n))
		}
		if err := snk.WriteNode(ctx, n); err != nil {
			snk.Finalize(ctx)
			return err
		}
	}
	for _, e := range store.Edges() {
		if inspect != nil {
			inspect(model.EdgeRecord, model.EdgeRec(e))
		}
		if err := snk.WriteEdge(ctx, e); err != nil {
			snk.Finalize(ctx)
			return err
		}
	}
	return snk.Finalize(ctx)
}

// Stream pipes records from src to snk in lock-step, applying the full
// pipeline to each record and invoking inspect just before the write.
// Decoding of the next record overlaps with the Sink write of the
// current one via a single producer/single consumer errgroup pair, so
// the Sink sees records in Source emission order.
func (t *Transformer) Stream(ctx context.Context, src source.Source, snk sink.Sink, inspect Inspector) error {
	g, gctx := errgroup.WithContext(ctx)
	records := make(chan model.Record, 16)

	g.Go(func() error {
		defer close(records)
		defer src.Close()
		for {
			rec, ok, err := src.Next(gctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			select {
			case records <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for rec := range records {
			kept, rec2 := t.apply(rec)
			if !kept {
				continue
			}
			if inspect != nil {
				inspect(rec2.Kind, rec2)
			}
			var err error
			if rec2.IsNode() {
				err = snk.WriteNode(gctx, rec2.Node)
			} else {
				err = snk.WriteEdge(gctx, rec2.Edge)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		snk.Finalize(ctx)
		return err
	}
	return snk.Finalize(ctx)
}

// apply runs the six pipeline stages over rec, returning false if
// stage 1 (filter) dropped it.
func (t *Transformer) apply(rec model.Record) (bool, model.Record) {
	if rec.IsNode() {
		return t.applyNode(rec.Node)
	}
	return t.applyEdge(rec.Edge)
}

func (t *Transformer) applyNode(n *model.Node) (bool, model.Record) {
	// Stage 1: filter.
	for _, f := range t.opts.NodeFilters {
		if !f(n) {
			return false, model.Record{}
		}
	}

	// Stage 2: CURIE normalization.
	n.ID = t.canonical(n.ID)
	n.Xref = canonicalSet(n.Xref, t.canonical)

	// Stage 3: category defaulting.
	n.EnsureCategory()

	// Stage 5 (provenance share that applies to nodes): provided_by default.
	if t.opts.ProvidedBy != "" {
		n.ProvidedBy.Add(t.opts.ProvidedBy)
	}

	t.nodeCategories[n.ID] = n.Category.Slice()
	return true, model.NodeRec(n)
}

func (t *Transformer) applyEdge(e *model.Edge) (bool, model.Record) {
	// Stage 1: filter.
	for _, f := range t.opts.EdgeFilters {
		if !f(e) {
			return false, model.Record{}
		}
	}

	// Stage 2: CURIE normalization.
	e.Subject = t.canonical(e.Subject)
	e.Object = t.canonical(e.Object)
	for i, p := range e.Publications {
		e.Publications[i] = t.canonical(p)
	}

	// Stage 3: category defaulting.
	if e.Category.Len() == 0 && t.opts.Vocab != nil {
		assoc := t.opts.Vocab.LowestCommonAssociation(t.nodeCategories[e.Subject], t.nodeCategories[e.Object])
		if assoc != "" {
			e.Category.Add(assoc)
		}
	}

	// Stage 4: predicate normalization.
	if mapped, ok := t.opts.PredicateMappings[e.Predicate]; ok {
		e.Predicate = mapped
	}
	if e.Predicate != "" && t.opts.Prefixes != nil {
		if _, _, hasPrefix := prefixmgr.SplitCURIE(e.Predicate); !hasPrefix {
			e.Predicate = t.opts.Prefixes.DefaultPrefix() + ":" + e.Predicate
		}
	}
	if t.opts.Vocab != nil && e.Predicate != "" && !t.opts.Vocab.IsPredicate(e.Predicate) {
		lvl := validate.LevelWarning
		if t.opts.Strict {
			lvl = validate.LevelError
		}
		t.agg.Add(validate.Finding{Level: lvl, Type: validate.TypeInvalidEdgePredicate,
			Message: "Predicate not in relation hierarchy", Subject: e.Predicate})
		e.Properties["_invalid"] = model.BoolValue(true)
	}

	// Stage 5: provenance injection, then InfoRes rewrite.
	if e.PrimaryKnowledgeSource.Len() == 0 && t.opts.KnowledgeSourceDefaults.PrimaryKnowledgeSource != "" {
		e.PrimaryKnowledgeSource.Add(t.opts.KnowledgeSourceDefaults.PrimaryKnowledgeSource)
	}
	for _, s := range t.opts.KnowledgeSourceDefaults.AggregatorKnowledgeSource {
		e.AggregatorKnowledgeSource.Add(s)
	}
	for _, s := range t.opts.KnowledgeSourceDefaults.SupportingDataSource {
		e.SupportingDataSource.Add(s)
	}
	if t.opts.InfoRes != nil {
		e.PrimaryKnowledgeSource = rewriteSet(e.PrimaryKnowledgeSource, t.catalog, t.opts.InfoRes)
		e.AggregatorKnowledgeSource = rewriteSet(e.AggregatorKnowledgeSource, t.catalog, t.opts.InfoRes)
		e.SupportingDataSource = rewriteSet(e.SupportingDataSource, t.catalog, t.opts.InfoRes)
	}

	return true, model.EdgeRec(e)
}

func (t *Transformer) canonical(curie string) string {
	if curie == "" || t.opts.Prefixes == nil {
		return curie
	}
	if c, err := t.opts.Prefixes.Canonical(curie); err == nil {
		return c
	}
	return curie
}

func canonicalSet(set *model.StringSet, f func(string) string) *model.StringSet {
	out := model.NewStringSet()
	for _, s := range set.Slice() {
		out.Add(f(s))
	}
	return out
}

func rewriteSet(set *model.StringSet, catalog *Catalog, rule *InfoResRule) *model.StringSet {
	out := model.NewStringSet()
	for _, s := range set.Slice() {
		out.Add(catalog.Rewrite(s, rule))
	}
	return out
}
