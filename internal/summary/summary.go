// Package summary implements the graph Summarizer: a stream-
// compatible pass over nodes then edges producing per-category node
// counts, per-(subject_category, predicate, object_category) edge
// counts, and optional facet counts, rendered as YAML or JSON.
package summary

import (
	"encoding/json"
	"sort"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/validate"
	"gopkg.in/yaml.v3"
)

// TripleType is the (subject_category, predicate, object_category)
// edge-count key.
type TripleType struct {
	SubjectCategory string `json:"subject_category" yaml:"subject_category"`
	Predicate       string `json:"predicate" yaml:"predicate"`
	ObjectCategory  string `json:"object_category" yaml:"object_category"`
}

// Report is the Summarizer's emitted shape.
type Report struct {
	NodeCountByCategory map[string]int         `json:"node_count_by_category" yaml:"node_count_by_category"`
	EdgeCountByTriple   []TripleCount          `json:"edge_count_by_triple" yaml:"edge_count_by_triple"`
	Facets              map[string]FacetCounts `json:"facets,omitempty" yaml:"facets,omitempty"`
	TotalNodes          int                    `json:"total_nodes" yaml:"total_nodes"`
	TotalEdges          int                    `json:"total_edges" yaml:"total_edges"`
}

// TripleCount pairs a TripleType with its observed count, flattened for
// deterministic (sorted) serialization.
type TripleCount struct {
	TripleType `yaml:",inline"`
	Count      int `json:"count" yaml:"count"`
}

// FacetCounts is a configured property's value -> occurrence count.
type FacetCounts map[string]int

// Summarizer accumulates counts over a stream of nodes/edges.
type Summarizer struct {
	facetProps []string

	nodeCategoryCounts map[string]int
	tripleCounts       map[TripleType]int
	facetCounts        map[string]FacetCounts

	totalNodes int
	totalEdges int

	nodeCategories map[string][]string

	agg *validate.Aggregator
}

// New builds a Summarizer. facetProps names node/edge properties to
// facet-count in addition to the mandatory category/triple counts.
func New(facetProps ...string) *Summarizer {
	return &Summarizer{
		facetProps:         facetProps,
		nodeCategoryCounts: make(map[string]int),
		tripleCounts:       make(map[TripleType]int),
		facetCounts:        make(map[string]FacetCounts),
		nodeCategories:     make(map[string][]string),
		agg:                validate.NewAggregator(),
	}
}

// Findings returns anomalies recorded during summarization: missing
// categories and missing predicates.
func (s *Summarizer) Findings() *validate.Aggregator { return s.agg }

// AddNode folds n into the running counts.
func (s *Summarizer) AddNode(n *model.Node) {
	s.totalNodes++
	if n.Category.Len() == 0 {
		s.agg.Add(validate.Finding{Level: validate.LevelWarning, Type: validate.TypeNoCategory,
			Message: "Node lacks category", Subject: n.ID})
	}
	for _, c := range n.Category.Slice() {
		s.nodeCategoryCounts[c]++
	}
	s.nodeCategories[n.ID] = n.Category.Slice()
	s.foldFacets(n.Properties, n.ID)
}

// AddEdge folds e into the running counts.
func (s *Summarizer) AddEdge(e *model.Edge) {
	s.totalEdges++
	if e.Predicate == "" {
		s.agg.Add(validate.Finding{Level: validate.LevelWarning, Type: validate.TypeMissingEdgeProperty,
			Message: "Edge missing predicate", Subject: e.ID})
	}
	subjCats := s.categoriesOrUnknown(e.Subject)
	objCats := s.categoriesOrUnknown(e.Object)
	for _, sc := range subjCats {
		for _, oc := range objCats {
			s.tripleCounts[TripleType{SubjectCategory: sc, Predicate: e.Predicate, ObjectCategory: oc}]++
		}
	}
	s.foldFacets(e.Properties, e.ID)
}

func (s *Summarizer) categoriesOrUnknown(id string) []string {
	if cats, ok := s.nodeCategories[id]; ok && len(cats) > 0 {
		return cats
	}
	return []string{model.RootEntityCategory}
}

func (s *Summarizer) foldFacets(props model.Properties, subject string) {
	for _, name := range s.facetProps {
		v, ok := props[name]
		if !ok {
			continue
		}
		counts, ok := s.facetCounts[name]
		if !ok {
			counts = make(FacetCounts)
			s.facetCounts[name] = counts
		}
		for _, val := range v.AsStrings() {
			counts[val]++
		}
	}
}

// Report renders the accumulated counts, sorted for deterministic
// output.
func (s *Summarizer) Report() Report {
	r := Report{
		NodeCountByCategory: s.nodeCategoryCounts,
		TotalNodes:          s.totalNodes,
		TotalEdges:          s.totalEdges,
	}
	keys := make([]TripleType, 0, len(s.tripleCounts))
	for k := range s.tripleCounts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SubjectCategory != keys[j].SubjectCategory {
			return keys[i].SubjectCategory < keys[j].SubjectCategory
		}
		if keys[i].Predicate != keys[j].Predicate {
			return keys[i].Predicate < keys[j].Predicate
		}
		return keys[i].ObjectCategory < keys[j].ObjectCategory
	})
	for _, k := range keys {
		r.EdgeCountByTriple = append(r.EdgeCountByTriple, TripleCount{TripleType: k, Count: s.tripleCounts[k]})
	}
	if len(s.facetCounts) > 0 {
		r.Facets = s.facetCounts
	}
	return r
}

// ToJSON renders the report as indented JSON.
func (r Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ToYAML renders the report as YAML.
func (r Report) ToYAML() ([]byte, error) {
	return yaml.Marshal(r)
}
