// Package metakg implements the meta-knowledge-graph generator: a
// stream-compatible pass over nodes then edges
// producing per-class id-prefix/count summaries and per-(subject,
// predicate, object) edge-type summaries conforming to the Translator
// content-metadata schema.
package metakg

import (
	"encoding/json"
	"sort"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/validate"
)

// NodeTypeInfo is one entry of the `nodes` map.
type NodeTypeInfo struct {
	IDPrefixes    []string       `json:"id_prefixes"`
	Count         int            `json:"count"`
	CountBySource map[string]int `json:"count_by_source,omitempty"`
}

// EdgeTypeInfo is one entry of the `edges` list.
type EdgeTypeInfo struct {
	Subject       string         `json:"subject"`
	Predicate     string         `json:"predicate"`
	Object        string         `json:"object"`
	Relations     []string       `json:"relations,omitempty"`
	Count         int            `json:"count"`
	CountBySource map[string]int `json:"count_by_source,omitempty"`
}

// Document is the full meta-KG output.
type Document struct {
	Nodes map[string]*NodeTypeInfo `json:"nodes"`
	Edges []EdgeTypeInfo           `json:"edges"`
}

type edgeKey struct {
	Subject, Predicate, Object string
}

// Generator accumulates per-class and per-triple statistics.
type Generator struct {
	nodeInfo       map[string]*NodeTypeInfo
	nodeCategories map[string][]string

	edgeCounts    map[edgeKey]int
	edgeSources   map[edgeKey]map[string]int
	edgeRelations map[edgeKey]map[string]bool

	agg *validate.Aggregator
}

func New() *Generator {
	return &Generator{
		nodeInfo:       make(map[string]*NodeTypeInfo),
		nodeCategories: make(map[string][]string),
		edgeCounts:     make(map[edgeKey]int),
		edgeSources:    make(map[edgeKey]map[string]int),
		edgeRelations:  make(map[edgeKey]map[string]bool),
		agg:            validate.NewAggregator(),
	}
}

func (g *Generator) Findings() *validate.Aggregator { return g.agg }

func (g *Generator) AddNode(n *model.Node) {
	if n.Category.Len() == 0 {
		g.agg.Add(validate.Finding{Level: validate.LevelWarning, Type: validate.TypeNoCategory,
			Message: "Node lacks category", Subject: n.ID})
	}
	g.nodeCategories[n.ID] = n.Category.Slice()
	prefix, _, ok := prefixmgr.SplitCURIE(n.ID)
	if !ok {
		prefix = n.ID
	}
	for _, cls := range n.Category.Slice() {
		info, ok := g.nodeInfo[cls]
		if !ok {
			info = &NodeTypeInfo{CountBySource: make(map[string]int)}
			g.nodeInfo[cls] = info
		}
		info.Count++
		if !containsString(info.IDPrefixes, prefix) {
			info.IDPrefixes = append(info.IDPrefixes, prefix)
		}
		for _, src := range n.ProvidedBy.Slice() {
			info.CountBySource[src]++
		}
	}
}

func (g *Generator) AddEdge(e *model.Edge) {
	if e.Predicate == "" {
		g.agg.Add(validate.Finding{Level: validate.LevelWarning, Type: validate.TypeMissingEdgeProperty,
			Message: "Edge missing predicate", Subject: e.ID})
	}
	subjCats := g.categoriesOrUnknown(e.Subject)
	objCats := g.categoriesOrUnknown(e.Object)
	for _, sc := range subjCats {
		for _, oc := range objCats {
			k := edgeKey{Subject: sc, Predicate: e.Predicate, Object: oc}
			g.edgeCounts[k]++
			if g.edgeSources[k] == nil {
				g.edgeSources[k] = make(map[string]int)
			}
			if g.edgeRelations[k] == nil {
				g.edgeRelations[k] = make(map[string]bool)
			}
			for _, src := range e.PrimaryKnowledgeSource.Slice() {
				g.edgeSources[k][src]++
			}
			for _, c := range e.Category.Slice() {
				g.edgeRelations[k][c] = true
			}
		}
	}
}

func (g *Generator) categoriesOrUnknown(id string) []string {
	if cats, ok := g.nodeCategories[id]; ok && len(cats) > 0 {
		return cats
	}
	return []string{model.RootEntityCategory}
}

func containsString(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}

// Document renders the accumulated statistics, sorted for deterministic
// output.
func (g *Generator) Document() Document {
	doc := Document{Nodes: make(map[string]*NodeTypeInfo, len(g.nodeInfo))}
	for cls, info := range g.nodeInfo {
		sort.Strings(info.IDPrefixes)
		doc.Nodes[cls] = info
	}

	keys := make([]edgeKey, 0, len(g.edgeCounts))
	for k := range g.edgeCounts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Subject != keys[j].Subject {
			return keys[i].Subject < keys[j].Subject
		}
		if keys[i].Predicate != keys[j].Predicate {
			return keys[i].Predicate < keys[j].Predicate
		}
		return keys[i].Object < keys[j].Object
	})
	for _, k := range keys {
		var relations []string
		for r := range g.edgeRelations[k] {
			relations = append(relations, r)
		}
		sort.Strings(relations)
		doc.Edges = append(doc.Edges, EdgeTypeInfo{
			Subject: k.Subject, Predicate: k.Predicate, Object: k.Object,
			Relations: relations, Count: g.edgeCounts[k], CountBySource: g.edgeSources[k],
		})
	}
	return doc
}

// ToJSON renders the document as indented JSON.
func (d Document) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
