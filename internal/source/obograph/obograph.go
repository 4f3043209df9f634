// Package obograph implements the OBOGraph JSON Source: ontology `nodes[]`/`edges[]` arrays, OBO predicates mapped
// through a configurable predicate map, synonyms/xrefs/definitions/
// comments folded into node properties, nodes lacking a derivable
// category defaulted to the root entity class.
package obograph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
)

// DefaultPredicateMap mirrors the common OBO relation shorthand ->
// biolink predicate mapping.
var DefaultPredicateMap = map[string]string{
	"is_a":                 "biolink:subclass_of",
	"part_of":              "biolink:part_of",
	"has_part":             "biolink:has_part",
	"regulates":            "biolink:regulates",
	"negatively_regulates": "biolink:negatively_regulates",
	"positively_regulates": "biolink:positively_regulates",
}

type wireGraphDoc struct {
	Graphs []wireGraph `json:"graphs"`
	// Some exports are a single graph at the top level instead of
	// wrapped in "graphs".
	Nodes []wireNode `json:"nodes"`
	Edges []wireEdge `json:"edges"`
}

type wireGraph struct {
	Nodes []wireNode `json:"nodes"`
	Edges []wireEdge `json:"edges"`
}

type wireNode struct {
	ID   string `json:"id"`
	Lbl  string `json:"lbl"`
	Type string `json:"type"`
	Meta struct {
		Definition struct {
			Val string `json:"val"`
		} `json:"definition"`
		Synonyms []struct {
			Val  string `json:"val"`
			Pred string `json:"pred"`
		} `json:"synonyms"`
		Xrefs []struct {
			Val string `json:"val"`
		} `json:"xrefs"`
		Comments []string `json:"comments"`
	} `json:"meta"`
}

type wireEdge struct {
	Sub  string `json:"sub"`
	Pred string `json:"pred"`
	Obj  string `json:"obj"`
	Meta struct {
		BasicPropertyValues []struct {
			Pred string `json:"pred"`
			Val  string `json:"val"`
		} `json:"basicPropertyValues"`
	} `json:"meta"`
}

// Source drains an in-memory parsed OBOGraph document; the document is
// small enough relative to the ontologies it typically describes to
// load whole.
type Source struct {
	cfg source.Config

	predicateMap map[string]string

	nodes []wireNode
	edges []wireEdge
	ni    int
	ei    int
}

// Option configures New.
type Option func(*Source)

// WithPredicateMap overrides DefaultPredicateMap.
func WithPredicateMap(m map[string]string) Option {
	return func(s *Source) { s.predicateMap = m }
}

func New(cfg source.Config, path string, opts ...Option) (*Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("obograph: read: %w", err)
	}
	var doc wireGraphDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("obograph: parse: %w", err)
	}
	s := &Source{cfg: cfg, predicateMap: DefaultPredicateMap}
	for _, o := range opts {
		o(s)
	}
	if len(doc.Graphs) > 0 {
		for _, g := range doc.Graphs {
			s.nodes = append(s.nodes, g.Nodes...)
			s.edges = append(s.edges, g.Edges...)
		}
	} else {
		s.nodes = doc.Nodes
		s.edges = doc.Edges
	}
	return s, nil
}

func (s *Source) Next(ctx context.Context) (model.Record, bool, error) {
	for s.ni < len(s.nodes) {
		w := s.nodes[s.ni]
		s.ni++
		n := s.toNode(w)
		if !s.cfg.KeepNode(n) {
			continue
		}
		rec := model.NodeRec(n)
		s.cfg.ApplyDefaults(rec)
		return rec, true, nil
	}
	for s.ei < len(s.edges) {
		w := s.edges[s.ei]
		s.ei++
		e := s.toEdge(w)
		if !s.cfg.KeepEdge(e) {
			continue
		}
		rec := model.EdgeRec(e)
		s.cfg.ApplyDefaults(rec)
		return rec, true, nil
	}
	return model.Record{}, false, nil
}

func (s *Source) toNode(w wireNode) *model.Node {
	n := model.NewNode(w.ID)
	n.Name = w.Lbl
	if w.Meta.Definition.Val != "" {
		n.Description = w.Meta.Definition.Val
	}
	if category := categoryForType(w.Type); category != "" {
		n.Category.Add(category)
	}
	n.EnsureCategory()
	for _, x := range w.Meta.Xrefs {
		n.Xref.Add(x.Val)
	}
	if len(w.Meta.Synonyms) > 0 {
		for _, syn := range w.Meta.Synonyms {
			n.Synonym = append(n.Synonym, syn.Val)
		}
	}
	if len(w.Meta.Comments) > 0 {
		n.Properties["comment"] = model.StringsValue(w.Meta.Comments)
	}
	return n
}

func categoryForType(t string) string {
	switch t {
	case "CLASS":
		return "biolink:OntologyClass"
	case "PROPERTY":
		return "biolink:related_to"
	case "INDIVIDUAL":
		return model.RootEntityCategory
	}
	return ""
}

func (s *Source) toEdge(w wireEdge) *model.Edge {
	pred := w.Pred
	if mapped, ok := s.predicateMap[localName(pred)]; ok {
		pred = mapped
	}
	e := model.NewEdge("", w.Sub, pred, w.Obj)
	for _, pv := range w.Meta.BasicPropertyValues {
		switch pv.Pred {
		case model.OriginalSubjectKey:
			e.OriginalSubject = pv.Val
		case model.OriginalObjectKey:
			e.OriginalObject = pv.Val
		default:
			e.Properties[localName(pv.Pred)] = model.StringValue(pv.Val)
		}
	}
	return e
}

func localName(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' || s[i] == '#' || s[i] == ':' {
			return s[i+1:]
		}
	}
	return s
}

func (s *Source) Close() error { return nil }
