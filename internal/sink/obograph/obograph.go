// Package obograph implements the OBOGraph JSON Sink, the write-side
// counterpart of internal/source/obograph:
// buffers nodes/edges and writes one `{graphs:[{nodes,edges}]}`
// document on Finalize.
package obograph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/biomedkg/kgxchange/internal/model"
)

type wireNode struct {
	ID   string   `json:"id"`
	Lbl  string   `json:"lbl,omitempty"`
	Type string   `json:"type,omitempty"`
	Meta wireMeta `json:"meta,omitempty"`
}

type wireMeta struct {
	Definition *wireVal  `json:"definition,omitempty"`
	Synonyms   []wireVal `json:"synonyms,omitempty"`
	Xrefs      []wireVal `json:"xrefs,omitempty"`
	Comments   []string  `json:"comments,omitempty"`
}

type wireVal struct {
	Val string `json:"val"`
}

type wireEdge struct {
	Sub  string        `json:"sub"`
	Pred string        `json:"pred"`
	Obj  string        `json:"obj"`
	Meta *wireEdgeMeta `json:"meta,omitempty"`
}

type wireEdgeMeta struct {
	BasicPropertyValues []wirePropertyValue `json:"basicPropertyValues,omitempty"`
}

type wirePropertyValue struct {
	Pred string `json:"pred"`
	Val  string `json:"val"`
}

type wireGraph struct {
	Nodes []wireNode `json:"nodes"`
	Edges []wireEdge `json:"edges"`
}

type wireDoc struct {
	Graphs []wireGraph `json:"graphs"`
}

// InversePredicateMap maps a biolink predicate back to its OBO
// shorthand for round-tripping (inverse of obograph.DefaultPredicateMap).
var InversePredicateMap = map[string]string{
	"biolink:subclass_of":          "is_a",
	"biolink:part_of":              "part_of",
	"biolink:has_part":             "has_part",
	"biolink:regulates":            "regulates",
	"biolink:negatively_regulates": "negatively_regulates",
	"biolink:positively_regulates": "positively_regulates",
}

type Sink struct {
	path  string
	nodes []wireNode
	edges []wireEdge
}

func New(path string) *Sink { return &Sink{path: path} }

func (s *Sink) WriteNode(_ context.Context, n *model.Node) error {
	w := wireNode{ID: n.ID, Lbl: n.Name}
	if n.Category.Len() > 0 {
		w.Type = "CLASS"
	}
	if n.Description != "" {
		w.Meta.Definition = &wireVal{Val: n.Description}
	}
	for _, x := range n.Xref.Slice() {
		w.Meta.Xrefs = append(w.Meta.Xrefs, wireVal{Val: x})
	}
	for _, syn := range n.Synonym {
		w.Meta.Synonyms = append(w.Meta.Synonyms, wireVal{Val: syn})
	}
	if c, ok := n.Properties["comment"]; ok {
		w.Meta.Comments = c.AsStrings()
	}
	s.nodes = append(s.nodes, w)
	return nil
}

func (s *Sink) WriteEdge(_ context.Context, e *model.Edge) error {
	pred := e.Predicate
	if mapped, ok := InversePredicateMap[pred]; ok {
		pred = mapped
	}
	w := wireEdge{Sub: e.Subject, Pred: pred, Obj: e.Object}
	if e.OriginalSubject != "" || e.OriginalObject != "" {
		w.Meta = &wireEdgeMeta{}
		if e.OriginalSubject != "" {
			w.Meta.BasicPropertyValues = append(w.Meta.BasicPropertyValues,
				wirePropertyValue{Pred: model.OriginalSubjectKey, Val: e.OriginalSubject})
		}
		if e.OriginalObject != "" {
			w.Meta.BasicPropertyValues = append(w.Meta.BasicPropertyValues,
				wirePropertyValue{Pred: model.OriginalObjectKey, Val: e.OriginalObject})
		}
	}
	s.edges = append(s.edges, w)
	return nil
}

func (s *Sink) Finalize(_ context.Context) error {
	doc := wireDoc{Graphs: []wireGraph{{Nodes: s.nodes, Edges: s.edges}}}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("obograph sink: marshal: %w", err)
	}
	return os.WriteFile(s.path, b, 0o644)
}
