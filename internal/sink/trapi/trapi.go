// Package trapi implements the TRAPI Sink, the write-side counterpart
// of internal/source/trapi: emits
// `{message:{knowledge_graph:{nodes,edges}}}` with `category` ->
// `categories`, properties -> `attributes`, and knowledge-source slots
// -> `sources[].resource_id`/`resource_role`.
package trapi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/biomedkg/kgxchange/internal/model"
)

type wireAttribute struct {
	AttributeTypeID string      `json:"attribute_type_id"`
	Value           interface{} `json:"value"`
}

type wireSource struct {
	ResourceID   string `json:"resource_id"`
	ResourceRole string `json:"resource_role"`
}

type wireNode struct {
	Name       string          `json:"name,omitempty"`
	Categories []string        `json:"categories"`
	Attributes []wireAttribute `json:"attributes,omitempty"`
}

type wireEdge struct {
	Subject    string          `json:"subject"`
	Object     string          `json:"object"`
	Predicate  string          `json:"predicate"`
	Attributes []wireAttribute `json:"attributes,omitempty"`
	Sources    []wireSource    `json:"sources,omitempty"`
}

type wireKG struct {
	Nodes map[string]wireNode `json:"nodes"`
	Edges map[string]wireEdge `json:"edges"`
}

type wireDoc struct {
	Message struct {
		KnowledgeGraph wireKG `json:"knowledge_graph"`
	} `json:"message"`
}

type Sink struct {
	path string
	doc  wireDoc
}

func New(path string) *Sink {
	s := &Sink{path: path}
	s.doc.Message.KnowledgeGraph.Nodes = make(map[string]wireNode)
	s.doc.Message.KnowledgeGraph.Edges = make(map[string]wireEdge)
	return s
}

func (s *Sink) WriteNode(_ context.Context, n *model.Node) error {
	w := wireNode{Name: n.Name, Categories: n.Category.Slice()}
	for k, v := range n.Properties {
		w.Attributes = append(w.Attributes, wireAttribute{AttributeTypeID: k, Value: attributeAsAny(v)})
	}
	s.doc.Message.KnowledgeGraph.Nodes[n.ID] = w
	return nil
}

func (s *Sink) WriteEdge(_ context.Context, e *model.Edge) error {
	w := wireEdge{Subject: e.Subject, Object: e.Object, Predicate: e.Predicate}
	for k, v := range e.Properties {
		w.Attributes = append(w.Attributes, wireAttribute{AttributeTypeID: k, Value: attributeAsAny(v)})
	}
	if e.OriginalSubject != "" {
		w.Attributes = append(w.Attributes, wireAttribute{AttributeTypeID: model.OriginalSubjectKey, Value: e.OriginalSubject})
	}
	if e.OriginalObject != "" {
		w.Attributes = append(w.Attributes, wireAttribute{AttributeTypeID: model.OriginalObjectKey, Value: e.OriginalObject})
	}
	for _, r := range e.PrimaryKnowledgeSource.Slice() {
		w.Sources = append(w.Sources, wireSource{ResourceID: r, ResourceRole: "primary_knowledge_source"})
	}
	for _, r := range e.AggregatorKnowledgeSource.Slice() {
		w.Sources = append(w.Sources, wireSource{ResourceID: r, ResourceRole: "aggregator_knowledge_source"})
	}
	for _, r := range e.SupportingDataSource.Slice() {
		w.Sources = append(w.Sources, wireSource{ResourceID: r, ResourceRole: "supporting_data_source"})
	}
	s.doc.Message.KnowledgeGraph.Edges[e.ID] = w
	return nil
}

func attributeAsAny(v model.Value) interface{} {
	switch v.Kind() {
	case model.KindString:
		s, _ := v.String()
		return s
	case model.KindStrings:
		ss, _ := v.Strings()
		return ss
	case model.KindNumber:
		n, _ := v.Number()
		return n
	case model.KindBool:
		b, _ := v.Bool()
		return b
	}
	return nil
}

func (s *Sink) Finalize(_ context.Context) error {
	b, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("trapi sink: marshal: %w", err)
	}
	return os.WriteFile(s.path, b, 0o644)
}
