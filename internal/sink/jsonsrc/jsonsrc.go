// Package jsonsrc implements the JSON Sink: a push-JSON writer that
// streams the `{nodes,edges}` arrays element by element rather than
// materializing the whole document, folding arbitrary properties into
// each record object with github.com/tidwall/sjson.
package jsonsrc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/tidwall/sjson"
)

// Sink writes `{"nodes":[...],"edges":[...]}` to a single file,
// buffering node bytes until Finalize so the array closes correctly
// after edges are known to exist (a streaming writer still needs one
// lookahead: whether a trailing comma is needed before `]`).
type Sink struct {
	path string
	f    *os.File

	nodesStarted bool
	edgesStarted bool
	wroteAnyNode bool
	wroteAnyEdge bool
}

func New(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("jsonsrc sink: create: %w", err)
	}
	s := &Sink{path: path, f: f}
	if _, err := f.WriteString(`{"nodes":[`); err != nil {
		return nil, err
	}
	s.nodesStarted = true
	return s, nil
}

func (s *Sink) WriteNode(_ context.Context, n *model.Node) error {
	b, err := encodeNode(n)
	if err != nil {
		return err
	}
	if s.wroteAnyNode {
		if _, err := s.f.WriteString(","); err != nil {
			return err
		}
	}
	s.wroteAnyNode = true
	_, err = s.f.Write(b)
	return err
}

func (s *Sink) WriteEdge(_ context.Context, e *model.Edge) error {
	if !s.edgesStarted {
		if _, err := s.f.WriteString(`],"edges":[`); err != nil {
			return err
		}
		s.edgesStarted = true
	}
	b, err := encodeEdge(e)
	if err != nil {
		return err
	}
	if s.wroteAnyEdge {
		if _, err := s.f.WriteString(","); err != nil {
			return err
		}
	}
	s.wroteAnyEdge = true
	_, err = s.f.Write(b)
	return err
}

func (s *Sink) Finalize(_ context.Context) error {
	defer s.f.Close()
	if !s.edgesStarted {
		if _, err := s.f.WriteString(`],"edges":[`); err != nil {
			return err
		}
	}
	_, err := s.f.WriteString("]}")
	return err
}

func encodeNode(n *model.Node) ([]byte, error) {
	type wireNode struct {
		ID          string   `json:"id"`
		Category    []string `json:"category"`
		Name        string   `json:"name,omitempty"`
		Description string   `json:"description,omitempty"`
		Xref        []string `json:"xref,omitempty"`
		Synonym     []string `json:"synonym,omitempty"`
		ProvidedBy  []string `json:"provided_by,omitempty"`
	}
	b, err := json.Marshal(wireNode{
		ID: n.ID, Category: n.Category.Slice(), Name: n.Name, Description: n.Description,
		Xref: n.Xref.Slice(), Synonym: n.Synonym, ProvidedBy: n.ProvidedBy.Slice(),
	})
	if err != nil {
		return nil, err
	}
	return foldProperties(b, n.Properties)
}

func encodeEdge(e *model.Edge) ([]byte, error) {
	type wireEdge struct {
		ID                        string   `json:"id"`
		Subject                   string   `json:"subject"`
		Object                    string   `json:"object"`
		Predicate                 string   `json:"predicate"`
		Category                  []string `json:"category,omitempty"`
		KnowledgeLevel            string   `json:"knowledge_level,omitempty"`
		AgentType                 string   `json:"agent_type,omitempty"`
		PrimaryKnowledgeSource    []string `json:"primary_knowledge_source,omitempty"`
		AggregatorKnowledgeSource []string `json:"aggregator_knowledge_source,omitempty"`
		SupportingDataSource      []string `json:"supporting_data_source,omitempty"`
		Publications              []string `json:"publications,omitempty"`
		OriginalSubject           string   `json:"_original_subject,omitempty"`
		OriginalObject            string   `json:"_original_object,omitempty"`
	}
	b, err := json.Marshal(wireEdge{
		ID: e.ID, Subject: e.Subject, Object: e.Object, Predicate: e.Predicate,
		Category: e.Category.Slice(), KnowledgeLevel: e.KnowledgeLevel, AgentType: e.AgentType,
		PrimaryKnowledgeSource:    e.PrimaryKnowledgeSource.Slice(),
		AggregatorKnowledgeSource: e.AggregatorKnowledgeSource.Slice(),
		SupportingDataSource:      e.SupportingDataSource.Slice(),
		Publications:              e.Publications,
		OriginalSubject:           e.OriginalSubject,
		OriginalObject:            e.OriginalObject,
	})
	if err != nil {
		return nil, err
	}
	return foldProperties(b, e.Properties)
}

func foldProperties(b []byte, props model.Properties) ([]byte, error) {
	s := string(b)
	var err error
	for k, v := range props {
		s, err = sjson.Set(s, k, propertyAsAny(v))
		if err != nil {
			return nil, fmt.Errorf("jsonsrc sink: fold property %q: %w", k, err)
		}
	}
	return []byte(s), nil
}

func propertyAsAny(v model.Value) interface{} {
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
