// Package linejson implements the line-delimited JSON Sink:
// one JSON object per line, written to sibling `<base>_nodes.jsonl` and
// `<base>_edges.jsonl` files.
package linejson

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/tidwall/sjson"
)

type Sink struct {
	nodeFile *os.File
	edgeFile *os.File
	nodeW    *bufio.Writer
	edgeW    *bufio.Writer
}

func New(base string) (*Sink, error) {
	nf, err := os.Create(base + "_nodes.jsonl")
	if err != nil {
		return nil, fmt.Errorf("linejson sink: create nodes file: %w", err)
	}
	ef, err := os.Create(base + "_edges.jsonl")
	if err != nil {
		nf.Close()
		return nil, fmt.Errorf("linejson sink: create edges file: %w", err)
	}
	return &Sink{nodeFile: nf, edgeFile: ef, nodeW: bufio.NewWriter(nf), edgeW: bufio.NewWriter(ef)}, nil
}

func (s *Sink) WriteNode(_ context.Context, n *model.Node) error {
	b, err := encodeNode(n)
	if err != nil {
		return err
	}
	_, err = s.nodeW.Write(append(b, '\n'))
	return err
}

func (s *Sink) WriteEdge(_ context.Context, e *model.Edge) error {
	b, err := encodeEdge(e)
	if err != nil {
		return err
	}
	_, err = s.edgeW.Write(append(b, '\n'))
	return err
}

func (s *Sink) Finalize(_ context.Context) error {
	if err := s.nodeW.Flush(); err != nil {
		return err
	}
	if err := s.edgeW.Flush(); err != nil {
		return err
	}
	if err := s.nodeFile.Close(); err != nil {
		return err
	}
	return s.edgeFile.Close()
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
			return nil, fmt.Errorf("linejson sink: fold property %q: %w", k, err)
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
