// Package trapi implements the TRAPI Knowledge Graph Source:
// `knowledge_graph.nodes` (object keyed by id) and `knowledge_graph.edges`
// (object keyed by edge id); `categories` -> `category`, `attributes` ->
// `properties` keyed by `attribute_type_id`, `sources[].resource_id` ->
// the knowledge-source slot selected by `resource_role`.
package trapi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
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
	Name       string          `json:"name"`
	Categories []string        `json:"categories"`
	Attributes []wireAttribute `json:"attributes"`
}

type wireEdge struct {
	Subject    string          `json:"subject"`
	Object     string          `json:"object"`
	Predicate  string          `json:"predicate"`
	Attributes []wireAttribute `json:"attributes"`
	Sources    []wireSource    `json:"sources"`
}

type wireKG struct {
	Nodes map[string]wireNode `json:"nodes"`
	Edges map[string]wireEdge `json:"edges"`
}

type wireDoc struct {
	Message struct {
		KnowledgeGraph wireKG `json:"knowledge_graph"`
	} `json:"message"`
	KnowledgeGraph *wireKG `json:"knowledge_graph"`
}

// resourceRole -> knowledge-source slot (TRAPI's fixed role vocabulary).
const (
	RolePrimaryKnowledgeSource    = "primary_knowledge_source"
	RoleAggregatorKnowledgeSource = "aggregator_knowledge_source"
	RoleSupportingDataSource      = "supporting_data_source"
)

// Source drains a parsed TRAPI Knowledge Graph JSON document. TRAPI
// responses are bounded by query result size in practice, so (unlike
// the generic JSON Source) this implementation loads the document
// whole rather than streaming array elements.
type Source struct {
	cfg source.Config

	nodeIDs []string
	nodes   map[string]wireNode
	edgeIDs []string
	edges   map[string]wireEdge
	ni, ei  int
}

func New(cfg source.Config, path string) (*Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trapi: read: %w", err)
	}
	var doc wireDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("trapi: parse: %w", err)
	}
	kg := doc.Message.KnowledgeGraph
	if doc.KnowledgeGraph != nil {
		kg = *doc.KnowledgeGraph
	}
	nodeIDs := make([]string, 0, len(kg.Nodes))
	for id := range kg.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)
	edgeIDs := make([]string, 0, len(kg.Edges))
	for id := range kg.Edges {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Strings(edgeIDs)
	return &Source{cfg: cfg, nodeIDs: nodeIDs, nodes: kg.Nodes, edgeIDs: edgeIDs, edges: kg.Edges}, nil
}

func (s *Source) Next(ctx context.Context) (model.Record, bool, error) {
	for s.ni < len(s.nodeIDs) {
		id := s.nodeIDs[s.ni]
		s.ni++
		n := toNode(id, s.nodes[id])
		if !s.cfg.KeepNode(n) {
			continue
		}
		rec := model.NodeRec(n)
		s.cfg.ApplyDefaults(rec)
		return rec, true, nil
	}
	for s.ei < len(s.edgeIDs) {
		id := s.edgeIDs[s.ei]
		s.ei++
		e := toEdge(id, s.edges[id])
		if !s.cfg.KeepEdge(e) {
			continue
		}
		rec := model.EdgeRec(e)
		s.cfg.ApplyDefaults(rec)
		return rec, true, nil
	}
	return model.Record{}, false, nil
}

func toNode(id string, w wireNode) *model.Node {
	n := model.NewNode(id)
	n.Name = w.Name
	for _, c := range w.Categories {
		n.Category.Add(c)
	}
	n.EnsureCategory()
	for _, attr := range w.Attributes {
		n.Properties[attr.AttributeTypeID] = attributeValue(attr.Value)
	}
	return n
}

func toEdge(id string, w wireEdge) *model.Edge {
	e := model.NewEdge(id, w.Subject, w.Predicate, w.Object)
	for _, attr := range w.Attributes {
		switch attr.AttributeTypeID {
		case model.OriginalSubjectKey:
			e.OriginalSubject, _ = attr.Value.(string)
			continue
		case model.OriginalObjectKey:
			e.OriginalObject, _ = attr.Value.(string)
			continue
		}
		e.Properties[attr.AttributeTypeID] = attributeValue(attr.Value)
	}
	for _, src := range w.Sources {
		switch src.ResourceRole {
		case RolePrimaryKnowledgeSource:
			e.PrimaryKnowledgeSource.Add(src.ResourceID)
		case RoleAggregatorKnowledgeSource:
			e.AggregatorKnowledgeSource.Add(src.ResourceID)
		case RoleSupportingDataSource:
			e.SupportingDataSource.Add(src.ResourceID)
		}
	}
	return e
}

func attributeValue(v interface{}) model.Value {
	switch t := v.(type) {
	case string:
		return model.StringValue(t)
	case float64:
		return model.NumberValue(t)
	case bool:
		return model.BoolValue(t)
	case []interface{}:
		ss := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				ss = append(ss, s)
			} else {
				b, _ := json.Marshal(item)
				ss = append(ss, string(b))
			}
		}
		return model.StringsValue(ss)
	default:
		b, _ := json.Marshal(v)
		return model.StringValue(string(b))
	}
}

func (s *Source) Close() error { return nil }
