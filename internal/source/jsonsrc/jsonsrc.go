// Package jsonsrc implements the JSON Source: input is
// a single `{nodes: [...], edges: [...]}` document, streamed
// incrementally with encoding/json.Decoder's token API rather than
// unmarshaled whole, so memory stays bounded in the array lengths read
// so far rather than the full document.
package jsonsrc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
	"github.com/tidwall/gjson"
)

type wireNode struct {
	ID          string   `json:"id"`
	Category    []string `json:"category"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Xref        []string `json:"xref,omitempty"`
	Synonym     []string `json:"synonym,omitempty"`
	ProvidedBy  []string `json:"provided_by,omitempty"`
}

var coreNodeKeys = map[string]bool{
	"id": true, "category": true, "name": true, "description": true,
	"xref": true, "synonym": true, "provided_by": true,
}

var coreEdgeKeys = map[string]bool{
	"id": true, "subject": true, "object": true, "predicate": true, "category": true,
	"knowledge_level": true, "agent_type": true, "primary_knowledge_source": true,
	"aggregator_knowledge_source": true, "supporting_data_source": true, "publications": true,
	model.OriginalSubjectKey: true, model.OriginalObjectKey: true,
}

// extraProperties folds wire fields outside the known set into
// model.Properties using gjson, so a Source never needs to unmarshal
// into map[string]interface{} and type-switch by hand.
func extraProperties(raw []byte, known map[string]bool) model.Properties {
	props := model.Properties{}
	gjson.ParseBytes(raw).ForEach(func(key, val gjson.Result) bool {
		k := key.String()
		if known[k] {
			return true
		}
		switch val.Type {
		case gjson.String:
			props[k] = model.StringValue(val.String())
		case gjson.Number:
			props[k] = model.NumberValue(val.Float())
		case gjson.True, gjson.False:
			props[k] = model.BoolValue(val.Bool())
		case gjson.JSON:
			if val.IsArray() {
				var ss []string
				val.ForEach(func(_, item gjson.Result) bool {
					ss = append(ss, item.String())
					return true
				})
				props[k] = model.StringsValue(ss)
			}
		}
		return true
	})
	if len(props) == 0 {
		return nil
	}
	return props
}

type wireEdge struct {
	ID                        string   `json:"id,omitempty"`
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

// Source streams nodes then edges out of one `{nodes,edges}` JSON file.
type Source struct {
	cfg  source.Config
	f    io.Closer
	dec  *json.Decoder
	mode int // 0=seeking nodes array, 1=in nodes array, 2=seeking edges array, 3=in edges array, 4=done
}

func New(cfg source.Config, path string) (*Source, error) {
	f, err := source.OpenFile(path, cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("jsonsrc: open: %w", err)
	}
	dec := json.NewDecoder(f)
	// consume the opening '{'
	if _, err := dec.Token(); err != nil {
		f.Close()
		return nil, fmt.Errorf("jsonsrc: expected object: %w", err)
	}
	return &Source{cfg: cfg, f: f, dec: dec}, nil
}

func (s *Source) Next(ctx context.Context) (model.Record, bool, error) {
	for {
		switch s.mode {
		case 0, 2:
			if !s.dec.More() {
				// no more top-level keys
				s.mode = 4
				continue
			}
			tok, err := s.dec.Token()
			if err != nil {
				return model.Record{}, false, err
			}
			key, _ := tok.(string)
			switch key {
			case "nodes", "edges":
				arrTok, err := s.dec.Token()
				if err != nil {
					return model.Record{}, false, err
				}
				if _, ok := arrTok.(json.Delim); !ok {
					continue
				}
				if key == "nodes" {
					s.mode = 1
				} else {
					s.mode = 3
				}
			default:
				// skip an unknown top-level value whole
				var skip json.RawMessage
				if err := s.dec.Decode(&skip); err != nil {
					return model.Record{}, false, err
				}
			}
		case 1:
			if !s.dec.More() {
				// consume closing ']'
				s.dec.Token()
				s.mode = 2
				continue
			}
			var raw json.RawMessage
			if err := s.dec.Decode(&raw); err != nil {
				return model.Record{}, false, err
			}
			var wn wireNode
			if err := json.Unmarshal(raw, &wn); err != nil {
				return model.Record{}, false, err
			}
			n := toNode(wn)
			if extra := extraProperties(raw, coreNodeKeys); extra != nil {
				n.Properties = extra
			}
			if !s.cfg.KeepNode(n) {
				continue
			}
			rec := model.NodeRec(n)
			s.cfg.ApplyDefaults(rec)
			return rec, true, nil
		case 3:
			if !s.dec.More() {
				s.dec.Token()
				s.mode = 4
				continue
			}
			var raw json.RawMessage
			if err := s.dec.Decode(&raw); err != nil {
				return model.Record{}, false, err
			}
			var we wireEdge
			if err := json.Unmarshal(raw, &we); err != nil {
				return model.Record{}, false, err
			}
			e := toEdge(we)
			if extra := extraProperties(raw, coreEdgeKeys); extra != nil {
				e.Properties = extra
			}
			if !s.cfg.KeepEdge(e) {
				continue
			}
			rec := model.EdgeRec(e)
			s.cfg.ApplyDefaults(rec)
			return rec, true, nil
		default:
			return model.Record{}, false, nil
		}
	}
}

func toNode(w wireNode) *model.Node {
	n := model.NewNode(w.ID)
	for _, c := range w.Category {
		n.Category.Add(c)
	}
	n.Name = w.Name
	n.Description = w.Description
	for _, x := range w.Xref {
		n.Xref.Add(x)
	}
	n.Synonym = w.Synonym
	for _, p := range w.ProvidedBy {
		n.ProvidedBy.Add(p)
	}
	return n
}

func toEdge(w wireEdge) *model.Edge {
	e := model.NewEdge(w.ID, w.Subject, w.Predicate, w.Object)
	for _, c := range w.Category {
		e.Category.Add(c)
	}
	e.KnowledgeLevel = w.KnowledgeLevel
	e.AgentType = w.AgentType
	for _, p := range w.PrimaryKnowledgeSource {
		e.PrimaryKnowledgeSource.Add(p)
	}
	for _, p := range w.AggregatorKnowledgeSource {
		e.AggregatorKnowledgeSource.Add(p)
	}
	for _, p := range w.SupportingDataSource {
		e.SupportingDataSource.Add(p)
	}
	e.Publications = w.Publications
	e.OriginalSubject = w.OriginalSubject
	e.OriginalObject = w.OriginalObject
	return e
}

func (s *Source) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

var _ io.Closer = (*Source)(nil)
