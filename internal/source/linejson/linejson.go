// Package linejson implements the line-delimited JSON Source:
// one JSON object per line, `<base>_nodes.jsonl` and `<base>_edges.jsonl`
// read independently, empty lines tolerated.
package linejson

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
	"github.com/tidwall/gjson"
)

// extraProperties folds wire fields outside the known set into
// model.Properties using gjson.
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

type Source struct {
	cfg source.Config

	nodeFile    io.Closer
	nodeScanner *bufio.Scanner
	nodeLine    int

	edgeFile    io.Closer
	edgeScanner *bufio.Scanner
	edgeLine    int

	readingNodes bool

	OnMalformedLine func(file string, line int, reason string)
}

// New opens `<base>_nodes.jsonl` and `<base>_edges.jsonl` (with a
// `.gz` suffix when cfg.Compression asks for gzip).
func New(cfg source.Config, base string) (*Source, error) {
	s := &Source{cfg: cfg, readingNodes: true}
	suffix := ""
	if cfg.Compression == source.CompressionGzip {
		suffix = ".gz"
	}
	nodePath := base + "_nodes.jsonl" + suffix
	edgePath := base + "_edges.jsonl" + suffix
	if rc, err := source.OpenFile(nodePath, cfg.Compression); err == nil {
		s.nodeFile = rc
		s.nodeScanner = bufio.NewScanner(rc)
		s.nodeScanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("linejson: open %s: %w", nodePath, err)
	}
	if rc, err := source.OpenFile(edgePath, cfg.Compression); err == nil {
		s.edgeFile = rc
		s.edgeScanner = bufio.NewScanner(rc)
		s.edgeScanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("linejson: open %s: %w", edgePath, err)
	}
	return s, nil
}

func (s *Source) Next(ctx context.Context) (model.Record, bool, error) {
	if s.readingNodes {
		if s.nodeScanner != nil {
			for s.nodeScanner.Scan() {
				s.nodeLine++
				line := strings.TrimSpace(s.nodeScanner.Text())
				if line == "" {
					continue
				}
				var raw json.RawMessage = []byte(line)
				n, err := decodeNode(raw)
				if err != nil {
					s.reportMalformed(true, err.Error())
					continue
				}
				if !s.cfg.KeepNode(n) {
					continue
				}
				rec := model.NodeRec(n)
				s.cfg.ApplyDefaults(rec)
				return rec, true, nil
			}
			if err := s.nodeScanner.Err(); err != nil {
				return model.Record{}, false, err
			}
		}
		s.readingNodes = false
	}
	if s.edgeScanner != nil {
		for s.edgeScanner.Scan() {
			s.edgeLine++
			line := strings.TrimSpace(s.edgeScanner.Text())
			if line == "" {
				continue
			}
			e, err := decodeEdge([]byte(line))
			if err != nil {
				s.reportMalformed(false, err.Error())
				continue
			}
			if !s.cfg.KeepEdge(e) {
				continue
			}
			rec := model.EdgeRec(e)
			s.cfg.ApplyDefaults(rec)
			return rec, true, nil
		}
		if err := s.edgeScanner.Err(); err != nil {
			return model.Record{}, false, err
		}
	}
	return model.Record{}, false, nil
}

func (s *Source) reportMalformed(isNode bool, reason string) {
	if s.OnMalformedLine == nil {
		return
	}
	if isNode {
		s.OnMalformedLine("nodes.jsonl", s.nodeLine, reason)
	} else {
		s.OnMalformedLine("edges.jsonl", s.edgeLine, reason)
	}
}

func decodeNode(raw json.RawMessage) (*model.Node, error) {
	var w struct {
		ID          string   `json:"id"`
		Category    []string `json:"category"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Xref        []string `json:"xref"`
		Synonym     []string `json:"synonym"`
		ProvidedBy  []string `json:"provided_by"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	n := model.NewNode(w.ID)
	for _, c := range w.Category {
		n.Category.Add(c)
	}
	n.Name, n.Description, n.Synonym = w.Name, w.Description, w.Synonym
	for _, x := range w.Xref {
		n.Xref.Add(x)
	}
	for _, p := range w.ProvidedBy {
		n.ProvidedBy.Add(p)
	}
	if extra := extraProperties(raw, coreNodeKeys); extra != nil {
		n.Properties = extra
	}
	return n, nil
}

func decodeEdge(raw json.RawMessage) (*model.Edge, error) {
	var w struct {
		ID                        string   `json:"id"`
		Subject                   string   `json:"subject"`
		Object                    string   `json:"object"`
		Predicate                 string   `json:"predicate"`
		Category                  []string `json:"category"`
		KnowledgeLevel            string   `json:"knowledge_level"`
		AgentType                 string   `json:"agent_type"`
		PrimaryKnowledgeSource    []string `json:"primary_knowledge_source"`
		AggregatorKnowledgeSource []string `json:"aggregator_knowledge_source"`
		SupportingDataSource      []string `json:"supporting_data_source"`
		Publications              []string `json:"publications"`
		OriginalSubject           string   `json:"_original_subject"`
		OriginalObject            string   `json:"_original_object"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	if w.Subject == "" || w.Object == "" {
		return nil, fmt.Errorf("missing subject/object")
	}
	e := model.NewEdge(w.ID, w.Subject, w.Predicate, w.Object)
	for _, c := range w.Category {
		e.Category.Add(c)
	}
	e.KnowledgeLevel, e.AgentType = w.KnowledgeLevel, w.AgentType
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
	if extra := extraProperties(raw, coreEdgeKeys); extra != nil {
		e.Properties = extra
	}
	return e, nil
}

func (s *Source) Close() error {
	var err error
	if s.nodeFile != nil {
		err = s.nodeFile.Close()
	}
	if s.edgeFile != nil {
		if e := s.edgeFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
