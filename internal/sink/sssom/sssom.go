// Package sssom implements the SSSOM Sink, the write-side counterpart
// of internal/source/sssom: one mapping row per
// edge whose predicate maps back to an SSSOM mapping-predicate id; node
// labels are looked up from WriteNode calls observed so far.
package sssom

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/biomedkg/kgxchange/internal/model"
)

// header lists the emitted columns; the final two are extension
// columns carrying the clique resolver's pre-rewrite endpoints and are
// trimmed from the output when no row has them.
var header = []string{
	"subject_id", "subject_label", "predicate_id", "object_id", "object_label",
	"mapping_justification", "mapping_tool", "confidence",
	model.OriginalSubjectKey, model.OriginalObjectKey,
}

const coreColumns = 8

var inversePredicateMap = map[string]string{
	"biolink:same_as":      "skos:exactMatch",
	"biolink:close_match":  "skos:closeMatch",
	"biolink:broad_match":  "skos:broadMatch",
	"biolink:narrow_match": "skos:narrowMatch",
	"biolink:related_to":   "skos:relatedMatch",
}

type Sink struct {
	path string
	f    *os.File
	w    *csv.Writer

	labels map[string]string
	rows   [][]string
}

func New(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sssom sink: create: %w", err)
	}
	w := csv.NewWriter(f)
	w.Comma = '\t'
	return &Sink{path: path, f: f, w: w, labels: make(map[string]string)}, nil
}

func (s *Sink) WriteNode(_ context.Context, n *model.Node) error {
	if n.Name != "" {
		s.labels[n.ID] = n.Name
	}
	return nil
}

func (s *Sink) WriteEdge(_ context.Context, e *model.Edge) error {
	predID := e.Predicate
	if mapped, ok := inversePredicateMap[predID]; ok {
		predID = mapped
	}
	just, _ := propString(e.Properties, "mapping_justification")
	tool, _ := propString(e.Properties, "mapping_tool")
	conf, _ := propString(e.Properties, "confidence")
	s.rows = append(s.rows, []string{
		e.Subject, s.labels[e.Subject], predID, e.Object, s.labels[e.Object], just, tool, conf,
		e.OriginalSubject, e.OriginalObject,
	})
	return nil
}

func propString(props model.Properties, key string) (string, bool) {
	if v, ok := props[key]; ok {
		return v.String()
	}
	return "", false
}

func (s *Sink) Finalize(_ context.Context) error {
	cols := coreColumns
	for _, row := range s.rows {
		if row[coreColumns] != "" || row[coreColumns+1] != "" {
			cols = len(header)
			break
		}
	}
	if err := s.w.Write(header[:cols]); err != nil {
		return err
	}
	for _, row := range s.rows {
		if err := s.w.Write(row[:cols]); err != nil {
			return err
		}
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	return s.f.Close()
}
