// Package sssom implements the SSSOM mapping-file Source: mapping
// rows become edges with predicate derived from the mapping-predicate
// column; subject and object become nodes with default categories if
// not already present. SSSOM files commonly carry a `#`-prefixed YAML
// metadata block before the TSV header, which is skipped.
package sssom

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
)

// Source streams SSSOM mapping rows as Node/Edge pairs.
type Source struct {
	cfg source.Config

	f      io.Closer
	reader *csv.Reader
	header []string

	seenNodes map[string]bool
	pending   []model.Record
}

func New(cfg source.Config, path string) (*Source, error) {
	f, err := source.OpenFile(path, cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("sssom: open: %w", err)
	}
	br := bufio.NewReader(f)
	if err := skipMetadataBlock(br); err != nil {
		f.Close()
		return nil, err
	}
	cr := csv.NewReader(br)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("sssom: read header: %w", err)
	}
	return &Source{cfg: cfg, f: f, reader: cr, header: header, seenNodes: make(map[string]bool)}, nil
}

// skipMetadataBlock consumes leading `#`-prefixed lines (the SSSOM YAML
// curie-map/metadata preamble) without disturbing br's position for the
// subsequent csv.Reader.
func skipMetadataBlock(br *bufio.Reader) error {
	for {
		peek, err := br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if peek[0] != '#' {
			return nil
		}
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (s *Source) Next(ctx context.Context) (model.Record, bool, error) {
	for {
		if len(s.pending) > 0 {
			rec := s.pending[0]
			s.pending = s.pending[1:]
			return rec, true, nil
		}
		row, err := s.reader.Read()
		if err == io.EOF {
			return model.Record{}, false, nil
		}
		if err != nil {
			continue
		}
		fields := zip(s.header, row)
		subjectID := fields["subject_id"]
		objectID := fields["object_id"]
		predicate := mapPredicate(fields["predicate_id"])
		if subjectID == "" || objectID == "" {
			continue
		}

		if !s.seenNodes[subjectID] {
			s.seenNodes[subjectID] = true
			n := model.NewNode(subjectID)
			n.Name = fields["subject_label"]
			n.EnsureCategory()
			if s.cfg.KeepNode(n) {
				rec := model.NodeRec(n)
				s.cfg.ApplyDefaults(rec)
				s.pending = append(s.pending, rec)
			}
		}
		if !s.seenNodes[objectID] {
			s.seenNodes[objectID] = true
			n := model.NewNode(objectID)
			n.Name = fields["object_label"]
			n.EnsureCategory()
			if s.cfg.KeepNode(n) {
				rec := model.NodeRec(n)
				s.cfg.ApplyDefaults(rec)
				s.pending = append(s.pending, rec)
			}
		}

		e := model.NewEdge("", subjectID, predicate, objectID)
		if just := fields["mapping_justification"]; just != "" {
			e.Properties["mapping_justification"] = model.StringValue(just)
		}
		if tool := fields["mapping_tool"]; tool != "" {
			e.Properties["mapping_tool"] = model.StringValue(tool)
		}
		if conf := fields["confidence"]; conf != "" {
			e.Properties["confidence"] = model.StringValue(conf)
		}
		e.OriginalSubject = fields[model.OriginalSubjectKey]
		e.OriginalObject = fields[model.OriginalObjectKey]
		if s.cfg.KeepEdge(e) {
			rec := model.EdgeRec(e)
			s.cfg.ApplyDefaults(rec)
			s.pending = append(s.pending, rec)
		}
		if len(s.pending) > 0 {
			continue
		}
	}
}

func zip(header, row []string) map[string]string {
	out := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(row) {
			out[strings.TrimSpace(h)] = row[i]
		}
	}
	return out
}

// mapPredicate derives a biolink-style predicate from an SSSOM
// predicate_id (commonly a skos/owl mapping relation).
func mapPredicate(predID string) string {
	switch predID {
	case "skos:exactMatch":
		return "biolink:same_as"
	case "skos:closeMatch":
		return "biolink:close_match"
	case "skos:broadMatch":
		return "biolink:broad_match"
	case "skos:narrowMatch":
		return "biolink:narrow_match"
	case "skos:relatedMatch", "":
		return "biolink:related_to"
	default:
		return predID
	}
}

func (s *Source) Close() error { return s.f.Close() }
