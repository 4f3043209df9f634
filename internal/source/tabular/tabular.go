// Package tabular implements the TSV/CSV Source: two
// files (nodes, edges), header row, `|`-delimited multivalued columns
// with backquote-escape, chunked reads, malformed rows reported and
// skipped rather than aborting the stream.
package tabular

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
)

// ListDelimiter is the multivalued-column separator.
const ListDelimiter = "|"

// coreNodeColumns/coreEdgeColumns are the typed fields read out of the
// header explicitly; every other column becomes a Properties entry.
var coreNodeColumns = map[string]bool{
	"id": true, "category": true, "name": true, "description": true,
	"xref": true, "synonym": true, "provided_by": true,
}

var coreEdgeColumns = map[string]bool{
	"id": true, "subject": true, "object": true, "predicate": true,
	"category": true, "knowledge_level": true, "agent_type": true,
	"primary_knowledge_source": true, "aggregator_knowledge_source": true,
	"supporting_data_source": true, "publications": true,
	model.OriginalSubjectKey: true, model.OriginalObjectKey: true,
}

// MalformedRow is reported for a row that
// cannot be parsed into a record, e.g. missing a required column.
type MalformedRow struct {
	File   string
	Line   int
	Reason string
}

func (m MalformedRow) String() string {
	return fmt.Sprintf("%s:%d: %s", m.File, m.Line, m.Reason)
}

// Source reads a node file and/or an edge file.
type Source struct {
	cfg source.Config

	nodeReader *csv.Reader
	nodeFile   io.Closer
	nodeHeader []string
	nodeLine   int
	nodePath   string

	edgeReader *csv.Reader
	edgeFile   io.Closer
	edgeHeader []string
	edgeLine   int
	edgePath   string

	readingNodes bool
	staged       []string

	// OnMalformedRow, if set, is invoked for every row skipped due to a
	// parse failure or missing required column.
	OnMalformedRow func(MalformedRow)
}

// Option configures New.
type Option func(*Source)

// WithNodeFile sets the node-table input path.
func WithNodeFile(path string) Option { return func(s *Source) { s.nodePath = path } }

// WithEdgeFile sets the edge-table input path.
func WithEdgeFile(path string) Option { return func(s *Source) { s.edgePath = path } }

// New opens the configured node/edge files and reads their headers.
// With cfg.Compression set to tar.gz, the node path names a single
// archive whose members ending in "nodes.tsv"/"edges.tsv" are staged out before parsing.
func New(cfg source.Config, opts ...Option) (*Source, error) {
	s := &Source{cfg: cfg, readingNodes: true}
	for _, o := range opts {
		o(s)
	}
	if cfg.Compression == source.CompressionTarGz {
		if err := s.stageArchive(); err != nil {
			return nil, err
		}
	}
	if s.nodePath != "" {
		rc, err := source.OpenFile(s.nodePath, s.cfg.Compression)
		if err != nil {
			return nil, fmt.Errorf("tabular: open node file: %w", err)
		}
		s.nodeFile = rc
		s.nodeReader = newCSVReader(rc)
		header, err := s.nodeReader.Read()
		if err != nil && err != io.EOF {
			rc.Close()
			return nil, fmt.Errorf("tabular: read node header: %w", err)
		}
		s.nodeHeader = header
	}
	if s.edgePath != "" {
		rc, err := source.OpenFile(s.edgePath, s.cfg.Compression)
		if err != nil {
			return nil, fmt.Errorf("tabular: open edge file: %w", err)
		}
		s.edgeFile = rc
		s.edgeReader = newCSVReader(rc)
		header, err := s.edgeReader.Read()
		if err != nil && err != io.EOF {
			rc.Close()
			return nil, fmt.Errorf("tabular: read edge header: %w", err)
		}
		s.edgeHeader = header
	}
	return s, nil
}

// stageArchive extracts the node/edge members of a tar.gz archive at
// nodePath into temp files and repoints nodePath/edgePath at them.
func (s *Source) stageArchive() error {
	archive := s.nodePath
	if archive == "" {
		archive = s.edgePath
	}
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("tabular: open archive: %w", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("tabular: gzip %s: %w", archive, err)
	}
	defer gz.Close()

	s.nodePath, s.edgePath = "", ""
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tabular: read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		isNode := strings.Contains(hdr.Name, "node")
		isEdge := strings.Contains(hdr.Name, "edge")
		if !isNode && !isEdge {
			continue
		}
		tmp, err := os.CreateTemp("", "kgx-tabular-*.tsv")
		if err != nil {
			return fmt.Errorf("tabular: stage member %s: %w", hdr.Name, err)
		}
		if _, err := io.Copy(tmp, tr); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("tabular: stage member %s: %w", hdr.Name, err)
		}
		tmp.Close()
		s.staged = append(s.staged, tmp.Name())
		if isNode {
			s.nodePath = tmp.Name()
		} else {
			s.edgePath = tmp.Name()
		}
	}
	// Members were staged plain, so per-file reads skip the gzip layer.
	s.cfg.Compression = source.CompressionNone
	return nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// Next yields the next Node record (draining the node file first), then
// the next Edge record, until both files are exhausted.
func (s *Source) Next(ctx context.Context) (model.Record, bool, error) {
	if s.readingNodes {
		if s.nodeReader != nil {
			for {
				row, err := s.nodeReader.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					s.report(s.nodePath, s.nodeLine, err.Error())
					s.nodeLine++
					continue
				}
				s.nodeLine++
				n, ok := s.parseNode(row)
				if !ok {
					continue
				}
				if !s.cfg.KeepNode(n) {
					continue
				}
				rec := model.NodeRec(n)
				s.cfg.ApplyDefaults(rec)
				return rec, true, nil
			}
		}
		s.readingNodes = false
	}
	if s.edgeReader != nil {
		for {
			row, err := s.edgeReader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				s.report(s.edgePath, s.edgeLine, err.Error())
				s.edgeLine++
				continue
			}
			s.edgeLine++
			e, ok := s.parseEdge(row)
			if !ok {
				continue
			}
			if !s.cfg.KeepEdge(e) {
				continue
			}
			rec := model.EdgeRec(e)
			s.cfg.ApplyDefaults(rec)
			return rec, true, nil
		}
	}
	return model.Record{}, false, nil
}

func (s *Source) report(file string, line int, reason string) {
	if s.OnMalformedRow != nil {
		s.OnMalformedRow(MalformedRow{File: file, Line: line, Reason: reason})
	}
}

func (s *Source) parseNode(row []string) (*model.Node, bool) {
	fields := zipRow(s.nodeHeader, row)
	id := fields["id"]
	if id == "" {
		s.report(s.nodePath, s.nodeLine, "missing required column id")
		return nil, false
	}
	n := model.NewNode(id)
	if v, ok := fields["category"]; ok {
		for _, c := range splitList(v) {
			n.Category.Add(c)
		}
	}
	n.Name = fields["name"]
	n.Description = fields["description"]
	for _, x := range splitList(fields["xref"]) {
		n.Xref.Add(x)
	}
	if v, ok := fields["synonym"]; ok {
		n.Synonym = splitList(v)
	}
	for _, p := range splitList(fields["provided_by"]) {
		n.ProvidedBy.Add(p)
	}
	for k, v := range fields {
		if coreNodeColumns[k] || v == "" {
			continue
		}
		n.Properties[k] = inferValue(v)
	}
	return n, true
}

func (s *Source) parseEdge(row []string) (*model.Edge, bool) {
	fields := zipRow(s.edgeHeader, row)
	subject, object, predicate := fields["subject"], fields["object"], fields["predicate"]
	if subject == "" || object == "" {
		s.report(s.edgePath, s.edgeLine, "missing required column subject/object")
		return nil, false
	}
	e := model.NewEdge(fields["id"], subject, predicate, object)
	if v, ok := fields["category"]; ok {
		for _, c := range splitList(v) {
			e.Category.Add(c)
		}
	}
	e.KnowledgeLevel = fields["knowledge_level"]
	e.AgentType = fields["agent_type"]
	for _, p := range splitList(fields["primary_knowledge_source"]) {
		e.PrimaryKnowledgeSource.Add(p)
	}
	for _, p := range splitList(fields["aggregator_knowledge_source"]) {
		e.AggregatorKnowledgeSource.Add(p)
	}
	for _, p := range splitList(fields["supporting_data_source"]) {
		e.SupportingDataSource.Add(p)
	}
	if v, ok := fields["publications"]; ok {
		e.Publications = splitList(v)
	}
	e.OriginalSubject = fields[model.OriginalSubjectKey]
	e.OriginalObject = fields[model.OriginalObjectKey]
	for k, v := range fields {
		if coreEdgeColumns[k] || v == "" {
			continue
		}
		e.Properties[k] = inferValue(v)
	}
	return e, true
}

func zipRow(header, row []string) map[string]string {
	out := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(row) {
			out[h] = row[i]
		}
	}
	return out
}

// splitList splits a `|`-delimited column, honoring backquote-escaping
// of literal `|` characters within a field.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	var cur strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '`':
			escaped = true
		case r == '|':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	out = append(out, cur.String())
	return out
}

func inferValue(s string) model.Value {
	if s == "true" || s == "false" {
		return model.BoolValue(s == "true")
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return model.NumberValue(n)
	}
	if strings.Contains(s, ListDelimiter) {
		return model.StringsValue(splitList(s))
	}
	return model.StringValue(s)
}

// Close releases the node/edge file handles and removes any files
// staged out of a tar.gz archive.
func (s *Source) Close() error {
	var err error
	if s.nodeFile != nil {
		err = s.nodeFile.Close()
		s.nodeFile = nil
	}
	if s.edgeFile != nil {
		if e := s.edgeFile.Close(); e != nil && err == nil {
			err = e
		}
		s.edgeFile = nil
	}
	for _, p := range s.staged {
		os.Remove(p)
	}
	s.staged = nil
	return err
}
