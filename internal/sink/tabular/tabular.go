// Package tabular implements the TSV/CSV Sink: core
// columns first in a stable order, header is the union of all keys
// seen, multivalued fields `|`-joined, optional tar.gz archiving of the
// node and edge files into one tarball on Finalize.
package tabular

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/biomedkg/kgxchange/internal/model"
)

const ListDelimiter = "|"

var coreNodeColumns = []string{"id", "category", "name", "description", "xref", "synonym", "provided_by"}
var coreEdgeColumns = []string{
	"id", "subject", "predicate", "object", "category", "knowledge_level", "agent_type",
	"primary_knowledge_source", "aggregator_knowledge_source", "supporting_data_source", "publications",
}

// Sink buffers node/edge rows in memory so the header (union of all
// keys seen) can be computed before the first row is written, then
// streams the final TSVs on Finalize.
type Sink struct {
	NodePath string
	EdgePath string
	Archive  bool // combine both files into one tar.gz on Finalize

	nodes         []*model.Node
	edges         []*model.Edge
	extraNodeCols map[string]bool
	extraEdgeCols map[string]bool
}

func New(nodePath, edgePath string, archive bool) *Sink {
	return &Sink{
		NodePath:      nodePath,
		EdgePath:      edgePath,
		Archive:       archive,
		extraNodeCols: make(map[string]bool),
		extraEdgeCols: make(map[string]bool),
	}
}

func (s *Sink) WriteNode(_ context.Context, n *model.Node) error {
	s.nodes = append(s.nodes, n)
	for k := range n.Properties {
		s.extraNodeCols[k] = true
	}
	return nil
}

func (s *Sink) WriteEdge(_ context.Context, e *model.Edge) error {
	s.edges = append(s.edges, e)
	for k := range e.Properties {
		s.extraEdgeCols[k] = true
	}
	if e.OriginalSubject != "" {
		s.extraEdgeCols[model.OriginalSubjectKey] = true
	}
	if e.OriginalObject != "" {
		s.extraEdgeCols[model.OriginalObjectKey] = true
	}
	return nil
}

func (s *Sink) Finalize(_ context.Context) error {
	nodeHeader := append(append([]string(nil), coreNodeColumns...), sortedKeys(s.extraNodeCols)...)
	edgeHeader := append(append([]string(nil), coreEdgeColumns...), sortedKeys(s.extraEdgeCols)...)

	if err := writeTSV(s.NodePath, nodeHeader, len(s.nodes), func(i int) []string {
		return nodeRow(s.nodes[i], nodeHeader)
	}); err != nil {
		return fmt.Errorf("tabular sink: write nodes: %w", err)
	}
	if err := writeTSV(s.EdgePath, edgeHeader, len(s.edges), func(i int) []string {
		return edgeRow(s.edges[i], edgeHeader)
	}); err != nil {
		return fmt.Errorf("tabular sink: write edges: %w", err)
	}
	if s.Archive {
		return archiveTarGz(s.NodePath, s.EdgePath)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeTSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func joinList(ss []string) string {
	escaped := make([]string, len(ss))
	for i, s := range ss {
		escaped[i] = strings.ReplaceAll(s, "|", "`|")
	}
	return strings.Join(escaped, ListDelimiter)
}

func nodeRow(n *model.Node, header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		switch col {
		case "id":
			out[i] = n.ID
		case "category":
			out[i] = joinList(n.Category.Slice())
		case "name":
			out[i] = n.Name
		case "description":
			out[i] = n.Description
		case "xref":
			out[i] = joinList(n.Xref.Slice())
		case "synonym":
			out[i] = joinList(n.Synonym)
		case "provided_by":
			out[i] = joinList(n.ProvidedBy.Slice())
		default:
			if v, ok := n.Properties[col]; ok {
				out[i] = joinList(v.AsStrings())
			}
		}
	}
	return out
}

func edgeRow(e *model.Edge, header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		switch col {
		case "id":
			out[i] = e.ID
		case "subject":
			out[i] = e.Subject
		case "predicate":
			out[i] = e.Predicate
		case "object":
			out[i] = e.Object
		case "category":
			out[i] = joinList(e.Category.Slice())
		case "knowledge_level":
			out[i] = e.KnowledgeLevel
		case "agent_type":
			out[i] = e.AgentType
		case "primary_knowledge_source":
			out[i] = joinList(e.PrimaryKnowledgeSource.Slice())
		case "aggregator_knowledge_source":
			out[i] = joinList(e.AggregatorKnowledgeSource.Slice())
		case "supporting_data_source":
			out[i] = joinList(e.SupportingDataSource.Slice())
		case "publications":
			out[i] = joinList(e.Publications)
		case model.OriginalSubjectKey:
			out[i] = e.OriginalSubject
		case model.OriginalObjectKey:
			out[i] = e.OriginalObject
		default:
			if v, ok := e.Properties[col]; ok {
				out[i] = joinList(v.AsStrings())
			}
		}
	}
	return out
}

func archiveTarGz(paths ...string) error {
	dest := paths[0] + ".tar.gz"
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	for _, p := range paths {
		if err := addFileToTar(tw, p); err != nil {
			return err
		}
	}
	return nil
}

func addFileToTar(tw *tar.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, in)
	return err
}
