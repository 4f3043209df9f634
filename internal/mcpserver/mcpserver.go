// Package mcpserver exposes three read-only inspection tools over a
// populated graph store via the Model Context Protocol. It duplicates
// no business logic: every tool dispatches straight into
// internal/summary, internal/metakg, or internal/validate, mirroring
// the go-sdk convention of registering
// tools that delegate to existing internal packages.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/biomedkg/kgxchange/internal/graphstore"
	"github.com/biomedkg/kgxchange/internal/metakg"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/summary"
	"github.com/biomedkg/kgxchange/internal/validate"
	"github.com/biomedkg/kgxchange/internal/vocab"
)

// Server wires the three kg_* tools to a Graph Store.
type Server struct {
	store    *graphstore.Store
	vocab    vocab.Service
	prefixes *prefixmgr.Manager
	facets   []string
	mcp      *mcp.Server
}

// New builds an MCP server backed by store. facets are the node/edge
// properties kg_summarize additionally facet-counts.
func New(store *graphstore.Store, vocabSvc vocab.Service, prefixes *prefixmgr.Manager, facets ...string) *Server {
	impl := &mcp.Implementation{Name: "kgxchange", Version: "0.1.0"}
	s := &Server{store: store, vocab: vocabSvc, prefixes: prefixes, facets: facets, mcp: mcp.NewServer(impl, nil)}
	s.registerTools()
	return s
}

// Run serves the three tools over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

type summarizeArgs struct{}

type summarizeResult struct {
	Report summary.Report `json:"report"`
}

type metaKGArgs struct{}

type metaKGResult struct {
	Document metakg.Document `json:"document"`
}

type validateArgs struct {
	Strict bool `json:"strict,omitempty"`
}

type validateResult struct {
	Findings validate.Tree `json:"findings"`
	Errors   int           `json:"error_count"`
	Warnings int           `json:"warning_count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "kg_summarize",
		Description: "Compute node/edge category counts and triple-type edge counts over the loaded graph.",
	}, s.summarize)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "kg_meta_kg",
		Description: "Generate the Translator-style meta knowledge graph for the loaded graph.",
	}, s.metaKG)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "kg_validate",
		Description: "Validate every node and edge in the loaded graph against the Biolink Model.",
	}, s.validate)
}

func (s *Server) summarize(ctx context.Context, req *mcp.CallToolRequest, args summarizeArgs) (*mcp.CallToolResult, summarizeResult, error) {
	sum := summary.New(s.facets...)
	for _, n := range s.store.Nodes() {
		sum.AddNode(n)
	}
	for _, e := range s.store.Edges() {
		sum.AddEdge(e)
	}
	return nil, summarizeResult{Report: sum.Report()}, nil
}

func (s *Server) metaKG(ctx context.Context, req *mcp.CallToolRequest, args metaKGArgs) (*mcp.CallToolResult, metaKGResult, error) {
	gen := metakg.New()
	for _, n := range s.store.Nodes() {
		gen.AddNode(n)
	}
	for _, e := range s.store.Edges() {
		gen.AddEdge(e)
	}
	return nil, metaKGResult{Document: gen.Document()}, nil
}

func (s *Server) validate(ctx context.Context, req *mcp.CallToolRequest, args validateArgs) (*mcp.CallToolResult, validateResult, error) {
	if s.vocab == nil {
		return nil, validateResult{}, fmt.Errorf("kg_validate: no vocabulary service configured")
	}
	v := validate.New(s.vocab, s.prefixes, validate.Options{Strict: args.Strict})
	v.ValidateNodes(s.store.Nodes())
	v.ValidateEdges(s.store.Edges())

	agg := v.Aggregator()
	tree := agg.Tree()
	var errCount, warnCount int
	for _, f := range agg.Findings() {
		switch f.Level {
		case validate.LevelError:
			errCount++
		case validate.LevelWarning:
			warnCount++
		}
	}
	return nil, validateResult{Findings: tree, Errors: errCount, Warnings: warnCount}, nil
}
