package main

import (
	"context"
	"fmt"

	"github.com/biomedkg/kgxchange/internal/mcpserver"
	"github.com/biomedkg/kgxchange/internal/pipeline"
	"github.com/biomedkg/kgxchange/internal/source"
	pgdbsource "github.com/biomedkg/kgxchange/internal/source/pgdb"
	"github.com/biomedkg/kgxchange/internal/transform"
	"github.com/biomedkg/kgxchange/internal/vocab"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	srcFormat      string
	srcNodes       string
	srcEdges       string
	srcPath        string
	biolinkVersion string
	facets         []string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load a graph and expose read-only inspection tools over MCP stdio",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.srcFormat, "source-format", "", "source format code")
	f.StringVar(&serveFlags.srcNodes, "source-nodes", "", "source node file (tabular)")
	f.StringVar(&serveFlags.srcEdges, "source-edges", "", "source edge file (tabular)")
	f.StringVar(&serveFlags.srcPath, "source-path", "", "source file path")
	f.StringVar(&serveFlags.biolinkVersion, "biolink-version", "latest", "vocabulary model version")
	f.StringSliceVar(&serveFlags.facets, "facet", nil, "node/edge property the kg_summarize tool facet-counts")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cleanup, err := stageInputs(ctx, &serveFlags.srcNodes, &serveFlags.srcEdges, &serveFlags.srcPath)
	if err != nil {
		return fmt.Errorf("stage inputs: %w", err)
	}
	defer cleanup()

	prefixes := buildPrefixManager()
	svc := vocab.NewStaticService(serveFlags.biolinkVersion)

	srcURI, srcUser, srcPass, srcDB := propertyGraphCredentials(serveFlags.srcFormat)
	src, err := pipeline.OpenSource(ctx, pipeline.Format(serveFlags.srcFormat), source.Config{}, pipeline.Locations{
		NodeFile: serveFlags.srcNodes,
		EdgeFile: serveFlags.srcEdges,
		Path:     serveFlags.srcPath,
	}, prefixes, pgdbsource.Credentials{URI: srcURI, Username: srcUser, Password: srcPass, Database: srcDB})
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	t := transform.New(transform.Options{Prefixes: prefixes, Vocab: svc})
	store, err := t.Transform(ctx, src)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	logger.WithField("nodes", store.NodeCount()).WithField("edges", store.EdgeCount()).Info("graph loaded, serving MCP on stdio")

	srv := mcpserver.New(store, svc, prefixes, serveFlags.facets...)
	return srv.Run(ctx)
}
