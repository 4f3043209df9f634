package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/biomedkg/kgxchange/internal/pipeline"
	"github.com/biomedkg/kgxchange/internal/reportstore"
	"github.com/biomedkg/kgxchange/internal/source"
	pgdbsource "github.com/biomedkg/kgxchange/internal/source/pgdb"
	"github.com/biomedkg/kgxchange/internal/transform"
	"github.com/biomedkg/kgxchange/internal/validate"
	"github.com/biomedkg/kgxchange/internal/vocab"
	"github.com/spf13/cobra"
)

var validateFlags struct {
	srcFormat      string
	srcNodes       string
	srcEdges       string
	srcPath        string
	strict         bool
	biolinkVersion string
	persistReport  bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Drain a Source into a Graph Store and validate it against the vocabulary",
	RunE:  runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateFlags.srcFormat, "source-format", "", "source format code")
	f.StringVar(&validateFlags.srcNodes, "source-nodes", "", "source node file (tabular)")
	f.StringVar(&validateFlags.srcEdges, "source-edges", "", "source edge file (tabular)")
	f.StringVar(&validateFlags.srcPath, "source-path", "", "source file path")
	f.BoolVar(&validateFlags.strict, "strict", false, "promote knowledge_level/agent_type absence to ERROR")
	f.StringVar(&validateFlags.biolinkVersion, "biolink-version", "latest", "vocabulary model version")
	f.BoolVar(&validateFlags.persistReport, "persist-report", false, "persist this run's error tree to the configured report store")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cleanup, err := stageInputs(ctx, &validateFlags.srcNodes, &validateFlags.srcEdges, &validateFlags.srcPath)
	if err != nil {
		return fmt.Errorf("stage inputs: %w", err)
	}
	defer cleanup()

	prefixes := buildPrefixManager()
	svc := vocab.NewStaticService(validateFlags.biolinkVersion)

	srcURI, srcUser, srcPass, srcDB := propertyGraphCredentials(validateFlags.srcFormat)
	src, err := pipeline.OpenSource(ctx, pipeline.Format(validateFlags.srcFormat), source.Config{}, pipeline.Locations{
		NodeFile: validateFlags.srcNodes,
		EdgeFile: validateFlags.srcEdges,
		Path:     validateFlags.srcPath,
	}, prefixes, pgdbsource.Credentials{URI: srcURI, Username: srcUser, Password: srcPass, Database: srcDB})
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	t := transform.New(transform.Options{Prefixes: prefixes, Vocab: svc})
	store, err := t.Transform(ctx, src)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}

	validate.SetGlobalVersion(validateFlags.biolinkVersion)
	v := validate.New(svc, prefixes, validate.Options{Strict: validateFlags.strict})
	v.ValidateNodes(store.Nodes())
	v.ValidateEdges(store.Edges())

	out, err := json.MarshalIndent(v.Aggregator().Tree(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal error tree: %w", err)
	}
	fmt.Println(string(out))

	if validateFlags.persistReport {
		runID := persistReports(ctx, map[reportstore.Kind]any{
			reportstore.KindValidation: v.Aggregator().Tree(),
		})
		logger.WithField("run_id", runID).Info("validation report persisted")
	}
	return nil
}
