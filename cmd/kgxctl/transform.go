package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/biomedkg/kgxchange/internal/kgcache"
	"github.com/biomedkg/kgxchange/internal/pipeline"
	"github.com/biomedkg/kgxchange/internal/reportstore"
	pgdbsink "github.com/biomedkg/kgxchange/internal/sink/pgdb"
	"github.com/biomedkg/kgxchange/internal/source"
	pgdbsource "github.com/biomedkg/kgxchange/internal/source/pgdb"
	"github.com/biomedkg/kgxchange/internal/transform"
	"github.com/biomedkg/kgxchange/internal/vocab"
	"github.com/spf13/cobra"
)

var transformFlags struct {
	srcFormat string
	srcNodes  string
	srcEdges  string
	srcPath   string

	sinkFormat string
	sinkNodes  string
	sinkEdges  string
	sinkPath   string
	archive    bool

	nodeCategories []string
	edgePredicates []string

	stream            bool
	providedBy        string
	biolinkVersion    string
	inforesRewrite    string
	inforesCatalogOut string
	persistReport     bool
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Drain a Source into a Sink, applying the normalization pipeline",
	RunE:  runTransform,
}

func init() {
	f := transformCmd.Flags()
	f.StringVar(&transformFlags.srcFormat, "source-format", "", "source format code (tabular, json, jsonl, ntriples, owl, obojson, sssom, trapi, pgdb)")
	f.StringVar(&transformFlags.srcNodes, "source-nodes", "", "source node file (tabular)")
	f.StringVar(&transformFlags.srcEdges, "source-edges", "", "source edge file (tabular)")
	f.StringVar(&transformFlags.srcPath, "source-path", "", "source file path (json/jsonl base/ntriples/owl/obojson/sssom/trapi)")

	f.StringVar(&transformFlags.sinkFormat, "sink-format", "null", "sink format code, or null to discard")
	f.StringVar(&transformFlags.sinkNodes, "sink-nodes", "", "sink node file (tabular)")
	f.StringVar(&transformFlags.sinkEdges, "sink-edges", "", "sink edge file (tabular)")
	f.StringVar(&transformFlags.sinkPath, "sink-path", "", "sink file path (json/jsonl base/ntriples/owl/obojson/sssom/trapi)")
	f.BoolVar(&transformFlags.archive, "archive", false, "tar.gz-archive the tabular sink's node/edge files together")

	f.StringSliceVar(&transformFlags.nodeCategories, "node-category", nil, "keep only nodes with one of these categories; pushed into the read query for pgdb sources")
	f.StringSliceVar(&transformFlags.edgePredicates, "edge-predicate", nil, "keep only edges with one of these predicates; pushed into the read query for pgdb sources")

	f.BoolVar(&transformFlags.stream, "stream", false, "pipe records Source->Sink in lock-step instead of via an owned Graph Store")
	f.StringVar(&transformFlags.providedBy, "provided-by", "", "default provided_by/knowledge-source value for records lacking one")
	f.StringVar(&transformFlags.biolinkVersion, "biolink-version", "latest", "vocabulary model version recorded on this run")
	f.StringVar(&transformFlags.inforesRewrite, "infores-rewrite", "", "InfoRes rewrite rule: \"true\", \"/regex/\", \"/regex/=>sub\", or \"/regex/=>sub=>prefix\"")
	f.StringVar(&transformFlags.inforesCatalogOut, "infores-catalog-out", "", "write the InfoRes original->minted catalog to this JSON file")
	f.BoolVar(&transformFlags.persistReport, "persist-report", false, "persist this run's findings and InfoRes catalog to the configured report store")
}

func runTransform(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cleanup, err := stageInputs(ctx, &transformFlags.srcNodes, &transformFlags.srcEdges, &transformFlags.srcPath)
	if err != nil {
		return fmt.Errorf("stage inputs: %w", err)
	}
	defer cleanup()

	prefixes := buildPrefixManager()
	svc := vocab.NewStaticService(transformFlags.biolinkVersion)

	srcURI, srcUser, srcPass, srcDB := propertyGraphCredentials(transformFlags.srcFormat)
	src, err := pipeline.OpenSource(ctx, pipeline.Format(transformFlags.srcFormat), source.Config{
		ProvidedBy:     transformFlags.providedBy,
		NodeCategories: transformFlags.nodeCategories,
		EdgePredicates: transformFlags.edgePredicates,
	}, pipeline.Locations{
		NodeFile: transformFlags.srcNodes,
		EdgeFile: transformFlags.srcEdges,
		Path:     transformFlags.srcPath,
	}, prefixes, pgdbsource.Credentials{URI: srcURI, Username: srcUser, Password: srcPass, Database: srcDB})
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	sinkURI, sinkUser, sinkPass, sinkDB := propertyGraphCredentials(transformFlags.sinkFormat)
	snk, err := pipeline.OpenSink(ctx, pipeline.Format(transformFlags.sinkFormat), pipeline.Locations{
		NodeFile: transformFlags.sinkNodes,
		EdgeFile: transformFlags.sinkEdges,
		Path:     transformFlags.sinkPath,
	}, prefixes, transformFlags.archive, pgdbsink.Credentials{URI: sinkURI, Username: sinkUser, Password: sinkPass, Database: sinkDB}, cfg.Pipeline.BatchSize)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}

	rule, err := parseInfoResRewrite(transformFlags.inforesRewrite)
	if err != nil {
		return fmt.Errorf("infores-rewrite: %w", err)
	}

	t := transform.New(transform.Options{
		Prefixes:   prefixes,
		Vocab:      svc,
		ProvidedBy: transformFlags.providedBy,
		InfoRes:    rule,
	})

	var cache *kgcache.Client
	if rule != nil && cfg.Cache.RedisURL != "" {
		cache, err = kgcache.New(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL, logger)
		if err != nil {
			logger.WithError(err).Warn("shared cache unavailable; minting InfoRes identifiers locally")
		} else {
			defer cache.Close()
		}
	}

	if transformFlags.stream {
		if err := t.Stream(ctx, src, snk, nil); err != nil {
			return fmt.Errorf("stream: %w", err)
		}
	} else {
		store, err := t.Transform(ctx, src)
		if err != nil {
			return fmt.Errorf("transform: %w", err)
		}
		if err := transform.Save(ctx, store, snk, nil); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}

	if !t.Findings().IsEmpty() {
		logger.Warnf("transform produced %d distinct finding(s); see --verbose for the tree", t.Findings().Count())
	}

	if cache != nil {
		syncInfoResCache(ctx, cache, t.Catalog().Entries())
	}

	if transformFlags.inforesCatalogOut != "" {
		if err := writeJSONFile(transformFlags.inforesCatalogOut, t.Catalog().Entries()); err != nil {
			return fmt.Errorf("write infores catalog: %w", err)
		}
	}

	if transformFlags.persistReport {
		runID := persistReports(ctx, map[reportstore.Kind]any{
			reportstore.KindValidation: t.Findings().Tree(),
			reportstore.KindInfoRes:    t.Catalog().Entries(),
		})
		logger.WithField("run_id", runID).Info("run report persisted")
	}
	return nil
}

// syncInfoResCache publishes this run's minted InfoRes identifiers to
// the shared cache, warning when another run already minted a different
// identifier for the same source name.
func syncInfoResCache(ctx context.Context, cache *kgcache.Client, entries map[string]string) {
	for original, minted := range entries {
		existing, ok, err := cache.LookupInfoRes(ctx, original)
		if err != nil {
			logger.WithError(err).Warn("infores cache lookup failed")
			return
		}
		if ok {
			if existing != minted {
				logger.Warnf("infores cache disagrees for %q: cached %q, this run minted %q", original, existing, minted)
			}
			continue
		}
		if err := cache.StoreInfoRes(ctx, original, minted); err != nil {
			logger.WithError(err).Warn("infores cache store failed")
			return
		}
	}
}

func writeJSONFile(path string, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
