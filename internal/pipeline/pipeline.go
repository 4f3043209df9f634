// Package pipeline is the wiring layer behind cmd/kgxctl: it turns a
// format code plus a shared source.Config/sink.Config into the
// concrete internal/source/* or internal/sink/* implementation, so the
// CLI subcommands stay thin flag-to-call adapters with
// no format-dispatch logic of their own.
package pipeline

import (
	"context"
	"fmt"

	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/sink"
	jsonsink "github.com/biomedkg/kgxchange/internal/sink/jsonsrc"
	linejsonsink "github.com/biomedkg/kgxchange/internal/sink/linejson"
	ntriplessink "github.com/biomedkg/kgxchange/internal/sink/ntriples"
	obographsink "github.com/biomedkg/kgxchange/internal/sink/obograph"
	pgdbsink "github.com/biomedkg/kgxchange/internal/sink/pgdb"
	sssomsink "github.com/biomedkg/kgxchange/internal/sink/sssom"
	tabularsink "github.com/biomedkg/kgxchange/internal/sink/tabular"
	trapisink "github.com/biomedkg/kgxchange/internal/sink/trapi"
	"github.com/biomedkg/kgxchange/internal/source"
	jsonsource "github.com/biomedkg/kgxchange/internal/source/jsonsrc"
	linejsonsource "github.com/biomedkg/kgxchange/internal/source/linejson"
	ntriplessource "github.com/biomedkg/kgxchange/internal/source/ntriples"
	obographsource "github.com/biomedkg/kgxchange/internal/source/obograph"
	owlsource "github.com/biomedkg/kgxchange/internal/source/owl"
	pgdbsource "github.com/biomedkg/kgxchange/internal/source/pgdb"
	sssomsource "github.com/biomedkg/kgxchange/internal/source/sssom"
	tabularsource "github.com/biomedkg/kgxchange/internal/source/tabular"
	trapisource "github.com/biomedkg/kgxchange/internal/source/trapi"
)

// Format is a recognized format code.
type Format string

const (
	FormatTabular  Format = "tabular"
	FormatJSON     Format = "json"
	FormatLineJSON Format = "jsonl"
	FormatNTriples Format = "ntriples"
	FormatOWL      Format = "owl"
	FormatOBOGraph Format = "obojson"
	FormatSSSOM    Format = "sssom"
	FormatTRAPI    Format = "trapi"
	FormatPGDB     Format = "pgdb"
	FormatNull     Format = "null"
)

// Locations names the input/output paths a format needs. Tabular/OBOGraph
// sources read a node file and/or an edge file; every other file format
// reads or writes a single combined path (base name for line-JSON, which
// derives `<base>_nodes.jsonl`/`<base>_edges.jsonl` itself).
type Locations struct {
	NodeFile string
	EdgeFile string
	Path     string
}

// OpenSource builds the Source named by format against loc, using
// prefixes for formats that contract IRIs on read (RDF family) and
// creds for the pgdb format.
func OpenSource(ctx context.Context, format Format, cfg source.Config, loc Locations, prefixes *prefixmgr.Manager, creds pgdbsource.Credentials) (source.Source, error) {
	switch format {
	case FormatTabular:
		var opts []tabularsource.Option
		if loc.NodeFile != "" {
			opts = append(opts, tabularsource.WithNodeFile(loc.NodeFile))
		}
		if loc.EdgeFile != "" {
			opts = append(opts, tabularsource.WithEdgeFile(loc.EdgeFile))
		}
		return tabularsource.New(cfg, opts...)
	case FormatJSON:
		return jsonsource.New(cfg, loc.Path)
	case FormatLineJSON:
		return linejsonsource.New(cfg, loc.Path)
	case FormatNTriples:
		return ntriplessource.New(cfg, prefixes, loc.Path)
	case FormatOWL:
		return owlsource.New(cfg, prefixes, loc.Path)
	case FormatOBOGraph:
		return obographsource.New(cfg, loc.Path)
	case FormatSSSOM:
		return sssomsource.New(cfg, loc.Path)
	case FormatTRAPI:
		return trapisource.New(cfg, loc.Path)
	case FormatPGDB:
		return pgdbsource.New(ctx, cfg, creds)
	default:
		return nil, fmt.Errorf("pipeline: unrecognized source format %q", format)
	}
}

// OpenSink builds the Sink named by format against loc.
func OpenSink(ctx context.Context, format Format, loc Locations, prefixes *prefixmgr.Manager, archive bool, creds pgdbsink.Credentials, batchSize int) (sink.Sink, error) {
	switch format {
	case FormatTabular:
		return tabularsink.New(loc.NodeFile, loc.EdgeFile, archive), nil
	case FormatJSON:
		return jsonsink.New(loc.Path)
	case FormatLineJSON:
		return linejsonsink.New(loc.Path)
	case FormatNTriples, FormatOWL:
		return ntriplessink.New(prefixes, loc.Path)
	case FormatOBOGraph:
		return obographsink.New(loc.Path), nil
	case FormatSSSOM:
		return sssomsink.New(loc.Path)
	case FormatTRAPI:
		return trapisink.New(loc.Path), nil
	case FormatPGDB:
		return pgdbsink.New(ctx, creds, batchSize)
	case FormatNull:
		return sink.NewNull(), nil
	default:
		return nil, fmt.Errorf("pipeline: unrecognized sink format %q", format)
	}
}
