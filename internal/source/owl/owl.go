// Package owl implements the OWL Source: parses an
// OWL-as-RDF graph (same wire shape as ntriples) and additionally emits
// edge annotations for equivalentClass, someValuesFrom, allValuesFrom,
// and hasValue restrictions using the fixed OWL vocabulary.
package owl

import (
	"context"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/source"
	"github.com/biomedkg/kgxchange/internal/source/ntriples"
)

// Fixed OWL-star vocabulary.
const (
	OWLEquivalentClass = "http://www.w3.org/2002/07/owl#equivalentClass"
	OWLSomeValuesFrom  = "http://www.w3.org/2002/07/owl#someValuesFrom"
	OWLAllValuesFrom   = "http://www.w3.org/2002/07/owl#allValuesFrom"
	OWLHasValue        = "http://www.w3.org/2002/07/owl#hasValue"
	OWLSubClassOf      = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
)

var owlPredicateToBiolink = map[string]string{
	OWLEquivalentClass: "biolink:same_as",
	OWLSomeValuesFrom:  "biolink:some_values_from",
	OWLAllValuesFrom:   "biolink:all_values_from",
	OWLHasValue:        "biolink:has_value",
	OWLSubClassOf:      "biolink:subclass_of",
}

// Source wraps an ntriples.Source configured with OWL-specific
// predicate mappings and node-property predicates (labels, comments).
type Source struct {
	inner *ntriples.Source
}

func New(cfg source.Config, prefixes *prefixmgr.Manager, path string) (*Source, error) {
	inner, err := ntriples.New(cfg, prefixes, path)
	if err != nil {
		return nil, err
	}
	for iri, pred := range owlPredicateToBiolink {
		inner.PredicateMappings[iri] = pred
	}
	inner.NodePropertyPredicates["http://www.w3.org/2000/01/rdf-schema#label"] = "name"
	inner.NodePropertyPredicates["http://www.w3.org/2000/01/rdf-schema#comment"] = "description"
	inner.NodePropertyPredicates["http://www.geneontology.org/formats/oboInOwl#hasExactSynonym"] = "synonym"
	inner.DefaultAssociation = "biolink:OntologyClass"
	return &Source{inner: inner}, nil
}

func (s *Source) Next(ctx context.Context) (model.Record, bool, error) { return s.inner.Next(ctx) }
func (s *Source) Close() error                                         { return s.inner.Close() }
