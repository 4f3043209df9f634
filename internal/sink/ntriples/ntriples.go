// Package ntriples implements the N-Triples/RDF Sink:
// plain `s p o .` triples for edges with no properties beyond the core
// subject/predicate/object, reified (rdf:Statement) edges for anything
// carrying additional annotations.
package ntriples

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/source/ntriples"
)

const reifiedNamespace = "https://w3id.org/biolink/reified/"

type Sink struct {
	prefixes *prefixmgr.Manager
	f        *os.File
	w        *bufio.Writer
}

func New(prefixes *prefixmgr.Manager, path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("ntriples sink: create: %w", err)
	}
	return &Sink{prefixes: prefixes, f: f, w: bufio.NewWriter(f)}, nil
}

// WriteNode emits one triple per populated core field plus per
// property, using a fixed node-property predicate namespace.
func (s *Sink) WriteNode(_ context.Context, n *model.Node) error {
	subj := s.expand(n.ID)
	if n.Name != "" {
		s.tripleLit(subj, "http://www.w3.org/2000/01/rdf-schema#label", n.Name)
	}
	if n.Description != "" {
		s.tripleLit(subj, "http://purl.org/dc/terms/description", n.Description)
	}
	for _, c := range n.Category.Slice() {
		s.tripleIRI(subj, "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", s.expand(c))
	}
	for _, x := range n.Xref.Slice() {
		s.tripleIRI(subj, "http://www.geneontology.org/formats/oboInOwl#hasDbXref", s.expand(x))
	}
	for k, v := range n.Properties {
		for _, val := range v.AsStrings() {
			s.tripleLit(subj, reifiedNamespace+"property/"+k, val)
		}
	}
	return s.w.Flush()
}

// WriteEdge emits a plain triple if the edge carries no properties
// beyond the core fields, or a reified rdf:Statement otherwise.
func (s *Sink) WriteEdge(_ context.Context, e *model.Edge) error {
	subj, pred, obj := s.expand(e.Subject), s.expand(e.Predicate), s.expand(e.Object)
	if len(e.Properties) == 0 && e.KnowledgeLevel == "" && e.AgentType == "" &&
		e.PrimaryKnowledgeSource.Len() == 0 && e.AggregatorKnowledgeSource.Len() == 0 &&
		e.SupportingDataSource.Len() == 0 && e.OriginalSubject == "" && e.OriginalObject == "" {
		s.tripleIRI(subj, pred, obj)
		return s.w.Flush()
	}

	stmt := reifiedNamespace + "edge/" + e.ID
	s.tripleIRI(stmt, "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", "http://www.w3.org/1999/02/22-rdf-syntax-ns#Statement")
	s.tripleIRI(stmt, ntriples.RDFSubject, subj)
	s.tripleIRI(stmt, ntriples.RDFPredicate, pred)
	s.tripleIRI(stmt, ntriples.RDFObject, obj)
	if e.KnowledgeLevel != "" {
		s.tripleLit(stmt, reifiedNamespace+"property/knowledge_level", e.KnowledgeLevel)
	}
	if e.AgentType != "" {
		s.tripleLit(stmt, reifiedNamespace+"property/agent_type", e.AgentType)
	}
	for _, v := range e.PrimaryKnowledgeSource.Slice() {
		s.tripleIRI(stmt, reifiedNamespace+"property/primary_knowledge_source", s.expand(v))
	}
	for _, v := range e.AggregatorKnowledgeSource.Slice() {
		s.tripleIRI(stmt, reifiedNamespace+"property/aggregator_knowledge_source", s.expand(v))
	}
	for _, v := range e.SupportingDataSource.Slice() {
		s.tripleIRI(stmt, reifiedNamespace+"property/supporting_data_source", s.expand(v))
	}
	if e.OriginalSubject != "" {
		s.tripleIRI(stmt, reifiedNamespace+"property/"+model.OriginalSubjectKey, s.expand(e.OriginalSubject))
	}
	if e.OriginalObject != "" {
		s.tripleIRI(stmt, reifiedNamespace+"property/"+model.OriginalObjectKey, s.expand(e.OriginalObject))
	}
	for k, v := range e.Properties {
		for _, val := range v.AsStrings() {
			s.tripleLit(stmt, reifiedNamespace+"property/"+k, val)
		}
	}
	return s.w.Flush()
}

func (s *Sink) tripleIRI(subj, pred, objIRI string) {
	fmt.Fprintf(s.w, "<%s> <%s> <%s> .\n", subj, pred, objIRI)
}

func (s *Sink) tripleLit(subj, pred, objLiteral string) {
	fmt.Fprintf(s.w, "<%s> <%s> %s .\n", subj, pred, literal(objLiteral))
}

func literal(s string) string {
	esc := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
	return `"` + esc + `"`
}

func (s *Sink) expand(curie string) string {
	if s.prefixes == nil {
		return curie
	}
	iri, err := s.prefixes.Expand(curie)
	if err != nil {
		return curie
	}
	return iri
}

func (s *Sink) Finalize(_ context.Context) error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.f.Close()
}
