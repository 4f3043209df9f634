// Package ntriples implements the N-Triples/RDF Source: triples
// parsed line by line, subject-IRIs contracted via the
// Prefix Manager, reification triples (rdf:subject/predicate/object)
// buffered per subject and flushed into an Edge, node_property_predicate
// triples folded into node properties, everything else becoming a plain
// edge. Input sorted by subject keeps the reification buffer bounded to
// one subject's worth of triples at a time.
package ntriples

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/source"
)

// Standard RDF reification vocabulary.
const (
	RDFType      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFStatement = "http://www.w3.org/1999/02/22-rdf-syntax-ns#Statement"
	RDFSubject   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#subject"
	RDFPredicate = "http://www.w3.org/1999/02/22-rdf-syntax-ns#predicate"
	RDFObject    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#object"
)

// Triple is one parsed N-Triples line.
type Triple struct {
	Subject       string
	Predicate     string
	Object        string
	ObjectLiteral bool
}

// MalformedLine is reported for a line that fails to parse.
type MalformedLine struct {
	Line   int
	Text   string
	Reason string
}

// Source streams Node/Edge records out of a sorted-by-subject N-Triples
// file.
type Source struct {
	cfg      source.Config
	prefixes *prefixmgr.Manager

	// NodePropertyPredicates are predicates folded into node properties
	// rather than treated as edges.
	NodePropertyPredicates map[string]string // predicate IRI -> property name
	// PredicateMappings rewrites a plain-edge predicate IRI to its
	// vocabulary predicate name before emission.
	PredicateMappings  map[string]string
	DefaultAssociation string

	OnMalformedLine func(MalformedLine)

	f       io.Closer
	scanner *bufio.Scanner
	lineNo  int

	curSubject string
	curTriples []Triple
	pending    []model.Record
	done       bool
}

func New(cfg source.Config, prefixes *prefixmgr.Manager, path string) (*Source, error) {
	f, err := source.OpenFile(path, cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("ntriples: open: %w", err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Source{
		cfg: cfg, prefixes: prefixes, f: f, scanner: sc,
		NodePropertyPredicates: make(map[string]string),
		PredicateMappings:      make(map[string]string),
		DefaultAssociation:     "biolink:related_to",
	}, nil
}

func (s *Source) Next(ctx context.Context) (model.Record, bool, error) {
	for {
		if len(s.pending) > 0 {
			rec := s.pending[0]
			s.pending = s.pending[1:]
			return rec, true, nil
		}
		if s.done {
			return model.Record{}, false, nil
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return model.Record{}, false, err
			}
			s.pending = s.flush()
			s.done = true
			continue
		}
		s.lineNo++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		t, err := parseLine(line)
		if err != nil {
			if s.OnMalformedLine != nil {
				s.OnMalformedLine(MalformedLine{Line: s.lineNo, Text: line, Reason: err.Error()})
			}
			continue
		}
		if s.curSubject != "" && t.Subject != s.curSubject {
			s.pending = s.flush()
		}
		s.curSubject = t.Subject
		s.curTriples = append(s.curTriples, t)
	}
}

// flush converts the buffered triples for one subject into zero or more
// records, then resets the buffer.
func (s *Source) flush() []model.Record {
	triples := s.curTriples
	s.curTriples = nil
	prevSubject := s.curSubject
	s.curSubject = ""
	if len(triples) == 0 {
		return nil
	}

	if edge := s.tryReifiedEdge(prevSubject, triples); edge != nil {
		rec := model.EdgeRec(edge)
		if s.cfg.KeepEdge(edge) {
			s.cfg.ApplyDefaults(rec)
			return []model.Record{rec}
		}
		return nil
	}

	var out []model.Record
	var nodeProps model.Properties
	for _, t := range triples {
		if propName, ok := s.NodePropertyPredicates[t.Predicate]; ok {
			if nodeProps == nil {
				nodeProps = model.Properties{}
			}
			if existing, ok := nodeProps[propName]; ok {
				ss, _ := existing.Strings()
				ss = append(ss, t.Object)
				nodeProps[propName] = model.StringsValue(ss)
			} else {
				nodeProps[propName] = model.StringValue(t.Object)
			}
			continue
		}
		pred := s.mapPredicate(t.Predicate)
		e := model.NewEdge("", s.contract(t.Subject), pred, s.contract(t.Object))
		if s.cfg.KeepEdge(e) {
			rec := model.EdgeRec(e)
			s.cfg.ApplyDefaults(rec)
			out = append(out, rec)
		}
	}
	if nodeProps != nil {
		n := model.NewNode(s.contract(prevSubject))
		n.Properties = nodeProps
		if s.cfg.KeepNode(n) {
			rec := model.NodeRec(n)
			s.cfg.ApplyDefaults(rec)
			out = append([]model.Record{rec}, out...)
		}
	}
	return out
}

// tryReifiedEdge detects the standard RDF reification shape (rdf:type
// rdf:Statement, rdf:subject, rdf:predicate, rdf:object on the same
// subject) and builds an Edge using the reified subject IRI as the
// edge id.
func (s *Source) tryReifiedEdge(subjectIRI string, triples []Triple) *model.Edge {
	var subj, pred, obj string
	isStatement := false
	var extra []Triple
	for _, t := range triples {
		switch t.Predicate {
		case RDFType:
			if t.Object == RDFStatement {
				isStatement = true
			}
		case RDFSubject:
			subj = t.Object
		case RDFPredicate:
			pred = t.Object
		case RDFObject:
			obj = t.Object
		default:
			extra = append(extra, t)
		}
	}
	if !isStatement || subj == "" || pred == "" || obj == "" {
		return nil
	}
	e := model.NewEdge(s.contract(subjectIRI), s.contract(subj), s.mapPredicate(pred), s.contract(obj))
	for _, t := range extra {
		propName := t.Predicate
		if i := strings.LastIndexAny(propName, "#/"); i >= 0 {
			propName = propName[i+1:]
		}
		switch propName {
		case model.OriginalSubjectKey:
			e.OriginalSubject = s.contract(t.Object)
			continue
		case model.OriginalObjectKey:
			e.OriginalObject = s.contract(t.Object)
			continue
		}
		if existing, ok := e.Properties[propName]; ok {
			ss, _ := existing.Strings()
			ss = append(ss, t.Object)
			e.Properties[propName] = model.StringsValue(ss)
		} else {
			e.Properties[propName] = model.StringValue(t.Object)
		}
	}
	return e
}

func (s *Source) mapPredicate(p string) string {
	if mapped, ok := s.PredicateMappings[p]; ok {
		return mapped
	}
	return s.contract(p)
}

func (s *Source) contract(iri string) string {
	if s.prefixes == nil {
		return iri
	}
	c, err := s.prefixes.Contract(iri, false)
	if err != nil {
		return iri
	}
	return c
}

// parseLine parses one N-Triples statement line of the form
// `<s> <p> <o-or-literal> .` into a Triple.
func parseLine(line string) (Triple, error) {
	line = strings.TrimSuffix(strings.TrimSpace(line), ".")
	line = strings.TrimSpace(line)
	s, rest, err := parseTerm(line)
	if err != nil {
		return Triple{}, err
	}
	p, rest, err := parseTerm(rest)
	if err != nil {
		return Triple{}, err
	}
	o, isLiteral, err := parseObject(rest)
	if err != nil {
		return Triple{}, err
	}
	return Triple{Subject: s, Predicate: p, Object: o, ObjectLiteral: isLiteral}, nil
}

func parseTerm(s string) (term, rest string, err error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<") {
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated IRI")
		}
		return s[1:end], s[end+1:], nil
	}
	if strings.HasPrefix(s, "_:") {
		end := strings.IndexAny(s[2:], " \t")
		if end < 0 {
			return "", "", fmt.Errorf("unterminated blank node")
		}
		return s[:2+end], s[2+end:], nil
	}
	return "", "", fmt.Errorf("expected IRI or blank node")
}

func parseObject(s string) (term string, isLiteral bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false, fmt.Errorf("missing object")
	}
	if strings.HasPrefix(s, "<") {
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", false, fmt.Errorf("unterminated IRI object")
		}
		return s[1:end], false, nil
	}
	if strings.HasPrefix(s, "_:") {
		return strings.TrimSpace(s), false, nil
	}
	if strings.HasPrefix(s, `"`) {
		// literal: find the closing quote, ignoring escaped quotes.
		i := 1
		for i < len(s) {
			if s[i] == '\\' {
				i += 2
				continue
			}
			if s[i] == '"' {
				break
			}
			i++
		}
		if i >= len(s) {
			return "", false, fmt.Errorf("unterminated literal")
		}
		return unescapeNT(s[1:i]), true, nil
	}
	return "", false, fmt.Errorf("unrecognized object term")
}

func unescapeNT(s string) string {
	r := strings.NewReplacer(`\"`, `"`, `\\`, `\`, `\n`, "\n", `\t`, "\t", `\r`, "\r")
	return r.Replace(s)
}

func (s *Source) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}
