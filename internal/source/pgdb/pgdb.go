// Package pgdb implements the property-graph database Source: paged
// MATCH...SKIP...LIMIT reads over nodes and then relationships,
// converted back into the record model for the Transformer.
package pgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/source"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/time/rate"
)

// Credentials mirrors the Sink side's connection parameters.
type Credentials struct {
	URI      string
	Username string
	Password string
	Database string
}

const pageSize = 1000

// Source pages through a database's nodes, then its relationships,
// converting each row back into the record model. Declarative
// category/predicate filters are pushed into the Cypher queries at
// query time; cfg's function filters still run client-side as a
// backstop for predicates Cypher can't express.
type Source struct {
	cfg      source.Config
	driver   neo4j.DriverWithContext
	database string
	limiter  *rate.Limiter

	nodeCategories []string
	edgePredicates []string

	nodeSkip  int
	nodeDone  bool
	nodeQueue []*model.Node

	edgeSkip  int
	edgeDone  bool
	edgeQueue []*model.Edge
}

// Option configures New.
type Option func(*Source)

// WithNodeCategories restricts the node read to the given biolink
// categories, matched against node labels inside the query.
func WithNodeCategories(categories ...string) Option {
	return func(s *Source) { s.nodeCategories = categories }
}

// WithEdgePredicates restricts the relationship read to the given
// biolink predicates, matched against relationship types inside the
// query.
func WithEdgePredicates(predicates ...string) Option {
	return func(s *Source) { s.edgePredicates = predicates }
}

func New(ctx context.Context, cfg source.Config, creds Credentials, opts ...Option) (*Source, error) {
	driver, err := neo4j.NewDriverWithContext(creds.URI, neo4j.BasicAuth(creds.Username, creds.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("pgdb source: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("pgdb source: connect: %w", err)
	}
	s := &Source{
		cfg: cfg, driver: driver, database: creds.Database,
		limiter:        rate.NewLimiter(rate.Limit(20), 1),
		nodeCategories: cfg.NodeCategories,
		edgePredicates: cfg.EdgePredicates,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Source) Next(ctx context.Context) (model.Record, bool, error) {
	for {
		if len(s.nodeQueue) > 0 {
			n := s.nodeQueue[0]
			s.nodeQueue = s.nodeQueue[1:]
			if !s.cfg.KeepNode(n) {
				continue
			}
			rec := model.NodeRec(n)
			s.cfg.ApplyDefaults(rec)
			return rec, true, nil
		}
		if !s.nodeDone {
			if err := s.fetchNodes(ctx); err != nil {
				return model.Record{}, false, err
			}
			continue
		}
		if len(s.edgeQueue) > 0 {
			e := s.edgeQueue[0]
			s.edgeQueue = s.edgeQueue[1:]
			if !s.cfg.KeepEdge(e) {
				continue
			}
			rec := model.EdgeRec(e)
			s.cfg.ApplyDefaults(rec)
			return rec, true, nil
		}
		if !s.edgeDone {
			if err := s.fetchEdges(ctx); err != nil {
				return model.Record{}, false, err
			}
			continue
		}
		return model.Record{}, false, nil
	}
}

func (s *Source) fetchNodes(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	query, params := nodeQuery(s.nodeCategories)
	params["skip"], params["limit"] = s.nodeSkip, pageSize
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, params,
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return fmt.Errorf("pgdb source: fetch nodes: %w", err)
	}
	for _, rec := range result.Records {
		raw, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "n")
		if err != nil {
			continue
		}
		s.nodeQueue = append(s.nodeQueue, fromNeo4jNode(raw))
	}
	s.nodeSkip += len(result.Records)
	if len(result.Records) < pageSize {
		s.nodeDone = true
	}
	return nil
}

func (s *Source) fetchEdges(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	query, params := edgeQuery(s.edgePredicates)
	params["skip"], params["limit"] = s.edgeSkip, pageSize
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, params,
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return fmt.Errorf("pgdb source: fetch edges: %w", err)
	}
	for _, rec := range result.Records {
		subject, _, _ := neo4j.GetRecordValue[string](rec, "subject")
		predicate, _, _ := neo4j.GetRecordValue[string](rec, "predicate")
		object, _, _ := neo4j.GetRecordValue[string](rec, "object")
		rel, _, err := neo4j.GetRecordValue[neo4j.Relationship](rec, "rel")
		if err != nil {
			continue
		}
		s.edgeQueue = append(s.edgeQueue, fromNeo4jRelationship(subject, predicate, object, rel))
	}
	s.edgeSkip += len(result.Records)
	if len(result.Records) < pageSize {
		s.edgeDone = true
	}
	return nil
}

// nodeQuery builds the paged node read, pushing the category filter
// into a WHERE clause over node labels.
func nodeQuery(categories []string) (string, map[string]any) {
	params := map[string]any{}
	where := ""
	if len(categories) > 0 {
		where = " WHERE any(l IN labels(n) WHERE l IN $labels)"
		params["labels"] = sanitizeAll(categories)
	}
	return "MATCH (n)" + where + " RETURN n ORDER BY n.id SKIP $skip LIMIT $limit", params
}

// edgeQuery builds the paged relationship read, pushing the predicate
// filter into a WHERE clause over relationship types.
func edgeQuery(predicates []string) (string, map[string]any) {
	params := map[string]any{}
	where := ""
	if len(predicates) > 0 {
		where = " WHERE type(r) IN $predicates"
		params["predicates"] = sanitizeAll(predicates)
	}
	return "MATCH (a)-[r]->(b)" + where +
		" RETURN a.id AS subject, type(r) AS predicate, b.id AS object, r AS rel ORDER BY a.id SKIP $skip LIMIT $limit", params
}

// sanitizeAll flattens biolink CURIEs the way the write side stores
// them as labels/relationship types.
func sanitizeAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.NewReplacer(":", "_", "-", "_", " ", "_").Replace(n)
	}
	return out
}

func fromNeo4jNode(raw neo4j.Node) *model.Node {
	id, _ := raw.Props["id"].(string)
	if id == "" {
		id = fmt.Sprintf("%d", raw.Id)
	}
	n := model.NewNode(id)
	for _, label := range raw.Labels {
		n.Category.Add(unsanitizeLabel(label))
	}
	for k, v := range raw.Props {
		switch k {
		case "id":
		case "name":
			n.Name, _ = v.(string)
		case "description":
			n.Description, _ = v.(string)
		case "category":
			addAllStrings(n.Category, v)
		case "xref":
			addAllStrings(n.Xref, v)
		case "provided_by":
			addAllStrings(n.ProvidedBy, v)
		case "synonym":
			n.Synonym = toStrings(v)
		default:
			n.Properties[k] = toValue(v)
		}
	}
	n.EnsureCategory()
	return n
}

func fromNeo4jRelationship(subject, predicate, object string, rel neo4j.Relationship) *model.Edge {
	id, _ := rel.Props["id"].(string)
	e := model.NewEdge(id, subject, unsanitizeLabel(predicate), object)
	for k, v := range rel.Props {
		switch k {
		case "id":
		case "knowledge_level":
			e.KnowledgeLevel, _ = v.(string)
		case "agent_type":
			e.AgentType, _ = v.(string)
		case "primary_knowledge_source":
			addAllStrings(e.PrimaryKnowledgeSource, v)
		case "aggregator_knowledge_source":
			addAllStrings(e.AggregatorKnowledgeSource, v)
		case "supporting_data_source":
			addAllStrings(e.SupportingDataSource, v)
		case "publications":
			e.Publications = toStrings(v)
		case model.OriginalSubjectKey:
			e.OriginalSubject, _ = v.(string)
		case model.OriginalObjectKey:
			e.OriginalObject, _ = v.(string)
		default:
			e.Properties[k] = toValue(v)
		}
	}
	return e
}

func addAllStrings(set *model.StringSet, v interface{}) {
	for _, s := range toStrings(v) {
		set.Add(s)
	}
}

func toStrings(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	case string:
		return []string{t}
	}
	return nil
}

func toValue(v interface{}) model.Value {
	switch t := v.(type) {
	case string:
		return model.StringValue(t)
	case []interface{}, []string:
		return model.StringsValue(toStrings(v))
	case float64:
		return model.NumberValue(t)
	case int64:
		return model.NumberValue(float64(t))
	case bool:
		return model.BoolValue(t)
	default:
		return model.StringValue(fmt.Sprintf("%v", v))
	}
}

// unsanitizeLabel restores the CURIE form of labels/relationship types
// the Sink had to flatten: "biolink_Gene" becomes "biolink:Gene", and a
// label with no recognizable namespace is re-prefixed with "biolink:".
func unsanitizeLabel(label string) string {
	if strings.ContainsRune(label, ':') {
		return label
	}
	if rest, ok := strings.CutPrefix(label, "biolink_"); ok {
		return "biolink:" + rest
	}
	return "biolink:" + label
}

func (s *Source) Close() error { return s.driver.Close(context.Background()) }
