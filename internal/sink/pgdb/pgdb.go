// Package pgdb implements the property-graph database Sink:
// idempotent MERGE-based writes with a per-category unique key,
// UNWIND-batched for CreateNodes/CreateEdges, credentials loadable from
// internal/secrets instead of plaintext config.
package pgdb

import (
	"context"
	"fmt"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/time/rate"
)

// Credentials for the remote labeled-property-graph database.
type Credentials struct {
	URI      string
	Username string
	Password string
	Database string
}

// UniqueKeyFor maps a node category to the property its MERGE and
// uniqueness constraint key on; categories with no entry key on "id".
var UniqueKeyFor = map[string]string{}

func uniqueKeyFor(category string) string {
	if k, ok := UniqueKeyFor[category]; ok {
		return k
	}
	return "id"
}

// Sink batches node/edge writes and flushes them in UNWIND chunks.
type Sink struct {
	driver    neo4j.DriverWithContext
	database  string
	batchSize int
	limiter   *rate.Limiter

	nodeBatch []map[string]any
	nodeKeys  map[string]string // label -> MERGE/constraint key, for Finalize
	edgeBatch []map[string]any
}

// New connects to the database and verifies connectivity.
func New(ctx context.Context, creds Credentials, batchSize int) (*Sink, error) {
	driver, err := neo4j.NewDriverWithContext(creds.URI, neo4j.BasicAuth(creds.Username, creds.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("pgdb sink: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("pgdb sink: connect: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Sink{
		driver: driver, database: creds.Database, batchSize: batchSize,
		nodeKeys: make(map[string]string),
		limiter:  rate.NewLimiter(rate.Limit(20), 1),
	}, nil
}

func (s *Sink) WriteNode(ctx context.Context, n *model.Node) error {
	label, key := "biolink_NamedThing", "id"
	if n.Category.Len() > 0 {
		category := n.Category.Slice()[0]
		label = sanitizeLabel(category)
		key = uniqueKeyFor(category)
	}
	s.nodeKeys[label] = key
	props := map[string]any{
		"id": n.ID, "name": n.Name, "description": n.Description,
		"category": n.Category.Slice(), "xref": n.Xref.Slice(),
		"synonym": n.Synonym, "provided_by": n.ProvidedBy.Slice(),
	}
	for k, v := range n.Properties {
		props[k] = propertyAsAny(v)
	}
	s.nodeBatch = append(s.nodeBatch, map[string]any{"label": label, "props": props})
	if len(s.nodeBatch) >= s.batchSize {
		return s.flushNodes(ctx)
	}
	return nil
}

func (s *Sink) WriteEdge(ctx context.Context, e *model.Edge) error {
	props := map[string]any{
		"id": e.ID, "knowledge_level": e.KnowledgeLevel, "agent_type": e.AgentType,
		"primary_knowledge_source":    e.PrimaryKnowledgeSource.Slice(),
		"aggregator_knowledge_source": e.AggregatorKnowledgeSource.Slice(),
		"supporting_data_source":      e.SupportingDataSource.Slice(),
		"publications":                e.Publications,
	}
	for k, v := range e.Properties {
		props[k] = propertyAsAny(v)
	}
	if e.OriginalSubject != "" {
		props[model.OriginalSubjectKey] = e.OriginalSubject
	}
	if e.OriginalObject != "" {
		props[model.OriginalObjectKey] = e.OriginalObject
	}
	s.edgeBatch = append(s.edgeBatch, map[string]any{
		"subject": e.Subject, "object": e.Object, "predicate": sanitizeLabel(e.Predicate), "props": props,
	})
	if len(s.edgeBatch) >= s.batchSize {
		return s.flushEdges(ctx)
	}
	return nil
}

func (s *Sink) flushNodes(ctx context.Context) error {
	if len(s.nodeBatch) == 0 {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	byLabel := make(map[string][]map[string]any)
	for _, row := range s.nodeBatch {
		label := row["label"].(string)
		byLabel[label] = append(byLabel[label], row["props"].(map[string]any))
	}
	for label, rows := range byLabel {
		query := mergeNodeQuery(label, s.nodeKeys[label])
		if _, err := neo4j.ExecuteQuery(ctx, s.driver, query,
			map[string]any{"rows": rows}, neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(s.database)); err != nil {
			return fmt.Errorf("pgdb sink: write nodes: %w", err)
		}
	}
	s.nodeBatch = s.nodeBatch[:0]
	return nil
}

func (s *Sink) flushEdges(ctx context.Context) error {
	if len(s.edgeBatch) == 0 {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	byPredicate := make(map[string][]map[string]any)
	for _, row := range s.edgeBatch {
		pred := row["predicate"].(string)
		byPredicate[pred] = append(byPredicate[pred], row)
	}
	for pred, rows := range byPredicate {
		query := fmt.Sprintf(`UNWIND $rows AS r
MATCH (s {id: r.subject}), (o {id: r.object})
MERGE (s)-[e:`+"`%s`"+` {id: r.props.id}]->(o)
SET e += r.props`, pred)
		if _, err := neo4j.ExecuteQuery(ctx, s.driver, query,
			map[string]any{"rows": rows}, neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(s.database)); err != nil {
			return fmt.Errorf("pgdb sink: write edges: %w", err)
		}
	}
	s.edgeBatch = s.edgeBatch[:0]
	return nil
}

// Finalize flushes remaining batches and creates a unique-on-id
// constraint per node label.
func (s *Sink) Finalize(ctx context.Context) error {
	if err := s.flushNodes(ctx); err != nil {
		return err
	}
	if err := s.flushEdges(ctx); err != nil {
		return err
	}
	for label, key := range s.nodeKeys {
		query := uniqueConstraintQuery(label, key)
		if _, err := neo4j.ExecuteQuery(ctx, s.driver, query, nil, neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(s.database)); err != nil {
			return fmt.Errorf("pgdb sink: create constraint: %w", err)
		}
	}
	return s.driver.Close(ctx)
}

// mergeNodeQuery builds the UNWIND-batched node upsert keyed by the
// label's unique slot.
func mergeNodeQuery(label, key string) string {
	if key == "" {
		key = "id"
	}
	return fmt.Sprintf("UNWIND $rows AS r MERGE (n:`%s` {%s: r.%s}) SET n += r", label, key, key)
}

// uniqueConstraintQuery builds the per-label uniqueness constraint
// created on Finalize, on the same slot the MERGE keys on.
func uniqueConstraintQuery(label, key string) string {
	if key == "" {
		key = "id"
	}
	return fmt.Sprintf("CREATE CONSTRAINT IF NOT EXISTS FOR (n:`%s`) REQUIRE n.%s IS UNIQUE", label, key)
}

func sanitizeLabel(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ':' || c == '-' || c == ' ' {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}
	return string(out)
}

func propertyAsAny(v model.Value) interface{} {
	switch v.Kind() {
	case model.KindString:
		s, _ := v.String()
		return s
	case model.KindStrings:
		ss, _ := v.Strings()
		return ss
	case model.KindNumber:
		n, _ := v.Number()
		return n
	case model.KindBool:
		b, _ := v.Bool()
		return b
	}
	return nil
}
