package model

import "github.com/google/uuid"

// Controlled enums for edge provenance slots. Absence is a WARNING,
// never an ERROR, unless strict mode is requested.
const (
	KnowledgeLevelNotProvided = "not_provided"
	AgentTypeNotProvided      = "not_provided"
)

// OriginalSubjectKey and OriginalObjectKey are the wire names for the
// pre-rewrite endpoints recorded by the clique resolver. Every Sink
// serializes OriginalSubject/OriginalObject under these keys and every
// Source maps them back into the Edge fields.
const (
	OriginalSubjectKey = "_original_subject"
	OriginalObjectKey  = "_original_object"
)

// Edge is the record model's edge type.
type Edge struct {
	ID                        string
	Subject                   string
	Object                    string
	Predicate                 string
	Category                  *StringSet
	KnowledgeLevel            string
	AgentType                 string
	PrimaryKnowledgeSource    *StringSet
	AggregatorKnowledgeSource *StringSet
	SupportingDataSource      *StringSet
	Publications              []string
	Properties                Properties

	// OriginalSubject and OriginalObject record the pre-rewrite
	// endpoints after a clique merge; empty otherwise.
	OriginalSubject string
	OriginalObject  string
}

// NewEdge builds an Edge with non-nil set fields. If id is empty a
// deterministic UUID is minted (I4) from the subject/predicate/object
// triple so repeated transforms of the same input produce the same id.
func NewEdge(id, subject, predicate, object string) *Edge {
	if id == "" {
		id = MintEdgeID(subject, predicate, object)
	}
	return &Edge{
		ID:                        id,
		Subject:                   subject,
		Object:                    object,
		Predicate:                 predicate,
		Category:                  NewStringSet(),
		PrimaryKnowledgeSource:    NewStringSet(),
		AggregatorKnowledgeSource: NewStringSet(),
		SupportingDataSource:      NewStringSet(),
		Properties:                Properties{},
	}
}

// edgeIDNamespace anchors the deterministic UUIDv5 minted for edges
// whose input format has no native edge id (I4).
var edgeIDNamespace = uuid.MustParse("d9f4b1d0-6e3a-4b1a-9b0a-6c1a6b2e6f10")

// MintEdgeID deterministically derives an edge id from its triple so
// that re-running a transform over unchanged input is idempotent.
func MintEdgeID(subject, predicate, object string) string {
	return uuid.NewSHA1(edgeIDNamespace, []byte(subject+"|"+predicate+"|"+object)).String()
}

// MergeKey is the composite identity used by both the Graph Store's
// edge-level merge and the graph merge operator's edge merge:
// (subject, predicate, object, primary_knowledge_source).
func (e *Edge) MergeKey() string {
	pks := ""
	if e.PrimaryKnowledgeSource != nil && e.PrimaryKnowledgeSource.Len() > 0 {
		pks = e.PrimaryKnowledgeSource.Slice()[0]
	}
	return e.Subject + "\x00" + e.Predicate + "\x00" + e.Object + "\x00" + pks
}

func (e *Edge) Clone() *Edge {
	cp := &Edge{
		ID:                        e.ID,
		Subject:                   e.Subject,
		Object:                    e.Object,
		Predicate:                 e.Predicate,
		KnowledgeLevel:            e.KnowledgeLevel,
		AgentType:                 e.AgentType,
		Category:                  e.Category.Clone(),
		PrimaryKnowledgeSource:    e.PrimaryKnowledgeSource.Clone(),
		AggregatorKnowledgeSource: e.AggregatorKnowledgeSource.Clone(),
		SupportingDataSource:      e.SupportingDataSource.Clone(),
		Properties:                e.Properties.Clone(),
		OriginalSubject:           e.OriginalSubject,
		OriginalObject:            e.OriginalObject,
	}
	if e.Publications != nil {
		cp.Publications = append([]string(nil), e.Publications...)
	}
	return cp
}

// MergeInto merges src into the receiver under the edge-merge
// contract: sets union, publications concatenate unique, scalar mismatch
// is first-wins (receiver kept), logged by the caller as SCALAR_CONFLICT.
func (e *Edge) MergeInto(src *Edge) (conflicts []string) {
	if src == nil {
		return nil
	}
	e.Category.AddAll(src.Category)
	e.PrimaryKnowledgeSource.AddAll(src.PrimaryKnowledgeSource)
	e.AggregatorKnowledgeSource.AddAll(src.AggregatorKnowledgeSource)
	e.SupportingDataSource.AddAll(src.SupportingDataSource)
	e.Publications = appendUniqueStrings(e.Publications, src.Publications)

	if e.KnowledgeLevel == "" {
		e.KnowledgeLevel = src.KnowledgeLevel
	} else if src.KnowledgeLevel != "" && src.KnowledgeLevel != e.KnowledgeLevel {
		conflicts = append(conflicts, "knowledge_level")
	}
	if e.AgentType == "" {
		e.AgentType = src.AgentType
	} else if src.AgentType != "" && src.AgentType != e.AgentType {
		conflicts = append(conflicts, "agent_type")
	}
	e.Properties = e.Properties.Merge(src.Properties)
	return conflicts
}
