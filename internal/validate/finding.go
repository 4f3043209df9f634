// Package validate implements the graph Validator: node and
// edge conformance checks against a vocab.Service, collapsed into a
// deduplicated error tree by subject.
package validate

// Level is a validation message severity.
type Level string

const (
	LevelError   Level = "ERROR"
	LevelWarning Level = "WARNING"
	LevelInfo    Level = "INFO"
)

// Type enumerates the error_type taxonomy that applies
// to per-record validation (as opposed to setup-time errs.Error
// failures).
type Type string

const (
	TypeMissingNodeProperty  Type = "MISSING_NODE_PROPERTY"
	TypeMissingEdgeProperty  Type = "MISSING_EDGE_PROPERTY"
	TypeInvalidCURIE         Type = "INVALID_CURIE"
	TypeUnknownPrefix        Type = "UNKNOWN_PREFIX"
	TypeInvalidCategory      Type = "INVALID_CATEGORY"
	TypeNoCategory           Type = "NO_CATEGORY"
	TypeInvalidEdgePredicate Type = "INVALID_EDGE_PREDICATE"
	TypeDuplicateNode        Type = "DUPLICATE_NODE"
	TypeMalformedRecord      Type = "MALFORMED_RECORD"
)

// Finding is one raw validation violation before aggregation:
// (message_level, error_type, message, subject-identifier).
type Finding struct {
	Level   Level
	Type    Type
	Message string
	Subject string
}
