package validate

import (
	"fmt"
	"sync"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/vocab"
)

// globalVersion is the process-wide vocabulary model version; instances
// capture it at construction time. Concurrent construction requires
// external synchronization of SetGlobalVersion then New. NewWithVersion
// takes an explicit version and never touches this global.
var (
	globalVersionMu sync.Mutex
	globalVersion   = "latest"
)

// SetGlobalVersion sets the process-wide default vocabulary version used
// by New when no explicit version is supplied. Callers needing
// concurrent-safe construction should prefer NewWithVersion.
func SetGlobalVersion(v string) {
	globalVersionMu.Lock()
	defer globalVersionMu.Unlock()
	globalVersion = v
}

// Options configures a Validator.
type Options struct {
	// Strict promotes missing knowledge_level/agent_type from WARNING to
	// ERROR.
	Strict bool
}

// Validator checks nodes and edges against a vocab.Service. Each
// instance captures the vocabulary version at construction time.
type Validator struct {
	vocabSvc vocab.Service
	prefixes *prefixmgr.Manager
	version  string
	opts     Options
	agg      *Aggregator
}

// New constructs a Validator against svc, capturing the process-wide
// global version at construction time.
func New(svc vocab.Service, prefixes *prefixmgr.Manager, opts Options) *Validator {
	globalVersionMu.Lock()
	v := globalVersion
	globalVersionMu.Unlock()
	return NewWithVersion(svc, prefixes, v, opts)
}

// NewWithVersion constructs a Validator pinned to an explicit version,
// bypassing the process-wide global entirely.
func NewWithVersion(svc vocab.Service, prefixes *prefixmgr.Manager, version string, opts Options) *Validator {
	return &Validator{
		vocabSvc: svc,
		prefixes: prefixes,
		version:  version,
		opts:     opts,
		agg:      NewAggregator(),
	}
}

// Version returns the vocabulary version captured at construction.
func (v *Validator) Version() string { return v.version }

// Aggregator returns the Validator's accumulated findings.
func (v *Validator) Aggregator() *Aggregator { return v.agg }

// ValidateNode checks a single node, recording findings into the
// Validator's aggregator.
func (v *Validator) ValidateNode(n *model.Node) {
	if n.ID == "" {
		v.agg.Add(Finding{Level: LevelError, Type: TypeMissingNodeProperty, Message: "Node missing id", Subject: "<no id>"})
		return
	}
	if !v.isWellFormedCURIE(n.ID) {
		v.agg.Add(Finding{Level: LevelError, Type: TypeInvalidCURIE, Message: "Node id is not a well-formed CURIE", Subject: n.ID})
	}
	if n.Category.Len() == 0 {
		v.agg.Add(Finding{Level: LevelWarning, Type: TypeNoCategory, Message: "Node lacks category", Subject: n.ID})
	} else {
		for _, c := range n.Category.Slice() {
			if !v.vocabSvc.IsClass(c) {
				v.agg.Add(Finding{Level: LevelWarning, Type: TypeInvalidCategory, Message: "Category not a known class", Subject: n.ID})
				continue
			}
			if !vocab.IsCamelCase(c) {
				v.agg.Add(Finding{Level: LevelWarning, Type: TypeInvalidCategory, Message: "Category is not CamelCase", Subject: n.ID})
			}
		}
	}

	for _, req := range v.requiredSlotsFor(n.Category.Slice()) {
		if !nodeHasSlot(n, req.Name) {
			v.agg.Add(Finding{Level: LevelError, Type: TypeMissingNodeProperty, Message: fmt.Sprintf("Node missing required slot %q", req.Name), Subject: n.ID})
		}
	}

	for name, val := range n.Properties {
		v.checkValueType(n.ID, name, val)
	}
}

// ValidateEdge checks a single edge, recording findings into the
// Validator's aggregator.
func (v *Validator) ValidateEdge(e *model.Edge) {
	subj := e.ID
	if subj == "" {
		subj = e.Subject + "->" + e.Object
	}
	if e.Subject == "" || e.Object == "" {
		v.agg.Add(Finding{Level: LevelError, Type: TypeMissingEdgeProperty, Message: "Edge missing subject or object", Subject: subj})
	} else {
		if !v.isWellFormedCURIE(e.Subject) {
			v.agg.Add(Finding{Level: LevelError, Type: TypeInvalidCURIE, Message: "Edge subject is not a well-formed CURIE", Subject: e.Subject})
		}
		if !v.isWellFormedCURIE(e.Object) {
			v.agg.Add(Finding{Level: LevelError, Type: TypeInvalidCURIE, Message: "Edge object is not a well-formed CURIE", Subject: e.Object})
		}
	}
	if e.Predicate == "" {
		v.agg.Add(Finding{Level: LevelError, Type: TypeMissingEdgeProperty, Message: "Edge missing predicate", Subject: subj})
	} else {
		if !v.vocabSvc.IsPredicate(e.Predicate) {
			v.agg.Add(Finding{Level: LevelError, Type: TypeInvalidEdgePredicate, Message: "Predicate not in relation hierarchy", Subject: e.Predicate})
		}
		if !vocab.IsSnakeCase(e.Predicate) {
			v.agg.Add(Finding{Level: LevelWarning, Type: TypeInvalidEdgePredicate, Message: "Predicate is not snake_case", Subject: e.Predicate})
		}
	}

	// knowledge_level/agent_type absence: WARNING unless strict.
	lvl := LevelWarning
	if v.opts.Strict {
		lvl = LevelError
	}
	if e.KnowledgeLevel == "" {
		v.agg.Add(Finding{Level: lvl, Type: TypeMissingEdgeProperty, Message: "Edge missing knowledge_level", Subject: subj})
	}
	if e.AgentType == "" {
		v.agg.Add(Finding{Level: lvl, Type: TypeMissingEdgeProperty, Message: "Edge missing agent_type", Subject: subj})
	}

	for _, id := range e.Publications {
		if !v.isWellFormedCURIE(id) {
			v.agg.Add(Finding{Level: LevelWarning, Type: TypeInvalidCURIE, Message: "Publication is not a well-formed CURIE", Subject: id})
		}
	}
	for name, val := range e.Properties {
		v.checkValueType(subj, name, val)
	}
}

// ValidateNodes runs ValidateNode over a slice, for non-streaming callers
// driving a populated Graph Store.
func (v *Validator) ValidateNodes(nodes []*model.Node) {
	seen := make(map[string]int, len(nodes))
	for _, n := range nodes {
		seen[n.ID]++
		if seen[n.ID] > 1 {
			v.agg.Add(Finding{Level: LevelWarning, Type: TypeDuplicateNode, Message: "Duplicate node id in input", Subject: n.ID})
		}
		v.ValidateNode(n)
	}
}

// ValidateEdges runs ValidateEdge over a slice.
func (v *Validator) ValidateEdges(edges []*model.Edge) {
	for _, e := range edges {
		v.ValidateEdge(e)
	}
}

func (v *Validator) isWellFormedCURIE(curie string) bool {
	prefix, local, ok := prefixmgr.SplitCURIE(curie)
	if !ok || local == "" {
		return false
	}
	if v.prefixes != nil && !v.prefixes.HasPrefix(prefix) {
		v.agg.Add(Finding{Level: LevelWarning, Type: TypeUnknownPrefix, Message: "CURIE prefix not registered", Subject: prefix})
		return false
	}
	return true
}

func (v *Validator) requiredSlotsFor(categories []string) []vocab.SlotInfo {
	var out []vocab.SlotInfo
	for _, c := range categories {
		out = append(out, v.vocabSvc.RequiredSlots(c)...)
	}
	return out
}

func nodeHasSlot(n *model.Node, slot string) bool {
	switch slot {
	case "id":
		return n.ID != ""
	case "category":
		return n.Category.Len() > 0
	case "name":
		return n.Name != ""
	default:
		_, ok := n.Properties[slot]
		return ok
	}
}

func (v *Validator) checkValueType(subject, name string, val model.Value) {
	wantType, known := v.vocabSvc.SlotType(name)
	if !known {
		return
	}
	ok := true
	switch wantType {
	case vocab.ValueTypeString, vocab.ValueTypeCURIE:
		_, ok = val.String()
	case vocab.ValueTypeNumber:
		_, ok = val.Number()
	case vocab.ValueTypeBool:
		_, ok = val.Bool()
	case vocab.ValueTypeListOfString:
		_, ok = val.Strings()
	}
	if !ok {
		v.agg.Add(Finding{Level: LevelWarning, Type: TypeMissingNodeProperty, Message: fmt.Sprintf("Property %q has unexpected value shape", name), Subject: subject})
	}
}
