package validate

import "sort"

// Aggregator deduplicates Findings: identical (level, type, message)
// tuples are collapsed, with subjects accumulated into an
// insertion-ordered set.
type Aggregator struct {
	order []key
	bySet map[key]*subjectSet
}

type key struct {
	Level   Level
	Type    Type
	Message string
}

type subjectSet struct {
	order []string
	seen  map[string]struct{}
}

func (s *subjectSet) add(subj string) {
	if subj == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[subj]; ok {
		return
	}
	s.seen[subj] = struct{}{}
	s.order = append(s.order, subj)
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{bySet: make(map[key]*subjectSet)}
}

// Add records f, merging into an existing (level, type, message) tuple
// if one already exists.
func (a *Aggregator) Add(f Finding) {
	k := key{Level: f.Level, Type: f.Type, Message: f.Message}
	ss, ok := a.bySet[k]
	if !ok {
		ss = &subjectSet{}
		a.bySet[k] = ss
		a.order = append(a.order, k)
	}
	ss.add(f.Subject)
}

// Tree is the nested report structure
// level -> error_type -> message -> [subjects].
type Tree map[Level]map[Type]map[string][]string

// Tree renders the aggregator's accumulated findings into the nested
// report structure, subjects sorted for deterministic output.
func (a *Aggregator) Tree() Tree {
	out := make(Tree)
	for _, k := range a.order {
		byType, ok := out[k.Level]
		if !ok {
			byType = make(map[Type]map[string][]string)
			out[k.Level] = byType
		}
		byMsg, ok := byType[k.Type]
		if !ok {
			byMsg = make(map[string][]string)
			byType[k.Type] = byMsg
		}
		ss := a.bySet[k]
		subs := append([]string(nil), ss.order...)
		sort.Strings(subs)
		byMsg[k.Message] = subs
	}
	return out
}

// Count returns the total number of distinct (level, type, message)
// tuples recorded.
func (a *Aggregator) Count() int { return len(a.order) }

// IsEmpty reports whether no findings were recorded.
func (a *Aggregator) IsEmpty() bool { return len(a.order) == 0 }

// Findings flattens the aggregator back into one Finding per distinct
// subject, for callers (e.g. the Transformer's record-tagging step)
// that need per-record rather than tree-shaped output.
func (a *Aggregator) Findings() []Finding {
	var out []Finding
	for _, k := range a.order {
		ss := a.bySet[k]
		if len(ss.order) == 0 {
			out = append(out, Finding{Level: k.Level, Type: k.Type, Message: k.Message})
			continue
		}
		for _, subj := range ss.order {
			out = append(out, Finding{Level: k.Level, Type: k.Type, Message: k.Message, Subject: subj})
		}
	}
	return out
}
