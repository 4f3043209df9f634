// Package prefixmgr implements the bidirectional CURIE/IRI mapping
// for CURIEs and IRIs: expand, contract, canonical, and priority-
// ordered mint-on-collision.
package prefixmgr

import (
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownPrefix is returned by Expand when a CURIE's prefix has no
// registered base IRI.
type ErrUnknownPrefix struct{ Prefix string }

func (e *ErrUnknownPrefix) Error() string {
	return fmt.Sprintf("prefixmgr: unknown prefix %q", e.Prefix)
}

// ErrNoContraction is returned by Contract in strict mode when no
// registered base IRI matches.
type ErrNoContraction struct{ IRI string }

func (e *ErrNoContraction) Error() string {
	return fmt.Sprintf("prefixmgr: no base IRI matches %q", e.IRI)
}

// Manager is the bidirectional CURIE/IRI prefix manager.
type Manager struct {
	p2i            map[string]string // prefix -> base IRI
	priority       []string          // prefix priority, highest first
	priorityRank   map[string]int
	defaultPrefix  string
	onRedefinition func(prefix, oldBase, newBase string)
}

// New builds an empty Manager. Use Update to populate prefix bindings.
func New(defaultPrefix string) *Manager {
	return &Manager{
		p2i:           make(map[string]string),
		priorityRank:  make(map[string]int),
		defaultPrefix: defaultPrefix,
	}
}

// OnRedefinition installs a callback invoked when Update rebinds a
// prefix to a different base IRI.
func (m *Manager) OnRedefinition(fn func(prefix, oldBase, newBase string)) {
	m.onRedefinition = fn
}

// Update merges additional prefix bindings; later bindings win.
func (m *Manager) Update(bindings map[string]string) {
	for prefix, base := range bindings {
		if old, ok := m.p2i[prefix]; ok && old != base && m.onRedefinition != nil {
			m.onRedefinition(prefix, old, base)
		}
		m.p2i[prefix] = base
	}
}

// SetPriority sets the ordered prefix-priority list used to break ties
// when contracting an IRI that matches multiple bases, and to elect a
// clique leader by prefix rank.
func (m *Manager) SetPriority(prefixes []string) {
	m.priority = append([]string(nil), prefixes...)
	m.priorityRank = make(map[string]int, len(prefixes))
	for i, p := range prefixes {
		m.priorityRank[p] = i
	}
}

// PriorityRank returns the rank of prefix (lower is higher priority) and
// whether it is present in the priority list.
func (m *Manager) PriorityRank(prefix string) (int, bool) {
	r, ok := m.priorityRank[prefix]
	return r, ok
}

func looksLikeIRI(s string) bool {
	return strings.Contains(s, "://")
}

func splitCURIE(curie string) (prefix, local string, ok bool) {
	i := strings.IndexByte(curie, ':')
	if i < 0 {
		return "", curie, false
	}
	return curie[:i], curie[i+1:], true
}

// Expand turns a CURIE into an IRI. If the input already looks like an
// IRI it is passed through unchanged. Returns *ErrUnknownPrefix if the
// prefix isn't registered.
func (m *Manager) Expand(curie string) (string, error) {
	if looksLikeIRI(curie) {
		return curie, nil
	}
	prefix, local, ok := splitCURIE(curie)
	if !ok {
		prefix, local = m.defaultPrefix, curie
	}
	base, ok := m.p2i[prefix]
	if !ok {
		return "", &ErrUnknownPrefix{Prefix: prefix}
	}
	return base + local, nil
}

// Contract picks the longest-matching registered base IRI and rewrites
// iri as prefix:local. Ties are broken by the priority list, then by
// base length (already the primary sort), then lexically. If strict is
// false and nothing matches, iri is returned unchanged; if strict is
// true, *ErrNoContraction is returned.
func (m *Manager) Contract(iri string, strict bool) (string, error) {
	type candidate struct {
		prefix string
		base   string
	}
	var matches []candidate
	for prefix, base := range m.p2i {
		if strings.HasPrefix(iri, base) {
			matches = append(matches, candidate{prefix, base})
		}
	}
	if len(matches) == 0 {
		if strict {
			return "", &ErrNoContraction{IRI: iri}
		}
		return iri, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i].base) != len(matches[j].base) {
			return len(matches[i].base) > len(matches[j].base)
		}
		ri, iInPriority := m.priorityRank[matches[i].prefix]
		rj, jInPriority := m.priorityRank[matches[j].prefix]
		if iInPriority && jInPriority {
			return ri < rj
		}
		if iInPriority != jInPriority {
			return iInPriority
		}
		return matches[i].prefix < matches[j].prefix
	})

	best := matches[0]
	return best.prefix + ":" + strings.TrimPrefix(iri, best.base), nil
}

// Canonical expands then contracts curie, producing its preferred form
// (contract(expand(c)) == canonical(c) for every known prefix).
func (m *Manager) Canonical(curie string) (string, error) {
	iri, err := m.Expand(curie)
	if err != nil {
		return "", err
	}
	return m.Contract(iri, false)
}

// IsValidCURIE reports whether s has a known, non-empty prefix and a
// non-empty local part (used by the Validator for I1 / INVALID_CURIE).
func (m *Manager) IsValidCURIE(s string) bool {
	if looksLikeIRI(s) {
		return false
	}
	prefix, local, ok := splitCURIE(s)
	if !ok || local == "" {
		return false
	}
	_, known := m.p2i[prefix]
	return known
}

// DefaultPrefix returns the prefix used when a token carries no colon.
func (m *Manager) DefaultPrefix() string { return m.defaultPrefix }

// HasPrefix reports whether prefix has a registered base IRI.
func (m *Manager) HasPrefix(prefix string) bool {
	_, ok := m.p2i[prefix]
	return ok
}

// SplitCURIE exposes the prefix/local split for callers (e.g. the
// Validator) that need to reason about a CURIE's parts without
// expanding it.
func SplitCURIE(curie string) (prefix, local string, ok bool) {
	return splitCURIE(curie)
}
