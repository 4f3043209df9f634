// Package clique implements the Clique Merge Resolver:
// collapsing `same_as`-linked identifier cliques in a populated Graph
// Store down to one leader node per clique, rewriting every edge that
// touched a non-leader to the leader's id.
package clique

import (
	"fmt"
	"sort"
	"strings"

	"github.com/biomedkg/kgxchange/internal/graphstore"
	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/biomedkg/kgxchange/internal/prefixmgr"
	"github.com/biomedkg/kgxchange/internal/vocab"
)

// SameAsPredicate is the edge predicate treated as a clique-forming
// relation.
const SameAsPredicate = "biolink:same_as"

// SameAsProperty is the node property alternative to a same_as edge.
const SameAsProperty = "same_as"

// CliqueLeaderProperty flags a node as the forced leader of its
// clique.
const CliqueLeaderProperty = "clique_leader"

// CliqueConflict is returned in strict mode when a clique contains
// nodes of incompatible categories.
type CliqueConflict struct {
	Members    []string
	Categories []string
}

func (e *CliqueConflict) Error() string {
	return fmt.Sprintf("clique: members %v have incompatible categories %v", e.Members, e.Categories)
}

// Options configures a resolver run.
type Options struct {
	// Strict aborts a clique whose members share no common ancestor
	// below root. Relaxed unions categories and
	// continues.
	Strict bool
	// AllowSelfLoops keeps edges that become self-loops after endpoint
	// rewriting instead of dropping them.
	AllowSelfLoops bool
	Prefixes       *prefixmgr.Manager
	Vocab          vocab.Service
}

// Resolve runs the full algorithm over store in place: clique graph
// construction, connected components, leader election, merge, and edge
// rewriting. Returns the number of cliques collapsed (components with
// more than one member).
func Resolve(store *graphstore.Store, opts Options) (int, error) {
	uf := newUnionFind()
	for _, n := range store.Nodes() {
		uf.add(n.ID)
	}

	for _, e := range store.Edges() {
		if e.Predicate == SameAsPredicate {
			uf.union(e.Subject, e.Object)
		}
	}
	for _, n := range store.Nodes() {
		if v, ok := n.Properties[SameAsProperty]; ok {
			for _, other := range v.AsStrings() {
				if store.HasNode(other) {
					uf.union(n.ID, other)
				}
			}
		}
	}

	components := uf.components()
	merged := 0
	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		if err := resolveClique(store, members, opts); err != nil {
			return merged, err
		}
		merged++
	}
	return merged, nil
}

func resolveClique(store *graphstore.Store, members []string, opts Options) error {
	nodes := make([]*model.Node, 0, len(members))
	for _, id := range members {
		if n := store.GetNode(id); n != nil {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) < 2 {
		return nil
	}

	compatible, union := categoriesCompatible(nodes, opts.Vocab)
	if !compatible {
		if opts.Strict {
			return &CliqueConflict{Members: members, Categories: union}
		}
	}

	leader := electLeader(nodes, opts.Prefixes)
	if !opts.Strict {
		for _, c := range union {
			leader.Category.Add(c)
		}
	}

	for _, n := range nodes {
		if n.ID == leader.ID {
			continue
		}
		leader.MergeInto(n)
		leader.Xref.Add(n.ID)
	}

	for _, n := range nodes {
		if n.ID == leader.ID {
			continue
		}
		rewriteEndpoints(store, n.ID, leader.ID, opts.AllowSelfLoops)
		store.RemoveNode(n.ID)
	}
	return nil
}

// rewriteEndpoints rewrites every edge touching oldID to leaderID,
// dropping self-loops unless allowSelfLoops is set.
// graphstore.RewriteEndpoint always drops a self-loop outcome (it
// removes the edge and never re-inserts it), so the allow_self_loops=
// true case is handled here by re-adding the rewritten edge through
// store.AddEdge instead.
func rewriteEndpoints(store *graphstore.Store, oldID, leaderID string, allowSelfLoops bool) {
	keys := append(append([]graphstore.EdgeKey(nil), store.OutgoingEdges(oldID)...), store.IncomingEdges(oldID)...)
	for _, key := range keys {
		e := store.GetEdge(key)
		if e == nil {
			continue
		}
		newSubject, newObject := e.Subject, e.Object
		if newSubject == oldID {
			newSubject = leaderID
		}
		if newObject == oldID {
			newObject = leaderID
		}
		if newSubject != newObject {
			store.RewriteEndpoint(key, oldID, leaderID)
			continue
		}
		if !allowSelfLoops {
			store.RemoveEdge(key)
			continue
		}
		cp := e.Clone()
		if cp.OriginalSubject == "" {
			cp.OriginalSubject = e.Subject
		}
		if cp.OriginalObject == "" {
			cp.OriginalObject = e.Object
		}
		cp.Subject, cp.Object = newSubject, newObject
		store.RemoveEdge(key)
		store.AddEdge(cp)
	}
}

// categoriesCompatible reports whether members share a common ancestor
// below root, returning the union of their direct categories either
// way (used as the relaxed-mode category set).
func categoriesCompatible(nodes []*model.Node, svc vocab.Service) (bool, []string) {
	union := model.NewStringSet()
	for _, n := range nodes {
		for _, c := range n.Category.Slice() {
			union.Add(c)
		}
	}
	cats := union.Slice()
	if svc == nil || len(cats) <= 1 {
		return true, cats
	}

	ancestorSets := make([]map[string]bool, 0, len(cats))
	for _, c := range cats {
		set := map[string]bool{c: true}
		for _, a := range svc.Ancestors(c) {
			set[a] = true
		}
		ancestorSets = append(ancestorSets, set)
	}
	for candidate := range ancestorSets[0] {
		if candidate == model.RootEntityCategory {
			continue
		}
		inAll := true
		for _, set := range ancestorSets[1:] {
			if !set[candidate] {
				inAll = false
				break
			}
		}
		if inAll {
			return true, cats
		}
	}
	return false, cats
}

// electLeader applies the leader-election priority order: (a) an
// explicit clique_leader annotation, (b) highest CURIE-prefix priority
// rank, (c) shortest id then lexical order (the tie-break recorded in
// this repo's Open Question decisions).
func electLeader(nodes []*model.Node, prefixes *prefixmgr.Manager) *model.Node {
	var flagged []*model.Node
	for _, n := range nodes {
		if v, ok := n.Properties[CliqueLeaderProperty]; ok {
			if b, ok := v.Bool(); ok && b {
				flagged = append(flagged, n)
			}
		}
	}
	pool := nodes
	if len(flagged) > 0 {
		pool = flagged
	}
	if len(pool) == 1 {
		return pool[0]
	}

	sort.Slice(pool, func(i, j int) bool {
		ri, iKnown := prefixRank(pool[i].ID, prefixes)
		rj, jKnown := prefixRank(pool[j].ID, prefixes)
		if iKnown && jKnown && ri != rj {
			return ri < rj
		}
		if iKnown != jKnown {
			return iKnown
		}
		if len(pool[i].ID) != len(pool[j].ID) {
			return len(pool[i].ID) < len(pool[j].ID)
		}
		return pool[i].ID < pool[j].ID
	})
	return pool[0]
}

func prefixRank(id string, prefixes *prefixmgr.Manager) (int, bool) {
	if prefixes == nil {
		return 0, false
	}
	prefix, _, ok := prefixmgr.SplitCURIE(id)
	if !ok {
		return 0, false
	}
	return prefixes.PriorityRank(prefix)
}

// unionFind is a simple disjoint-set structure over node ids.
type unionFind struct {
	parent map[string]string
	order  []string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(id string) {
	if _, ok := u.parent[id]; ok {
		return
	}
	u.parent[id] = id
	u.order = append(u.order, id)
}

func (u *unionFind) find(id string) string {
	root, ok := u.parent[id]
	if !ok {
		return id
	}
	for root != u.parent[root] {
		root = u.parent[root]
	}
	for u.parent[id] != root {
		u.parent[id], id = root, u.parent[id]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	u.add(a)
	u.add(b)
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if strings.Compare(ra, rb) > 0 {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}

func (u *unionFind) components() [][]string {
	byRoot := make(map[string][]string)
	for _, id := range u.order {
		root := u.find(id)
		byRoot[root] = append(byRoot[root], id)
	}
	roots := make([]string, 0, len(byRoot))
	for r := range byRoot {
		roots = append(roots, r)
	}
	sort.Strings(roots)
	out := make([][]string, 0, len(roots))
	for _, r := range roots {
		out = append(out, byRoot[r])
	}
	return out
}
