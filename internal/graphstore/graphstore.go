// Package graphstore implements the in-memory, multi-edge directed
// property graph behind the pipeline: node and edge maps plus
// adjacency indexes, with merge-on-duplicate semantics owned by the
// store itself rather than delegated to a remote Cypher backend.
//
// Not safe for concurrent mutation: callers serialize
// externally.
package graphstore

import (
	"fmt"

	"github.com/biomedkg/kgxchange/internal/model"
)

// EdgeKey is the store's structural identity for an edge: the
// (subject, object, seq) triple, where seq distinguishes
// parallel edges between the same pair.
type EdgeKey struct {
	Subject string
	Object  string
	Seq     int
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%s->%s#%d", k.Subject, k.Object, k.Seq)
}

// Store is the in-memory graph store.
type Store struct {
	nodeOrder []string
	nodes     map[string]*model.Node

	edgeOrder []EdgeKey
	edges     map[EdgeKey]*model.Edge
	pairSeq   map[string]int
	mergeIdx  map[string]EdgeKey

	outAdj map[string][]EdgeKey
	inAdj  map[string][]EdgeKey

	// OnScalarConflict, if set, is invoked whenever an edge merge hits a
	// scalar mismatch (first-wins; the losing values are reported).
	OnScalarConflict func(edgeID string, fields []string)
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nodes:    make(map[string]*model.Node),
		edges:    make(map[EdgeKey]*model.Edge),
		pairSeq:  make(map[string]int),
		mergeIdx: make(map[string]EdgeKey),
		outAdj:   make(map[string][]EdgeKey),
		inAdj:    make(map[string][]EdgeKey),
	}
}

// AddNode inserts n, or merges it into the existing node sharing n.ID
// (duplicate-add never fails; merge is the contract). Ensures
// I3 (at least one category) holds for every stored node.
func (s *Store) AddNode(n *model.Node) *model.Node {
	n.EnsureCategory()
	if existing, ok := s.nodes[n.ID]; ok {
		existing.MergeInto(n)
		return existing
	}
	cp := n.Clone()
	s.nodes[cp.ID] = cp
	s.nodeOrder = append(s.nodeOrder, cp.ID)
	return cp
}

// ensurePlaceholder materializes an endpoint node with the root entity
// category if it doesn't already exist (I2b).
func (s *Store) ensurePlaceholder(id string) {
	if _, ok := s.nodes[id]; ok {
		return
	}
	ph := model.NewNode(id)
	ph.EnsureCategory()
	s.nodes[id] = ph
	s.nodeOrder = append(s.nodeOrder, id)
}

func pairKey(subject, object string) string { return subject + "\x00" + object }

// AddEdge inserts e, auto-materializing missing endpoints (I2), or
// merges it into an existing edge sharing the merge key
// (subject, predicate, object, primary_knowledge_source).
func (s *Store) AddEdge(e *model.Edge) (EdgeKey, *model.Edge) {
	s.ensurePlaceholder(e.Subject)
	s.ensurePlaceholder(e.Object)

	mk := e.MergeKey()
	if key, ok := s.mergeIdx[mk]; ok {
		existing := s.edges[key]
		if conflicts := existing.MergeInto(e); len(conflicts) > 0 && s.OnScalarConflict != nil {
			s.OnScalarConflict(existing.ID, conflicts)
		}
		return key, existing
	}

	pk := pairKey(e.Subject, e.Object)
	seq := s.pairSeq[pk]
	s.pairSeq[pk] = seq + 1
	key := EdgeKey{Subject: e.Subject, Object: e.Object, Seq: seq}

	cp := e.Clone()
	s.edges[key] = cp
	s.edgeOrder = append(s.edgeOrder, key)
	s.mergeIdx[mk] = key
	s.outAdj[e.Subject] = append(s.outAdj[e.Subject], key)
	s.inAdj[e.Object] = append(s.inAdj[e.Object], key)
	return key, cp
}

// RemoveNode deletes the node and returns whether it existed. It does
// not cascade to incident edges; callers that need cascading removal
// should also call RemoveEdge for each key in Out/In adjacency first.
func (s *Store) RemoveNode(id string) bool {
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	s.nodeOrder = removeString(s.nodeOrder, id)
	return true
}

// RemoveEdge deletes the edge at key and returns whether it existed.
func (s *Store) RemoveEdge(key EdgeKey) bool {
	e, ok := s.edges[key]
	if !ok {
		return false
	}
	delete(s.edges, key)
	delete(s.mergeIdx, e.MergeKey())
	s.edgeOrder = removeKey(s.edgeOrder, key)
	s.outAdj[key.Subject] = removeKey(s.outAdj[key.Subject], key)
	s.inAdj[key.Object] = removeKey(s.inAdj[key.Object], key)
	return true
}

func removeString(ss []string, v string) []string {
	for i, s := range ss {
		if s == v {
			return append(ss[:i], ss[i+1:]...)
		}
	}
	return ss
}

func removeKey(ks []EdgeKey, v EdgeKey) []EdgeKey {
	for i, k := range ks {
		if k == v {
			return append(ks[:i], ks[i+1:]...)
		}
	}
	return ks
}

// GetNode returns the node for id, or nil if absent.
func (s *Store) GetNode(id string) *model.Node { return s.nodes[id] }

// GetEdge returns the edge at key, or nil if absent.
func (s *Store) GetEdge(key EdgeKey) *model.Edge { return s.edges[key] }

// HasNode reports whether id is a known node.
func (s *Store) HasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (s *Store) Nodes() []*model.Node {
	out := make([]*model.Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, s.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (s *Store) Edges() []*model.Edge {
	out := make([]*model.Edge, 0, len(s.edgeOrder))
	for _, k := range s.edgeOrder {
		out = append(out, s.edges[k])
	}
	return out
}

// EdgeKeys returns all edge keys in insertion order, paired 1:1 with
// Edges(); useful for callers (e.g. clique merge) that need to rewrite
// endpoints in place.
func (s *Store) EdgeKeys() []EdgeKey {
	out := make([]EdgeKey, len(s.edgeOrder))
	copy(out, s.edgeOrder)
	return out
}

func (s *Store) NodeCount() int { return len(s.nodes) }
func (s *Store) EdgeCount() int { return len(s.edges) }

// OutgoingEdges returns the edges keys whose subject is id.
func (s *Store) OutgoingEdges(id string) []EdgeKey { return s.outAdj[id] }

// IncomingEdges returns the edge keys whose object is id.
func (s *Store) IncomingEdges(id string) []EdgeKey { return s.inAdj[id] }

// Degree returns the total in+out degree of id.
func (s *Store) Degree(id string) int {
	return len(s.outAdj[id]) + len(s.inAdj[id])
}

// RewriteEndpoint moves the edge at key so that its subject or object
// (whichever equals oldID) becomes newID, preserving the edge's
// properties and re-keying the adjacency indexes and merge index. Used
// by the clique resolver and is a no-op if key is absent.
// Reports whether the edge became a self-loop.
func (s *Store) RewriteEndpoint(key EdgeKey, oldID, newID string) (isSelfLoop bool, ok bool) {
	e, exists := s.edges[key]
	if !exists {
		return false, false
	}

	s.RemoveEdge(key)

	newSubject, newObject := e.Subject, e.Object
	if e.OriginalSubject == "" {
		e.OriginalSubject = e.Subject
	}
	if e.OriginalObject == "" {
		e.OriginalObject = e.Object
	}
	if e.Subject == oldID {
		newSubject = newID
	}
	if e.Object == oldID {
		newObject = newID
	}
	e.Subject, e.Object = newSubject, newObject

	if newSubject == newObject {
		return true, true
	}

	s.ensurePlaceholder(newSubject)
	s.ensurePlaceholder(newObject)

	mk := e.MergeKey()
	if existingKey, found := s.mergeIdx[mk]; found {
		existing := s.edges[existingKey]
		existing.MergeInto(e)
		return false, true
	}

	pk := pairKey(newSubject, newObject)
	seq := s.pairSeq[pk]
	s.pairSeq[pk] = seq + 1
	newKey := EdgeKey{Subject: newSubject, Object: newObject, Seq: seq}
	s.edges[newKey] = e
	s.edgeOrder = append(s.edgeOrder, newKey)
	s.mergeIdx[mk] = newKey
	s.outAdj[newSubject] = append(s.outAdj[newSubject], newKey)
	s.inAdj[newObject] = append(s.inAdj[newObject], newKey)
	return false, true
}
