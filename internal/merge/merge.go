// Package merge implements the N-ary graph merge operator:
// combining two or more Graph Stores into one, replaying each store's
// nodes then edges through the destination store's existing
// merge-on-duplicate-key semantics.
package merge

import (
	"github.com/biomedkg/kgxchange/internal/graphstore"
)

// Merge combines stores into a newly-created Store. Node merge is by
// id; edge merge is by the composite key
// (subject, predicate, object, primary_knowledge_source); both follow
// the field-union rules already implemented by graphstore.Store.AddNode/
// AddEdge. Scalar conflicts are resolved first-wins and reported via
// onConflict (nil is accepted to discard them).
func Merge(stores []*graphstore.Store, onConflict func(edgeID string, fields []string)) *graphstore.Store {
	dest := graphstore.New()
	dest.OnScalarConflict = onConflict
	for _, s := range stores {
		for _, n := range s.Nodes() {
			dest.AddNode(n.Clone())
		}
		for _, e := range s.Edges() {
			dest.AddEdge(e.Clone())
		}
	}
	return dest
}
