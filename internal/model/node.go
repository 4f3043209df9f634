package model

// RootEntityCategory is assigned to a node when none is supplied (I3)
// and is the top of the vocabulary's class hierarchy.
const RootEntityCategory = "biolink:NamedThing"

// Node is the record model's node type. Core typed fields
// are explicit struct fields; everything else lives in Properties.
type Node struct {
	ID          string
	Category    *StringSet
	Name        string
	Description string
	Xref        *StringSet
	Synonym     []string
	ProvidedBy  *StringSet
	Properties  Properties
}

// NewNode builds a Node with empty-but-non-nil set fields so callers
// never need a nil check before calling Add.
func NewNode(id string) *Node {
	return &Node{
		ID:         id,
		Category:   NewStringSet(),
		Xref:       NewStringSet(),
		ProvidedBy: NewStringSet(),
		Properties: Properties{},
	}
}

// EnsureCategory assigns the root entity category if none is set (I3).
func (n *Node) EnsureCategory() {
	if n.Category.Len() == 0 {
		n.Category.Add(RootEntityCategory)
	}
}

// Clone deep-copies a Node so pipeline stages can hand off records
// without aliasing shared sets.
func (n *Node) Clone() *Node {
	cp := &Node{
		ID:          n.ID,
		Name:        n.Name,
		Description: n.Description,
		Category:    n.Category.Clone(),
		Xref:        n.Xref.Clone(),
		ProvidedBy:  n.ProvidedBy.Clone(),
		Properties:  n.Properties.Clone(),
	}
	if n.Synonym != nil {
		cp.Synonym = append([]string(nil), n.Synonym...)
	}
	return cp
}

// MergeInto merges src into the receiver under the node-merge
// contract: set-valued fields union, list-valued fields append-unique,
// scalar fields prefer the non-empty incumbent.
func (n *Node) MergeInto(src *Node) {
	if src == nil {
		return
	}
	n.Category.AddAll(src.Category)
	n.Xref.AddAll(src.Xref)
	n.ProvidedBy.AddAll(src.ProvidedBy)
	n.Synonym = appendUniqueStrings(n.Synonym, src.Synonym)
	if n.Name == "" {
		n.Name = src.Name
	}
	if n.Description == "" {
		n.Description = src.Description
	}
	n.Properties = n.Properties.Merge(src.Properties)
}

func appendUniqueStrings(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range src {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
