package model

// Properties holds arbitrary, format-supplied fields that are not part
// of the core typed schema for a Node or Edge. Keys are the raw column
// or predicate-mapped name; values keep their original shape via Value.
type Properties map[string]Value

func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	cp := make(Properties, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Merge unions src into the receiver, preferring the receiver's value
// on collision: scalar fields keep a non-empty incumbent, list-valued
// fields append unique.
func (p Properties) Merge(src Properties) Properties {
	if p == nil {
		return src.Clone()
	}
	for k, v := range src {
		if existing, ok := p[k]; ok {
			if existing.Kind() == KindString {
				if s, _ := existing.String(); s == "" {
					p[k] = v
				}
			}
			continue
		}
		p[k] = v
	}
	return p
}
