package model

import "encoding/json"

// ValueKind tags the concrete type held by a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindStrings
	KindNumber
	KindBool
)

// Value is the sum type for arbitrary node/edge properties: string,
// list-of-string, number, or bool. Core typed fields (id, category,
// subject, ...) never go through Value; only unrecognized columns and
// passthrough RDF/JSON properties do.
type Value struct {
	kind ValueKind
	s    string
	ss   []string
	n    float64
	b    bool
}

func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func StringsValue(ss []string) Value {
	cp := make([]string, len(ss))
	copy(cp, ss)
	return Value{kind: KindStrings, ss: cp}
}
func NumberValue(n float64) Value { return Value{kind: KindNumber, n: n} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) Strings() ([]string, bool) {
	if v.kind != KindStrings {
		return nil, false
	}
	return v.ss, true
}

func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsStrings coerces any Value to a string slice, for writers that fold
// properties into a delimited column or a JSON array uniformly.
func (v Value) AsStrings() []string {
	switch v.kind {
	case KindString:
		return []string{v.s}
	case KindStrings:
		return v.ss
	case KindNumber:
		return []string{formatNumber(v.n)}
	case KindBool:
		if v.b {
			return []string{"true"}
		}
		return []string{"false"}
	}
	return nil
}

func formatNumber(n float64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// MarshalJSON renders the Value as whichever JSON shape its kind implies.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindStrings:
		return json.Marshal(v.ss)
	case KindNumber:
		return json.Marshal(v.n)
	case KindBool:
		return json.Marshal(v.b)
	}
	return []byte("null"), nil
}

// UnmarshalJSON infers the kind from the JSON shape: array -> KindStrings,
// string -> KindString, bool -> KindBool, number -> KindNumber.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StringValue(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*v = StringsValue(ss)
		return nil
	}
	return json.Unmarshal(data, &v.s)
}
