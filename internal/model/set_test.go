package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSetDedupAndOrder(t *testing.T) {
	s := NewStringSet("HGNC:1", "MONDO:2", "HGNC:1")
	require.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"HGNC:1", "MONDO:2"}, s.Slice())
	assert.True(t, s.Has("MONDO:2"))
	assert.False(t, s.Has("NCBIGene:7"))
}

func TestStringSetAddAllPreservesOrderOfNewMembers(t *testing.T) {
	a := NewStringSet("a", "b")
	b := NewStringSet("b", "c")
	a.AddAll(b)
	assert.Equal(t, []string{"a", "b", "c"}, a.Slice())
}

func TestStringSetJSONRoundTrip(t *testing.T) {
	s := NewStringSet("x", "y")
	data, err := s.MarshalJSON()
	require.NoError(t, err)

	var out StringSet
	require.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, s.Slice(), out.Slice())
}
