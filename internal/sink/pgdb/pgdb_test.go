package pgdb

import (
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"biolink:Gene", "biolink_Gene"},
		{"biolink:contributes_to", "biolink_contributes_to"},
		{"has spaces", "has_spaces"},
		{"dash-case", "dash_case"},
		{"Plain", "Plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, sanitizeLabel(tt.input), "input %q", tt.input)
	}
}

func TestUniqueKeyForDefaultsToID(t *testing.T) {
	assert.Equal(t, "id", uniqueKeyFor("biolink:Gene"))

	UniqueKeyFor["biolink:Publication"] = "pmid"
	defer delete(UniqueKeyFor, "biolink:Publication")
	assert.Equal(t, "pmid", uniqueKeyFor("biolink:Publication"))
}

func TestMergeNodeQueryUsesUniqueKey(t *testing.T) {
	assert.Equal(t,
		"UNWIND $rows AS r MERGE (n:`biolink_Gene` {id: r.id}) SET n += r",
		mergeNodeQuery("biolink_Gene", "id"))
	assert.Equal(t,
		"UNWIND $rows AS r MERGE (n:`biolink_Publication` {pmid: r.pmid}) SET n += r",
		mergeNodeQuery("biolink_Publication", "pmid"))
	assert.Equal(t,
		"UNWIND $rows AS r MERGE (n:`biolink_NamedThing` {id: r.id}) SET n += r",
		mergeNodeQuery("biolink_NamedThing", ""))
}

func TestUniqueConstraintQueryUsesUniqueKey(t *testing.T) {
	assert.Equal(t,
		"CREATE CONSTRAINT IF NOT EXISTS FOR (n:`biolink_Gene`) REQUIRE n.id IS UNIQUE",
		uniqueConstraintQuery("biolink_Gene", "id"))
	assert.Equal(t,
		"CREATE CONSTRAINT IF NOT EXISTS FOR (n:`biolink_Publication`) REQUIRE n.pmid IS UNIQUE",
		uniqueConstraintQuery("biolink_Publication", "pmid"))
}

func TestPropertyAsAny(t *testing.T) {
	assert.Equal(t, "x", propertyAsAny(model.StringValue("x")))
	assert.Equal(t, []string{"a", "b"}, propertyAsAny(model.StringsValue([]string{"a", "b"})))
	assert.Equal(t, 0.9, propertyAsAny(model.NumberValue(0.9)))
	assert.Equal(t, true, propertyAsAny(model.BoolValue(true)))
}
