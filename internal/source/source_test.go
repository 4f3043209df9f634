package source

import (
	"testing"

	"github.com/biomedkg/kgxchange/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestKeepNodeHonorsCategoryAllowList(t *testing.T) {
	gene := model.NewNode("HGNC:1")
	gene.Category.Add("biolink:Gene")
	disease := model.NewNode("MONDO:1")
	disease.Category.Add("biolink:Disease")

	cfg := Config{NodeCategories: []string{"biolink:Gene"}}
	assert.True(t, cfg.KeepNode(gene))
	assert.False(t, cfg.KeepNode(disease))

	assert.True(t, (&Config{}).KeepNode(disease), "empty allow-list keeps everything")
}

func TestKeepEdgeHonorsPredicateAllowList(t *testing.T) {
	contributes := model.NewEdge("e1", "A:1", "biolink:contributes_to", "B:1")
	related := model.NewEdge("e2", "A:1", "biolink:related_to", "B:1")

	cfg := Config{EdgePredicates: []string{"biolink:contributes_to"}}
	assert.True(t, cfg.KeepEdge(contributes))
	assert.False(t, cfg.KeepEdge(related))
}

func TestKeepNodeCombinesAllowListWithFunctionFilters(t *testing.T) {
	gene := model.NewNode("HGNC:1")
	gene.Category.Add("biolink:Gene")

	cfg := Config{
		NodeCategories: []string{"biolink:Gene"},
		NodeFilters:    []NodeFilter{func(n *model.Node) bool { return n.ID != "HGNC:1" }},
	}
	assert.False(t, cfg.KeepNode(gene), "function filters still apply after the allow-list")
}
