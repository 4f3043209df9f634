package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInfoResRewriteEmptyDisables(t *testing.T) {
	rule, err := parseInfoResRewrite("")
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestParseInfoResRewriteTrueForm(t *testing.T) {
	rule, err := parseInfoResRewrite("true")
	require.NoError(t, err)
	assert.Equal(t, "string-db", rule.Apply("STRING DB"))
}

func TestParseInfoResRewriteE5(t *testing.T) {
	rule, err := parseInfoResRewrite("/ database$/=>=>infores")
	require.NoError(t, err)
	assert.Equal(t, "infores", rule.Namespace())
	assert.Equal(t, "string", rule.Apply("STRING database"))
}

func TestParseInfoResRewriteInvalidPattern(t *testing.T) {
	_, err := parseInfoResRewrite("/[/")
	require.Error(t, err)
}
