package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDeleteRoundTrip(t *testing.T) {
	s := New(nil)
	if !s.IsAvailable() {
		t.Skip("OS keychain not available, skipping")
	}
	defer s.Delete(ItemVocabKey)

	require.NoError(t, s.Set(ItemVocabKey, "vk-test-123"))
	got, err := s.Get(ItemVocabKey)
	require.NoError(t, err)
	assert.Equal(t, "vk-test-123", got)

	require.NoError(t, s.Delete(ItemVocabKey))
	got, err = s.Get(ItemVocabKey)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestSetRejectsEmptyValue(t *testing.T) {
	s := New(nil)
	if !s.IsAvailable() {
		t.Skip("OS keychain not available, skipping")
	}
	assert.Error(t, s.Set(ItemGitHubToken, ""))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "(not set)", Mask(""))
	assert.Equal(t, "***", Mask("short"))
	assert.Equal(t, "ghp_...6789", Mask("ghp_123456789"))
}
