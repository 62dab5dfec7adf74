package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestionPlainJSON(t *testing.T) {
	s, err := parseSuggestion(`{"is_good": true, "rationale": "matches the format"}`)
	require.NoError(t, err)
	assert.True(t, s.IsGood)
	assert.Equal(t, "matches the format", s.Rationale)
}

func TestParseSuggestionFencedJSON(t *testing.T) {
	s, err := parseSuggestion("```json\n{\"is_good\": false, \"rationale\": \"too verbose\"}\n```")
	require.NoError(t, err)
	assert.False(t, s.IsGood)
	assert.Equal(t, "too verbose", s.Rationale)
}

func TestParseSuggestionPrefixedJSON(t *testing.T) {
	s, err := parseSuggestion(`Here is my verdict: {"is_good": true, "rationale": "ok"}`)
	require.NoError(t, err)
	assert.True(t, s.IsGood)
}

func TestParseSuggestionNotJSON(t *testing.T) {
	_, err := parseSuggestion("I think this output is fine.")
	assert.Error(t, err)
}
