package refine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestRenderFeedbackGoodAndBad(t *testing.T) {
	batch := []FeedbackItem{
		{InputContent: "in1", Output: "out1", IsGood: true},
		{InputContent: "in2", Output: "out2", IsGood: false,
			Reason: strptr("too long"), Correction: strptr("shorter")},
	}

	text := RenderFeedback(batch)

	assert.Contains(t, text, "GOOD OUTPUTS (keep doing this):\n\nInput: \"in1\"\nOutput: \"out1\"")
	assert.Contains(t, text, "BAD OUTPUTS (fix these):\n\nInput: \"in2\"\nOutput: \"out2\"\nWhy wrong: \"too long\"\nShould be: \"shorter\"")
	assert.Contains(t, text, "\n\n---\n\n")
}

func TestRenderFeedbackOmitsEmptyGroup(t *testing.T) {
	onlyBad := RenderFeedback([]FeedbackItem{
		{InputContent: "a", Output: "b", IsGood: false},
	})
	assert.NotContains(t, onlyBad, "GOOD OUTPUTS")
	assert.NotContains(t, onlyBad, "---")
	assert.True(t, strings.HasPrefix(onlyBad, "BAD OUTPUTS (fix these):"))

	onlyGood := RenderFeedback([]FeedbackItem{
		{InputContent: "a", Output: "b", IsGood: true},
	})
	assert.NotContains(t, onlyGood, "BAD OUTPUTS")
}

func TestRenderFeedbackGoodIgnoresReason(t *testing.T) {
	// Reason and correction only annotate bad outputs.
	text := RenderFeedback([]FeedbackItem{
		{InputContent: "a", Output: "b", IsGood: true, Reason: strptr("r"), Correction: strptr("c")},
	})
	assert.NotContains(t, text, "Why wrong")
	assert.NotContains(t, text, "Should be")
}

func TestRenderFeedbackEmptyBatch(t *testing.T) {
	assert.Equal(t, "", RenderFeedback(nil))
}

func TestRenderFeedbackSkipsEmptyAnnotations(t *testing.T) {
	text := RenderFeedback([]FeedbackItem{
		{InputContent: "a", Output: "b", IsGood: false, Reason: strptr(""), Correction: nil},
	})
	assert.NotContains(t, text, "Why wrong")
	assert.NotContains(t, text, "Should be")
}
