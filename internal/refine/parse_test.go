package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const wellFormedResponse = `ANALYSIS:
The outputs are too verbose and ignore the requested format.

CHANGES:
- Add an explicit length limit
- Require bullet-point output
* Forbid preamble sentences

NEW PROMPT:
"""
Summarize the following text in at most three bullet points.

{input}
"""`

func TestParseReflectionWellFormed(t *testing.T) {
	p := ParseReflection(wellFormedResponse, "old prompt")

	assert.Equal(t, "The outputs are too verbose and ignore the requested format.", p.Analysis)
	assert.Equal(t, []string{
		"Add an explicit length limit",
		"Require bullet-point output",
		"Forbid preamble sentences",
	}, p.Changes)
	assert.Equal(t, "Summarize the following text in at most three bullet points.\n\n{input}", p.NewPrompt)
	assert.False(t, p.UsedFallback)
}

func TestParseReflectionSingleQuotes(t *testing.T) {
	resp := "NEW PROMPT:\n'''\nBe concise.\n'''"
	p := ParseReflection(resp, "old")
	assert.Equal(t, "Be concise.", p.NewPrompt)
	assert.False(t, p.UsedFallback)
}

func TestParseReflectionFencedBlock(t *testing.T) {
	resp := "NEW PROMPT:\n```\nBe concise.\n```"
	p := ParseReflection(resp, "old")
	assert.Equal(t, "Be concise.", p.NewPrompt)
}

func TestParseReflectionFencedBlockWithLanguageTag(t *testing.T) {
	resp := "NEW PROMPT:\n```text\nBe concise.\n```"
	p := ParseReflection(resp, "old")
	assert.Equal(t, "Be concise.", p.NewPrompt)
}

func TestParseReflectionBareSection(t *testing.T) {
	// No delimiters at all after the marker: the trimmed remainder wins.
	resp := "NEW PROMPT:\nBe concise and factual."
	p := ParseReflection(resp, "old")
	assert.Equal(t, "Be concise and factual.", p.NewPrompt)
	assert.False(t, p.UsedFallback)
}

func TestParseReflectionLastMarkerWins(t *testing.T) {
	resp := "NEW PROMPT: draft\nSome commentary.\nNEW PROMPT:\n\"\"\"\nfinal prompt\n\"\"\""
	p := ParseReflection(resp, "old")
	assert.Equal(t, "final prompt", p.NewPrompt)
}

func TestParseReflectionNoMarkerFallsBackToFence(t *testing.T) {
	resp := "Here is my suggestion:\n```\nimproved prompt\n```\nHope that helps."
	p := ParseReflection(resp, "old")
	assert.Equal(t, "improved prompt", p.NewPrompt)
	assert.False(t, p.UsedFallback)
}

func TestParseReflectionNothingExtractableUsesCurrentPrompt(t *testing.T) {
	p := ParseReflection("I cannot help with that.", "the current prompt")
	assert.Equal(t, "the current prompt", p.NewPrompt)
	assert.True(t, p.UsedFallback)
	assert.Empty(t, p.Analysis)
	assert.Empty(t, p.Changes)
}

func TestExtractAnalysisMissingMarker(t *testing.T) {
	assert.Equal(t, "", extractAnalysis("CHANGES:\n- something"))
}

func TestExtractAnalysisMarkerAfterChanges(t *testing.T) {
	// Marker order reversed: slice bounds would invert, result is empty.
	assert.Equal(t, "", extractAnalysis("CHANGES:\n- x\nANALYSIS: late"))
}

func TestExtractChangesDropsNonBullets(t *testing.T) {
	resp := "CHANGES:\nintro sentence\n- real change\nnot a bullet\n* another"
	assert.Equal(t, []string{"real change", "another"}, extractChanges(resp))
}

func TestExtractChangesMissingMarker(t *testing.T) {
	assert.Nil(t, extractChanges("ANALYSIS: nothing else"))
}

func TestLastFencedBlockNeedsCompletePair(t *testing.T) {
	assert.Equal(t, "", lastFencedBlock("```\nunclosed"))
	assert.Equal(t, "inner", lastFencedBlock("before ```\ninner\n``` after"))
}
