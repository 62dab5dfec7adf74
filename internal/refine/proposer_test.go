package refine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishgoyal/promptforge/internal/llm"
)

type fakeCompleter struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.response, TokensUsed: 42, LatencyMs: 5}, nil
}

func TestProposeParsesReflection(t *testing.T) {
	fc := &fakeCompleter{response: "ANALYSIS:\nweak\n\nCHANGES:\n- be stricter\n\nNEW PROMPT:\n\"\"\"\nimproved\n\"\"\""}
	p := NewProposer(fc, "initial", "summarize things", "", "reflector-model")

	proposal, err := p.Propose(context.Background(), []FeedbackItem{
		{InputContent: "x", Output: "y", IsGood: false},
	})
	require.NoError(t, err)

	assert.Equal(t, "improved", proposal.NewPrompt)
	assert.Equal(t, "be stricter", proposal.Explanation)
	assert.Equal(t, []string{"be stricter"}, proposal.Changes)
	assert.False(t, proposal.UsedFallback)
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, "reflector-model", fc.lastReq.Model)
}

func TestProposeBuildsReflectionPrompt(t *testing.T) {
	fc := &fakeCompleter{response: "NEW PROMPT:\nnext"}
	p := NewProposer(fc, "current prompt text", "the task", "always cite sources", "m")

	_, err := p.Propose(context.Background(), []FeedbackItem{{InputContent: "i", Output: "o", IsGood: true}})
	require.NoError(t, err)

	sent := fc.lastReq.Prompt
	assert.Contains(t, sent, "TASK DESCRIPTION:\nthe task")
	assert.Contains(t, sent, "CURRENT PROMPT:\n\"\"\"\ncurrent prompt text\n\"\"\"")
	assert.Contains(t, sent, "HUMAN FEEDBACK ON RECENT OUTPUTS:")
	assert.Contains(t, sent, "ACCUMULATED PRINCIPLES (distilled from past feedback):\nalways cite sources")
	assert.Contains(t, sent, "NEW PROMPT:")
}

func TestProposeOmitsPrinciplesSectionWhenEmpty(t *testing.T) {
	fc := &fakeCompleter{response: "NEW PROMPT:\nnext"}
	p := NewProposer(fc, "cp", "task", "", "m")

	_, err := p.Propose(context.Background(), []FeedbackItem{{IsGood: false}})
	require.NoError(t, err)
	assert.NotContains(t, fc.lastReq.Prompt, "ACCUMULATED PRINCIPLES")
}

func TestProposeCompletionErrorPropagates(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("rate limited")}
	p := NewProposer(fc, "cp", "task", "", "m")

	_, err := p.Propose(context.Background(), []FeedbackItem{{IsGood: false}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reflection call")
	// State untouched on failure.
	assert.Equal(t, "cp", p.CurrentPrompt())
	assert.Equal(t, 0, p.IterationCount())
}

func TestAcceptAdvancesState(t *testing.T) {
	p := NewProposer(&fakeCompleter{}, "v1", "task", "", "m")

	p.Accept(&Proposal{NewPrompt: "v2"})

	assert.Equal(t, "v2", p.CurrentPrompt())
	assert.Equal(t, 1, p.IterationCount())
	assert.Equal(t, []string{"v1", "v2"}, p.History())
}

func TestRejectKeepsState(t *testing.T) {
	p := NewProposer(&fakeCompleter{}, "v1", "task", "", "m")

	p.Reject(&Proposal{NewPrompt: "v2"})

	assert.Equal(t, "v1", p.CurrentPrompt())
	assert.Equal(t, 0, p.IterationCount())
	assert.Equal(t, []string{"v1"}, p.History())
}

func TestSynthesizeExplanation(t *testing.T) {
	tests := []struct {
		name    string
		changes []string
		want    string
	}{
		{"none", nil, "Made 0 changes to address feedback issues."},
		{"one", []string{"a"}, "a"},
		{"three", []string{"a", "b", "c"}, "a; b; c"},
		{"five", []string{"a", "b", "c", "d", "e"}, "a; b; c; and 2 more changes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, synthesizeExplanation(tt.changes))
		})
	}
}
