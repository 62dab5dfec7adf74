// Package refine turns a batch of human feedback into a proposed prompt
// mutation via a single reflection call, then parses the free-text response
// with layered fallbacks.
package refine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anishgoyal/promptforge/internal/llm"
)

// Proposal is the proposer's structured output, pending human accept/reject.
type Proposal struct {
	NewPrompt    string   `json:"new_prompt"`
	Explanation  string   `json:"explanation"`
	Analysis     string   `json:"analysis"`
	Changes      []string `json:"changes"`
	UsedFallback bool     `json:"used_fallback"`
}

// Proposer holds the refinement state for one session: the prompt being
// improved, the task it serves, and optional principles distilled by the
// judge collaborator.
type Proposer struct {
	completer             llm.Completer
	currentPrompt         string
	taskDescription       string
	accumulatedPrinciples string
	reflectionModel       string
	iterationCount        int
	// history of every prompt ever proposed, append-only. Kept for
	// auditability; nothing selects from it.
	history []string
}

func NewProposer(completer llm.Completer, initialPrompt, taskDescription, principles, reflectionModel string) *Proposer {
	return &Proposer{
		completer:             completer,
		currentPrompt:         initialPrompt,
		taskDescription:       taskDescription,
		accumulatedPrinciples: principles,
		reflectionModel:       reflectionModel,
		history:               []string{initialPrompt},
	}
}

func (p *Proposer) CurrentPrompt() string { return p.currentPrompt }
func (p *Proposer) IterationCount() int   { return p.iterationCount }
func (p *Proposer) History() []string     { return append([]string(nil), p.history...) }

// Propose sends one reflection request over the feedback batch and parses the
// response. Completion errors propagate to the caller; parse ambiguity never
// errors, it degrades. Proposer state is untouched until Accept.
func (p *Proposer) Propose(ctx context.Context, batch []FeedbackItem) (*Proposal, error) {
	feedbackText := RenderFeedback(batch)
	reflectionPrompt := p.buildReflectionPrompt(feedbackText)

	resp, err := p.completer.Complete(ctx, llm.CompletionRequest{
		Model:  p.reflectionModel,
		Prompt: reflectionPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("reflection call: %w", err)
	}

	parsed := ParseReflection(resp.Text, p.currentPrompt)

	return &Proposal{
		NewPrompt:    parsed.NewPrompt,
		Explanation:  synthesizeExplanation(parsed.Changes),
		Analysis:     parsed.Analysis,
		Changes:      parsed.Changes,
		UsedFallback: parsed.UsedFallback,
	}, nil
}

// Accept advances the current prompt to the proposal's and records it.
func (p *Proposer) Accept(proposal *Proposal) {
	p.currentPrompt = proposal.NewPrompt
	p.history = append(p.history, proposal.NewPrompt)
	p.iterationCount++
}

// Reject keeps all state as is. Present for symmetry with Accept.
func (p *Proposer) Reject(_ *Proposal) {}

func (p *Proposer) buildReflectionPrompt(feedbackText string) string {
	var b strings.Builder

	b.WriteString("You are an expert prompt engineer analyzing a prompt that needs improvement.\n\n")
	b.WriteString("TASK DESCRIPTION:\n")
	b.WriteString(p.taskDescription)
	b.WriteString("\n\nCURRENT PROMPT:\n\"\"\"\n")
	b.WriteString(p.currentPrompt)
	b.WriteString("\n\"\"\"\n\nHUMAN FEEDBACK ON RECENT OUTPUTS:\n\n")
	b.WriteString(feedbackText)
	b.WriteString("\n")

	if p.accumulatedPrinciples != "" {
		b.WriteString("\nACCUMULATED PRINCIPLES (distilled from past feedback):\n")
		b.WriteString(p.accumulatedPrinciples)
		b.WriteString("\n")
	}

	b.WriteString(`
INSTRUCTIONS:
1. Analyze the patterns in the bad outputs
2. Identify what the prompt is missing or doing wrong
3. Propose specific changes to fix the issues
4. Write the complete improved prompt

Respond in this exact format:

ANALYSIS:
[Your analysis of the failure patterns]

CHANGES:
- [Change 1]
- [Change 2]
- [Change 3]

NEW PROMPT:
"""
[The complete improved prompt]
"""
`)

	return b.String()
}

// synthesizeExplanation builds the human-readable summary: the first three
// bullets joined with "; ", an "and N more changes" tail when longer, and a
// count sentence when there are no bullets at all.
func synthesizeExplanation(changes []string) string {
	if len(changes) == 0 {
		return "Made 0 changes to address feedback issues."
	}

	head := changes
	if len(head) > 3 {
		head = head[:3]
	}
	explanation := strings.Join(head, "; ")
	if len(changes) > 3 {
		explanation += fmt.Sprintf("; and %d more changes", len(changes)-3)
	}
	return explanation
}
