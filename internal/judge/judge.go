// Package judge is the optional alignment collaborator: it distills
// principles from accumulated human feedback and offers auto-suggestions for
// unreviewed outputs. Nothing in the refinement cycle depends on it
// succeeding.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/anishgoyal/promptforge/internal/llm"
	"github.com/anishgoyal/promptforge/internal/telemetry"
)

// AssessmentSource feeds past human judgments into alignment.
type AssessmentSource interface {
	Assessments(ctx context.Context, sessionID uuid.UUID) ([]telemetry.AssessedTrace, error)
}

// Completer + Embedder is what the judge needs from the LLM layer.
type Gateway interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// AlignmentResult is what alignment distilled from the feedback history.
type AlignmentResult struct {
	Principles string `json:"principles"`
	TraceCount int    `json:"trace_count"`
}

// Suggestion is the judge's verdict on one (input, output) pair.
type Suggestion struct {
	IsGood    bool   `json:"is_good"`
	Rationale string `json:"rationale"`
}

type Judge struct {
	gateway        Gateway
	assessments    AssessmentSource
	examples       *ExampleStore
	model          string
	embeddingModel string
	retrievalK     int
}

func NewJudge(gateway Gateway, assessments AssessmentSource, examples *ExampleStore, model, embeddingModel string, retrievalK int) *Judge {
	if model == "" {
		model = "gpt-4o"
	}
	if retrievalK <= 0 {
		retrievalK = 3
	}
	return &Judge{
		gateway:        gateway,
		assessments:    assessments,
		examples:       examples,
		model:          model,
		embeddingModel: embeddingModel,
		retrievalK:     retrievalK,
	}
}

// Align distills semantic principles from all accumulated feedback of a
// session with a single LLM call, and refreshes the episodic example store
// used by Suggest. No feedback yet means empty principles, not an error.
func (j *Judge) Align(ctx context.Context, sessionID uuid.UUID) (*AlignmentResult, error) {
	traces, err := j.assessments.Assessments(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load assessments: %w", err)
	}
	if len(traces) == 0 {
		return &AlignmentResult{Principles: "", TraceCount: 0}, nil
	}

	var b strings.Builder
	b.WriteString("You are calibrating an output-quality judge. Below are human judgments on LLM outputs for one task.\n\n")
	for i, t := range traces {
		verdict := "GOOD"
		if !t.IsGood {
			verdict = "BAD"
		}
		fmt.Fprintf(&b, "%d. [%s] Input: %q Output: %q", i+1, verdict, t.Input, t.Output)
		if t.Rationale != nil && *t.Rationale != "" {
			fmt.Fprintf(&b, " Reason: %q", *t.Rationale)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nDistill the judgments into a short list of general principles describing what makes an output good or bad for this task. Respond with bullet points only.")

	resp, err := j.gateway.Complete(ctx, llm.CompletionRequest{
		Model:  j.model,
		Prompt: b.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("distill principles: %w", err)
	}

	j.memorize(ctx, sessionID, traces)

	return &AlignmentResult{
		Principles: strings.TrimSpace(resp.Text),
		TraceCount: len(traces),
	}, nil
}

// Suggest judges one output, grounding the verdict in the k most similar
// judged examples from the session's episodic memory. Returns nil when the
// judge cannot produce a usable verdict.
func (j *Judge) Suggest(ctx context.Context, sessionID uuid.UUID, input, output string) (*Suggestion, error) {
	var examples []Example
	if j.examples != nil {
		vecs, err := j.gateway.Embed(ctx, j.embeddingModel, []string{input})
		if err == nil && len(vecs) == 1 {
			examples, err = j.examples.Nearest(ctx, sessionID, vecs[0], j.retrievalK)
			if err != nil {
				slog.Debug("episodic retrieval failed", "session_id", sessionID, "error", err)
			}
		}
	}

	var b strings.Builder
	b.WriteString("Evaluate whether the LLM output is good or bad based on the task requirements and input context.\n")
	if len(examples) > 0 {
		b.WriteString("\nPast human judgments on similar inputs:\n")
		for _, ex := range examples {
			verdict := "GOOD"
			if !ex.IsGood {
				verdict = "BAD"
			}
			fmt.Fprintf(&b, "- [%s] Input: %q Output: %q\n", verdict, ex.Input, ex.Output)
		}
	}
	fmt.Fprintf(&b, "\nInput: %q\nOutput: %q\n\n", input, output)
	b.WriteString(`Reply with ONLY a JSON object: {"is_good": true or false, "rationale": "brief explanation"}`)

	resp, err := j.gateway.Complete(ctx, llm.CompletionRequest{
		Model:  j.model,
		Prompt: b.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("judge suggest: %w", err)
	}

	suggestion, err := parseSuggestion(resp.Text)
	if err != nil {
		return nil, nil
	}
	return suggestion, nil
}

// memorize is best-effort: embedding or storage failures only cost future
// retrieval quality.
func (j *Judge) memorize(ctx context.Context, sessionID uuid.UUID, traces []telemetry.AssessedTrace) {
	if j.examples == nil {
		return
	}

	texts := make([]string, len(traces))
	for i, t := range traces {
		texts[i] = t.Input
	}

	vecs, err := j.gateway.Embed(ctx, j.embeddingModel, texts)
	if err != nil || len(vecs) != len(traces) {
		slog.Debug("episodic embedding failed", "session_id", sessionID, "error", err)
		return
	}

	for i, t := range traces {
		ex := Example{
			Input:     t.Input,
			Output:    t.Output,
			IsGood:    t.IsGood,
			Rationale: t.Rationale,
		}
		if err := j.examples.Upsert(ctx, sessionID, ex, vecs[i]); err != nil {
			slog.Debug("episodic store failed", "session_id", sessionID, "error", err)
		}
	}
}

// parseSuggestion tolerates fenced or prefixed JSON the way models tend to
// respond.
func parseSuggestion(text string) (*Suggestion, error) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "{"); i >= 0 {
		if end := strings.LastIndex(text, "}"); end > i {
			text = text[i : end+1]
		}
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, fmt.Errorf("parse suggestion: %w", err)
	}
	return &s, nil
}
