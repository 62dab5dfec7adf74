package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider abstracts an LLM completion backend (OpenAI, Anthropic, ...).
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
	Name() string
}

// Completer is the single-call completion port consumed by the batch runner
// and the mutation proposer.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is one prompt sent for completion. Zero-valued Model,
// Temperature and MaxTokens fall back to the gateway defaults.
type CompletionRequest struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// CompletionResponse is the output of a completion call.
type CompletionResponse struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used"`
	LatencyMs  int64  `json:"latency_ms"`
	Model      string `json:"model"`
}

// CallError wraps a provider failure and carries the elapsed latency of the
// failed call.
type CallError struct {
	Provider  string
	LatencyMs int64
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Latency extracts the elapsed milliseconds from a failed completion call,
// or 0 if err does not carry one.
func Latency(err error) int64 {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.LatencyMs
	}
	return 0
}
