// Package telemetry records prompt-execution traces and the human judgments
// attached to them. It is a best-effort side channel: callers always discard
// its errors.
package telemetry

import (
	"context"

	"github.com/google/uuid"
)

// RunTrace captures one input -> prompt -> output execution.
type RunTrace struct {
	Input           string
	Prompt          string
	Output          string
	Model           string
	PromptVersionID uuid.UUID
	RunResultID     uuid.UUID
}

// Tracer is the optional telemetry collaborator. Implementations must be safe
// to call from the batch loop; failures are the caller's to swallow.
type Tracer interface {
	LogRunTrace(ctx context.Context, t RunTrace) (uuid.UUID, error)
	LogFeedback(ctx context.Context, traceID uuid.UUID, isGood bool, reason, correction *string) error
}
