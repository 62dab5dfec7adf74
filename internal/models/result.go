package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	FeedbackGood = "good"
	FeedbackBad  = "bad"
)

const (
	ComparisonBetter = "better"
	ComparisonWorse  = "worse"
	ComparisonSame   = "same"
)

// RunResult records the output of executing one prompt version on one input,
// plus any human judgment attached afterwards. Failed completions are stored
// too, with an "Error: ..." output and zero cost fields.
type RunResult struct {
	ID              uuid.UUID `json:"id" db:"id"`
	InputID         uuid.UUID `json:"input_id" db:"input_id"`
	PromptVersionID uuid.UUID `json:"prompt_version_id" db:"prompt_version_id"`
	Output          string    `json:"output" db:"output"`
	LatencyMs       int64     `json:"latency_ms" db:"latency_ms"`
	TokensUsed      int       `json:"tokens_used" db:"tokens_used"`
	HumanFeedback   *string   `json:"human_feedback,omitempty" db:"human_feedback"`
	FeedbackReason  *string   `json:"feedback_reason,omitempty" db:"feedback_reason"`
	HumanCorrection *string   `json:"human_correction,omitempty" db:"human_correction"`
	// ComparisonResult is set only on results of the newer version during a
	// two-version comparison.
	ComparisonResult *string    `json:"comparison_result,omitempty" db:"comparison_result"`
	TraceID          *uuid.UUID `json:"trace_id,omitempty" db:"trace_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// Failed reports whether the result was recorded for a failed completion call.
func (r *RunResult) Failed() bool {
	return len(r.Output) >= 6 && r.Output[:6] == "Error:"
}
