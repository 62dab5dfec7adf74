package models

import (
	"time"

	"github.com/google/uuid"
)

// Trace is one recorded prompt execution (input -> LLM -> output), kept for
// audit and judge alignment. Human feedback attaches as assessments.
type Trace struct {
	ID              uuid.UUID `json:"id" db:"id"`
	PromptVersionID uuid.UUID `json:"prompt_version_id" db:"prompt_version_id"`
	RunResultID     uuid.UUID `json:"run_result_id" db:"run_result_id"`
	Input           string    `json:"input" db:"input"`
	Prompt          string    `json:"prompt" db:"prompt"`
	Output          string    `json:"output" db:"output"`
	Model           string    `json:"model" db:"model"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Assessment is a human judgment logged against a trace.
type Assessment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TraceID    uuid.UUID `json:"trace_id" db:"trace_id"`
	IsGood     bool      `json:"is_good" db:"is_good"`
	Rationale  *string   `json:"rationale,omitempty" db:"rationale"`
	SourceType string    `json:"source_type" db:"source_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
