package models

import (
	"time"

	"github.com/google/uuid"
)

// Input is a single test case the prompt is executed against.
type Input struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SessionID   uuid.UUID `json:"session_id" db:"session_id"`
	Content     string    `json:"content" db:"content"`
	GroundTruth *string   `json:"ground_truth,omitempty" db:"ground_truth"`
	Metadata    *string   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
