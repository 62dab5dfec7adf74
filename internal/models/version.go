package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VersionProposed = "proposed"
	VersionAccepted = "accepted"
	VersionRejected = "rejected"
)

// InputToken is the reserved literal in a prompt template that marks where
// per-item input content is substituted. One occurrence per template.
const InputToken = "{input}"

// PromptVersion is one immutable text of the prompt template plus its lineage
// metadata. ParentVersionID forms a tree: both the accept and reject paths
// spawn a child from the same parent.
type PromptVersion struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	SessionID           uuid.UUID  `json:"session_id" db:"session_id"`
	VersionNumber       int        `json:"version_number" db:"version_number"`
	PromptText          string     `json:"prompt_text" db:"prompt_text"`
	ParentVersionID     *uuid.UUID `json:"parent_version_id,omitempty" db:"parent_version_id"`
	MutationExplanation *string    `json:"mutation_explanation,omitempty" db:"mutation_explanation"`
	Status              string     `json:"status" db:"status"`
	ParetoRank          *int       `json:"pareto_rank,omitempty" db:"pareto_rank"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}
