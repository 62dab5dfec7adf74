package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionArchived  = "archived"
)

// Session is one prompt refinement project: a task, a model choice, and the
// inputs/versions/results that accumulate under it.
type Session struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	TaskDescription   string    `json:"task_description" db:"task_description"`
	OutputDescription string    `json:"output_description,omitempty" db:"output_description"`
	ModelProvider     string    `json:"model_provider" db:"model_provider"`
	ModelName         string    `json:"model_name" db:"model_name"`
	ModelTemperature  float64   `json:"model_temperature" db:"model_temperature"`
	BatchSize         int       `json:"batch_size" db:"batch_size"`
	Status            string    `json:"status" db:"status"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
