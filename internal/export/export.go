// Package export renders a session's refinement history for use outside the
// service.
package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/anishgoyal/promptforge/internal/input"
	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/internal/run"
	"github.com/anishgoyal/promptforge/internal/session"
	"github.com/anishgoyal/promptforge/internal/version"
)

// PromptMarkdown renders one version's prompt with its session metadata.
func PromptMarkdown(sess *models.Session, v *models.PromptVersion) string {
	return fmt.Sprintf(`# %s - v%d

## Prompt

`+"```"+`
%s
`+"```"+`

## Metadata
- Task: %s
- Version: %d
- Created: %s
- Model: %s
- Provider: %s
- Temperature: %g
`,
		sess.Name, v.VersionNumber,
		v.PromptText,
		sess.TaskDescription,
		v.VersionNumber,
		v.CreatedAt.Format("2006-01-02"),
		sess.ModelName,
		sess.ModelProvider,
		sess.ModelTemperature,
	)
}

// SessionExport is the full JSON dump of one session.
type SessionExport struct {
	Session  *models.Session        `json:"session"`
	Versions []models.PromptVersion `json:"versions"`
	Inputs   []models.Input         `json:"inputs"`
	Results  []models.RunResult     `json:"results"`
}

type Exporter struct {
	sessions *session.Store
	inputs   *input.Store
	versions *version.Store
	results  *run.Store
}

func NewExporter(sessions *session.Store, inputs *input.Store, versions *version.Store, results *run.Store) *Exporter {
	return &Exporter{sessions: sessions, inputs: inputs, versions: versions, results: results}
}

// SessionJSON exports a session with its whole lineage, inputs and results.
func (e *Exporter) SessionJSON(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}

	versions, err := e.versions.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	inputs, err := e.inputs.List(ctx, sessionID, 0, 0)
	if err != nil {
		return nil, err
	}

	var results []models.RunResult
	for _, v := range versions {
		rs, err := e.results.ForVersion(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, rs...)
	}

	out := SessionExport{
		Session:  sess,
		Versions: versions,
		Inputs:   inputs,
		Results:  results,
	}
	return json.MarshalIndent(out, "", "  ")
}
