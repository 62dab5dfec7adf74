// Package workflow drives one refinement cycle for a session: run a batch,
// collect human feedback, propose a mutation, record the accept or reject
// decision as a new version, and compare versions side by side.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anishgoyal/promptforge/internal/compare"
	"github.com/anishgoyal/promptforge/internal/input"
	"github.com/anishgoyal/promptforge/internal/judge"
	"github.com/anishgoyal/promptforge/internal/llm"
	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/internal/refine"
	"github.com/anishgoyal/promptforge/internal/run"
	"github.com/anishgoyal/promptforge/internal/session"
	"github.com/anishgoyal/promptforge/internal/telemetry"
	"github.com/anishgoyal/promptforge/internal/version"
)

type Workflow struct {
	sessions *session.Store
	inputs   *input.Store
	versions *version.Store
	results  *run.Store
	gateway  *llm.Gateway
	tracer   telemetry.Tracer // optional
	judge    *judge.Judge     // optional

	reflectionModel string
}

func New(sessions *session.Store, inputs *input.Store, versions *version.Store, results *run.Store,
	gateway *llm.Gateway, tracer telemetry.Tracer, jd *judge.Judge, reflectionModel string) *Workflow {
	return &Workflow{
		sessions:        sessions,
		inputs:          inputs,
		versions:        versions,
		results:         results,
		gateway:         gateway,
		tracer:          tracer,
		judge:           jd,
		reflectionModel: reflectionModel,
	}
}

// Start creates a session together with its version 1, which is accepted
// immediately so the session always has a current version.
func (w *Workflow) Start(ctx context.Context, req session.CreateRequest, initialPrompt string) (*models.Session, *models.PromptVersion, error) {
	sess, err := w.sessions.Create(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	v, err := w.versions.Create(ctx, version.CreateRequest{
		SessionID:  sess.ID,
		PromptText: initialPrompt,
		Status:     models.VersionAccepted,
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, v, nil
}

// RunBatch executes the version over the session's next unprocessed inputs.
// A zero limit falls back to the session's configured batch size.
func (w *Workflow) RunBatch(ctx context.Context, sessionID, versionID uuid.UUID, limit int, onProgress run.ProgressFunc) ([]models.RunResult, error) {
	sess, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if limit <= 0 {
		limit = sess.BatchSize
	}

	batch, err := w.inputs.Unprocessed(ctx, sessionID, versionID, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(batch))
	for i, in := range batch {
		ids[i] = in.ID
	}

	results, err := w.runner(sess).RunBatch(ctx, versionID, ids, onProgress)
	if err != nil {
		return results, err
	}
	w.sessions.Touch(ctx, sessionID)
	return results, nil
}

// Rerun executes one result's input again on the same version, appending a
// fresh result row. The old row stays.
func (w *Workflow) Rerun(ctx context.Context, resultID uuid.UUID) (*models.RunResult, error) {
	res, err := w.results.Get(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("result %s not found", resultID)
	}

	v, err := w.versions.Get(ctx, res.PromptVersionID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("prompt version %s not found", res.PromptVersionID)
	}

	sess, err := w.sessions.Get(ctx, v.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s not found", v.SessionID)
	}

	return w.runner(sess).RunSingle(ctx, v.ID, res.InputID)
}

// Propose builds a mutation proposal from the human feedback recorded on the
// current version's results. Nothing is persisted; the proposal waits for
// Accept or Reject.
func (w *Workflow) Propose(ctx context.Context, sessionID uuid.UUID) (*refine.Proposal, *models.PromptVersion, error) {
	sess, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, fmt.Errorf("session %s not found", sessionID)
	}

	current, err := w.versions.GetCurrent(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if current == nil {
		return nil, nil, fmt.Errorf("session %s has no accepted version", sessionID)
	}

	batch, err := w.feedbackBatch(ctx, current.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(batch) == 0 {
		return nil, nil, fmt.Errorf("no reviewed results on version %d", current.VersionNumber)
	}

	proposer := refine.NewProposer(w.gateway, current.PromptText, sess.TaskDescription,
		w.principles(ctx, sessionID), w.reflectionModel)

	proposal, err := proposer.Propose(ctx, batch)
	if err != nil {
		return nil, nil, err
	}
	return proposal, current, nil
}

// Accept persists the proposal as an accepted child of the parent version,
// making it the session's new current prompt.
func (w *Workflow) Accept(ctx context.Context, parent *models.PromptVersion, proposal *refine.Proposal) (*models.PromptVersion, error) {
	return w.record(ctx, parent, proposal, models.VersionAccepted)
}

// Reject persists the proposal as a rejected child for lineage. The current
// version does not change.
func (w *Workflow) Reject(ctx context.Context, parent *models.PromptVersion, proposal *refine.Proposal) (*models.PromptVersion, error) {
	return w.record(ctx, parent, proposal, models.VersionRejected)
}

func (w *Workflow) record(ctx context.Context, parent *models.PromptVersion, proposal *refine.Proposal, status string) (*models.PromptVersion, error) {
	explanation := proposal.Explanation
	v, err := w.versions.Create(ctx, version.CreateRequest{
		SessionID:           parent.SessionID,
		PromptText:          proposal.NewPrompt,
		ParentVersionID:     &parent.ID,
		MutationExplanation: &explanation,
		Status:              status,
	})
	if err != nil {
		return nil, err
	}
	w.sessions.Touch(ctx, parent.SessionID)
	return v, nil
}

// Compare runs the two versions' results side by side over every input of the
// session, backfilling the new version where needed.
func (w *Workflow) Compare(ctx context.Context, sessionID, oldVersionID, newVersionID uuid.UUID, onProgress run.ProgressFunc) ([]compare.Row, compare.Summary, error) {
	sess, err := w.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, compare.Summary{}, err
	}
	if sess == nil {
		return nil, compare.Summary{}, fmt.Errorf("session %s not found", sessionID)
	}

	inputs, err := w.inputs.List(ctx, sessionID, 0, 0)
	if err != nil {
		return nil, compare.Summary{}, err
	}
	ids := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.ID
	}

	engine := compare.NewEngine(w.results, w.results, w.runner(sess), w.inputs)
	rows, err := engine.Prepare(ctx, oldVersionID, newVersionID, ids, onProgress)
	if err != nil {
		return nil, compare.Summary{}, err
	}
	return rows, compare.Summarize(rows), nil
}

func (w *Workflow) runner(sess *models.Session) *run.Runner {
	return run.NewRunner(w.versions, w.inputs, w.results, w.gateway, w.tracer, run.Options{
		Provider:    sess.ModelProvider,
		Model:       sess.ModelName,
		Temperature: sess.ModelTemperature,
	})
}

// feedbackBatch turns the version's reviewed results into reflection input,
// pairing each result with its source content.
func (w *Workflow) feedbackBatch(ctx context.Context, versionID uuid.UUID) ([]refine.FeedbackItem, error) {
	results, err := w.results.ForVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	var batch []refine.FeedbackItem
	for _, res := range results {
		if res.HumanFeedback == nil {
			continue
		}
		in, err := w.inputs.Get(ctx, res.InputID)
		if err != nil {
			return nil, err
		}
		item := refine.FeedbackItem{
			Output:     res.Output,
			IsGood:     *res.HumanFeedback == models.FeedbackGood,
			Reason:     res.FeedbackReason,
			Correction: res.HumanCorrection,
		}
		if in != nil {
			item.InputContent = in.Content
		}
		batch = append(batch, item)
	}
	return batch, nil
}

// principles asks the judge for distilled guidance; failures degrade to none.
func (w *Workflow) principles(ctx context.Context, sessionID uuid.UUID) string {
	if w.judge == nil {
		return ""
	}
	result, err := w.judge.Align(ctx, sessionID)
	if err != nil {
		slog.Debug("judge alignment skipped", "session_id", sessionID, "error", err)
		return ""
	}
	return result.Principles
}
