package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/anishgoyal/promptforge/internal/cache"
	"github.com/anishgoyal/promptforge/internal/queue"
	"github.com/anishgoyal/promptforge/internal/workflow"
)

// CompareWorker backfills the new version's results for a queued comparison.
// The comparison itself is read on demand; this job only fills the gaps.
type CompareWorker struct {
	wf      *workflow.Workflow
	tracker *cache.ProgressTracker
}

func NewCompareWorker(wf *workflow.Workflow, tracker *cache.ProgressTracker) *CompareWorker {
	return &CompareWorker{wf: wf, tracker: tracker}
}

func (w *CompareWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.CompareRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}
	oldID, err := uuid.Parse(payload.OldVersionID)
	if err != nil {
		return fmt.Errorf("parse old version id: %w", err)
	}
	newID, err := uuid.Parse(payload.NewVersionID)
	if err != nil {
		return fmt.Errorf("parse new version id: %w", err)
	}

	w.tracker.Publish(ctx, cache.Progress{JobID: payload.JobID, State: cache.JobRunning})

	onProgress := func(completed, total int) {
		w.tracker.Publish(ctx, cache.Progress{
			JobID:     payload.JobID,
			State:     cache.JobRunning,
			Completed: completed,
			Total:     total,
		})
	}

	rows, summary, err := w.wf.Compare(ctx, sessionID, oldID, newID, onProgress)
	if err != nil {
		w.tracker.Publish(ctx, cache.Progress{
			JobID: payload.JobID,
			State: cache.JobFailed,
			Error: err.Error(),
		})
		return fmt.Errorf("compare run: %w", err)
	}

	w.tracker.Publish(ctx, cache.Progress{
		JobID:     payload.JobID,
		State:     cache.JobCompleted,
		Completed: len(rows),
		Total:     len(rows),
	})
	slog.Info("comparison prepared", "job_id", payload.JobID,
		"rows", len(rows), "pending", summary.Pending)
	return nil
}

var _ asynq.Handler = (*CompareWorker)(nil)
