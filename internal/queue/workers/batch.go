// Package workers holds the asynq task handlers for background jobs.
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

// BatchWorker executes queued prompt batches and publishes progress after
// every processed input.
type BatchWorker struct {
	wf      *workflow.Workflow
	tracker *cache.ProgressTracker
}

func NewBatchWorker(wf *workflow.Workflow, tracker *cache.ProgressTracker) *BatchWorker {
	return &BatchWorker{wf: wf, tracker: tracker}
}

func (w *BatchWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.BatchRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}
	versionID, err := uuid.Parse(payload.VersionID)
	if err != nil {
		return fmt.Errorf("parse version id: %w", err)
	}

	slog.Info("batch run started", "job_id", payload.JobID, "session_id", sessionID, "version_id", versionID)

	w.tracker.Publish(ctx, cache.Progress{JobID: payload.JobID, State: cache.JobRunning})
	defer w.tracker.Unlock(ctx, payload.SessionID, payload.VersionID)

	onProgress := func(completed, total int) {
		w.tracker.Publish(ctx, cache.Progress{
			JobID:     payload.JobID,
			State:     cache.JobRunning,
			Completed: completed,
			Total:     total,
		})
	}

	results, err := w.wf.RunBatch(ctx, sessionID, versionID, payload.Limit, onProgress)
	if err != nil {
		w.tracker.Publish(ctx, cache.Progress{
			JobID:     payload.JobID,
			State:     cache.JobFailed,
			Completed: len(results),
			Error:     err.Error(),
		})
		return fmt.Errorf("run batch: %w", err)
	}

	w.tracker.Publish(ctx, cache.Progress{
		JobID:     payload.JobID,
		State:     cache.JobCompleted,
		Completed: len(results),
		Total:     len(results),
	})
	slog.Info("batch run finished", "job_id", payload.JobID, "results", len(results))
	return nil
}

var _ asynq.Handler = (*BatchWorker)(nil)

// Register wires every worker onto the mux. A nil judge worker leaves
// alignment tasks unhandled; they stay queued until a judge-enabled worker
// picks them up.
func Register(mux *asynq.ServeMux, batch *BatchWorker, compare *CompareWorker, judge *JudgeWorker) {
	mux.Handle(queue.TypeBatchRun, batch)
	mux.Handle(queue.TypeCompareRun, compare)
	if judge != nil {
		mux.Handle(queue.TypeJudgeAlign, judge)
	}
}
