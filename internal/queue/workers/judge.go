package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/anishgoyal/promptforge/internal/judge"
	"github.com/anishgoyal/promptforge/internal/queue"
)

// JudgeWorker refreshes the session's distilled principles in the background
// so proposals do not pay the alignment latency inline.
type JudgeWorker struct {
	judge *judge.Judge
}

func NewJudgeWorker(j *judge.Judge) *JudgeWorker {
	return &JudgeWorker{judge: j}
}

func (w *JudgeWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.JudgeAlignPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}

	result, err := w.judge.Align(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("judge align: %w", err)
	}

	slog.Info("judge aligned", "session_id", sessionID, "traces", result.TraceCount)
	return nil
}

var _ asynq.Handler = (*JudgeWorker)(nil)
