package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/anishgoyal/promptforge/internal/cache"
	"github.com/anishgoyal/promptforge/internal/compare"
	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/internal/queue"
	"github.com/anishgoyal/promptforge/internal/workflow"
)

type CompareHandler struct {
	wf      *workflow.Workflow
	writer  compare.ComparisonWriter
	queue   *queue.Client
	tracker *cache.ProgressTracker
}

func NewCompareHandler(wf *workflow.Workflow, writer compare.ComparisonWriter, qc *queue.Client, tracker *cache.ProgressTracker) *CompareHandler {
	return &CompareHandler{wf: wf, writer: writer, queue: qc, tracker: tracker}
}

type compareRequest struct {
	OldVersionID uuid.UUID `json:"old_version_id"`
	NewVersionID uuid.UUID `json:"new_version_id"`
	// Async enqueues the backfill of the new version's missing results
	// instead of running it inline.
	Async bool `json:"async"`
}

// Prepare returns paired rows for the two versions plus a verdict summary,
// backfilling the new version's missing results first.
func (h *CompareHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldVersionID == uuid.Nil || req.NewVersionID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "old_version_id and new_version_id required")
		return
	}

	if req.Async {
		jobID := uuid.NewString()
		err := h.queue.EnqueueCompareRun(queue.CompareRunPayload{
			JobID:        jobID,
			SessionID:    sessionID.String(),
			OldVersionID: req.OldVersionID.String(),
			NewVersionID: req.NewVersionID.String(),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.tracker.Publish(r.Context(), cache.Progress{JobID: jobID, State: cache.JobQueued})
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
		return
	}

	rows, summary, err := h.wf.Compare(r.Context(), sessionID, req.OldVersionID, req.NewVersionID, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": rows, "summary": summary})
}

type verdictRequest struct {
	Verdict string `json:"verdict"`
}

// Judge records the human verdict on one comparison row, keyed by the new
// version's result.
func (h *CompareHandler) Judge(w http.ResponseWriter, r *http.Request) {
	resultID, ok := urlID(w, r, "resultID")
	if !ok {
		return
	}

	var req verdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Verdict {
	case models.ComparisonBetter, models.ComparisonWorse, models.ComparisonSame:
	default:
		writeError(w, http.StatusBadRequest, `verdict must be "better", "worse" or "same"`)
		return
	}

	result, err := h.writer.UpdateComparison(r.Context(), resultID, req.Verdict)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
