package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/anishgoyal/promptforge/internal/cache"
	"github.com/anishgoyal/promptforge/internal/queue"
	"github.com/anishgoyal/promptforge/internal/run"
	"github.com/anishgoyal/promptforge/internal/telemetry"
	"github.com/anishgoyal/promptforge/internal/workflow"
)

type RunHandler struct {
	wf      *workflow.Workflow
	results *run.Store
	tracer  *telemetry.PgTracer
	queue   *queue.Client
	tracker *cache.ProgressTracker
}

func NewRunHandler(wf *workflow.Workflow, results *run.Store, tracer *telemetry.PgTracer, qc *queue.Client, tracker *cache.ProgressTracker) *RunHandler {
	return &RunHandler{wf: wf, results: results, tracer: tracer, queue: qc, tracker: tracker}
}

type runRequest struct {
	VersionID uuid.UUID `json:"version_id"`
	Limit     int       `json:"limit"`
	// Async enqueues the batch instead of running it inline; the response
	// carries a job id to poll for progress.
	Async bool `json:"async"`
}

func (h *RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VersionID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "version_id required")
		return
	}

	if req.Async {
		h.enqueue(w, r, sessionID, req)
		return
	}

	results, err := h.wf.RunBatch(r.Context(), sessionID, req.VersionID, req.Limit, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results, "count": len(results)})
}

func (h *RunHandler) enqueue(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, req runRequest) {
	jobID := uuid.NewString()

	locked, err := h.tracker.Lock(r.Context(), sessionID.String(), req.VersionID.String(), jobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !locked {
		writeError(w, http.StatusConflict, "a batch is already running for this version")
		return
	}

	err = h.queue.EnqueueBatchRun(queue.BatchRunPayload{
		JobID:     jobID,
		SessionID: sessionID.String(),
		VersionID: req.VersionID.String(),
		Limit:     req.Limit,
	})
	if err != nil {
		h.tracker.Unlock(r.Context(), sessionID.String(), req.VersionID.String())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.tracker.Publish(r.Context(), cache.Progress{JobID: jobID, State: cache.JobQueued})
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// Progress reports a background job's state, 404 when unknown or expired.
func (h *RunHandler) Progress(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job_id required")
		return
	}

	p, err := h.tracker.Get(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ResultsForVersion lists a version's results oldest first. Re-run inputs
// appear once per run.
func (h *RunHandler) ResultsForVersion(w http.ResponseWriter, r *http.Request) {
	versionID, ok := urlID(w, r, "versionID")
	if !ok {
		return
	}

	results, err := h.results.ForVersion(r.Context(), versionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results, "count": len(results)})
}

// Rerun executes a result's input again on the same version and returns the
// fresh result. The original row is kept.
func (h *RunHandler) Rerun(w http.ResponseWriter, r *http.Request) {
	resultID, ok := urlID(w, r, "resultID")
	if !ok {
		return
	}

	result, err := h.wf.Rerun(r.Context(), resultID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ResultsForInput lists every run of one input across versions, oldest first.
func (h *RunHandler) ResultsForInput(w http.ResponseWriter, r *http.Request) {
	inputID, ok := urlID(w, r, "inputID")
	if !ok {
		return
	}

	results, err := h.results.ForInput(r.Context(), inputID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results, "count": len(results)})
}

func (h *RunHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "resultID")
	if !ok {
		return
	}

	result, err := h.results.Get(r.Context(), id)
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

// GetTrace returns the recorded execution trace of a result with its
// assessments. Failed results have no trace.
func (h *RunHandler) GetTrace(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "resultID")
	if !ok {
		return
	}

	result, err := h.results.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	if result.TraceID == nil {
		writeError(w, http.StatusNotFound, "result has no trace")
		return
	}

	trace, assessments, err := h.tracer.GetTrace(r.Context(), *result.TraceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if trace == nil {
		writeError(w, http.StatusNotFound, "trace not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trace":       trace,
		"assessments": assessments,
	})
}
