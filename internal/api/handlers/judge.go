package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/anishgoyal/promptforge/internal/judge"
	"github.com/anishgoyal/promptforge/internal/queue"
)

type JudgeHandler struct {
	judge *judge.Judge
	queue *queue.Client
}

func NewJudgeHandler(j *judge.Judge, qc *queue.Client) *JudgeHandler {
	return &JudgeHandler{judge: j, queue: qc}
}

// Align distills principles from the session's assessed traces. With async
// set the work moves to the queue and the endpoint returns immediately.
func (h *JudgeHandler) Align(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Async bool `json:"async"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if req.Async {
		err := h.queue.EnqueueJudgeAlign(queue.JudgeAlignPayload{SessionID: sessionID.String()})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	result, err := h.judge.Align(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type suggestRequest struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Suggest asks the judge for a provisional verdict on one (input, output)
// pair. A null body means the judge could not produce a confident verdict.
func (h *JudgeHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Input == "" || req.Output == "" {
		writeError(w, http.StatusBadRequest, "input and output required")
		return
	}

	suggestion, err := h.judge.Suggest(r.Context(), sessionID, req.Input, req.Output)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestion": suggestion})
}
