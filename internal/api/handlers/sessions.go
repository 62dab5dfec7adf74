package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anishgoyal/promptforge/internal/export"
	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/internal/session"
	"github.com/anishgoyal/promptforge/internal/workflow"
)

type SessionHandler struct {
	sessions *session.Store
	wf       *workflow.Workflow
	exporter *export.Exporter
}

func NewSessionHandler(sessions *session.Store, wf *workflow.Workflow, exporter *export.Exporter) *SessionHandler {
	return &SessionHandler{sessions: sessions, wf: wf, exporter: exporter}
}

type createSessionRequest struct {
	session.CreateRequest
	InitialPrompt string `json:"initial_prompt"`
}

// Create starts a session with its version 1 already accepted.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.InitialPrompt == "" {
		writeError(w, http.StatusBadRequest, "initial_prompt required")
		return
	}

	sess, v, err := h.wf.Start(r.Context(), req.CreateRequest, req.InitialPrompt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session":         sess,
		"current_version": v,
	})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.sessions.List(r.Context(), status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions, "count": len(sessions)})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *SessionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "status required")
		return
	}
	switch req.Status {
	case models.SessionActive, models.SessionCompleted, models.SessionArchived:
	default:
		writeError(w, http.StatusBadRequest, `status must be "active", "completed" or "archived"`)
		return
	}

	if err := h.sessions.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export streams the session's full history as a JSON attachment.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	data, err := h.exporter.SessionJSON(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.json"`, id))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
