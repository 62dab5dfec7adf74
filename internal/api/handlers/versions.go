package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anishgoyal/promptforge/internal/export"
	"github.com/anishgoyal/promptforge/internal/models"
	"github.com/anishgoyal/promptforge/internal/session"
	"github.com/anishgoyal/promptforge/internal/version"
)

type VersionHandler struct {
	versions *version.Store
	sessions *session.Store
}

func NewVersionHandler(versions *version.Store, sessions *session.Store) *VersionHandler {
	return &VersionHandler{versions: versions, sessions: sessions}
}

// History lists the session's full lineage in version order.
func (h *VersionHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	versions, err := h.versions.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"versions": versions, "count": len(versions)})
}

// Current returns the accepted version with the highest number.
func (h *VersionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	v, err := h.versions.GetCurrent(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "no accepted version")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Latest returns the highest-numbered version regardless of status, which is
// the pending proposal when one exists.
func (h *VersionHandler) Latest(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	v, err := h.versions.GetLatest(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "session has no versions")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "versionID")
	if !ok {
		return
	}

	v, err := h.versions.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "version not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateStatus sets the version status without validating the transition.
func (h *VersionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "versionID")
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
	case models.VersionProposed, models.VersionAccepted, models.VersionRejected:
	default:
		writeError(w, http.StatusBadRequest, `status must be "proposed", "accepted" or "rejected"`)
		return
	}

	v, err := h.versions.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "version not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Diff returns the structured line diff between two versions of a session.
func (h *VersionHandler) Diff(w http.ResponseWriter, r *http.Request) {
	oldID, ok := urlID(w, r, "oldID")
	if !ok {
		return
	}
	newID, ok := urlID(w, r, "newID")
	if !ok {
		return
	}

	lines, err := h.versions.Diff(r.Context(), oldID, newID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lines": lines})
}

// Export renders one version's prompt as a downloadable markdown file.
func (h *VersionHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "versionID")
	if !ok {
		return
	}

	v, err := h.versions.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "version not found")
		return
	}

	sess, err := h.sessions.Get(r.Context(), v.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	md := export.PromptMarkdown(sess, v)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="prompt-v%d.md"`, v.VersionNumber))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(md))
}
