package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/anishgoyal/promptforge/internal/refine"
	"github.com/anishgoyal/promptforge/internal/version"
	"github.com/anishgoyal/promptforge/internal/workflow"
)

type RefineHandler struct {
	wf       *workflow.Workflow
	versions *version.Store
}

func NewRefineHandler(wf *workflow.Workflow, versions *version.Store) *RefineHandler {
	return &RefineHandler{wf: wf, versions: versions}
}

// Propose reflects over the current version's reviewed results and returns a
// mutation proposal. Nothing is persisted until the decision endpoint.
func (h *RefineHandler) Propose(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	proposal, parent, err := h.wf.Propose(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"proposal":          proposal,
		"parent_version_id": parent.ID,
	})
}

type decisionRequest struct {
	ParentVersionID uuid.UUID        `json:"parent_version_id"`
	Proposal        *refine.Proposal `json:"proposal"`
}

// Accept records the proposal as an accepted child version; it becomes the
// session's current prompt.
func (h *RefineHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// Reject records the proposal as a rejected child version for lineage. The
// current prompt does not change.
func (h *RefineHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *RefineHandler) decide(w http.ResponseWriter, r *http.Request, accept bool) {
	if _, ok := urlID(w, r, "id"); !ok {
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Proposal == nil || req.Proposal.NewPrompt == "" {
		writeError(w, http.StatusBadRequest, "proposal required")
		return
	}

	parent, err := h.versions.Get(r.Context(), req.ParentVersionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if parent == nil {
		writeError(w, http.StatusNotFound, "parent version not found")
		return
	}

	decideFn := h.wf.Reject
	if accept {
		decideFn = h.wf.Accept
	}

	v, err := decideFn(r.Context(), parent, req.Proposal)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, v)
}
