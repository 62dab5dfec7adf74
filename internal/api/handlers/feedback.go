package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anishgoyal/promptforge/internal/cache"
	"github.com/anishgoyal/promptforge/internal/feedback"
	"github.com/anishgoyal/promptforge/internal/models"
)

const summaryTTL = 30 * time.Second

type FeedbackHandler struct {
	store *feedback.Store
	cache *cache.Cache // optional
}

func NewFeedbackHandler(store *feedback.Store, c *cache.Cache) *FeedbackHandler {
	return &FeedbackHandler{store: store, cache: c}
}

type feedbackRequest struct {
	HumanFeedback string  `json:"human_feedback"`
	Reason        *string `json:"reason,omitempty"`
	Correction    *string `json:"correction,omitempty"`
}

// Update overwrites the result's feedback fields and invalidates the cached
// summary of its version.
func (h *FeedbackHandler) Update(w http.ResponseWriter, r *http.Request) {
	resultID, ok := urlID(w, r, "resultID")
	if !ok {
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HumanFeedback != models.FeedbackGood && req.HumanFeedback != models.FeedbackBad {
		writeError(w, http.StatusBadRequest, `human_feedback must be "good" or "bad"`)
		return
	}

	result, err := h.store.Update(r.Context(), resultID, req.HumanFeedback, req.Reason, req.Correction)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}

	if h.cache != nil {
		key := summaryKey(result.PromptVersionID.String())
		if err := h.cache.Delete(r.Context(), key); err != nil {
			slog.Debug("summary invalidation failed", "key", key, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// Summary serves the per-version judgment counts, cached briefly since the
// review UI polls it.
func (h *FeedbackHandler) Summary(w http.ResponseWriter, r *http.Request) {
	versionID, ok := urlID(w, r, "versionID")
	if !ok {
		return
	}
	key := summaryKey(versionID.String())

	if h.cache != nil {
		var cached feedback.Summary
		err := h.cache.Get(r.Context(), key, &cached)
		if err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Debug("summary cache read failed", "key", key, "error", err)
		}
	}

	sum, err := h.store.Summary(r.Context(), versionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), key, sum, summaryTTL); err != nil {
			slog.Debug("summary cache write failed", "key", key, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, sum)
}

func summaryKey(versionID string) string {
	return "feedback:summary:" + versionID
}
