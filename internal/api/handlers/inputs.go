package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anishgoyal/promptforge/internal/input"
)

const maxImportSize = 25 << 20 // 25 MB

type InputHandler struct {
	inputs *input.Store
}

func NewInputHandler(inputs *input.Store) *InputHandler {
	return &InputHandler{inputs: inputs}
}

type createInputsRequest struct {
	Items []input.CreateItem `json:"items"`
	// Text is the paste path: one input per non-empty line. Ignored when
	// Items is set.
	Text string `json:"text"`
}

func (h *InputHandler) Create(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req createInputsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := req.Items
	if len(items) == 0 {
		items = input.ParseLines(req.Text)
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "no inputs provided")
		return
	}

	inputs, err := h.inputs.CreateBulk(r.Context(), sessionID, items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"inputs": inputs, "count": len(inputs)})
}

// Import accepts a multipart upload (.txt, .csv, .pdf) and creates one input
// per extracted item.
func (h *InputHandler) Import(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read upload: "+err.Error())
		return
	}

	fileType := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	inputs, err := h.inputs.Import(r.Context(), sessionID, bytes.NewReader(data), int64(len(data)), fileType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"inputs": inputs, "count": len(inputs)})
}

func (h *InputHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	inputs, err := h.inputs.List(r.Context(), sessionID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	count, err := h.inputs.Count(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"inputs": inputs, "total": count})
}

func (h *InputHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "inputID")
	if !ok {
		return
	}
	if err := h.inputs.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
