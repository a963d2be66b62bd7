package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/facetrack/facetrack/internal/recognition"
	"github.com/facetrack/facetrack/internal/store"
)

const defaultIdentifyLimit = 5

// IdentifyHandler answers nearest-neighbor queries against the roster
// signature index.
type IdentifyHandler struct {
	index *store.SignatureIndex
}

// NewIdentifyHandler creates a new identify handler
func NewIdentifyHandler(index *store.SignatureIndex) *IdentifyHandler {
	return &IdentifyHandler{index: index}
}

type identifyRequest struct {
	Embedding []float32 `json:"embedding"`
	Limit     int       `json:"limit"`
}

// Identify returns the roster entries nearest to a probe embedding,
// nearest first. The probe is normalized before searching so raw and
// unit embeddings behave the same.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultIdentifyLimit
	}

	probe := recognition.Signature(req.Embedding).Normalized()
	neighbors := h.index.Search(probe, limit)

	respondJSON(w, http.StatusOK, map[string]any{
		"matches": neighbors,
	})
}
