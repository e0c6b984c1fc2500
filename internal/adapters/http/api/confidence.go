// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// ConfidenceHandler serves per-item confidence scores.
type ConfidenceHandler struct {
	deps Dependencies
}

// NewConfidenceHandler creates a new confidence handler.
func NewConfidenceHandler(deps Dependencies) *ConfidenceHandler {
	return &ConfidenceHandler{deps: deps}
}

type confidenceResponse struct {
	ItemID     string  `json:"item_id"`
	Confidence float64 `json:"confidence"`
}

// HandleGetConfidence handles GET /confidence/{item_id} requests.
func (h *ConfidenceHandler) HandleGetConfidence(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_confidence"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	itemID := strings.TrimPrefix(r.URL.Path, "/confidence/")
	if itemID == "" || strings.Contains(itemID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	value, err := h.deps.Confidence(r.Context(), itemID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confidenceResponse{ItemID: itemID, Confidence: value})
}
