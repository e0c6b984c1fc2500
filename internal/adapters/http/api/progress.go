// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/duelrank/internal/domain/types"
)

// ProgressHandler serves session progress statistics.
type ProgressHandler struct {
	deps Dependencies
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps Dependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

type progressResponse struct {
	types.ProgressStats
	Finished bool `json:"finished"`
}

// HandleGetProgress handles GET /progress requests.
func (h *ProgressHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	stats, err := h.deps.ProgressStats(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{
		ProgressStats: stats,
		Finished:      h.deps.Finished(r.Context()),
	})
}
