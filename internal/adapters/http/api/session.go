// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/duelrank/internal/domain/types"
)

// SessionHandler handles session creation.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// sessionRequest mirrors the POST /session body.
type sessionRequest struct {
	Items          []types.Item `json:"items"`
	MaxComparisons int          `json:"max_comparisons"`
	Seed           int64        `json:"seed"`
}

func (r sessionRequest) validate() error {
	if len(r.Items) < 2 {
		return ErrBadRequest
	}
	for _, it := range r.Items {
		if strings.TrimSpace(it.ID) == "" {
			return ErrBadRequest
		}
	}
	if r.MaxComparisons < 0 {
		return ErrBadRequest
	}
	return nil
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Items     int    `json:"items"`
}

// HandlePostSession handles POST /session requests. Starting a session
// replaces any session already in progress.
func (h *SessionHandler) HandlePostSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	id, err := h.deps.StartSession(r.Context(), req.Items, req.MaxComparisons, req.Seed)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, Items: len(req.Items)})
}
