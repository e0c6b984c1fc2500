// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// OutcomesHandler records resolved comparisons.
type OutcomesHandler struct {
	deps Dependencies
}

// NewOutcomesHandler creates a new outcomes handler.
func NewOutcomesHandler(deps Dependencies) *OutcomesHandler {
	return &OutcomesHandler{deps: deps}
}

// outcomeRequest mirrors the POST /outcomes body. Members defaults to
// the current selection when omitted.
type outcomeRequest struct {
	WinnerID string   `json:"winner_id"`
	Members  []string `json:"members,omitempty"`
}

func (o outcomeRequest) validate() error {
	if strings.TrimSpace(o.WinnerID) == "" {
		return ErrBadRequest
	}
	return nil
}

type outcomeResponse struct {
	Status   string `json:"status"`
	Finished bool   `json:"finished"`
}

// HandlePostOutcome handles POST /outcomes requests.
func (h *OutcomesHandler) HandlePostOutcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.deps.Resolve(r.Context(), req.WinnerID, req.Members); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{
		Status:   "ok",
		Finished: h.deps.Finished(r.Context()),
	})
}
