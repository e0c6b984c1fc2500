// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// UndoHandler reverts the most recent resolution.
type UndoHandler struct {
	deps Dependencies
}

// NewUndoHandler creates a new undo handler.
func NewUndoHandler(deps Dependencies) *UndoHandler {
	return &UndoHandler{deps: deps}
}

// HandlePostUndo handles POST /undo requests. The restored selection is
// returned for re-display.
func (h *UndoHandler) HandlePostUndo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	sel, err := h.deps.Undo(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}
