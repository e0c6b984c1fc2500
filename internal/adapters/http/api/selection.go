// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// SelectionHandler serves the pair or group awaiting an outcome.
type SelectionHandler struct {
	deps Dependencies
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(deps Dependencies) *SelectionHandler {
	return &SelectionHandler{deps: deps}
}

// HandleGetSelection handles GET /selection requests.
func (h *SelectionHandler) HandleGetSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	sel, err := h.deps.CurrentSelection(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}
