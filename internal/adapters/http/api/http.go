// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	engine "github.com/okian/duelrank/internal/app"
	"github.com/okian/duelrank/internal/domain/types"
)

// Dependencies bundles the engine operations the handlers need. Using an
// interface keeps the handler layer loosely coupled to the engine.
type Dependencies interface {
	StartSession(ctx context.Context, items []types.Item, maxComparisons int, seed int64) (string, error)
	CurrentSelection(ctx context.Context) (types.Selection, error)
	Resolve(ctx context.Context, winnerID string, members []string) error
	Undo(ctx context.Context) (types.Selection, error)
	RankedResults(ctx context.Context, limit int) ([]types.RankedEntry, error)
	ProgressStats(ctx context.Context) (types.ProgressStats, error)
	Confidence(ctx context.Context, itemID string) (float64, error)
	Finished(ctx context.Context) bool
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	healthHandler     *HealthHandler
	sessionHandler    *SessionHandler
	selectionHandler  *SelectionHandler
	outcomesHandler   *OutcomesHandler
	undoHandler       *UndoHandler
	rankingsHandler   *RankingsHandler
	progressHandler   *ProgressHandler
	confidenceHandler *ConfidenceHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxRankingsLimit int) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		sessionHandler:    NewSessionHandler(deps),
		selectionHandler:  NewSelectionHandler(deps),
		outcomesHandler:   NewOutcomesHandler(deps),
		undoHandler:       NewUndoHandler(deps),
		rankingsHandler:   NewRankingsHandler(deps, maxRankingsLimit),
		progressHandler:   NewProgressHandler(deps),
		confidenceHandler: NewConfidenceHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandlePostSession, "session"))
	mux.HandleFunc("/selection", MetricsMiddleware(s.selectionHandler.HandleGetSelection, "selection"))
	mux.HandleFunc("/outcomes", MetricsMiddleware(s.outcomesHandler.HandlePostOutcome, "outcomes"))
	mux.HandleFunc("/undo", MetricsMiddleware(s.undoHandler.HandlePostUndo, "undo"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/progress", MetricsMiddleware(s.progressHandler.HandleGetProgress, "progress"))
	mux.HandleFunc("/confidence/", MetricsMiddleware(s.confidenceHandler.HandleGetConfidence, "confidence"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeEngineError translates engine sentinel errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNoSession):
		writeError(w, http.StatusNotFound, "no_session", err)
	case errors.Is(err, engine.ErrSessionFinished):
		writeError(w, http.StatusConflict, "session_finished", err)
	case errors.Is(err, engine.ErrNothingToUndo):
		writeError(w, http.StatusConflict, "nothing_to_undo", err)
	case errors.Is(err, engine.ErrTooFewItems),
		errors.Is(err, engine.ErrInvalidItem),
		errors.Is(err, engine.ErrDuplicateItem),
		errors.Is(err, engine.ErrNoSelectionPending),
		errors.Is(err, engine.ErrWinnerNotOffered),
		errors.Is(err, engine.ErrUnknownItem):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
