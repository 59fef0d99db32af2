// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/scorekeep/internal/domain/model"
	"github.com/okian/scorekeep/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SubmitScore applies the monotonic best-score upsert.
	SubmitScore(ctx context.Context, sub model.Submission) (types.SubmitOutcome, error)

	// Read operations reconstruct user- and exercise-centric views.
	ListAllScores(ctx context.Context) ([]types.UserScores, error)
	GetUserScores(ctx context.Context, deviceID string) (types.DeviceScores, error)
	GetRanking(ctx context.Context, ex types.Exercise) ([]types.RankedEntry, error)

	GetStats(ctx context.Context) map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	submitHandler  *SubmitHandler
	scoresHandler  *ScoresHandler
	rankingHandler *RankingHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		submitHandler:  NewSubmitHandler(deps),
		scoresHandler:  NewScoresHandler(deps),
		rankingHandler: NewRankingHandler(deps),
	}
}

// Register attaches all HTTP routes to mux. Method checks live inside the
// handlers so an unrecognized method/path combination falls through to the
// same JSON 404 the original wire contract specifies.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/submit", MetricsMiddleware(s.submitHandler.HandleSubmit, "submit"))
	mux.HandleFunc("/scores", MetricsMiddleware(s.scoresHandler.HandleListScores, "scores"))
	mux.HandleFunc("/scores/", MetricsMiddleware(s.scoresHandler.HandleDeviceScores, "device_scores"))
	mux.HandleFunc("/ranking/", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
	mux.HandleFunc("/", MetricsMiddleware(handleFallback, "fallback"))
}

// handleFallback turns every unrecognized route into the JSON 404. OPTIONS
// requests are answered by the middleware before reaching here.
func handleFallback(w http.ResponseWriter, r *http.Request) {
	notFound(w)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v without HTML escaping so non-ASCII user names pass
// through unchanged.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Not Found")
}

func internalError(w http.ResponseWriter) {
	// The cause is logged server-side only; callers get a generic message.
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
