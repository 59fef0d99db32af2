// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/scorekeep/internal/domain/types"
	"github.com/okian/scorekeep/pkg/logger"
)

// ScoresDependencies defines the interface for score listing operations.
type ScoresDependencies interface {
	ListAllScores(ctx context.Context) ([]types.UserScores, error)
	GetUserScores(ctx context.Context, deviceID string) (types.DeviceScores, error)
}

// ScoresHandler handles score listing requests.
type ScoresHandler struct {
	deps ScoresDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

type allScoresResponse struct {
	Users []types.UserScores `json:"users"`
}

// HandleListScores handles GET /scores requests.
func (h *ScoresHandler) HandleListScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		notFound(w)
		return
	}
	users, err := h.deps.ListAllScores(r.Context())
	if err != nil {
		logger.Get().Error(r.Context(), "list scores failed", logger.Error(err))
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, allScoresResponse{Users: users})
}

// HandleDeviceScores handles GET /scores/{udid} requests.
func (h *ScoresHandler) HandleDeviceScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		notFound(w)
		return
	}
	udid := strings.TrimPrefix(r.URL.Path, "/scores/")
	if udid == "" || strings.Contains(udid, "/") {
		notFound(w)
		return
	}
	scores, err := h.deps.GetUserScores(r.Context(), udid)
	if err != nil {
		logger.Get().Error(r.Context(), "device scores failed",
			logger.String("udid", udid), logger.Error(err))
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
