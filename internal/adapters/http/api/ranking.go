// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/scorekeep/internal/domain/types"
	"github.com/okian/scorekeep/pkg/logger"
)

// RankingDependencies defines the interface for ranking operations.
type RankingDependencies interface {
	GetRanking(ctx context.Context, ex types.Exercise) ([]types.RankedEntry, error)
}

// RankingHandler handles leaderboard requests.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

type rankingResponse struct {
	ExerciseID string              `json:"exerciseId"`
	Ranking    []types.RankedEntry `json:"ranking"`
}

// HandleGetRanking handles GET /ranking/{exerciseId} requests. An unknown
// exercise id is not an error: it matches no records and yields an empty
// ranking, the same contract the store-filtered scan has always had.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		notFound(w)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/ranking/")
	if raw == "" || strings.Contains(raw, "/") {
		notFound(w)
		return
	}
	ex := types.Exercise(strings.TrimSpace(raw))
	ranking, err := h.deps.GetRanking(r.Context(), ex)
	if err != nil {
		logger.Get().Error(r.Context(), "ranking failed",
			logger.String("exerciseId", raw), logger.Error(err))
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, rankingResponse{ExerciseID: ex.String(), Ranking: ranking})
}
