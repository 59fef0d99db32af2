// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/scorekeep/internal/domain/model"
	"github.com/okian/scorekeep/internal/domain/types"
	"github.com/okian/scorekeep/pkg/logger"
)

// SubmitDependencies defines the interface for score submission.
type SubmitDependencies interface {
	SubmitScore(ctx context.Context, sub model.Submission) (types.SubmitOutcome, error)
}

// SubmitHandler handles score submission requests.
type SubmitHandler struct {
	deps SubmitDependencies
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps SubmitDependencies) *SubmitHandler {
	return &SubmitHandler{deps: deps}
}

// submitRequest mirrors the JSON schema for POST /submit.
type submitRequest struct {
	UDID            string  `json:"udid"`
	UserName        string  `json:"userName"`
	ExerciseID      string  `json:"exerciseId"`
	Score           float64 `json:"score"`
	TestsPassed     int     `json:"testsPassed"`
	TotalTests      int     `json:"totalTests"`
	ExecutionTimeMs float64 `json:"executionTimeMs"`
	GCAllocBytes    int64   `json:"gcAllocBytes"`
}

// submitAccepted is the response for an accepted submission.
type submitAccepted struct {
	Message    string         `json:"message"`
	UserName   string         `json:"userName"`
	ExerciseID types.Exercise `json:"exerciseId"`
	Score      float64        `json:"score"`
}

// submitRejected is the response when the stored score stands. It is a
// 200, not an error.
type submitRejected struct {
	Message        string  `json:"message"`
	ExistingScore  float64 `json:"existingScore"`
	SubmittedScore float64 `json:"submittedScore"`
}

// HandleSubmit handles POST /submit requests.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		notFound(w)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	outcome, err := h.deps.SubmitScore(r.Context(), model.Submission{
		DeviceID:        req.UDID,
		UserName:        req.UserName,
		Exercise:        req.ExerciseID,
		Score:           req.Score,
		TestsPassed:     req.TestsPassed,
		TotalTests:      req.TotalTests,
		ExecutionTimeMs: req.ExecutionTimeMs,
		GCAllocBytes:    req.GCAllocBytes,
	})
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		logger.Get().Error(r.Context(), "submit failed", logger.Error(err))
		internalError(w)
		return
	}

	if !outcome.Updated {
		writeJSON(w, http.StatusOK, submitRejected{
			Message:        "Score not updated (existing score is higher or equal)",
			ExistingScore:  outcome.ExistingScore,
			SubmittedScore: outcome.SubmittedScore,
		})
		return
	}
	writeJSON(w, http.StatusOK, submitAccepted{
		Message:    "Score submitted successfully",
		UserName:   outcome.UserName,
		ExerciseID: outcome.Exercise,
		Score:      outcome.Score,
	})
}
