// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"

	"github.com/okian/scorekeep/internal/domain/types"
)

// Submission is one benchmark result submitted by a client. Fields mirror
// the JSON schema for POST /submit.
type Submission struct {
	DeviceID        string  // caller-supplied stable device identifier (udid)
	UserName        string  // display name; may change across submissions
	Exercise        string  // raw exercise identifier, validated by Validate
	Score           float64 // benchmark score; only improvements are persisted
	TestsPassed     int
	TotalTests      int
	ExecutionTimeMs float64
	GCAllocBytes    int64
}

// ValidationError reports a missing or invalid submission field. It maps to
// HTTP 400 at the boundary and never reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validate trims the identifying fields in place and checks the
// preconditions for a submission: deviceID, userName and exercise must be
// non-empty, and exercise must name a known benchmark.
func (s *Submission) Validate() (types.Exercise, error) {
	s.DeviceID = strings.TrimSpace(s.DeviceID)
	s.UserName = strings.TrimSpace(s.UserName)
	s.Exercise = strings.TrimSpace(s.Exercise)

	if s.DeviceID == "" {
		return "", &ValidationError{Field: "udid", Reason: "udid is required"}
	}
	if s.UserName == "" {
		return "", &ValidationError{Field: "userName", Reason: "userName is required"}
	}
	if s.Exercise == "" {
		return "", &ValidationError{Field: "exerciseId", Reason: "exerciseId is required"}
	}
	ex, err := types.ParseExercise(s.Exercise)
	if err != nil {
		return "", &ValidationError{Field: "exerciseId", Reason: fmt.Sprintf("exerciseId must be one of %v", types.Exercises)}
	}
	return ex, nil
}
