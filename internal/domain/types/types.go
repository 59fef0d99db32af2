// Package types contains common types used across the application.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Exercise identifies one of the fixed benchmark categories.
type Exercise string

// The three benchmark exercises clients may submit results for.
const (
	ExerciseMemory   Exercise = "Memory"
	ExerciseCPU      Exercise = "CPU"
	ExerciseTradeoff Exercise = "Tradeoff"
)

// Exercises lists all valid exercises in their canonical order.
var Exercises = []Exercise{ExerciseMemory, ExerciseCPU, ExerciseTradeoff}

// ParseExercise validates a raw exercise identifier. Surrounding whitespace
// is trimmed; the comparison is case-sensitive.
func ParseExercise(raw string) (Exercise, error) {
	ex := Exercise(strings.TrimSpace(raw))
	for _, valid := range Exercises {
		if ex == valid {
			return ex, nil
		}
	}
	return "", fmt.Errorf("exerciseId must be one of %v", Exercises)
}

// String returns the wire representation of the exercise.
func (e Exercise) String() string { return string(e) }

// CompositeKey builds the store's unique row key for a (device, exercise)
// pair. The raw device id is carried separately on the record so device
// lookups never need to parse this back apart.
func CompositeKey(deviceID string, ex Exercise) string {
	return deviceID + "#" + string(ex)
}

// Record is one stored row: the best result a device has achieved for one
// exercise. All fields except CreatedAt reflect the most recent accepted
// submission.
type Record struct {
	DeviceID        string
	Exercise        Exercise
	UserName        string
	Score           float64
	TestsPassed     int
	TotalTests      int
	ExecutionTimeMs float64
	GCAllocBytes    int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Key returns the record's composite store key.
func (r Record) Key() string { return CompositeKey(r.DeviceID, r.Exercise) }

// ScoreEntry is the per-exercise read shape exposed by the score listings.
type ScoreEntry struct {
	Exercise        Exercise  `json:"exerciseId"`
	Score           float64   `json:"score"`
	TestsPassed     int       `json:"testsPassed"`
	TotalTests      int       `json:"totalTests"`
	ExecutionTimeMs float64   `json:"executionTimeMs"`
	GCAllocBytes    int64     `json:"gcAllocBytes"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RankedEntry is one row of a per-exercise leaderboard.
type RankedEntry struct {
	Rank        int       `json:"rank"`
	UserName    string    `json:"userName"`
	Score       float64   `json:"score"`
	TestsPassed int       `json:"testsPassed"`
	TotalTests  int       `json:"totalTests"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserScores groups one user's per-exercise entries in the global listing.
type UserScores struct {
	UserName string       `json:"userName"`
	Scores   []ScoreEntry `json:"scores"`
}

// DeviceScores is the per-device read shape.
type DeviceScores struct {
	DeviceID string       `json:"udid"`
	UserName string       `json:"userName"`
	Scores   []ScoreEntry `json:"scores"`
}

// SubmitOutcome reports the result of a score submission. A rejected
// submission is a successful outcome, not an error: the existing score
// stands and the caller is told both values.
type SubmitOutcome struct {
	Updated        bool
	Created        bool
	UserName       string
	Exercise       Exercise
	Score          float64
	ExistingScore  float64
	SubmittedScore float64
}

// Entry converts a record to its listing read shape.
func (r Record) Entry() ScoreEntry {
	return ScoreEntry{
		Exercise:        r.Exercise,
		Score:           r.Score,
		TestsPassed:     r.TestsPassed,
		TotalTests:      r.TotalTests,
		ExecutionTimeMs: r.ExecutionTimeMs,
		GCAllocBytes:    r.GCAllocBytes,
		UpdatedAt:       r.UpdatedAt,
	}
}
