package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumDevices int           // Number of devices to simulate
	Rounds     int           // Submissions per (device, exercise) pair
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Verify     bool          // Verify rankings after submission
	Verbose    bool          // Enable verbose logging
}

// Submission mirrors the JSON schema for POST /submit.
type Submission struct {
	UDID            string  `json:"udid"`
	UserName        string  `json:"userName"`
	ExerciseID      string  `json:"exerciseId"`
	Score           float64 `json:"score"`
	TestsPassed     int     `json:"testsPassed"`
	TotalTests      int     `json:"totalTests"`
	ExecutionTimeMs float64 `json:"executionTimeMs"`
	GCAllocBytes    int64   `json:"gcAllocBytes"`
}

// SubmitResponse covers both submit outcomes; the rejected fields are zero
// for an accepted submission and vice versa.
type SubmitResponse struct {
	Message        string  `json:"message"`
	UserName       string  `json:"userName"`
	ExerciseID     string  `json:"exerciseId"`
	Score          float64 `json:"score"`
	ExistingScore  float64 `json:"existingScore"`
	SubmittedScore float64 `json:"submittedScore"`
}

// RankedEntry is one leaderboard row from GET /ranking/{exerciseId}.
type RankedEntry struct {
	Rank        int     `json:"rank"`
	UserName    string  `json:"userName"`
	Score       float64 `json:"score"`
	TestsPassed int     `json:"testsPassed"`
	TotalTests  int     `json:"totalTests"`
}

// RankingResponse is the body of GET /ranking/{exerciseId}.
type RankingResponse struct {
	ExerciseID string        `json:"exerciseId"`
	Ranking    []RankedEntry `json:"ranking"`
}

// Stats holds run statistics.
type Stats struct {
	Submitted int
	Accepted  int
	Rejected  int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
