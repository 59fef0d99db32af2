package loadgen

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// Exercises covered by generated submissions.
var exercises = []string{"Memory", "CPU", "Tradeoff"}

// Display names cycled across generated devices. Includes non-ASCII names
// so the passthrough encoding gets exercised end to end.
var userNames = []string{
	"Alice", "Bob", "Carol", "Dave", "Erin",
	"たろう", "はなこ", "José", "Zoë", "Mikkel",
}

// Score distribution bounds.
const (
	randomFloatDivisor = 1000000
	lowScoreMin        = 5.0
	lowScoreRange      = 30.0
	midScoreMin        = 35.0
	midScoreRange      = 40.0
	highScoreMin       = 75.0
	highScoreRange     = 25.0
	scoreCaseDivisor   = 4
	maxExecutionTimeMs = 5000
	maxGCAllocBytes    = 8 << 20
	totalTestsPerRun   = 10
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomInt(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// device is one simulated submitter.
type device struct {
	udid     string
	userName string
}

// generateDevices creates n devices with unique ids and cycled user names.
func generateDevices(n int) []device {
	devices := make([]device, n)
	for i := range devices {
		devices[i] = device{
			udid:     uuid.New().String(),
			userName: userNames[i%len(userNames)],
		}
	}
	return devices
}

// generateSubmission builds one submission for a device and exercise with a
// varied score distribution: mostly mid-range, occasional low and high runs.
func generateSubmission(d device, exerciseID string) Submission {
	score := generateVariedScore()
	passed := int(randomInt(totalTestsPerRun + 1))
	return Submission{
		UDID:            d.udid,
		UserName:        d.userName,
		ExerciseID:      exerciseID,
		Score:           score,
		TestsPassed:     passed,
		TotalTests:      totalTestsPerRun,
		ExecutionTimeMs: getRandomFloat() * maxExecutionTimeMs,
		GCAllocBytes:    randomInt(maxGCAllocBytes),
	}
}

// generateVariedScore creates a score with a varied distribution.
func generateVariedScore() float64 {
	switch randomInt(scoreCaseDivisor) {
	case 0:
		return lowScoreMin + getRandomFloat()*lowScoreRange
	case 1, 2:
		return midScoreMin + getRandomFloat()*midScoreRange
	default:
		return highScoreMin + getRandomFloat()*highScoreRange
	}
}
