// Package loadgen generates benchmark score submissions against a running
// service and verifies the resulting rankings.
package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scorekeep/pkg/logger"
)

// Run executes the complete load run: health check, concurrent submission,
// then optional ranking verification.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting scorekeep load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("devices", config.NumDevices),
		logger.Int("rounds", config.Rounds),
		logger.Int("workers", config.Workers),
	)

	client := newHTTPClient(config.Timeout)

	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	devices := generateDevices(config.NumDevices)
	if err := submitAll(ctx, client, config, devices, stats); err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	if config.Verify {
		for _, ex := range exercises {
			ranking, err := fetchRanking(ctx, client, config, ex)
			if err != nil {
				return fmt.Errorf("ranking retrieval failed for %s: %w", ex, err)
			}
			if err := verifyRanking(ex, ranking); err != nil {
				return fmt.Errorf("ranking verification failed for %s: %w", ex, err)
			}
			logger.Get().Info(ctx, "ranking verified",
				logger.String("exerciseId", ex),
				logger.Int("entries", len(ranking)),
			)
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient, config *Config) error {
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// submitAll posts every submission through a worker pool. Each device
// submits Rounds results per exercise, so later rounds exercise both the
// accept and reject paths of the best-score rule.
func submitAll(ctx context.Context, client *httpClient, config *Config, devices []device, stats *Stats) error {
	var (
		submitted int64
		accepted  int64
		rejected  int64
		failed    int64
	)

	subChan := make(chan Submission, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				atomic.AddInt64(&submitted, 1)
				switch submitOne(ctx, client, config, sub) {
				case outcomeAccepted:
					atomic.AddInt64(&accepted, 1)
				case outcomeRejected:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(subChan)
		for round := 0; round < config.Rounds; round++ {
			for _, d := range devices {
				for _, ex := range exercises {
					select {
					case <-ctx.Done():
						return
					case subChan <- generateSubmission(d, ex):
					}
				}
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Accepted = int(atomic.LoadInt64(&accepted))
	stats.Rejected = int(atomic.LoadInt64(&rejected))
	stats.Failed = int(atomic.LoadInt64(&failed))

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d submissions failed", stats.Failed, stats.Submitted)
	}
	return nil
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeAccepted
	outcomeRejected
)

// submitOne posts a single submission and classifies the response.
func submitOne(ctx context.Context, client *httpClient, config *Config, sub Submission) outcome {
	resp, err := client.Post(ctx, config.BaseURL+"/submit", sub)
	if err != nil {
		return outcomeFailed
	}
	body, err := readResponseBody(resp)
	if err != nil || resp.StatusCode != http.StatusOK {
		return outcomeFailed
	}
	var sr SubmitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return outcomeFailed
	}
	if sr.Message == "Score submitted successfully" {
		return outcomeAccepted
	}
	return outcomeRejected
}

// fetchRanking retrieves the leaderboard for one exercise.
func fetchRanking(ctx context.Context, client *httpClient, config *Config, exerciseID string) ([]RankedEntry, error) {
	resp, err := client.Get(ctx, config.BaseURL+"/ranking/"+exerciseID)
	if err != nil {
		return nil, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	var rr RankingResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, err
	}
	return rr.Ranking, nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("submissionsPerSecond", perSecond),
	)
}
