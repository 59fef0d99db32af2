// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/scorekeep/internal/adapters/repository"
	"github.com/okian/scorekeep/internal/domain/model"
	"github.com/okian/scorekeep/internal/domain/types"
	"github.com/okian/scorekeep/pkg/logger"
	"github.com/okian/scorekeep/pkg/metrics"
)

// Service owns the score repository semantics: the monotonic best-score
// upsert and the three read-side aggregations over the flat record store.
type Service struct {
	mu sync.RWMutex

	store repository.Store
	now   func() time.Time

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the timestamp source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory record store")
	}
	s.started = true
	s.logger.Info(ctx, "score service started")
	return nil
}

// Stop shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "score service stopped")
}

// SubmitScore validates a submission and applies the conditional best-score
// write. The stored score for a (device, exercise) pair never decreases;
// ties leave the record untouched.
func (s *Service) SubmitScore(ctx context.Context, sub model.Submission) (types.SubmitOutcome, error) {
	ex, err := sub.Validate()
	if err != nil {
		metrics.RecordSubmissionInvalid()
		return types.SubmitOutcome{}, err
	}

	now := s.now()
	rec := types.Record{
		DeviceID:        sub.DeviceID,
		Exercise:        ex,
		UserName:        sub.UserName,
		Score:           sub.Score,
		TestsPassed:     sub.TestsPassed,
		TotalTests:      sub.TotalTests,
		ExecutionTimeMs: sub.ExecutionTimeMs,
		GCAllocBytes:    sub.GCAllocBytes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	res, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return types.SubmitOutcome{}, err
	}
	if !res.Updated {
		metrics.RecordSubmissionRejected()
		s.logger.Debug(ctx, "score not updated",
			logger.String("key", rec.Key()),
			logger.Float64("existing", res.Existing.Score),
			logger.Float64("submitted", sub.Score),
		)
		return types.SubmitOutcome{
			ExistingScore:  res.Existing.Score,
			SubmittedScore: sub.Score,
		}, nil
	}

	metrics.RecordSubmissionAccepted()
	if res.Created {
		metrics.RecordRecordCreated()
	}
	s.logger.Info(ctx, "score accepted",
		logger.String("key", rec.Key()),
		logger.String("userName", sub.UserName),
		logger.Float64("score", sub.Score),
	)
	return types.SubmitOutcome{
		Updated:  true,
		Created:  res.Created,
		UserName: sub.UserName,
		Exercise: ex,
		Score:    sub.Score,
	}, nil
}

// ListAllScores scans every record and groups by userName. Two devices
// sharing a display name merge into one logical user here; grouping is by
// name, not device identity. Users appear in first-seen scan order and
// entries within a user keep scan order.
func (s *Service) ListAllScores(ctx context.Context) ([]types.UserScores, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int)
	users := make([]types.UserScores, 0)
	for _, rec := range records {
		i, ok := byName[rec.UserName]
		if !ok {
			i = len(users)
			byName[rec.UserName] = i
			users = append(users, types.UserScores{UserName: rec.UserName, Scores: []types.ScoreEntry{}})
		}
		users[i].Scores = append(users[i].Scores, rec.Entry())
	}
	return users, nil
}

// GetUserScores returns all of a device's entries. The userName comes from
// the first matching record in scan order; a device with no submissions
// yields an empty list and empty name, which is not an error.
func (s *Service) GetUserScores(ctx context.Context, deviceID string) (types.DeviceScores, error) {
	records, err := s.store.ScanByDevice(ctx, deviceID)
	if err != nil {
		return types.DeviceScores{}, err
	}

	out := types.DeviceScores{DeviceID: deviceID, Scores: []types.ScoreEntry{}}
	for _, rec := range records {
		if out.UserName == "" {
			out.UserName = rec.UserName
		}
		out.Scores = append(out.Scores, rec.Entry())
	}
	return out, nil
}

// GetRanking returns the per-exercise leaderboard, descending by score with
// 1-based ranks. The sort is stable so tied scores keep their scan order
// across repeated calls on unchanged data.
func (s *Service) GetRanking(ctx context.Context, ex types.Exercise) ([]types.RankedEntry, error) {
	records, err := s.store.ScanByExercise(ctx, ex)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})

	ranking := make([]types.RankedEntry, 0, len(records))
	for i, rec := range records {
		ranking = append(ranking, types.RankedEntry{
			Rank:        i + 1,
			UserName:    rec.UserName,
			Score:       rec.Score,
			TestsPassed: rec.TestsPassed,
			TotalTests:  rec.TotalTests,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	return ranking, nil
}

// GetStats returns current service statistics.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	if s.store != nil {
		count = s.store.Count(ctx)
	}
	return map[string]interface{}{
		"totalRecords": count,
		"started":      s.started,
	}
}
