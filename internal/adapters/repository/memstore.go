package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/scorekeep/internal/domain/types"
	"github.com/okian/scorekeep/pkg/metrics"
)

// In-memory Store implementation.
//
// Scan order: records are returned in insertion order, so repeated scans
// over unchanged data are deterministic. Ranking relies on this for stable
// tie ordering.

// MemStore keeps all records in process memory behind a RWMutex. It is the
// default backend and the test double for the DynamoDB-backed store.
type MemStore struct {
	mu           sync.RWMutex
	records      map[string]types.Record
	keys         []string // insertion order
	capacityHint int
}

// compile-time interface check
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{capacityHint: 64}
	for _, opt := range opts {
		opt(s)
	}
	s.records = make(map[string]types.Record, s.capacityHint)
	s.keys = make([]string, 0, s.capacityHint)
	return s
}

// Upsert applies the conditional best-score write under a single lock, so
// check and write are atomic with respect to other submitters.
func (s *MemStore) Upsert(_ context.Context, rec types.Record) (UpsertResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := rec.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[key]
	if !ok {
		s.records[key] = rec
		s.keys = append(s.keys, key)
		metrics.UpdateStoreRecordsTotal(len(s.keys))
		return UpsertResult{Updated: true, Created: true}, nil
	}
	if rec.Score <= existing.Score {
		return UpsertResult{Existing: existing}, nil
	}
	rec.CreatedAt = existing.CreatedAt
	s.records[key] = rec
	return UpsertResult{Updated: true}, nil
}

// Get returns the record at key, or ErrNotFound.
func (s *MemStore) Get(_ context.Context, key string) (types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return types.Record{}, ErrNotFound
	}
	return rec, nil
}

// ScanAll returns every record in insertion order.
func (s *MemStore) ScanAll(_ context.Context) ([]types.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Record, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.records[key])
	}
	return out, nil
}

// ScanByDevice returns records whose raw device id matches, in insertion order.
func (s *MemStore) ScanByDevice(_ context.Context, deviceID string) ([]types.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Record
	for _, key := range s.keys {
		if rec := s.records[key]; rec.DeviceID == deviceID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ScanByExercise returns records for one exercise, in insertion order.
func (s *MemStore) ScanByExercise(_ context.Context, ex types.Exercise) ([]types.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Record
	for _, key := range s.keys {
		if rec := s.records[key]; rec.Exercise == ex {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
