// Package repository defines the score record store contract and errors.
package repository

import (
	"context"

	"github.com/okian/scorekeep/internal/domain/types"
)

// UpsertResult reports the outcome of a conditional best-score write.
type UpsertResult struct {
	// Updated is true when the write was accepted (the record was created
	// or its score improved).
	Updated bool
	// Created is true when this was the first record for the key.
	Created bool
	// Existing holds the stored record when the write was rejected.
	Existing types.Record
}

// Store provides keyed access to score records. Implementations must make
// Upsert atomic: the "no record or lower score" check and the write happen
// as one operation, so concurrent submitters cannot clobber a higher score
// with a stale lower one.
type Store interface {
	// Upsert writes rec iff no record exists at rec.Key() or the stored
	// score is strictly lower than rec.Score. Ties are rejected. On an
	// accepted update the original CreatedAt of the stored record is
	// preserved; on rejection the stored record is returned unchanged.
	Upsert(ctx context.Context, rec types.Record) (UpsertResult, error)

	// Get returns the record at key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) (types.Record, error)

	// ScanAll returns every record.
	ScanAll(ctx context.Context) ([]types.Record, error)

	// ScanByDevice returns records whose raw device id equals deviceID.
	ScanByDevice(ctx context.Context, deviceID string) ([]types.Record, error)

	// ScanByExercise returns records for one exercise.
	ScanByExercise(ctx context.Context, ex types.Exercise) ([]types.Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int
}
