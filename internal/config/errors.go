package config

import "errors"

// Sentinel errors for the two ways configuration can fail: the layered
// sources could not be read, or the merged result does not describe a
// runnable service (bad listen address, unknown store backend, missing
// table name). Callers branch with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid scorekeep config")
	ErrLoadConfig    = errors.New("loading scorekeep config failed")
)
