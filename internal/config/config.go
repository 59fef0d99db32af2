// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults, Load(...) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Store backend identifiers.
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the record store backend: memory or dynamodb.
	Store string `koanf:"store"`

	// TableName names the DynamoDB table holding score records.
	TableName string `koanf:"table_name"`

	// AWSRegion sets the region for the DynamoDB client.
	AWSRegion string `koanf:"aws_region"`

	// AWSEndpoint overrides the DynamoDB endpoint (local development).
	AWSEndpoint string `koanf:"aws_endpoint"`

	// AWSAccessKeyID and AWSSecretAccessKey configure static credentials.
	// Leave empty to use the SDK's default credential chain.
	AWSAccessKeyID     string `koanf:"aws_access_key_id"`
	AWSSecretAccessKey string `koanf:"aws_secret_access_key"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:  "info",
		Addr:      ":9080",
		Store:     StoreMemory,
		TableName: "PerformanceTrainingScores",
		AWSRegion: "ap-northeast-1",
	}
}
