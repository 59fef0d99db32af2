package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/scorekeep/internal/loadgen"
	"github.com/okian/scorekeep/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumDevices = 100
	defaultRounds     = 3
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numDevices = flag.Int("devices", defaultNumDevices, "Number of devices to simulate")
		rounds     = flag.Int("rounds", defaultRounds, "Submissions per (device, exercise) pair")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verify     = flag.Bool("verify", true, "Verify rankings after submission")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:    *baseURL,
		NumDevices: *numDevices,
		Rounds:     *rounds,
		Workers:    *workers,
		Timeout:    *timeout,
		Verify:     *verify,
		Verbose:    *verbose,
	}

	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
