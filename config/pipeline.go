package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	MemoryProgressStore   = "memory"
	DynamoProgressStore   = "dynamo"
	PostgresProgressStore = "postgres"
)

type PipelineConfig struct {
	PollInterval      time.Duration
	PollMaxAttempts   int
	WorkerPoolSize    int
	// WatchPoolSize bounds the concurrent progress streams. Watchers never share the job pool.
	WatchPoolSize     int
	WordsPerScript    int
	ProgressStore     string
	MockCollaborators bool
	MockScriptsFile   string
	MockPendingPolls  int
}

func GetPipelineConfig() (*PipelineConfig, error) {
	cfg := &PipelineConfig{
		PollInterval:     5 * time.Second,
		PollMaxAttempts:  60,
		WorkerPoolSize:   120,
		WatchPoolSize:    1000,
		WordsPerScript:   150,
		ProgressStore:    MemoryProgressStore,
		MockPendingPolls: 2,
	}

	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL: %q", raw)
		}
		cfg.PollInterval = d
	}

	var err error
	if cfg.PollMaxAttempts, err = positiveInt("POLL_MAX_ATTEMPTS", cfg.PollMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.WorkerPoolSize, err = positiveInt("WORKER_POOL_SIZE", cfg.WorkerPoolSize); err != nil {
		return nil, err
	}
	if cfg.WatchPoolSize, err = positiveInt("WATCH_POOL_SIZE", cfg.WatchPoolSize); err != nil {
		return nil, err
	}
	if cfg.WordsPerScript, err = positiveInt("WORDS_PER_SCRIPT", cfg.WordsPerScript); err != nil {
		return nil, err
	}
	if cfg.MockPendingPolls, err = positiveInt("MOCK_PENDING_POLLS", cfg.MockPendingPolls); err != nil {
		return nil, err
	}

	if store := os.Getenv("PROGRESS_STORE"); store != "" {
		switch store {
		case MemoryProgressStore, DynamoProgressStore, PostgresProgressStore:
			cfg.ProgressStore = store
		default:
			return nil, fmt.Errorf("PROGRESS_STORE must be one of memory, dynamo, postgres, got %q", store)
		}
	}

	if raw := os.Getenv("MOCK_COLLABORATORS"); raw != "" {
		mock, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MOCK_COLLABORATORS: %q", raw)
		}
		cfg.MockCollaborators = mock
	}
	cfg.MockScriptsFile = os.Getenv("MOCK_SCRIPTS_FILE")

	return cfg, nil
}

func positiveInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}
