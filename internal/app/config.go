package app

import (
	"errors"
	"fmt"
	"os"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PipelinePath is an .hcl file or a directory of .hcl files.
	PipelinePath string
	// Workdir is the repository checkout the pipeline operates on. Empty
	// means the current directory.
	Workdir string
	// Job restricts the run to a single named job. Empty runs everything.
	Job string
	// ReportPath, when set, receives the YAML run report.
	ReportPath string
	// DryRun prints the execution plan without running any step.
	DryRun bool

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, errors.New("WorkerCount must be at least 1")
	}
	if cfg.Workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining working directory: %w", err)
		}
		cfg.Workdir = wd
	}
	return &cfg, nil
}
