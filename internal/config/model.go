package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Model is the unified, format-agnostic representation of a loaded pipeline:
// run-wide settings, secret declarations, and the job definitions.
type Model struct {
	Pipeline *Pipeline
	Secrets  []*Secret
	Jobs     []*Job
}

// Pipeline holds run-wide settings.
type Pipeline struct {
	Name    string
	Package string
}

// Secret declares a secret variable sourced from the environment.
type Secret struct {
	Name string
	Env  string
}

// Job is the format-agnostic representation of a `job` block. Matrix axes
// expand into legs; steps run sequentially within each leg.
type Job struct {
	Name      string
	Pool      string
	Container string
	// Matrix maps axis name to the list of values for that axis. Empty means
	// the job runs as a single leg.
	Matrix map[string][]string
	// MatrixAxes preserves axis declaration order for stable leg naming.
	MatrixAxes []string
	Variables  map[string]string
	DependsOn  []string
	Steps      []*Step
}

// Step is the format-agnostic representation of a `step` block. Arguments
// stay as a raw body; they are decoded into the runner's input struct at
// execution time against the leg's evaluation context.
type Step struct {
	RunnerType string
	Name       string
	Arguments  hcl.Body
}

// FindJob returns the job with the given name, or nil.
func (m *Model) FindJob(name string) *Job {
	for _, j := range m.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}
