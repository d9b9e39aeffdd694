// Package report accumulates the outcome of a pipeline run and encodes it as
// a YAML document: one entry per leg, one per step, with the masked command
// lines each step issued.
package report

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Statuses used throughout the report.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Report is the serialized outcome of one pipeline run.
type Report struct {
	RunID      string       `yaml:"run_id"`
	Pipeline   string       `yaml:"pipeline"`
	Status     string       `yaml:"status"`
	StartedAt  time.Time    `yaml:"started_at"`
	FinishedAt time.Time    `yaml:"finished_at"`
	Legs       []*LegReport `yaml:"legs"`
}

// LegReport is the outcome of one job leg.
type LegReport struct {
	Job    string            `yaml:"job"`
	Leg    string            `yaml:"leg"`
	Pool   string            `yaml:"pool,omitempty"`
	Vars   map[string]string `yaml:"vars,omitempty"`
	Status string            `yaml:"status"`
	Error  string            `yaml:"error,omitempty"`
	Steps  []*StepReport     `yaml:"steps,omitempty"`
}

// StepReport is the outcome of one step within a leg.
type StepReport struct {
	Name     string        `yaml:"name"`
	Runner   string        `yaml:"runner"`
	Status   string        `yaml:"status"`
	Commands []string      `yaml:"commands,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
	Error    string        `yaml:"error,omitempty"`
}

// Recorder collects leg reports from concurrent executor workers.
type Recorder struct {
	mu     sync.Mutex
	report *Report
}

// NewRecorder starts a report for the named pipeline with a fresh run ID.
func NewRecorder(pipelineName string) *Recorder {
	return &Recorder{
		report: &Report{
			RunID:     uuid.NewString(),
			Pipeline:  pipelineName,
			StartedAt: time.Now().UTC(),
		},
	}
}

// RunID returns the run's unique identifier.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.RunID
}

// AddLeg appends a finished leg report.
func (r *Recorder) AddLeg(leg *LegReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Legs = append(r.report.Legs, leg)
}

// Finish stamps the end time and overall status, then returns the report.
func (r *Recorder) Finish() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.FinishedAt = time.Now().UTC()
	r.report.Status = StatusSucceeded
	for _, leg := range r.report.Legs {
		if leg.Status != StatusSucceeded {
			r.report.Status = StatusFailed
			break
		}
	}
	return r.report
}

// WriteFile encodes the report as YAML at the given path.
func (rep *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}
