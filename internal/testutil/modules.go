package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/runtime"
)

// TestStepInput is the arguments schema of the 'test_step' runner.
type TestStepInput struct {
	// Fail makes the step return an error. Expressions let a pipeline fail
	// only specific legs, e.g. `fail = matrix.v == "bad"`.
	Fail bool `hcl:"fail,optional"`
	// Tag is recorded alongside the leg ID when set.
	Tag string `hcl:"tag,optional"`
}

// TrackingModule registers a 'test_step' runner that records every execution
// and can be told to fail through its arguments.
type TrackingModule struct {
	mu  sync.Mutex
	ran []string
}

// Register implements registry.Module.
func (m *TrackingModule) Register(r *registry.Registry) {
	r.RegisterRunner("test_step", &registry.RegisteredRunner{
		NewInput: func() any { return new(TestStepInput) },
		Fn:       m.onRun,
	})
}

func (m *TrackingModule) onRun(ctx context.Context, sc *runtime.StepContext, input *TestStepInput) (any, error) {
	record := sc.Leg.ID
	if input.Tag != "" {
		record += ":" + input.Tag
	}
	m.mu.Lock()
	m.ran = append(m.ran, record)
	m.mu.Unlock()

	if input.Fail {
		return nil, fmt.Errorf("test step failed on purpose")
	}
	return nil, nil
}

// Ran returns the recorded executions in completion order.
func (m *TrackingModule) Ran() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ran))
	copy(out, m.ran)
	return out
}
