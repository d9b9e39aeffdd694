// Package runtime defines the execution-time contract between the executor
// and step runner modules: the StepContext handed to every handler and the
// HCL evaluation context a leg's step arguments are decoded against.
package runtime

import (
	"context"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/wheelforge/wheelforge/internal/config"
	"github.com/wheelforge/wheelforge/internal/matrix"
	"github.com/wheelforge/wheelforge/internal/secrets"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// StepContext carries everything a step runner may touch: the shell runner
// (already container-wrapped when the job declares one), the working
// directory, secrets, and leg metadata.
type StepContext struct {
	Pipeline *config.Pipeline
	Leg      *matrix.Leg
	// Workdir is the repository checkout the pipeline operates on.
	Workdir string
	Exec    shellexec.Runner
	Secrets *secrets.Store
	Masker  *secrets.Masker
}

// EvalContext builds the HCL evaluation context for one leg. Step arguments
// may reference:
//
//	matrix.<axis>    this leg's matrix values
//	var.<name>       the job's fixed variables
//	secrets.<name>   resolved secret values (masked on output)
//	pipeline.name / pipeline.package
//	job.name / job.pool / job.container
func EvalContext(pipeline *config.Pipeline, leg *matrix.Leg, store *secrets.Store) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"matrix":  stringMapVal(leg.Vars),
			"var":     stringMapVal(leg.Job.Variables),
			"secrets": stringMapVal(store.Values()),
			"pipeline": cty.ObjectVal(map[string]cty.Value{
				"name":    cty.StringVal(pipeline.Name),
				"package": cty.StringVal(pipeline.Package),
			}),
			"job": cty.ObjectVal(map[string]cty.Value{
				"name":      cty.StringVal(leg.Job.Name),
				"pool":      cty.StringVal(leg.Job.Pool),
				"container": cty.StringVal(leg.Job.Container),
			}),
		},
	}
}

func stringMapVal(m map[string]string) cty.Value {
	if len(m) == 0 {
		return cty.EmptyObjectVal
	}
	vals := make(map[string]cty.Value, len(m))
	for k, v := range m {
		vals[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vals)
}

// RecordingRunner decorates a shellexec.Runner, keeping the masked command
// line of every invocation. The executor uses one per step to feed the run
// report; tests use it to assert on the external command surface.
type RecordingRunner struct {
	Inner  shellexec.Runner
	Masker *secrets.Masker

	mu       sync.Mutex
	commands []string
}

// Run implements shellexec.Runner.
func (r *RecordingRunner) Run(ctx context.Context, cmd shellexec.Command) (*shellexec.Result, error) {
	r.mu.Lock()
	r.commands = append(r.commands, r.Masker.Mask(cmd.String()))
	r.mu.Unlock()
	return r.Inner.Run(ctx, cmd)
}

// Commands returns the masked command lines recorded so far.
func (r *RecordingRunner) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commands))
	copy(out, r.commands)
	return out
}
