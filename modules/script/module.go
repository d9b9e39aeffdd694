// Package script implements the generic command step. The configured command
// string is split into argv without a shell unless the step opts into one.
package script

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/runtime"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the script runner.
type Input struct {
	Command string `hcl:"command"`
	// Shell runs the command under `sh -c` for steps that need globs or &&.
	Shell bool `hcl:"shell,optional"`
	// Dir is the working directory, relative to the checkout.
	Dir string `hcl:"dir,optional"`
	Env map[string]string `hcl:"env,optional"`
}

// OnRunScript is the handler for the 'script' runner.
func OnRunScript(ctx context.Context, sc *runtime.StepContext, input *Input) (any, error) {
	var argv []string
	if input.Shell {
		argv = shellexec.ShellCommand(input.Command)
	} else {
		var err error
		argv, err = shellexec.Split(input.Command)
		if err != nil {
			return nil, err
		}
	}

	dir := sc.Workdir
	if input.Dir != "" {
		if filepath.IsAbs(input.Dir) {
			dir = input.Dir
		} else {
			dir = filepath.Join(sc.Workdir, input.Dir)
		}
	}

	result, err := sc.Exec.Run(ctx, shellexec.Command{
		Argv: argv,
		Dir:  dir,
		Env:  envList(input.Env),
	})
	if err != nil {
		return nil, fmt.Errorf("script failed: %w", err)
	}
	return result, nil
}

// envList flattens an env map into sorted KEY=VALUE entries.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("script", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunScript,
	})
}
