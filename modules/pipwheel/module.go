// Package pipwheel implements the manylinux wheel build step:
// `<pip> wheel . -w wheelhouse/`, with the pip path parameterized by the
// leg's ABI tag (e.g. /opt/python/cp311-cp311/bin/pip).
package pipwheel

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wheelforge/wheelforge/internal/artifact"
	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/runtime"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the pip_wheel runner.
type Input struct {
	// Pip is the pip executable to build with.
	Pip string `hcl:"pip,optional"`
	// Source is what to build a wheel for.
	Source string `hcl:"source,optional"`
	// WheelDir receives the built wheels, relative to the checkout.
	WheelDir string `hcl:"wheel_dir,optional"`
}

// Output lists the wheels the build produced.
type Output struct {
	Wheels []string
}

// OnRunPipWheel is the handler for the 'pip_wheel' runner.
func OnRunPipWheel(ctx context.Context, sc *runtime.StepContext, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	pip := input.Pip
	if pip == "" {
		pip = "pip"
	}
	source := input.Source
	if source == "" {
		source = "."
	}
	wheelDir := input.WheelDir
	if wheelDir == "" {
		wheelDir = "wheelhouse"
	}

	_, err := sc.Exec.Run(ctx, shellexec.Command{
		Argv: []string{pip, "wheel", source, "-w", wheelDir + "/"},
		Dir:  sc.Workdir,
	})
	if err != nil {
		return nil, fmt.Errorf("building wheel: %w", err)
	}

	wheels, err := artifact.ScanWheels(filepath.Join(sc.Workdir, wheelDir))
	if err != nil {
		return nil, err
	}
	if len(wheels) == 0 {
		return nil, fmt.Errorf("pip wheel succeeded but %s/ contains no wheels", wheelDir)
	}

	var paths []string
	for _, w := range wheels {
		paths = append(paths, w.Path)
	}
	logger.Info("Built wheels.", "count", len(paths), "dir", wheelDir)

	return &Output{Wheels: paths}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("pip_wheel", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunPipWheel,
	})
}
