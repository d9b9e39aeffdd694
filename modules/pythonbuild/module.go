// Package pythonbuild implements the sdist+wheel build step for the
// pure-Python-compatible platforms: `python setup.py sdist bdist_wheel`.
package pythonbuild

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

// Input defines the arguments for the python_build runner.
type Input struct {
	// Python is the interpreter to build with.
	Python string `hcl:"python,optional"`
	// DistDir is where setup.py drops artifacts, relative to the checkout.
	DistDir string `hcl:"dist_dir,optional"`
}

// Output lists the artifacts the build produced.
type Output struct {
	Artifacts []string
}

// OnRunPythonBuild is the handler for the 'python_build' runner.
func OnRunPythonBuild(ctx context.Context, sc *runtime.StepContext, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	python := input.Python
	if python == "" {
		python = "python"
	}
	distDir := input.DistDir
	if distDir == "" {
		distDir = "dist"
	}

	_, err := sc.Exec.Run(ctx, shellexec.Command{
		Argv: []string{python, "setup.py", "sdist", "bdist_wheel"},
		Dir:  sc.Workdir,
	})
	if err != nil {
		return nil, fmt.Errorf("building distributions: %w", err)
	}

	artifacts, err := artifact.ScanDist(filepath.Join(sc.Workdir, distDir))
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("build succeeded but %s/ contains no distributions", distDir)
	}
	logger.Info("Built distributions.", "count", len(artifacts), "dir", distDir)

	return &Output{Artifacts: artifacts}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("python_build", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunPythonBuild,
	})
}
