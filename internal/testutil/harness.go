package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wheelforge/wheelforge/internal/app"
	"github.com/wheelforge/wheelforge/internal/hcl"
	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	// Workdir is the temp checkout directory the run operated on.
	Workdir string
}

// HarnessOptions tweaks the harness app configuration.
type HarnessOptions struct {
	Job        string
	ReportPath string
	DryRun     bool
	Workers    int
	// Modules overrides the built-in runner modules when non-empty.
	Modules []registry.Module
}

// RunPipelineTest runs the real app against the given pipeline HCL content
// with a caller-provided shell runner (usually a FakeRunner), using a default
// background context.
func RunPipelineTest(t *testing.T, pipelineHCL string, runner shellexec.Runner, opts HarnessOptions) *HarnessResult {
	t.Helper()
	return RunPipelineTestWithContext(context.Background(), t, pipelineHCL, runner, opts)
}

// RunPipelineTestWithContext is RunPipelineTest with a caller context.
func RunPipelineTestWithContext(ctx context.Context, t *testing.T, pipelineHCL string, runner shellexec.Runner, opts HarnessOptions) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	pipelineDir := filepath.Join(tmpDir, "pipeline")
	workDir := filepath.Join(tmpDir, "checkout")
	require.NoError(t, os.Mkdir(pipelineDir, 0o755))
	require.NoError(t, os.Mkdir(workDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pipelineDir, "pipeline.hcl"), []byte(pipelineHCL), 0o644))

	workers := opts.Workers
	if workers == 0 {
		workers = 4
	}
	appConfig, err := app.NewConfig(app.Config{
		PipelinePath: pipelineDir,
		Workdir:      workDir,
		Job:          opts.Job,
		ReportPath:   opts.ReportPath,
		DryRun:       opts.DryRun,
		LogFormat:    "text",
		LogLevel:     "debug",
		WorkerCount:  workers,
	})
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{Workdir: workDir}

	// The app panics on startup errors; surface them as harness errors so
	// tests can assert on them.
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("startup: %v", r)
			}
		}()
		result.App = app.NewApp(logBuffer, appConfig, hcl.NewLoader(), runner, opts.Modules...)
	}()

	if result.App != nil {
		result.Err = result.App.Run(ctx)
	}
	result.LogOutput = logBuffer.String()
	return result
}

// WriteWorkdirFile creates a file (and parents) inside the harness checkout.
func WriteWorkdirFile(t *testing.T, workdir, relPath, content string) {
	t.Helper()
	full := filepath.Join(workdir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}
