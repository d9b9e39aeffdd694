// Package twine implements the publish step:
//
//	twine upload -r pypi -u <user> -p <password> --skip-existing
//	    --disable-progress-bar <artifacts...>
//
// The step is idempotent: --skip-existing is always passed, a tool-reported
// "already exists" failure is treated as success, and when an index API URL
// is configured the artifacts' versions are prechecked against the index so a
// fully published set skips the upload entirely.
package twine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jpillora/backoff"

	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/runtime"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the twine runner.
type Input struct {
	// Repository is twine's -r target.
	Repository string `hcl:"repository,optional"`
	User       string `hcl:"user"`
	Password   string `hcl:"password"`
	// DistGlob selects the artifacts to upload, relative to the checkout,
	// e.g. "dist/*" or "wheelhouse-manylinux/*.whl".
	DistGlob string `hcl:"dist_glob"`
	// IndexAPI is the base URL of the index JSON API used for the existence
	// precheck, e.g. https://pypi.org/pypi. Empty disables the precheck.
	IndexAPI string `hcl:"index_api,optional"`
	// Retries is how many times a transient upload failure is retried.
	Retries int `hcl:"retries,optional"`
}

// Output reports what the step did.
type Output struct {
	Uploaded []string
	Skipped  bool
}

// OnRunTwine is the handler for the 'twine' runner.
func OnRunTwine(ctx context.Context, sc *runtime.StepContext, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	repository := input.Repository
	if repository == "" {
		repository = "pypi"
	}

	artifacts, err := expandGlob(sc.Workdir, input.DistGlob)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("no artifacts match '%s'", input.DistGlob)
	}
	logger.Info("Publishing artifacts.", "count", len(artifacts), "repository", repository)

	if input.IndexAPI != "" && sc.Pipeline.Package != "" {
		published, err := allVersionsPublished(ctx, input.IndexAPI, sc.Pipeline.Package, artifacts)
		if err != nil {
			// The precheck is best-effort; the upload itself stays idempotent.
			logger.Warn("Index precheck failed, uploading anyway.", "error", err)
		} else if published {
			logger.Info("⏭️ All artifact versions already published, skipping upload.")
			return &Output{Skipped: true}, nil
		}
	}

	argv := []string{
		"twine", "upload",
		"-r", repository,
		"-u", input.User,
		"-p", input.Password,
		"--skip-existing",
		"--disable-progress-bar",
	}
	argv = append(argv, artifacts...)

	if err := uploadWithRetry(ctx, sc, argv, input.Retries); err != nil {
		return nil, err
	}
	logger.Info("📦 Upload finished.", "count", len(artifacts))
	return &Output{Uploaded: artifacts}, nil
}

// uploadWithRetry runs the upload, retrying transient failures with
// exponential backoff. An "already exists" rejection counts as success.
func uploadWithRetry(ctx context.Context, sc *runtime.StepContext, argv []string, retries int) error {
	logger := ctxlog.FromContext(ctx)
	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    30 * time.Second,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := b.Duration()
			logger.Warn("Retrying upload.", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		_, err := sc.Exec.Run(ctx, shellexec.Command{Argv: argv, Dir: sc.Workdir})
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var exitErr *shellexec.ExitError
		if errors.As(err, &exitErr) && alreadyExists(exitErr.Output) {
			// Idempotent re-run against an index that rejects duplicates
			// despite --skip-existing.
			logger.Info("Artifacts already on index, treating as success.")
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("upload failed after %d attempt(s): %w", retries+1, lastErr)
}

// alreadyExists sniffs tool output for the duplicate-upload rejection.
func alreadyExists(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "file already exists") ||
		strings.Contains(lower, "already exists")
}

// expandGlob resolves a checkout-relative glob into checkout-relative paths,
// so the same paths work on the host and inside a mounted container.
func expandGlob(workdir, glob string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(workdir, glob))
	if err != nil {
		return nil, fmt.Errorf("bad artifact glob '%s': %w", glob, err)
	}
	var rel []string
	for _, m := range matches {
		r, err := filepath.Rel(workdir, m)
		if err != nil {
			return nil, err
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("twine", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunTwine,
	})
}
