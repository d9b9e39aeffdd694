// Package auditwheel implements the manylinux repair step: every wheel in the
// input directory is rewritten for the requested platform tag with
// `auditwheel repair`, and the output is verified to actually carry that tag.
package auditwheel

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wheelforge/wheelforge/internal/artifact"
	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/runtime"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the auditwheel runner.
type Input struct {
	// Plat is the platform tag to repair to, e.g. manylinux2014_x86_64.
	Plat string `hcl:"plat"`
	// WheelDir holds the wheels to repair, relative to the checkout.
	WheelDir string `hcl:"wheel_dir,optional"`
	// OutDir receives the repaired wheels, relative to the checkout.
	OutDir string `hcl:"out_dir,optional"`
}

// Output lists the repaired wheels.
type Output struct {
	Wheels []string
}

// OnRunAuditwheel is the handler for the 'auditwheel' runner.
func OnRunAuditwheel(ctx context.Context, sc *runtime.StepContext, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	wheelDir := input.WheelDir
	if wheelDir == "" {
		wheelDir = "wheelhouse"
	}
	outDir := input.OutDir
	if outDir == "" {
		outDir = "wheelhouse-manylinux"
	}

	wheels, err := artifact.ScanWheels(filepath.Join(sc.Workdir, wheelDir))
	if err != nil {
		return nil, err
	}
	if len(wheels) == 0 {
		return nil, fmt.Errorf("no wheels found in %s/ to repair", wheelDir)
	}

	for _, w := range wheels {
		if w.IsPure() {
			logger.Info("Skipping pure wheel.", "wheel", w.Filename())
			continue
		}
		_, err := sc.Exec.Run(ctx, shellexec.Command{
			Argv: []string{
				"auditwheel", "repair",
				wheelDir + "/" + w.Filename(),
				"--plat", input.Plat,
				"-w", outDir + "/",
			},
			Dir: sc.Workdir,
		})
		if err != nil {
			return nil, fmt.Errorf("repairing %s: %w", w.Filename(), err)
		}
	}

	repaired, err := artifact.ScanWheels(filepath.Join(sc.Workdir, outDir))
	if err != nil {
		return nil, err
	}
	if len(repaired) == 0 {
		return nil, fmt.Errorf("auditwheel repair produced no wheels in %s/", outDir)
	}

	// Repaired wheels must carry the requested platform tag.
	var offending []string
	var paths []string
	for _, w := range repaired {
		if !w.HasPlatformTag(input.Plat) {
			offending = append(offending, w.Filename())
		}
		paths = append(paths, w.Path)
	}
	if len(offending) > 0 {
		return nil, fmt.Errorf("repaired wheels missing platform tag '%s': %s",
			input.Plat, strings.Join(offending, ", "))
	}
	logger.Info("Repaired wheels.", "count", len(paths), "plat", input.Plat)

	return &Output{Wheels: paths}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("auditwheel", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunAuditwheel,
	})
}
