// Package qemuregister implements the binfmt registration step that enables
// running foreign-architecture containers under emulation. It must run before
// the emulated aarch64 build job's docker steps.
package qemuregister

import (
	"context"
	"fmt"

	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/runtime"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the qemu_register runner.
type Input struct {
	// Image is the registration image.
	Image string `hcl:"image,optional"`
}

// OnRunQemuRegister is the handler for the 'qemu_register' runner.
func OnRunQemuRegister(ctx context.Context, sc *runtime.StepContext, input *Input) (any, error) {
	image := input.Image
	if image == "" {
		image = "multiarch/qemu-user-static"
	}

	result, err := sc.Exec.Run(ctx, shellexec.Command{
		Argv: []string{
			"docker", "run", "--rm", "--privileged",
			image, "--reset", "-p", "yes",
		},
		Dir: sc.Workdir,
	})
	if err != nil {
		return nil, fmt.Errorf("registering qemu binfmt handlers: %w", err)
	}
	return result, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("qemu_register", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunQemuRegister,
	})
}
