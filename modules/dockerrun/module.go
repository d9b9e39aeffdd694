// Package dockerrun implements the explicit containerized step used by the
// cross-architecture build: a shell script executed inside a named image
// (typically quay.io/pypa/manylinux2014_aarch64 under qemu emulation), with
// the checkout bind-mounted at /io.
package dockerrun

import (
	"context"
	"fmt"
	"sort"

	"github.com/wheelforge/wheelforge/internal/registry"
	"github.com/wheelforge/wheelforge/internal/runtime"
	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the docker_run runner.
type Input struct {
	Image string `hcl:"image"`
	// Script runs under `sh -c` inside the container.
	Script     string            `hcl:"script"`
	Privileged bool              `hcl:"privileged,optional"`
	Env        map[string]string `hcl:"env,optional"`
	// Platform is passed as --platform when set, e.g. linux/arm64.
	Platform string `hcl:"platform,optional"`
}

// OnRunDockerRun is the handler for the 'docker_run' runner.
func OnRunDockerRun(ctx context.Context, sc *runtime.StepContext, input *Input) (any, error) {
	argv := []string{"docker", "run", "--rm"}
	if input.Privileged {
		argv = append(argv, "--privileged")
	}
	if input.Platform != "" {
		argv = append(argv, "--platform", input.Platform)
	}
	argv = append(argv, "-v", sc.Workdir+":/io", "-w", "/io")

	envKeys := make([]string, 0, len(input.Env))
	for k := range input.Env {
		envKeys = append(envKeys, k)
	}
	sort.Strings(envKeys)
	for _, k := range envKeys {
		argv = append(argv, "-e", k+"="+input.Env[k])
	}

	argv = append(argv, input.Image, "sh", "-c", input.Script)

	result, err := sc.Exec.Run(ctx, shellexec.Command{Argv: argv, Dir: sc.Workdir})
	if err != nil {
		return nil, fmt.Errorf("containerized step failed: %w", err)
	}
	return result, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("docker_run", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunDockerRun,
	})
}
