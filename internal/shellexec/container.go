package shellexec

import "context"

// ContainerRunner decorates a Runner so that every command runs inside a
// docker container. The working directory of the command is bind-mounted at
// /io so that artifact directories (dist/, wheelhouse/) land on the host.
// This is the runner-side equivalent of a job's `container` attribute.
type ContainerRunner struct {
	Inner Runner
	// Image is the container image, e.g. quay.io/pypa/manylinux2014_x86_64.
	Image string
	// Workdir is the host directory mounted at /io.
	Workdir string
}

// Wrap rewrites a command into its docker run equivalent.
func (c *ContainerRunner) Wrap(cmd Command) Command {
	argv := []string{
		"docker", "run", "--rm",
		"-v", c.Workdir + ":/io",
		"-w", "/io",
	}
	for _, env := range cmd.Env {
		argv = append(argv, "-e", env)
	}
	argv = append(argv, c.Image)
	argv = append(argv, cmd.Argv...)

	return Command{
		Argv: argv,
		// docker itself runs from the host workdir; the mount handles the rest.
		Dir: c.Workdir,
	}
}

// Run implements Runner.
func (c *ContainerRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	return c.Inner.Run(ctx, c.Wrap(cmd))
}
