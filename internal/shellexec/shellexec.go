// Package shellexec runs the external build toolchain (pip, setup.py, twine,
// auditwheel, docker) as subprocesses. Commands are argv vectors, not shell
// strings; the Split helper turns a configured command string into argv, and
// ShellCommand wraps a script for the cases that genuinely need a shell.
package shellexec

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Command describes one subprocess invocation.
type Command struct {
	// Argv is the program and its arguments. Must not be empty.
	Argv []string
	// Dir is the working directory. Empty means the process inherits ours.
	Dir string
	// Env holds extra KEY=VALUE entries appended to the inherited environment.
	Env []string
}

// String returns the command as a display string. Callers mask it before
// logging.
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Result is the outcome of a finished subprocess.
type Result struct {
	ExitCode int
	// Output is the combined stdout/stderr, already masked.
	Output   string
	Duration time.Duration
}

// Runner executes commands. The OS implementation shells out; tests use a
// scripted fake.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExitError reports a subprocess that ran and exited non-zero.
type ExitError struct {
	Argv     []string
	ExitCode int
	// Output is the masked combined-output tail, for error context.
	Output string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("command '%s' exited with code %d", strings.Join(e.Argv, " "), e.ExitCode)
}

// Split parses a configured command string into argv using POSIX word
// splitting, without invoking a shell.
func Split(command string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("splitting command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}

// ShellCommand wraps a script so it runs under a shell. Used for steps that
// need shell features (globs, &&); everything else goes through Split.
func ShellCommand(script string) []string {
	return []string{"sh", "-c", script}
}
