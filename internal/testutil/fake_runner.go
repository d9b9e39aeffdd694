package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/wheelforge/wheelforge/internal/shellexec"
)

// FakeCall records one command sent to the FakeRunner.
type FakeCall struct {
	Argv []string
	Dir  string
	Env  []string
}

// Line returns the call as a single command line.
func (c FakeCall) Line() string {
	return strings.Join(c.Argv, " ")
}

// FakeRunner is a scripted shellexec.Runner. Commands are matched against
// stubs in registration order; unmatched commands succeed with empty output.
// Stubs may have side effects (e.g. dropping wheel files into a directory) to
// imitate the external toolchain.
type FakeRunner struct {
	mu    sync.Mutex
	calls []FakeCall
	stubs []stub
}

type stub struct {
	match   func(cmd shellexec.Command) bool
	respond func(cmd shellexec.Command) (*shellexec.Result, error)
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// Stub registers a matcher and its response.
func (f *FakeRunner) Stub(match func(cmd shellexec.Command) bool, respond func(cmd shellexec.Command) (*shellexec.Result, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs = append(f.stubs, stub{match: match, respond: respond})
}

// StubPrefix registers a response for commands whose line starts with prefix.
func (f *FakeRunner) StubPrefix(prefix string, respond func(cmd shellexec.Command) (*shellexec.Result, error)) {
	f.Stub(func(cmd shellexec.Command) bool {
		return strings.HasPrefix(cmd.String(), prefix)
	}, respond)
}

// FailPrefix makes commands with the given prefix fail with the output.
func (f *FakeRunner) FailPrefix(prefix string, exitCode int, output string) {
	f.StubPrefix(prefix, func(cmd shellexec.Command) (*shellexec.Result, error) {
		result := &shellexec.Result{ExitCode: exitCode, Output: output}
		return result, &shellexec.ExitError{Argv: cmd.Argv, ExitCode: exitCode, Output: output}
	})
}

// Run implements shellexec.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd shellexec.Command) (*shellexec.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Argv: cmd.Argv, Dir: cmd.Dir, Env: cmd.Env})
	stubs := make([]stub, len(f.stubs))
	copy(stubs, f.stubs)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, s := range stubs {
		if s.match(cmd) {
			return s.respond(cmd)
		}
	}
	return &shellexec.Result{ExitCode: 0}, nil
}

// Calls returns a copy of all recorded calls.
func (f *FakeRunner) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CommandLines returns every recorded call as a command line, in order.
func (f *FakeRunner) CommandLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}

// LinesWithPrefix returns the recorded command lines starting with prefix.
func (f *FakeRunner) LinesWithPrefix(prefix string) []string {
	var out []string
	for _, line := range f.CommandLines() {
		if strings.HasPrefix(line, prefix) {
			out = append(out, line)
		}
	}
	return out
}
