package shellexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/wheelforge/wheelforge/internal/ctxlog"
	"github.com/wheelforge/wheelforge/internal/secrets"
)

// OSRunner executes commands with os/exec, streaming masked output lines to
// the context logger and capturing them for the Result.
type OSRunner struct {
	Masker *secrets.Masker
}

// NewOSRunner creates an OSRunner with the given masker.
func NewOSRunner(masker *secrets.Masker) *OSRunner {
	return &OSRunner{Masker: masker}
}

// Run implements Runner.
func (r *OSRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if len(cmd.Argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}
	logger := ctxlog.FromContext(ctx)
	logger.Info("Running command.", "cmd", r.Masker.Mask(cmd.String()), "dir", cmd.Dir)

	proc := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	proc.Dir = cmd.Dir
	proc.Env = append(os.Environ(), cmd.Env...)

	sink := &outputSink{masker: r.Masker}
	stdout, err := proc.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attaching stdout: %w", err)
	}
	stderr, err := proc.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("attaching stderr: %w", err)
	}

	start := time.Now()
	if err := proc.Start(); err != nil {
		return nil, fmt.Errorf("starting '%s': %w", r.Masker.Mask(cmd.String()), err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go sink.consume(ctx, stdout, &wg)
	go sink.consume(ctx, stderr, &wg)
	wg.Wait()

	waitErr := proc.Wait()
	result := &Result{
		ExitCode: proc.ProcessState.ExitCode(),
		Output:   sink.String(),
		Duration: time.Since(start),
	}

	if waitErr != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return result, &ExitError{
				Argv:     cmd.Argv,
				ExitCode: result.ExitCode,
				Output:   result.Output,
			}
		}
		return result, fmt.Errorf("running '%s': %w", r.Masker.Mask(cmd.String()), waitErr)
	}

	logger.Debug("Command finished.", "cmd", cmd.Argv[0], "duration", result.Duration)
	return result, nil
}

// outputSink collects subprocess output line by line, masking each line and
// forwarding it to the context logger.
type outputSink struct {
	masker *secrets.Masker
	mu     sync.Mutex
	lines  []string
}

func (s *outputSink) consume(ctx context.Context, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	logger := ctxlog.FromContext(ctx)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := s.masker.Mask(scanner.Text())
		logger.Debug("  | " + line)
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()
	}
}

// String returns the captured combined output.
func (s *outputSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.lines, "\n")
}
