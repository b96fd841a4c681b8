// Package subproc runs external commands with captured output and typed
// exit errors, so failures can carry the child's exit code up the error
// chain to the process exit status.
package subproc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/vk/matchgridgo/internal/ctxlog"
)

// defaultMaxCapture bounds how much of each output stream is retained.
// The tail is kept because the useful part of a failing build or engine
// run is almost always at the end.
const defaultMaxCapture = 64 * 1024

// Command describes a single external command invocation.
type Command struct {
	// Path is the executable to run, resolved via PATH if not absolute.
	Path string
	// Args are passed to the command verbatim, in order.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds extra KEY=VALUE entries appended to the parent environment.
	Env []string
	// Stdout, when set, receives the live stdout stream in addition to the
	// captured tail. Same for Stderr.
	Stdout io.Writer
	Stderr io.Writer
	// MaxCapture overrides the captured tail size per stream. Zero means
	// the default.
	MaxCapture int
}

// Result holds the observable outcome of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ExitError reports a command that started successfully but exited non-zero.
type ExitError struct {
	Name string
	Code int
	// Stderr holds the captured tail of the command's stderr for context.
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Name, e.Code)
}

// Run executes the command and waits for it to finish. A non-zero exit
// returns the populated Result together with a wrapped *ExitError; other
// failures (not found, context cancellation) return their underlying error.
func Run(ctx context.Context, cmd Command) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("command", cmd.Path)
	logger.Debug("Starting external command.", "args", cmd.Args, "dir", cmd.Dir)

	maxCapture := cmd.MaxCapture
	if maxCapture <= 0 {
		maxCapture = defaultMaxCapture
	}
	outTail := newTailBuffer(maxCapture)
	errTail := newTailBuffer(maxCapture)

	var stdout io.Writer = outTail
	if cmd.Stdout != nil {
		stdout = io.MultiWriter(cmd.Stdout, outTail)
	}
	var stderr io.Writer = errTail
	if cmd.Stderr != nil {
		stderr = io.MultiWriter(cmd.Stderr, errTail)
	}

	execCmd := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Stdout = stdout
	execCmd.Stderr = stderr
	if len(cmd.Env) > 0 {
		execCmd.Env = append(execCmd.Environ(), cmd.Env...)
	}

	start := time.Now()
	runErr := execCmd.Run()
	result := Result{
		Stdout:   outTail.String(),
		Stderr:   errTail.String(),
		Duration: time.Since(start),
	}

	if runErr == nil {
		logger.Debug("Command finished.", "duration", result.Duration)
		return result, nil
	}

	// A killed child usually means our context expired; report that as the
	// cause rather than the secondary exit status.
	if ctx.Err() != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("command %q interrupted: %w", cmd.Path, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		logger.Debug("Command exited non-zero.", "code", result.ExitCode, "duration", result.Duration)
		return result, fmt.Errorf("run %s: %w", cmd.Path, &ExitError{
			Name:   cmd.Path,
			Code:   result.ExitCode,
			Stderr: result.Stderr,
		})
	}

	result.ExitCode = -1
	return result, fmt.Errorf("failed to run command %q: %w", cmd.Path, runErr)
}

// tailBuffer is an io.Writer that retains only the last capacity bytes
// written to it.
type tailBuffer struct {
	buf []byte
	cap int
}

func newTailBuffer(capacity int) *tailBuffer {
	return &tailBuffer{cap: capacity}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.cap {
		t.buf = append(t.buf[:0], p[n-t.cap:]...)
		return n, nil
	}
	if keep := t.cap - n; len(t.buf) > keep {
		t.buf = append(t.buf[:0], t.buf[len(t.buf)-keep:]...)
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
