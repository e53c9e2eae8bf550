// Package process spawns toolchain commands and collects their decoded output.
//
// Every call starts exactly one child process. Arguments are passed as a list,
// never through a shell, so source code handed over as an argument is taken
// literally. Output and error streams are decoded chunk by chunk with the
// encoding requested by the caller and appended to per-call buffers.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// genericFailure is reported when a process exits non-zero without writing to stderr.
const genericFailure = "Code execution failed"

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Encoding decodes stdout/stderr and encodes Stdin. Nil means UTF-8.
	Encoding encoding.Encoding
	// Stdin, when non-nil, is written to the process in one go and the
	// stream is closed right after.
	Stdin *string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// CompileResult is what a compile step leaves behind.
type CompileResult struct {
	Stdout string
	Stderr string
}

// ExitError reports a process that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	// Stdout is only populated by RunCapturingBoth.
	Stdout string
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return genericFailure
}

// SpawnError reports a process that could not be started at all,
// typically because the executable is missing from PATH.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return e.Err.Error()
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Runner starts processes. The zero value is not usable; call NewRunner.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a Runner that logs each invocation at debug level.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run starts the command and resolves with its stdout when it exits 0.
// A non-zero exit yields an *ExitError carrying the stderr text; a start
// failure yields a *SpawnError.
func (r *Runner) Run(ctx context.Context, c Command) (string, error) {
	stdout, stderr, err := r.run(ctx, c)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			exitErr.Stderr = stderr
		}
		return "", err
	}
	return stdout, nil
}

// RunCapturingBoth is the compile-step variant of Run: it hands back both
// streams, and on a non-zero exit the *ExitError carries both of them too.
func (r *Runner) RunCapturingBoth(ctx context.Context, c Command) (CompileResult, error) {
	stdout, stderr, err := r.run(ctx, c)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			exitErr.Stdout = stdout
			exitErr.Stderr = stderr
		}
		return CompileResult{}, err
	}
	return CompileResult{Stdout: stdout, Stderr: stderr}, nil
}

func (r *Runner) run(ctx context.Context, c Command) (string, string, error) {
	enc := orUTF8(c.Encoding)
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var outBuf, errBuf bytes.Buffer
	// Each stream gets its own decoder: transformers keep state between writes.
	stdout := transform.NewWriter(&outBuf, enc.NewDecoder())
	stderr := transform.NewWriter(&errBuf, enc.NewDecoder())
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if c.Stdin != nil {
		in, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String(*c.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("process: encoding stdin for %s: %w", c.Name, err)
		}
		cmd.Stdin = strings.NewReader(in)
	}

	runErr := cmd.Run()

	// Flush whatever the decoders still hold.
	stdout.Close()
	stderr.Close()

	r.logger.Debug("process finished",
		slog.String("command", c.String()),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("ok", runErr == nil),
	)

	if runErr == nil {
		return outBuf.String(), errBuf.String(), nil
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		return outBuf.String(), errBuf.String(), fmt.Errorf("process: %s: %w", c.Name, ctx.Err())
	case errors.As(runErr, &exitErr):
		return outBuf.String(), errBuf.String(), &ExitError{
			Command: c.Name,
			Code:    exitErr.ExitCode(),
		}
	default:
		return outBuf.String(), errBuf.String(), &SpawnError{Command: c.Name, Err: runErr}
	}
}
