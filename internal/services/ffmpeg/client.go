package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Result captures a completed ffmpeg invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner abstracts ffmpeg execution so stages can swap in fakes during tests.
// A non-zero exit code is reported through Result, not the error return; the
// error is reserved for launch failures and context cancellation.
type Runner interface {
	Run(ctx context.Context, args []string) (Result, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = strings.TrimSpace(binary)
		}
	}
}

// CLI wraps the ffmpeg command line.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Binary returns the configured executable name or path.
func (c *CLI) Binary() string {
	return c.binary
}

// Run executes ffmpeg with the provided arguments, capturing stdout and
// stderr. Context cancellation kills the process and surfaces the context
// error so callers can distinguish timeouts from encode failures.
func (c *CLI) Run(ctx context.Context, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, errors.New("ffmpeg run: no arguments")
	}

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, err
}

// StderrTail returns the last lines of stderr output, trimmed for log
// attachment. FFmpeg failures put the useful diagnostics at the end.
func StderrTail(stderr string, maxLines int) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" || maxLines <= 0 {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return strings.Join(lines, "\n")
}

var _ Runner = (*CLI)(nil)
