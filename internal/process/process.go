// Package process runs external toolchain and benchmark processes with a
// bounded lifetime and captured output.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultMaxOutput caps each captured stream.
	DefaultMaxOutput int64 = 8 << 20
)

// ErrTimeout is returned when a process outlives its deadline.
var ErrTimeout = errors.New("process timed out")

// Spec describes one external invocation.
type Spec struct {
	Name    string
	Args    []string
	Dir     string
	// Env entries are appended to the parent environment for this process only.
	Env     []string
	Stdin   io.Reader
	Timeout time.Duration
	// MaxOutput caps stdout and stderr separately; 0 means DefaultMaxOutput.
	MaxOutput int64
}

// Result holds what a finished process produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Elapsed spans process start to process exit.
	Elapsed time.Duration
}

// ExitError reports a process that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += ": " + lastLine(tail)
	}
	return msg
}

// String renders the command line for logs.
func (s Spec) String() string {
	return strings.TrimSpace(s.Name + " " + strings.Join(s.Args, " "))
}

// Runner executes a Spec. The package-level Run satisfies it; tests swap in fakes.
type Runner func(ctx context.Context, spec Spec) (Result, error)

// Run starts the process, waits for it to exit and returns its captured output.
// A non-zero exit is reported as *ExitError, an expired deadline as ErrTimeout,
// and a failure to start (missing binary, permissions) as the underlying error.
func Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}
	limit := spec.MaxOutput
	if limit <= 0 {
		limit = DefaultMaxOutput
	}

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	if spec.Stdin != nil {
		cmd.Stdin = spec.Stdin
	}

	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: limit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: 127}, fmt.Errorf("start %s: %w", spec.Name, err)
	}
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	res := Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: elapsed,
	}
	if waitErr == nil {
		return res, nil
	}

	res.ExitCode = exitStatus(waitErr)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%s after %s: %w", spec.Name, spec.Timeout, ErrTimeout)
	}
	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		return res, &ExitError{Command: spec.Name, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, waitErr
}

func exitStatus(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// cappedBuffer keeps the first limit bytes written and drops the rest.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int64
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	room := c.limit - int64(c.buf.Len())
	if room > 0 {
		if int64(len(p)) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) String() string { return c.buf.String() }
