package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// maxCaptured bounds how much of each output stream is kept on the Outcome.
const maxCaptured = 4096

// CommandInstaller runs `<Manager> install` in the target directory.
type CommandInstaller struct {
	Manager string
	// Args overrides the default ["install"].
	Args []string
	// Stdout and Stderr receive the live package-manager output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Install runs the package manager in dir.
func (c *CommandInstaller) Install(ctx context.Context, dir string) Outcome {
	args := c.Args
	if len(args) == 0 {
		args = []string{"install"}
	}
	return Run(ctx, Request{Dir: dir, Command: c.Manager, Args: args}, c.Stdout, c.Stderr)
}

// Run executes req and classifies the result. It never returns an error:
// start failures and deadline expiry become StatusInvocationFailed, non-zero
// exits become StatusProcessFailed.
func Run(ctx context.Context, req Request, stdout, stderr io.Writer) Outcome {
	out := Outcome{Request: req}

	bin, err := exec.LookPath(req.Command)
	if err != nil {
		out.Status = StatusInvocationFailed
		out.Reason = fmt.Errorf("%s not found on PATH: %w", req.Command, err)
		return out
	}

	if info, err := os.Stat(req.Dir); err != nil || !info.IsDir() {
		out.Status = StatusInvocationFailed
		out.Reason = fmt.Errorf("working directory %s is not accessible", req.Dir)
		return out
	}

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	stdoutBuf := newTailBuffer(maxCaptured)
	stderrBuf := newTailBuffer(maxCaptured)
	cmd := exec.CommandContext(ctx, bin, req.Args...)
	cmd.Dir = req.Dir
	cmd.Stdout = io.MultiWriter(stdout, stdoutBuf)
	cmd.Stderr = io.MultiWriter(stderr, stderrBuf)

	start := time.Now()
	err = cmd.Run()
	out.Duration = time.Since(start)
	out.Stdout = stdoutBuf.String()
	out.Stderr = stderrBuf.String()

	if ctxErr := ctx.Err(); ctxErr != nil {
		out.Status = StatusInvocationFailed
		out.Reason = fmt.Errorf("%s interrupted: %w", req.Command, ctxErr)
		return out
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.Status = StatusProcessFailed
			out.ExitCode = exitErr.ExitCode()
			return out
		}
		out.Status = StatusInvocationFailed
		out.Reason = fmt.Errorf("starting %s: %w", req.Command, err)
		return out
	}

	out.Status = StatusSuccess
	return out
}

// tailBuffer keeps only the last max bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{buf: make([]byte, 0, limit), max: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.max {
		t.buf = append(t.buf[:0], p[n-t.max:]...)
		return n, nil
	}
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
