package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

// ExitError carries a child process's non-zero exit code up to main, which exits with it.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// Runner runs a command to completion and reports its exit code.
type Runner interface {
	Run(ctx context.Context, cmd *Cmd) (int, error)
}

// ExecRunner runs commands as child processes wired to the given streams.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// DryRun prints commands instead of running them.
	DryRun bool
}

// NewExecRunner returns a runner attached to the process's own stdio.
func NewExecRunner(dryRun bool) *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		DryRun: dryRun,
	}
}

func (r *ExecRunner) Run(ctx context.Context, cmd *Cmd) (int, error) {
	if r.DryRun {
		console.Info("+ " + cmd.String())
		return 0, nil
	}
	console.Verbose("+ " + cmd.String())

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Env = cmd.Env.Slice()
	c.Dir = cmd.Dir
	c.Stdin = r.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	err := c.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitCode(exitErr), nil
	}
	return -1, fmt.Errorf("failed to run %s: %w", cmd.Path, err)
}

// exitCode maps a child killed by a signal to 128+signal, as sh reports it.
func exitCode(exitErr *exec.ExitError) int {
	if code := exitErr.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}

// RunChecked runs cmd and turns a non-zero exit code into an *ExitError.
func RunChecked(ctx context.Context, r Runner, cmd *Cmd) error {
	code, err := r.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
