package chomp

import (
	"context"
	"fmt"

	"chompie/internal/tactile"
)

// CommandRunner adapts a tactile executor to Runner.
type CommandRunner struct {
	executor tactile.Executor
	cmd      tactile.Command
}

// NewCommandRunner returns a Runner that executes cmd on every call.
func NewCommandRunner(executor tactile.Executor, cmd tactile.Command) *CommandRunner {
	return &CommandRunner{executor: executor, cmd: cmd}
}

// Run implements Runner.
func (r *CommandRunner) Run(ctx context.Context) (Result, error) {
	res, err := r.executor.Execute(ctx, r.cmd)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	if !res.Success {
		return Result{}, fmt.Errorf("%w: %s", ErrLaunch, res.Error)
	}
	if res.Killed {
		return Result{}, fmt.Errorf("%w: killed (%s)", ErrUndetermined, res.KillReason)
	}
	if res.Truncated {
		return Result{}, fmt.Errorf("%w: output exceeded capture limit by %d bytes", ErrUndetermined, res.TruncatedBytes)
	}
	return Result{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}, nil
}
