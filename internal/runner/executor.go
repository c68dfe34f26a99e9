package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Process is a started subprocess.
type Process interface {
	Pid() int
	Wait() error
}

// Executor abstracts command execution for testability.
type Executor interface {
	// Start launches binary with stdout and stderr sent to output. A nil ctx
	// (or one that is never cancelled) leaves the process running until it exits.
	Start(ctx context.Context, binary string, args []string, output io.Writer) (Process, error)
}

type commandExecutor struct{}

func (commandExecutor) Start(ctx context.Context, binary string, args []string, output io.Writer) (Process, error) {
	var cmd *exec.Cmd
	if ctx != nil {
		cmd = exec.CommandContext(ctx, binary, args...) //nolint:gosec
	} else {
		cmd = exec.Command(binary, args...) //nolint:gosec
	}
	cmd.Stdout = output
	cmd.Stderr = output
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}
	return cmdProcess{cmd: cmd}, nil
}

type cmdProcess struct {
	cmd *exec.Cmd
}

func (p cmdProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p cmdProcess) Wait() error { return p.cmd.Wait() }

// exitCode extracts the process exit status, or -1 when unknown.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}
