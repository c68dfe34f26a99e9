package runner_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"renderq/internal/ledger"
	"renderq/internal/runner"
)

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

type stubProcess struct {
	pid  int
	done chan error
}

func (p *stubProcess) Pid() int    { return p.pid }
func (p *stubProcess) Wait() error { return <-p.done }

type startCall struct {
	binary string
	args   []string
}

// stubExecutor starts fake processes. When block is false each process exits
// immediately with exitErr; otherwise the test finishes it via finish.
type stubExecutor struct {
	mu       sync.Mutex
	calls    []startCall
	procs    []*stubProcess
	exitErr  error
	startErr error
	block    bool
}

func (s *stubExecutor) Start(_ context.Context, binary string, args []string, output io.Writer) (runner.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, startCall{binary: binary, args: append([]string(nil), args...)})
	if s.startErr != nil {
		return nil, s.startErr
	}
	_, _ = io.WriteString(output, "Blender render output\n")
	proc := &stubProcess{pid: 1000 + len(s.procs), done: make(chan error, 1)}
	if !s.block {
		proc.done <- s.exitErr
	}
	s.procs = append(s.procs, proc)
	return proc, nil
}

func (s *stubExecutor) finish(idx int, err error) {
	s.mu.Lock()
	proc := s.procs[idx]
	s.mu.Unlock()
	proc.done <- err
}

func (s *stubExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubExecutor) call(idx int) startCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[idx]
}

type finishCall struct {
	id       string
	exitCode int
	errText  string
}

type stubRecorder struct {
	mu       sync.Mutex
	started  []ledger.Launch
	pids     map[string]int
	finished []finishCall
}

func (r *stubRecorder) RecordStart(_ context.Context, launch ledger.Launch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, launch)
	return nil
}

func (r *stubRecorder) RecordPID(_ context.Context, id string, pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pids == nil {
		r.pids = map[string]int{}
	}
	r.pids[id] = pid
	return nil
}

func (r *stubRecorder) RecordFinish(_ context.Context, id string, _ time.Time, exitCode int, errText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, finishCall{id: id, exitCode: exitCode, errText: errText})
	return nil
}

func (r *stubRecorder) snapshot() ([]ledger.Launch, []finishCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ledger.Launch(nil), r.started...), append([]finishCall(nil), r.finished...)
}
