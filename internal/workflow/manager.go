package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"renderq/internal/logging"
)

// Manager runs a set of workers concurrently.
type Manager struct {
	workers []*Worker
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager builds a manager for the given workers.
func NewManager(logger *slog.Logger, workers ...*Worker) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		workers: workers,
		logger:  logging.NewComponentLogger(logger, component),
	}
}

// Run starts every worker and blocks until they all stop. A worker that fails
// (for example on an empty queue) stops the others and its error is returned.
// Cancelling ctx stops all workers and returns nil.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.workers) == 0 {
		m.mu.Unlock()
		return errors.New("no workers configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(len(m.workers))
	m.mu.Unlock()

	var (
		errMu sync.Mutex
		errs  []error
	)
	for _, worker := range m.workers {
		go func(worker *Worker) {
			defer m.wg.Done()
			if err := worker.Run(runCtx); err != nil {
				logging.ErrorWithContext(m.logger, "worker exited", "worker_failed",
					append(logging.ErrorAttrs(err),
						logging.String(logging.FieldLane, string(worker.Role())),
						logging.String(logging.FieldErrorHint, "fix the queue file and restart renderq"),
					)...,
				)
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
				cancel()
			}
		}(worker)
	}
	m.wg.Wait()

	m.mu.Lock()
	m.running = false
	m.cancel = nil
	m.mu.Unlock()
	cancel()
	return errors.Join(errs...)
}

// Stop cancels a running Run and waits for the workers to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
}

// Statuses returns a snapshot of every worker.
func (m *Manager) Statuses() []Status {
	out := make([]Status, 0, len(m.workers))
	for _, worker := range m.workers {
		out = append(out, worker.Status())
	}
	return out
}
