package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"renderq/internal/config"
	"renderq/internal/logging"
	"renderq/internal/workflow"
)

// ErrInstanceRunning is returned when another process holds a role lock.
var ErrInstanceRunning = errors.New("another renderq worker is already running")

// Lanes is the workflow surface the daemon serves.
type Lanes interface {
	Run(ctx context.Context) error
}

type roleLock struct {
	role    workflow.Role
	path    string
	pidPath string
	lock    *flock.Flock
}

// Daemon holds the single-instance locks for a set of worker roles.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	locks  []*roleLock

	held    atomic.Bool
	running atomic.Bool
}

// New prepares a daemon for roles. No locks are taken until Acquire.
func New(cfg *config.Config, roles []workflow.Role, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if len(roles) == 0 {
		return nil, errors.New("daemon requires at least one worker role")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{cfg: cfg, logger: logging.NewComponentLogger(logger, "daemon")}
	for _, role := range roles {
		path := cfg.LockPath(string(role))
		d.locks = append(d.locks, &roleLock{
			role:    role,
			path:    path,
			pidPath: cfg.PIDPath(string(role)),
			lock:    flock.New(path),
		})
	}
	return d, nil
}

// Acquire takes every role lock or none of them.
func (d *Daemon) Acquire() error {
	if d.held.Load() {
		return errors.New("daemon locks already held")
	}
	if err := os.MkdirAll(d.cfg.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	for i, rl := range d.locks {
		ok, err := rl.lock.TryLock()
		if err != nil || !ok {
			d.unlock(d.locks[:i])
			if err != nil {
				return fmt.Errorf("acquire %s lock: %w", rl.role, err)
			}
			return fmt.Errorf("%w: %s lock %s is held", ErrInstanceRunning, rl.role, rl.path)
		}
		if err := writePIDFile(rl.pidPath); err != nil {
			d.logger.Warn("pid file not written",
				logging.Error(err),
				logging.String(logging.FieldEventType, "pid_file_failed"),
				logging.String(logging.FieldErrorHint, "check state directory permissions"),
				logging.String(logging.FieldImpact, "renderq check cannot report the worker pid"),
			)
		}
	}
	d.held.Store(true)
	return nil
}

// Release drops every role lock.
func (d *Daemon) Release() {
	if !d.held.Swap(false) {
		return
	}
	d.unlock(d.locks)
}

func (d *Daemon) unlock(locks []*roleLock) {
	for _, rl := range locks {
		_ = os.Remove(rl.pidPath)
		if err := rl.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release worker lock",
				logging.Error(err),
				logging.String("lock", rl.path),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the lock file if no renderq worker is running"),
				logging.String(logging.FieldImpact, "the next start may report a running instance"),
			)
		}
	}
}

// Serve runs lanes until ctx is cancelled or a lane fails. Acquire must have
// succeeded first.
func (d *Daemon) Serve(ctx context.Context, lanes Lanes) error {
	if !d.held.Load() {
		return errors.New("daemon locks not held")
	}
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	d.logger.Info("renderq workers started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.Any("locks", d.LockPaths()),
	)
	err := lanes.Run(ctx)
	d.logger.Info("renderq workers stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	return err
}

// Running reports whether Serve is active.
func (d *Daemon) Running() bool { return d.running.Load() }

// LockPaths lists the lock files this daemon manages.
func (d *Daemon) LockPaths() []string {
	paths := make([]string, 0, len(d.locks))
	for _, rl := range d.locks {
		paths = append(paths, rl.path)
	}
	return paths
}

// ReadPID returns the pid recorded for a role, or 0 when none is recorded.
func ReadPID(cfg *config.Config, role workflow.Role) int {
	data, err := os.ReadFile(cfg.PIDPath(string(role)))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

func writePIDFile(path string) error {
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
