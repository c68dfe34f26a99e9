package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"renderq/internal/logging"
	"renderq/internal/renderqueue"
	"renderq/internal/runner"
	"renderq/internal/services"
)

const component = "workflow"

// ErrEmptyQueue is returned when a worker starts against a queue with no shots.
var ErrEmptyQueue = fmt.Errorf("%w: render queue has no shots", services.ErrLoad)

// WorkerConfig holds a lane's schedule.
type WorkerConfig struct {
	Role Role
	// PollInterval is slept after every iteration.
	PollInterval time.Duration
	// EndOfQueueInterval is slept before wrapping back to the first shot.
	EndOfQueueInterval time.Duration
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithSleeper replaces the context-aware sleep (primarily for tests).
func WithSleeper(sleep SleepFunc) WorkerOption {
	return func(w *Worker) {
		if sleep != nil {
			w.sleep = sleep
		}
	}
}

// WithShotList refreshes the shot list alongside the queue every iteration.
func WithShotList(shots ShotListRefresher) WorkerOption {
	return func(w *Worker) { w.shots = shots }
}

// Worker walks the queue for one lane.
type Worker struct {
	cfg    WorkerConfig
	queue  QueueSource
	runner runner.Runner
	shots  ShotListRefresher
	sleep  SleepFunc
	logger *slog.Logger

	mu         sync.Mutex
	cursor     renderqueue.ShotRef
	started    bool
	state      State
	iterations int
	launches   int
}

// NewWorker constructs a worker for cfg.Role.
func NewWorker(cfg WorkerConfig, queue QueueSource, r runner.Runner, logger *slog.Logger, opts ...WorkerOption) (*Worker, error) {
	if _, err := ParseRole(string(cfg.Role)); err != nil {
		return nil, err
	}
	if queue == nil || r == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "queue and runner are required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &Worker{
		cfg:    cfg,
		queue:  queue,
		runner: r,
		sleep:  sleepContext,
		logger: logging.NewComponentLogger(logger, component),
		state:  StateEvaluating,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Role reports the worker's lane.
func (w *Worker) Role() Role { return w.cfg.Role }

// Status returns the worker's current position.
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Role:       w.cfg.Role,
		State:      w.state,
		Cursor:     w.cursor,
		Iterations: w.iterations,
		Launches:   w.launches,
	}
}

// Start places the cursor on the first queued shot.
func (w *Worker) Start() error {
	first, ok := w.queue.Snapshot().First()
	if !ok {
		return ErrEmptyQueue
	}
	w.mu.Lock()
	w.cursor = first
	w.started = true
	w.state = StateEvaluating
	w.mu.Unlock()
	return nil
}

// Run starts the worker and steps until ctx is cancelled. Cancellation is a
// clean stop and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	ctx = services.WithLane(ctx, string(w.cfg.Role))
	logger := logging.WithContext(ctx, w.logger)
	logger.Info("worker started",
		logging.String(logging.FieldEventType, "worker_started"),
		logging.String("first_shot", w.Status().Cursor.String()),
		logging.Duration("poll_interval", w.cfg.PollInterval),
		logging.Duration("end_of_queue_interval", w.cfg.EndOfQueueInterval),
	)
	for {
		if err := w.Step(ctx); err != nil {
			if ctx.Err() != nil {
				status := w.Status()
				logger.Info("worker stopped",
					logging.String(logging.FieldEventType, "worker_stopped"),
					logging.Int("iterations", status.Iterations),
					logging.Int("launches", status.Launches),
				)
				return nil
			}
			return err
		}
	}
}

// Step runs one iteration: evaluate the cursor shot, launch or advance, then
// refresh the queue and sleep the poll interval. Only context cancellation is
// returned; every other failure is logged and the next Step retries.
func (w *Worker) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		if err := w.Start(); err != nil {
			return err
		}
		w.mu.Lock()
	}
	w.iterations++
	current := w.cursor
	w.mu.Unlock()

	ctx = services.WithShot(services.WithLane(ctx, string(w.cfg.Role)), current.String())
	logger := logging.WithContext(ctx, w.logger)
	quality := w.queue.Snapshot().Quality

	w.setState(StateEvaluating)
	var advance bool
	switch w.cfg.Role {
	case RoleComposite:
		advance = w.evaluateComposite(ctx, logger, current, quality)
	default:
		advance = w.evaluateRender(ctx, logger, current, quality)
	}

	if advance {
		w.setState(StateAdvancing)
		if err := w.advance(ctx, logger, current); err != nil {
			return err
		}
	}

	w.setState(StateSleeping)
	w.refresh(ctx)
	return w.sleep(ctx, w.cfg.PollInterval)
}

// evaluateRender launches a background build for an incomplete shot and keeps
// the cursor on it until its frames are all present.
func (w *Worker) evaluateRender(ctx context.Context, logger *slog.Logger, current renderqueue.ShotRef, quality renderqueue.Quality) bool {
	done, err := w.runner.IsComplete(ctx, current, quality)
	if err != nil {
		return w.evaluationFailed(logger, "render completion check failed", err)
	}
	if done {
		logger.Debug("shot render complete", logging.String(logging.FieldEventType, "shot_complete"))
		return true
	}
	w.setState(StateLaunching)
	err = w.runner.Build(ctx, current, quality, runner.LaunchOptions{Background: true})
	return w.launchResult(logger, "build", quality, err)
}

// evaluateComposite launches the compositor when the shot wants it, its
// render is complete and it has not been composited, then always moves on.
func (w *Worker) evaluateComposite(ctx context.Context, logger *slog.Logger, current renderqueue.ShotRef, quality renderqueue.Quality) bool {
	enabled, err := w.runner.CompositingEnabled(ctx, current)
	if err != nil {
		return w.evaluationFailed(logger, "compositing flag lookup failed", err)
	}
	if !enabled {
		logger.Debug("compositing disabled for shot", logging.String(logging.FieldEventType, "composite_skipped"))
		return true
	}
	rendered, err := w.runner.IsComplete(ctx, current, quality)
	if err != nil {
		return w.evaluationFailed(logger, "render completion check failed", err)
	}
	if !rendered {
		logger.Debug("render incomplete; compositing deferred",
			logging.String(logging.FieldEventType, "composite_waiting_for_render"),
		)
		return true
	}
	done, err := w.runner.IsComposited(ctx, current, quality)
	if err != nil {
		return w.evaluationFailed(logger, "composite completion check failed", err)
	}
	if done {
		logger.Debug("shot composite complete", logging.String(logging.FieldEventType, "shot_complete"))
		return true
	}
	w.setState(StateLaunching)
	err = w.runner.Composite(ctx, current, quality, runner.LaunchOptions{Background: true})
	w.launchResult(logger, "composite", quality, err)
	return true
}

// evaluationFailed logs a failed completion check. Shots that cannot be
// resolved from the shot list are skipped; anything else is retried on the
// same shot next iteration.
func (w *Worker) evaluationFailed(logger *slog.Logger, msg string, err error) bool {
	skip := persistent(err)
	hint := "check the render output directory; the shot is re-evaluated next iteration"
	if skip {
		hint = "fix the shot list entry; the shot is skipped until then"
	}
	logging.ErrorWithContext(logger, msg, "completion_check_failed",
		append(logging.ErrorAttrs(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.Bool("skipped", skip),
		)...,
	)
	return skip
}

// launchResult logs the outcome of a launch and reports whether the cursor
// should move on because retrying cannot succeed.
func (w *Worker) launchResult(logger *slog.Logger, pass string, quality renderqueue.Quality, err error) bool {
	switch {
	case err == nil:
		w.mu.Lock()
		w.launches++
		w.mu.Unlock()
		logger.Info(pass+" launched",
			logging.String(logging.FieldEventType, pass+"_launched"),
			logging.String("quality", quality.String()),
		)
		return false
	case runner.IsAlreadyRunning(err):
		logger.Debug(pass+" already running",
			logging.String(logging.FieldEventType, pass+"_in_flight"),
		)
		return false
	default:
		skip := persistent(err)
		logging.ErrorWithContext(logger, pass+" launch failed", pass+"_launch_failed",
			append(logging.ErrorAttrs(err),
				logging.String(logging.FieldErrorHint, "inspect the blender tool log; the shot is retried on the next pass"),
				logging.Bool("skipped", skip),
			)...,
		)
		return skip
	}
}

// advance moves the cursor past current. Wrapping sleeps the end-of-queue
// interval and then restarts at whatever is first in the queue by then.
func (w *Worker) advance(ctx context.Context, logger *slog.Logger, current renderqueue.ShotRef) error {
	next, ok := w.queue.Snapshot().Next(current)
	if !ok {
		logging.WarnWithContext(logger, "render queue is empty; waiting for shots", "queue_empty",
			logging.Duration("retry_in", w.cfg.EndOfQueueInterval),
			logging.String(logging.FieldImpact, "no shots are evaluated until the queue file lists some"),
		)
		return w.sleep(ctx, w.cfg.EndOfQueueInterval)
	}
	if next.Wrapped {
		if next.Missing {
			logger.Info("shot no longer queued; restarting at the first shot",
				logging.String(logging.FieldEventType, "shot_missing_restarting"),
				logging.Duration("sleep", w.cfg.EndOfQueueInterval),
			)
		} else {
			logger.Info("end of queue reached; restarting at the first shot",
				logging.String(logging.FieldEventType, "queue_wrapped"),
				logging.Duration("sleep", w.cfg.EndOfQueueInterval),
			)
		}
		if err := w.sleep(ctx, w.cfg.EndOfQueueInterval); err != nil {
			return err
		}
		w.queue.Refresh(ctx)
		if first, ok := w.queue.Snapshot().First(); ok {
			next.Next = first
		}
	}
	w.mu.Lock()
	w.cursor = next.Next
	w.mu.Unlock()
	logger.Debug("cursor advanced",
		logging.String(logging.FieldEventType, "cursor_advanced"),
		logging.String("next_shot", next.Next.String()),
	)
	return nil
}

func (w *Worker) refresh(ctx context.Context) {
	w.queue.Refresh(ctx)
	if w.shots != nil {
		w.shots.Refresh()
	}
}

func (w *Worker) setState(state State) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}

// persistent reports errors that retrying the same shot cannot fix.
func persistent(err error) bool {
	return errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrConfiguration)
}
