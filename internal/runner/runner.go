package runner

import (
	"context"
	"errors"

	"renderq/internal/renderqueue"
)

// ErrAlreadyRunning reports a launch refused because an identical one is in flight.
var ErrAlreadyRunning = errors.New("launch already running")

// LaunchOptions controls how a Blender job is started.
type LaunchOptions struct {
	// Background returns once the subprocess has started instead of waiting
	// for it to exit.
	Background bool
}

// Runner renders and composites shots and reports their output state.
type Runner interface {
	IsComplete(ctx context.Context, ref renderqueue.ShotRef, quality renderqueue.Quality) (bool, error)
	IsComposited(ctx context.Context, ref renderqueue.ShotRef, quality renderqueue.Quality) (bool, error)
	CompositingEnabled(ctx context.Context, ref renderqueue.ShotRef) (bool, error)
	Build(ctx context.Context, ref renderqueue.ShotRef, quality renderqueue.Quality, opts LaunchOptions) error
	Composite(ctx context.Context, ref renderqueue.ShotRef, quality renderqueue.Quality, opts LaunchOptions) error
}
