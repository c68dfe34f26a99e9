package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"renderq/internal/renderqueue"
	"renderq/internal/services"
)

// Role selects what a worker launches.
type Role string

const (
	RoleRender    Role = "render"
	RoleComposite Role = "composite"
)

// Roles lists every worker role in launch order.
var Roles = []Role{RoleRender, RoleComposite}

// ParseRole accepts "render" or "composite" in any case.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleRender:
		return RoleRender, nil
	case RoleComposite:
		return RoleComposite, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, component, "parse role",
			fmt.Sprintf("unknown worker role %q (want render or composite)", value), nil)
	}
}

// State is the worker's position in its control loop.
type State string

const (
	StateEvaluating State = "EVALUATING_CURRENT"
	StateLaunching  State = "LAUNCHING_WORK"
	StateAdvancing  State = "ADVANCING"
	StateSleeping   State = "SLEEPING"
)

// QueueSource is the worker's view of the render queue.
type QueueSource interface {
	Snapshot() *renderqueue.Snapshot
	Refresh(ctx context.Context) bool
}

// ShotListRefresher reloads the shot list when its file changes.
type ShotListRefresher interface {
	Refresh() bool
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Status is a point-in-time view of a worker.
type Status struct {
	Role       Role
	State      State
	Cursor     renderqueue.ShotRef
	Iterations int
	Launches   int
}
