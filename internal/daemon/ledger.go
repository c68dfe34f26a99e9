package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"renderq/internal/ledger"
	"renderq/internal/logging"
	"renderq/internal/runner"
	"renderq/internal/workflow"
)

// orphanedError is recorded for launches whose process exited while no
// renderq worker was watching it.
const orphanedError = "orphaned: blender exited while renderq was not running"

// LaunchStore is the ledger surface the daemon maintains at startup.
type LaunchStore interface {
	Running(ctx context.Context) ([]ledger.Launch, error)
	RecordFinish(ctx context.Context, id string, finished time.Time, exitCode int, errText string) error
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// ProcessAlive reports whether pid refers to a live process.
type ProcessAlive func(pid int) bool

// ReconcileLaunches closes out running launches of the given roles that were
// started by another session and whose process is gone. It returns how many
// launches were closed.
func ReconcileLaunches(ctx context.Context, store LaunchStore, roles []workflow.Role, sessionID string, alive ProcessAlive, now time.Time, logger *slog.Logger) (int, error) {
	if alive == nil {
		alive = runner.ProcessAlive
	}
	passes := make(map[ledger.Pass]struct{}, len(roles))
	for _, role := range roles {
		passes[ledger.Pass(role)] = struct{}{}
	}
	running, err := store.Running(ctx)
	if err != nil {
		return 0, fmt.Errorf("list running launches: %w", err)
	}
	closed := 0
	for _, launch := range running {
		if _, ok := passes[launch.Pass]; !ok || launch.SessionID == sessionID {
			continue
		}
		if alive(launch.PID) {
			continue
		}
		if err := store.RecordFinish(ctx, launch.ID, now, -1, orphanedError); err != nil {
			return closed, fmt.Errorf("close launch %s: %w", launch.ID, err)
		}
		closed++
		if logger != nil {
			logger.Info("orphaned launch closed",
				logging.String(logging.FieldEventType, "launch_orphaned"),
				logging.String(logging.FieldLaunchID, launch.ID),
				logging.String("pass", string(launch.Pass)),
				logging.String("shot", fmt.Sprintf("%s/%s/slate %d", launch.Category, launch.ShotID, launch.Slate)),
				logging.Int("pid", launch.PID),
			)
		}
	}
	return closed, nil
}

// AdoptLaunches hands running launches of the given roles to the runner so a
// restarted daemon does not start a second Blender for a shot whose earlier
// job is still going.
func AdoptLaunches(ctx context.Context, store LaunchStore, roles []workflow.Role, blender *runner.Blender) (int, error) {
	passes := make(map[ledger.Pass]struct{}, len(roles))
	for _, role := range roles {
		passes[ledger.Pass(role)] = struct{}{}
	}
	running, err := store.Running(ctx)
	if err != nil {
		return 0, fmt.Errorf("list running launches: %w", err)
	}
	launches := make([]ledger.Launch, 0, len(running))
	for _, launch := range running {
		if _, ok := passes[launch.Pass]; ok {
			launches = append(launches, launch)
		}
	}
	return blender.Adopt(launches), nil
}

// PruneLaunches removes finished launches older than retentionDays. A value
// of 0 keeps everything.
func PruneLaunches(ctx context.Context, store LaunchStore, retentionDays int, now time.Time) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	return store.Prune(ctx, now.AddDate(0, 0, -retentionDays))
}
