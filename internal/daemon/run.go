package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"renderq/internal/config"
	"renderq/internal/deps"
	"renderq/internal/ledger"
	"renderq/internal/logging"
	"renderq/internal/preflight"
	"renderq/internal/renderqueue"
	"renderq/internal/runner"
	"renderq/internal/shotlist"
	"renderq/internal/workflow"
)

// Options configures worker process runtime behavior.
type Options struct {
	Roles         []workflow.Role
	LogLevel      string
	SkipPreflight bool
}

// Run starts the renderq worker runtime loop and blocks until SIGINT/SIGTERM
// or a fatal worker error.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	roles := opts.Roles
	if len(roles) == 0 {
		roles = workflow.Roles
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	sessionID := uuid.NewString()
	logPath := logging.RunLogPath(cfg.Paths.LogDir, roleLabel(roles), time.Now())
	logCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(&logCfg, logPath, sessionID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := New(cfg, roles, logger)
	if err != nil {
		return err
	}
	if err := d.Acquire(); err != nil {
		return err
	}
	defer d.Release()

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTargets(cfg.Paths.LogDir, cfg.ToolLogDir(), logPath)...)
	logDependencySnapshot(signalCtx, logger, cfg)

	if !opts.SkipPreflight {
		if err := runPreflight(signalCtx, logger, cfg); err != nil {
			return err
		}
	}

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		logger.Error("open launch ledger", logging.Error(err))
		return err
	}
	defer store.Close()
	maintainLedger(signalCtx, logger, store, roles, sessionID, cfg.Logging.RetentionDays)

	shots, err := shotlist.Open(cfg.Paths.ShotList, logger)
	if err != nil {
		return err
	}
	queue, err := renderqueue.FromFile(cfg.Paths.RenderQueue, logger)
	if err != nil {
		return err
	}
	blender, err := runner.NewBlender(runner.ConfigFromApp(cfg, sessionID), shots, logger, runner.WithRecorder(store))
	if err != nil {
		return err
	}
	if _, err := AdoptLaunches(signalCtx, store, roles, blender); err != nil {
		logging.WarnWithContext(logger, "adopting running launches failed", "ledger_adopt_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "shots with a live blender job may be launched again"),
		)
	}
	workers, err := workflow.NewWorkers(cfg, roles, queue, shots, blender, logger)
	if err != nil {
		return err
	}

	runErr := d.Serve(signalCtx, workflow.NewManager(logger, workers...))
	if inflight := blender.InFlight(); inflight > 0 {
		logger.Info("leaving background blender jobs running",
			logging.String(logging.FieldEventType, "launches_detached"),
			logging.Int("in_flight", inflight),
		)
	}
	logger.Info("renderq shutting down", logging.String(logging.FieldEventType, "shutdown"))
	return runErr
}

func roleLabel(roles []workflow.Role) string {
	if len(roles) == 1 {
		return string(roles[0])
	}
	return "workers"
}

func runPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if r.Passed || r.Optional {
			continue
		}
		logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run renderq check for the full report"),
		)
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, r.Name)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
	}
	return nil
}

func maintainLedger(ctx context.Context, logger *slog.Logger, store LaunchStore, roles []workflow.Role, sessionID string, retentionDays int) {
	now := time.Now()
	if closed, err := ReconcileLaunches(ctx, store, roles, sessionID, nil, now, logger); err != nil {
		logging.WarnWithContext(logger, "ledger reconcile failed", "ledger_reconcile_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "renderq history may list stale running launches"),
		)
	} else if closed > 0 {
		logger.Info("ledger reconciled", logging.Int("closed", closed))
	}
	if pruned, err := PruneLaunches(ctx, store, retentionDays, now); err != nil {
		logging.WarnWithContext(logger, "ledger prune failed", "ledger_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old launch history is kept"),
		)
	} else if pruned > 0 {
		logger.Debug("ledger pruned", logging.Int64("removed", pruned))
	}
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	blender := deps.CheckBlender(ctx, cfg.Blender.Binary)
	host, _ := os.Hostname()
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("host", host),
		logging.Bool("blender_available", blender.Available),
		logging.String("blender_binary", blender.Command),
		logging.String("blender_path", blender.Path),
		logging.String("blender_detail", blender.Detail),
		logging.String("shot_list", cfg.Paths.ShotList),
		logging.String("render_queue", cfg.Paths.RenderQueue),
	)
}

