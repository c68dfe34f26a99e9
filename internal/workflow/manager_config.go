package workflow

import (
	"log/slog"

	"renderq/internal/config"
	"renderq/internal/runner"
)

// WorkerConfigFor derives a lane schedule from the [workers] config section.
func WorkerConfigFor(role Role, workers config.Workers) WorkerConfig {
	if role == RoleComposite {
		return WorkerConfig{
			Role:               role,
			PollInterval:       workers.CompositePoll(),
			EndOfQueueInterval: workers.CompositeEndOfQueue(),
		}
	}
	return WorkerConfig{
		Role:               RoleRender,
		PollInterval:       workers.RenderPoll(),
		EndOfQueueInterval: workers.RenderEndOfQueue(),
	}
}

// NewWorkers builds one worker per role sharing queue, shots, and r.
func NewWorkers(cfg *config.Config, roles []Role, queue QueueSource, shots ShotListRefresher, r runner.Runner, logger *slog.Logger, opts ...WorkerOption) ([]*Worker, error) {
	workers := make([]*Worker, 0, len(roles))
	for _, role := range roles {
		workerOpts := append([]WorkerOption{WithShotList(shots)}, opts...)
		worker, err := NewWorker(WorkerConfigFor(role, cfg.Workers), queue, r, logger, workerOpts...)
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}
	return workers, nil
}
