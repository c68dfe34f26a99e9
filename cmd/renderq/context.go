package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"renderq/internal/config"
	"renderq/internal/ledger"
	"renderq/internal/logging"
	"renderq/internal/renderqueue"
	"renderq/internal/runner"
	"renderq/internal/shotlist"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.logLevelFlag)
}

// logger writes CLI diagnostics to stderr so command output stays parseable.
func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	level := cfg.Logging.Level
	if override := c.logLevel(); override != "" {
		level = override
	} else if level == "info" {
		level = "warn"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) loadShots() (*shotlist.DB, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return shotlist.Load(cfg.Paths.ShotList)
}

func (c *commandContext) loadQueue() (*renderqueue.Snapshot, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	queue, err := renderqueue.FromFile(cfg.Paths.RenderQueue, c.logger())
	if err != nil {
		return nil, err
	}
	return queue.Snapshot(), nil
}

// newRunner builds a Blender runner over a static copy of the shot list.
// When store is non-nil every launch is recorded in the ledger.
func (c *commandContext) newRunner(db *shotlist.DB, store *ledger.Store) (*runner.Blender, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := []runner.Option{}
	if store != nil {
		opts = append(opts, runner.WithRecorder(store))
	}
	return runner.NewBlender(runner.ConfigFromApp(cfg, uuid.NewString()), shotlist.NewStaticSource(db), c.logger(), opts...)
}

func (c *commandContext) openLedger() (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return ledger.Open(cfg.LedgerPath())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
