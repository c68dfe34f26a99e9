package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBlender(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ShotList) == "" {
		return errors.New("paths.shot_list must be set")
	}
	if strings.TrimSpace(c.Paths.RenderQueue) == "" {
		return errors.New("paths.render_queue must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateBlender() error {
	if strings.TrimSpace(c.Blender.Binary) == "" {
		return errors.New("blender.binary must be set (or set RENDERQ_BLENDER)")
	}
	if strings.TrimSpace(c.Blender.RenderScript) == "" {
		return errors.New("blender.render_script must be set")
	}
	if strings.TrimSpace(c.Blender.CompositorScript) == "" {
		return errors.New("blender.compositor_script must be set")
	}
	if strings.TrimSpace(c.Blender.CompositorChain) == "" {
		return errors.New("blender.compositor_chain must be set")
	}
	if strings.ContainsAny(c.Blender.CompositeExtension, `/\ `) {
		return fmt.Errorf("blender.composite_extension %q is not a file extension", c.Blender.CompositeExtension)
	}
	return nil
}

func (c *Config) validateWorkers() error {
	return ensurePositiveMap(map[string]int{
		"workers.render_poll_interval":            c.Workers.RenderPollInterval,
		"workers.render_end_of_queue_interval":    c.Workers.RenderEndOfQueueInterval,
		"workers.composite_poll_interval":         c.Workers.CompositePollInterval,
		"workers.composite_end_of_queue_interval": c.Workers.CompositeEndOfQueueInterval,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
