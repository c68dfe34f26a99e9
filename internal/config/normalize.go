package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBlender(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

// applyEnvOverrides lets operators point a worker at different files without
// editing the config.
func (c *Config) applyEnvOverrides() {
	if value, ok := os.LookupEnv("RENDERQ_BLENDER"); ok && strings.TrimSpace(value) != "" {
		c.Blender.Binary = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("RENDERQ_SHOT_LIST"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ShotList = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("RENDERQ_RENDER_QUEUE"); ok && strings.TrimSpace(value) != "" {
		c.Paths.RenderQueue = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ShotList) == "" {
		c.Paths.ShotList = defaultShotList
	}
	if c.Paths.ShotList, err = expandPath(c.Paths.ShotList); err != nil {
		return fmt.Errorf("paths.shot_list: %w", err)
	}
	if strings.TrimSpace(c.Paths.RenderQueue) == "" {
		c.Paths.RenderQueue = defaultRenderQueue
	}
	if c.Paths.RenderQueue, err = expandPath(c.Paths.RenderQueue); err != nil {
		return fmt.Errorf("paths.render_queue: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBlender() error {
	var err error
	c.Blender.Binary = strings.TrimSpace(c.Blender.Binary)
	if c.Blender.Binary == "" {
		c.Blender.Binary = defaultBlenderBinary
	}
	// Bare executable names are resolved through PATH at launch time.
	if strings.ContainsAny(c.Blender.Binary, `/\`) || strings.HasPrefix(c.Blender.Binary, "~") {
		if c.Blender.Binary, err = expandPath(c.Blender.Binary); err != nil {
			return fmt.Errorf("blender.binary: %w", err)
		}
	}
	if c.Blender.RenderScript, err = expandPath(c.Blender.RenderScript); err != nil {
		return fmt.Errorf("blender.render_script: %w", err)
	}
	if c.Blender.CompositorScript, err = expandPath(c.Blender.CompositorScript); err != nil {
		return fmt.Errorf("blender.compositor_script: %w", err)
	}
	if c.Blender.CompositorChain, err = expandPath(c.Blender.CompositorChain); err != nil {
		return fmt.Errorf("blender.compositor_chain: %w", err)
	}
	c.Blender.CompositeExtension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Blender.CompositeExtension), "."))
	if c.Blender.CompositeExtension == "" {
		c.Blender.CompositeExtension = defaultCompositeExtension
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
