package testsupport

import (
	"path/filepath"
	"testing"

	"renderq/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Project files live under <base>/project; scripts under <base>/scripts.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ShotList = filepath.Join(base, "project", "shots.json")
	cfgVal.Paths.RenderQueue = filepath.Join(base, "project", "render_queue.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Blender.RenderScript = filepath.Join(base, "scripts", "render_script.py")
	cfgVal.Blender.CompositorScript = filepath.Join(base, "scripts", "compositor_script.py")
	cfgVal.Blender.CompositorChain = filepath.Join(base, "scripts", "default_compositor_chain.blend")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBlenderBinary overrides the Blender executable.
func WithBlenderBinary(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Blender.Binary = path
	}
}

// WithFakeBlender installs a stub Blender script in the test directory that
// exits with exitCode, and points the config at it.
func WithFakeBlender(exitCode int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Blender.Binary = FakeBlender(b.t, filepath.Join(b.baseDir, "bin"), exitCode)
	}
}

// WithScripts writes placeholder render and compositor scripts.
func WithScripts() ConfigOption {
	return func(b *configBuilder) {
		Touch(b.t, b.cfg.Blender.RenderScript)
		Touch(b.t, b.cfg.Blender.CompositorScript)
		Touch(b.t, b.cfg.Blender.CompositorChain)
	}
}

// WithLogLevel sets the configured log level.
func WithLogLevel(level string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Level = level
	}
}
