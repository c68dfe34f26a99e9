package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the locations of the project files and runtime state.
type Paths struct {
	ShotList    string `toml:"shot_list"`
	RenderQueue string `toml:"render_queue"`
	LogDir      string `toml:"log_dir"`
	StateDir    string `toml:"state_dir"`
}

// Blender contains the render host invocation settings.
type Blender struct {
	Binary             string `toml:"binary"`
	RenderScript       string `toml:"render_script"`
	CompositorScript   string `toml:"compositor_script"`
	CompositorChain    string `toml:"compositor_chain"`
	CompositeExtension string `toml:"composite_extension"`
}

// Workers contains the queue worker polling cadence, in seconds.
type Workers struct {
	RenderPollInterval          int `toml:"render_poll_interval"`
	RenderEndOfQueueInterval    int `toml:"render_end_of_queue_interval"`
	CompositePollInterval       int `toml:"composite_poll_interval"`
	CompositeEndOfQueueInterval int `toml:"composite_end_of_queue_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for renderq.
//
// Configuration sections by subsystem:
//   - Paths: shot list, render queue, log and state directories
//   - Blender: executable, python scripts and compositor chain
//   - Workers: poll and end-of-queue intervals per worker lane
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Blender Blender `toml:"blender"`
	Workers Workers `toml:"workers"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("renderq.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv exports variables from a .env file beside the config. Variables
// already present in the environment win.
func loadDotEnv(dir string) error {
	envPath := filepath.Join(dir, ".env")
	info, err := os.Stat(envPath)
	if err != nil || info.IsDir() {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	return nil
}

// EnsureDirectories creates required directories for worker operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.ToolLogDir(), c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ToolLogDir is where Blender subprocess output is captured.
func (c *Config) ToolLogDir() string {
	return filepath.Join(c.Paths.LogDir, "tool")
}

// LedgerPath returns the SQLite launch history database path.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LockPath returns the single-instance lock file for a worker role.
func (c *Config) LockPath(role string) string {
	return filepath.Join(c.Paths.StateDir, fmt.Sprintf("renderq-%s.lock", role))
}

// PIDPath returns the pid file written while a worker role holds its lock.
func (c *Config) PIDPath(role string) string {
	return filepath.Join(c.Paths.StateDir, fmt.Sprintf("renderq-%s.pid", role))
}

// RenderPoll is the sleep between render worker iterations.
func (w Workers) RenderPoll() time.Duration {
	return time.Duration(w.RenderPollInterval) * time.Second
}

// RenderEndOfQueue is the pause taken when the render worker wraps the queue.
func (w Workers) RenderEndOfQueue() time.Duration {
	return time.Duration(w.RenderEndOfQueueInterval) * time.Second
}

// CompositePoll is the sleep between composite worker iterations.
func (w Workers) CompositePoll() time.Duration {
	return time.Duration(w.CompositePollInterval) * time.Second
}

// CompositeEndOfQueue is the pause taken when the composite worker wraps the queue.
func (w Workers) CompositeEndOfQueue() time.Duration {
	return time.Duration(w.CompositeEndOfQueueInterval) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
