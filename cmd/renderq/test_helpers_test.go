package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"renderq/internal/config"
	"renderq/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	root       string
}

// setupCLITestEnv writes a config, a two-shot project and a HIGH quality
// queue holding both shots.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	opts = append([]testsupport.ConfigOption{testsupport.WithFakeBlender(0), testsupport.WithScripts()}, opts...)
	cfg := testsupport.NewConfig(t, opts...)

	root := testsupport.WriteShotList(t, cfg,
		testsupport.Shot{"category": "base", "id": "defaults", "blend_file": "//scenes/forest.blend"},
		testsupport.Shot{"category": "forest", "id": 1, "parent": []any{"base", "defaults"},
			"title": "Forest", "frame_start": 1, "frame_end": 2, "compositing_enabled": true},
		testsupport.Shot{"category": "forest", "id": 2, "parent": []any{"forest", 1}, "title": "Clearing"},
	)
	testsupport.Touch(t, filepath.Join(root, "scenes", "forest.blend"))
	testsupport.WriteQueue(t, cfg, "HIGH",
		testsupport.QueueEntry{Category: "forest", ID: 1, Slate: 1},
		testsupport.QueueEntry{Category: "forest", ID: "2", Slate: 1},
	)

	configPath := filepath.Join(t.TempDir(), "renderq.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, root: root}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// framePath returns where the render of forest/1 slate 1 writes frame n.
func (e *cliTestEnv) framePath(composite bool, frame int) string {
	dir := filepath.Join(e.root, "renders", "Forest", "slate_1")
	if composite {
		dir += "_composite"
	}
	return filepath.Join(dir, fmt.Sprintf("forest_1_1_%04d.png", frame))
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}
