package runner_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"renderq/internal/runner"
	"renderq/internal/services"
	"renderq/internal/shotlist"
)

func TestRenderLayoutConvention(t *testing.T) {
	key := shotlist.ShotKey{Category: "forest", ID: "1"}
	settings := shotlist.ShotSettings{Title: "Forest", OutputFileFormat: "PNG"}

	layout := runner.RenderLayout("/renders", key, settings, 2)
	if got := layout.FramePath(5); got != filepath.FromSlash("/renders/Forest/slate_2/forest_1_2_0005.png") {
		t.Fatalf("render frame path = %q", got)
	}

	composite := runner.CompositeLayout("/renders", key, settings, 2, "jpeg")
	if got := composite.FramePath(12); got != filepath.FromSlash("/renders/Forest/slate_2_composite/forest_1_2_0012.jpeg") {
		t.Fatalf("composite frame path = %q", got)
	}
}

func TestRenderLayoutOverride(t *testing.T) {
	key := shotlist.ShotKey{Category: "forest", ID: "1"}
	settings := shotlist.ShotSettings{Title: "Forest", OutputFileFormat: "OPEN_EXR", OutputFilepathOverride: "/out/custom/take_"}

	layout := runner.RenderLayout("/renders", key, settings, 2)
	if got := layout.FramePath(1); got != filepath.FromSlash("/out/custom/take_0001.exr") {
		t.Fatalf("override frame path = %q", got)
	}
	composite := runner.CompositeLayout("/renders", key, settings, 2, "png")
	if composite.Dir != filepath.FromSlash("/out/custom_composite") {
		t.Fatalf("override composite dir = %q", composite.Dir)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckFrames(t *testing.T) {
	dir := t.TempDir()
	layout := runner.OutputLayout{Dir: filepath.Join(dir, "slate_1"), Prefix: "s_1_1_", Ext: "png"}
	frames := shotlist.FrameRange{Start: 1, End: 3, Set: true}

	if done, err := runner.CheckFrames(layout, frames); err != nil || done {
		t.Fatalf("missing directory: done=%v err=%v", done, err)
	}
	touch(t, layout.FramePath(1))
	touch(t, layout.FramePath(2))
	if done, _ := runner.CheckFrames(layout, frames); done {
		t.Fatal("frame 3 missing but reported complete")
	}
	if n := runner.CountFrames(layout, frames); n != 2 {
		t.Fatalf("CountFrames = %d", n)
	}
	touch(t, layout.FramePath(3))
	if done, err := runner.CheckFrames(layout, frames); err != nil || !done {
		t.Fatalf("inclusive range: done=%v err=%v", done, err)
	}

	unset := runner.OutputLayout{Dir: filepath.Join(dir, "other"), Prefix: "x_", Ext: "png"}
	if err := os.MkdirAll(unset.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if done, _ := runner.CheckFrames(unset, shotlist.FrameRange{}); done {
		t.Fatal("empty directory reported complete")
	}
	touch(t, filepath.Join(unset.Dir, "anything.png"))
	if done, _ := runner.CheckFrames(unset, shotlist.FrameRange{}); !done {
		t.Fatal("directory with a file should be complete when no range is set")
	}
}

func TestResolveBlendFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"shot_v3.blend", "shot_v012.blend", "shot_v9.blend1", "other_v99.blend"} {
		touch(t, filepath.Join(dir, name))
	}

	got, err := runner.ResolveBlendFile(filepath.Join(dir, "shot_v[X].blend"))
	if err != nil {
		t.Fatalf("ResolveBlendFile: %v", err)
	}
	if got != filepath.Join(dir, "shot_v012.blend") {
		t.Fatalf("resolved %q", got)
	}

	plain := filepath.Join(dir, "plain.blend")
	if got, err := runner.ResolveBlendFile(plain); err != nil || got != plain {
		t.Fatalf("unmarked path changed: %q %v", got, err)
	}

	if _, err := runner.ResolveBlendFile(filepath.Join(dir, "missing_[X].blend")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
