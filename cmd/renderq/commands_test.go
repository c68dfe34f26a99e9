package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"renderq/internal/testsupport"
	"renderq/internal/workflow"
)

func TestListShowsResolvedShots(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "list", "--category", "forest")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Forest")
	requireContains(t, out, "Clearing")
	requireContains(t, out, "1-2")

	out, _, err = runCLI(t, env, "list", "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var rows []shotRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 shots, got %d", len(rows))
	}
	var clearing shotRow
	for _, row := range rows {
		if row.Category == "forest" && row.ID == "2" {
			clearing = row
		}
	}
	if clearing.Parent != "forest/1" || clearing.FrameEnd != 2 || !clearing.Compositing {
		t.Fatalf("forest/2 did not inherit from forest/1: %+v", clearing)
	}
}

func TestShowPrintsMergedFields(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "show", "forest", "2", "--json")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(out), &fields); err != nil {
		t.Fatalf("decode show: %v", err)
	}
	if fields["title"] != "Clearing" || fields["blend_file"] != filepath.Join(env.root, "scenes", "forest.blend") {
		t.Fatalf("unexpected merged fields %v", fields)
	}

	out, _, err = runCLI(t, env, "show", "forest", "1", "--slate", "4")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, filepath.Join("Forest", "slate_4", "forest_1_4_0001.png"))

	if _, _, err := runCLI(t, env, "show", "forest", "99"); err == nil {
		t.Fatal("expected error for unknown shot")
	}
}

func TestVerifyCountsFrames(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.Touch(t, env.framePath(false, 1))

	out, _, err := runCLI(t, env, "verify", "forest", "1", "--json")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	var result verifyResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode verify: %v", err)
	}
	if result.RenderFrames != 1 || result.ExpectedFrames != 2 || result.RenderComplete {
		t.Fatalf("unexpected verify result %+v", result)
	}

	testsupport.Touch(t, env.framePath(false, 2))
	out, _, err = runCLI(t, env, "verify", "forest", "1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	requireContains(t, out, "2/2 frames, complete")
	requireContains(t, out, "0/2 frames, incomplete")
}

func TestQueueReportsOutputStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.Touch(t, env.framePath(false, 1))
	testsupport.Touch(t, env.framePath(false, 2))

	out, _, err := runCLI(t, env, "queue", "--json")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	var view queueView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if view.Quality != "HIGH" || len(view.Shots) != 2 {
		t.Fatalf("unexpected queue %+v", view)
	}
	if view.Shots[0].Render != "complete" || view.Shots[0].Composite != "pending" {
		t.Fatalf("forest/1 status = %+v", view.Shots[0])
	}
	if view.Shots[1].Render != "pending" {
		t.Fatalf("forest/2 status = %+v", view.Shots[1])
	}

	out, _, err = runCLI(t, env, "queue")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	requireContains(t, out, "Quality: HIGH")
	requireContains(t, out, "2 queued")
}

func TestBuildRecordsLaunchInHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "build", "forest", "1", "--slate", "2")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireContains(t, out, "at HIGH quality")
	requireContains(t, out, "Render of forest/1 finished")
	requireContains(t, out, "Blender log:")

	out, _, err = runCLI(t, env, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var rows []historyRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 launch, got %d", len(rows))
	}
	row := rows[0]
	if row.Pass != "render" || row.Shot != "forest/1" || row.Slate != 2 || row.Quality != "HIGH" || row.Background {
		t.Fatalf("unexpected launch %+v", row)
	}
	if row.Status != "succeeded" {
		t.Fatalf("status = %s", row.Status)
	}
	if _, err := os.Stat(row.LogPath); err != nil {
		t.Fatalf("tool log missing: %v", err)
	}

	out, _, err = runCLI(t, env, "history", "--pass", "composite")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No launches recorded")
}

func TestBuildReportsBlenderFailure(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithFakeBlender(3))

	if _, _, err := runCLI(t, env, "build", "forest", "1", "--quality", "low"); err == nil {
		t.Fatal("expected build to fail")
	}
	out, _, err := runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "failed (3)")
	requireContains(t, out, "LOW")
}

func TestCompositeRunsCompositorChain(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "composite", "forest", "1")
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	requireContains(t, out, "Composite of forest/1 finished")

	if _, _, err := runCLI(t, env, "build", "forest", "1", "--quality", "ultra"); err == nil {
		t.Fatal("expected unknown quality to fail")
	}
	if _, _, err := runCLI(t, env, "build", "forest", "1", "--slate", "0"); err == nil {
		t.Fatal("expected slate 0 to fail")
	}
}

func TestCheckReportsQueueAndLanes(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteQueue(t, env.cfg, "LOW")

	out, _, err := runCLI(t, env, "check")
	if err == nil {
		t.Fatal("expected check to fail on an empty queue")
	}
	requireContains(t, out, "Blender")
	requireContains(t, out, "Render queue:")
	requireContains(t, out, "render lane:")
	requireContains(t, out, "not running")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.ShotList)

	t.Setenv("RENDERQ_BLENDER", "/opt/blender/blender")
	out, _, err = runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[workers]")
	requireContains(t, out, "/opt/blender/blender")

	target := filepath.Join(t.TempDir(), "renderq.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
}

func TestParseRoles(t *testing.T) {
	roles, err := parseRoles("all")
	if err != nil || len(roles) != 2 {
		t.Fatalf("all: %v %v", roles, err)
	}
	roles, err = parseRoles(" Composite ")
	if err != nil || len(roles) != 1 || roles[0] != workflow.RoleComposite {
		t.Fatalf("composite: %v %v", roles, err)
	}
	if _, err := parseRoles("encode"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
