package daemon_test

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"renderq/internal/daemon"
	"renderq/internal/ledger"
	"renderq/internal/testsupport"
	"renderq/internal/workflow"
)

func TestRunFailsPreflightOnEmptyQueue(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake blender requires a POSIX shell")
	}
	cfg := testsupport.NewConfig(t, testsupport.WithFakeBlender(0), testsupport.WithScripts())
	testsupport.WriteShotList(t, cfg, testsupport.Shot{"category": "s", "id": 1})
	testsupport.WriteQueue(t, cfg, "HIGH")

	err := daemon.Run(context.Background(), cfg, daemon.Options{Roles: []workflow.Role{workflow.RoleRender}})
	if err == nil || !strings.Contains(err.Error(), "Render queue") {
		t.Fatalf("expected preflight failure naming the render queue, got %v", err)
	}
}

func TestRunEmptyQueueIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBlenderBinary("blender"))
	testsupport.WriteShotList(t, cfg, testsupport.Shot{"category": "s", "id": 1})
	testsupport.WriteQueue(t, cfg, "LOW")

	err := daemon.Run(context.Background(), cfg, daemon.Options{SkipPreflight: true})
	if !errors.Is(err, workflow.ErrEmptyQueue) {
		t.Fatalf("expected ErrEmptyQueue, got %v", err)
	}
}

func TestRunLaunchesIncompleteShot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake blender requires a POSIX shell")
	}
	cfg := testsupport.NewConfig(t, testsupport.WithFakeBlender(0), testsupport.WithScripts())
	root := testsupport.WriteShotList(t, cfg, testsupport.Shot{
		"category":    "s",
		"id":          1,
		"blend_file":  "//shot_1.blend",
		"frame_start": 1,
		"frame_end":   1,
	})
	testsupport.Touch(t, filepath.Join(root, "shot_1.blend"))
	testsupport.WriteQueue(t, cfg, "HIGH", testsupport.QueueEntry{Category: "s", ID: 1, Slate: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- daemon.Run(ctx, cfg, daemon.Options{Roles: []workflow.Role{workflow.RoleRender}, SkipPreflight: true})
	}()

	var launches []ledger.Launch
	deadline := time.Now().Add(10 * time.Second)
	for len(launches) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		store, err := ledger.Open(cfg.LedgerPath())
		if err != nil {
			continue
		}
		launches, _ = store.History(context.Background(), ledger.Filter{Pass: ledger.PassRender})
		_ = store.Close()
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop after cancellation")
	}
	if len(launches) == 0 {
		t.Fatal("no render launch recorded")
	}
	l := launches[0]
	if l.Category != "s" || l.ShotID != "1" || l.Quality != "HIGH" || !l.Background {
		t.Fatalf("unexpected launch %+v", l)
	}
	if !strings.Contains(l.Command, "render_script.py") {
		t.Fatalf("command = %q", l.Command)
	}
}
