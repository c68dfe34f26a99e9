package ledger_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"renderq/internal/ledger"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordStartAndFinish(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	launch := ledger.Launch{
		ID:         "launch-1",
		Pass:       ledger.PassRender,
		Category:   "forest",
		ShotID:     "1",
		Slate:      2,
		Quality:    "HIGH",
		Background: true,
		Command:    "blender -b a.blend",
		LogPath:    "/logs/tool/render-launch-1.log",
		SessionID:  "sess",
		StartedAt:  started,
	}
	if err := store.RecordStart(ctx, launch); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := store.RecordPID(ctx, "launch-1", 4242); err != nil {
		t.Fatalf("RecordPID: %v", err)
	}

	got, err := store.Get(ctx, "launch-1")
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.Status() != ledger.StatusRunning || got.PID != 4242 || !got.Background || got.Slate != 2 {
		t.Fatalf("unexpected running launch %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v", got.StartedAt)
	}

	running, err := store.Running(ctx)
	if err != nil || len(running) != 1 {
		t.Fatalf("Running = %v, %v", running, err)
	}

	finished := started.Add(90 * time.Second)
	if err := store.RecordFinish(ctx, "launch-1", finished, 1, "exit status 1"); err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}
	got, _ = store.Get(ctx, "launch-1")
	if got.Status() != ledger.StatusFailed || *got.ExitCode != 1 || got.Error != "exit status 1" {
		t.Fatalf("unexpected finished launch %+v", got)
	}
	if d := got.Duration(time.Now()); d != 90*time.Second {
		t.Fatalf("duration = %v", d)
	}
	if running, _ := store.Running(ctx); len(running) != 0 {
		t.Fatalf("expected no running launches, got %v", running)
	}
}

func TestRecordFinishUnknownID(t *testing.T) {
	store := openStore(t)
	if err := store.RecordFinish(context.Background(), "nope", time.Now(), 0, ""); err == nil {
		t.Fatal("expected error for unknown launch id")
	}
	if got, err := store.Get(context.Background(), "nope"); err != nil || got != nil {
		t.Fatalf("Get(nope) = %v, %v", got, err)
	}
}

func TestHistoryFiltersAndOrders(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	records := []ledger.Launch{
		{ID: "a", Pass: ledger.PassRender, Category: "s", ShotID: "1", Quality: "LOW", Command: "x", StartedAt: base},
		{ID: "b", Pass: ledger.PassComposite, Category: "s", ShotID: "1", Quality: "LOW", Command: "x", StartedAt: base.Add(500 * time.Millisecond)},
		{ID: "c", Pass: ledger.PassRender, Category: "s", ShotID: "2", Quality: "LOW", Command: "x", StartedAt: base.Add(time.Second)},
	}
	for _, rec := range records {
		if err := store.RecordStart(ctx, rec); err != nil {
			t.Fatalf("RecordStart(%s): %v", rec.ID, err)
		}
	}

	all, err := store.History(ctx, ledger.Filter{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[1].ID != "b" || all[2].ID != "a" {
		t.Fatalf("expected newest first, got %v", ids(all))
	}

	renders, _ := store.History(ctx, ledger.Filter{Pass: ledger.PassRender})
	if len(renders) != 2 {
		t.Fatalf("pass filter returned %v", ids(renders))
	}
	shot1, _ := store.History(ctx, ledger.Filter{Category: "s", ShotID: "1", Limit: 1})
	if len(shot1) != 1 || shot1[0].ID != "b" {
		t.Fatalf("shot filter with limit returned %v", ids(shot1))
	}
}

func TestPruneRemovesOnlyFinishedOldLaunches(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -40)
	for _, id := range []string{"done", "stuck"} {
		if err := store.RecordStart(ctx, ledger.Launch{ID: id, Pass: ledger.PassRender, Category: "s", ShotID: "1", Quality: "LOW", Command: "x", StartedAt: old}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.RecordFinish(ctx, "done", old.Add(time.Minute), 0, ""); err != nil {
		t.Fatal(err)
	}
	n, err := store.Prune(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v", n, err)
	}
	if got, _ := store.Get(ctx, "stuck"); got == nil {
		t.Fatal("unfinished launch must not be pruned")
	}
}

func TestOpenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	first, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = first.Close()
	second, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = second.Close()
}

func ids(launches []ledger.Launch) []string {
	out := make([]string, 0, len(launches))
	for _, l := range launches {
		out = append(out, l.ID)
	}
	return out
}
