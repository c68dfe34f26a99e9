package testsupport

import (
	"path/filepath"
	"testing"

	"renderq/internal/config"
	"renderq/internal/ledger"
)

// Shot is a shot list entry in fixture form.
type Shot map[string]any

// QueueEntry is one render queue line.
type QueueEntry struct {
	Category string `json:"category"`
	ID       any    `json:"id"`
	Slate    int    `json:"slate"`
}

// WriteShotList writes a shot list whose project root is the shot list's
// directory and whose render root is "//renders".
func WriteShotList(t testing.TB, cfg *config.Config, shots ...Shot) string {
	t.Helper()
	root := filepath.Dir(cfg.Paths.ShotList)
	if shots == nil {
		shots = []Shot{}
	}
	WriteJSON(t, cfg.Paths.ShotList, map[string]any{
		"project_root": root,
		"render_root":  "//renders",
		"shots":        shots,
	})
	return root
}

// WriteQueue writes the render queue file.
func WriteQueue(t testing.TB, cfg *config.Config, quality string, entries ...QueueEntry) {
	t.Helper()
	if entries == nil {
		entries = []QueueEntry{}
	}
	WriteJSON(t, cfg.Paths.RenderQueue, map[string]any{
		"quality": quality,
		"shots":   entries,
	})
}

// MustOpenLedger opens the config's launch ledger and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
