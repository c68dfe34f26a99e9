package renderqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"renderq/internal/fileutil"
	"renderq/internal/logging"
	"renderq/internal/services"
	"renderq/internal/shotlist"
)

const component = "renderqueue"

// ShotRef is one queue entry. Entries compare by value.
type ShotRef struct {
	Category string
	ID       string
	Slate    int
}

// Key returns the shot list key of the referenced shot.
func (r ShotRef) Key() shotlist.ShotKey {
	return shotlist.ShotKey{Category: r.Category, ID: r.ID}
}

func (r ShotRef) String() string {
	return fmt.Sprintf("%s/%s/slate %d", r.Category, r.ID, r.Slate)
}

// Snapshot is an immutable view of the queue file. Callers must not modify
// Shots.
type Snapshot struct {
	Quality    Quality
	Shots      []ShotRef
	SourcePath string
	ModTime    time.Time
}

type document struct {
	quality Quality
	shots   []ShotRef
}

// Queue owns the current snapshot of a render queue file.
type Queue struct {
	reloader *fileutil.Reloader[document]
	logger   *slog.Logger

	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// FromFile loads the queue at path. Every failure is an ErrLoad.
func FromFile(path string, logger *slog.Logger) (*Queue, error) {
	reloader, err := fileutil.NewReloader[document](path, decodeFile)
	if err != nil {
		if services.Kind(err) == "unknown" {
			err = services.Wrap(services.ErrLoad, component, "open", path, err)
		}
		return nil, err
	}
	q := &Queue{
		reloader: reloader,
		logger:   logging.NewComponentLogger(logger, component),
	}
	q.install(reloader.Current())
	return q, nil
}

// Snapshot returns the current queue state.
func (q *Queue) Snapshot() *Snapshot {
	return q.current.Load()
}

// Path returns the backing file.
func (q *Queue) Path() string { return q.reloader.Path() }

// Refresh reloads the queue when the backing file's modification time has
// changed. It reports whether a new snapshot was installed. Failures are
// logged as refresh errors and leave the previous snapshot in place.
func (q *Queue) Refresh(ctx context.Context) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	logger := logging.WithContext(ctx, q.logger)
	changed, err := q.reloader.Reload()
	if err != nil {
		wrapped := services.Wrap(services.ErrRefresh, component, "refresh", q.reloader.Path(), err)
		logging.WarnWithContext(logger, "render queue reload failed; keeping previous queue", "queue_refresh_failed",
			logging.String("path", q.reloader.Path()),
			logging.Error(wrapped),
			logging.String(logging.FieldErrorKind, services.Kind(wrapped)),
			logging.String(logging.FieldErrorHint, "fix the render queue JSON; the last good queue stays active"),
			logging.String(logging.FieldImpact, "queue edits are ignored until the file parses"),
		)
		return false
	}
	if !changed {
		return false
	}
	snap := q.install(q.reloader.Current())
	logger.Info("render queue reloaded",
		logging.String("path", snap.SourcePath),
		logging.String("quality", snap.Quality.String()),
		logging.Int("shots", len(snap.Shots)),
		logging.String(logging.FieldEventType, "queue_reloaded"),
	)
	return true
}

func (q *Queue) install(src *fileutil.Snapshot[document]) *Snapshot {
	snap := &Snapshot{
		Quality:    src.Value.quality,
		Shots:      src.Value.shots,
		SourcePath: src.Path,
		ModTime:    src.ModTime,
	}
	q.current.Store(snap)
	return snap
}

func decodeFile(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrLoad, component, "read", path, err)
	}
	return parse(data, path)
}

// parse decodes a render queue document.
func parse(data []byte, path string) (*document, error) {
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrLoad, component, "parse", path, err)
	}
	fail := func(msg string) error {
		return services.Wrap(services.ErrLoad, component, "parse", path+": "+msg, nil)
	}

	rawQuality, ok := doc["quality"]
	if !ok {
		return nil, fail(`missing "quality" key`)
	}
	qualityText, ok := rawQuality.(string)
	if !ok {
		return nil, fail("quality must be a string")
	}
	quality, err := ParseQuality(qualityText)
	if err != nil {
		return nil, fail(err.Error())
	}

	rawShots, ok := doc["shots"]
	if !ok {
		return nil, fail(`missing "shots" key`)
	}
	list, ok := rawShots.([]any)
	if !ok {
		return nil, fail("shots must be an array")
	}

	shots := make([]ShotRef, 0, len(list))
	for idx, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fail(fmt.Sprintf("shots[%d] must be an object", idx))
		}
		ref, err := parseShotRef(entry)
		if err != nil {
			return nil, fail(fmt.Sprintf("shots[%d]: %v", idx, err))
		}
		shots = append(shots, ref)
	}
	return &document{quality: quality, shots: shots}, nil
}

func parseShotRef(entry map[string]any) (ShotRef, error) {
	category, ok := entry["category"].(string)
	if !ok || category == "" {
		return ShotRef{}, fmt.Errorf("category is required")
	}
	rawID, ok := entry["id"]
	if !ok || rawID == nil {
		return ShotRef{}, fmt.Errorf("id is required")
	}
	rawSlate, ok := entry["slate"]
	if !ok || rawSlate == nil {
		return ShotRef{}, fmt.Errorf("slate is required")
	}
	slate, err := parseSlate(rawSlate)
	if err != nil {
		return ShotRef{}, err
	}
	return ShotRef{Category: category, ID: shotlist.IDString(rawID), Slate: slate}, nil
}

func parseSlate(v any) (int, error) {
	var text string
	switch s := v.(type) {
	case json.Number:
		text = s.String()
	case string:
		text = strings.TrimSpace(s)
	default:
		return 0, fmt.Errorf("slate must be a number, got %v", v)
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("slate must be a positive integer, got %q", text)
	}
	return n, nil
}
