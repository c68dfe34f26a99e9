package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"renderq/internal/config"
	"renderq/internal/deps"
	"renderq/internal/renderqueue"
	"renderq/internal/shotlist"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFileReadable verifies that a regular file exists and can be read.
func CheckFileReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckFreeSpace verifies that the filesystem holding path (or its nearest
// existing ancestor) has at least minFree bytes available.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	probe := nearestExisting(path)
	var stat unix.Statfs_t
	if err := unix.Statfs(probe, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", probe, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(free), probe)
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckShotList loads the shot list and reports its size.
func CheckShotList(path string) (Result, *shotlist.DB) {
	const name = "Shot list"
	db, err := shotlist.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}, nil
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d shots)", path, db.Len())}, db
}

// CheckRenderQueue loads the render queue and reports its quality and length.
func CheckRenderQueue(path string) Result {
	const name = "Render queue"
	queue, err := renderqueue.FromFile(path, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	snap := queue.Snapshot()
	if len(snap.Shots) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no shots queued)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s, %d shots)", path, snap.Quality, len(snap.Shots))}
}

// CheckSystemDeps evaluates the external programs renderq launches.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return []deps.Status{deps.CheckBlender(ctx, cfg.Blender.Binary)}
}

func nearestExisting(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
