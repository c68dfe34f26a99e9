package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogPattern matches per-run log files written by RunLogPath.
const RunLogPattern = "renderq-*.log"

// RetentionTarget is a directory whose files matching Pattern expire.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// RetentionTargets returns the run log directory and the Blender tool log
// directory, excluding the run log currently being written.
func RetentionTargets(logDir, toolLogDir, current string) []RetentionTarget {
	return []RetentionTarget{
		{Dir: logDir, Pattern: RunLogPattern, Exclude: []string{current}},
		{Dir: toolLogDir, Pattern: "*.log"},
	}
}

// CleanupOldLogs removes matching files last modified more than retentionDays
// ago and returns how many were removed. Zero or negative retention keeps
// everything. Tool logs of long background renders stay fresh because Blender
// keeps appending to them.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, target := range targets {
		for _, path := range expiredFiles(target, cutoff) {
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check file permissions on the renderq log directory"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		logger.Info("old logs pruned",
			String(FieldEventType, "logs_pruned"),
			Int("removed", removed),
			Int("retention_days", retentionDays),
		)
	}
	return removed
}

func expiredFiles(target RetentionTarget, cutoff time.Time) []string {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	skip := make(map[string]bool, len(target.Exclude))
	for _, path := range target.Exclude {
		if abs := absPath(path); abs != "" {
			skip[abs] = true
		}
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pattern := strings.TrimSpace(target.Pattern); pattern != "" {
			if ok, err := filepath.Match(pattern, entry.Name()); err != nil || !ok {
				continue
			}
		}
		path := absPath(filepath.Join(dir, entry.Name()))
		if skip[path] {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		out = append(out, path)
	}
	return out
}

func absPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
