package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"renderq/internal/services"
	"renderq/internal/shotlist"
)

// latestMarker in a blend path stands for the highest numbered existing file.
const latestMarker = "[X]"

// OutputLayout locates the frames of one pass of one shot slate. Frame n is
// written to Dir/<Prefix><n:04d>.<Ext>.
type OutputLayout struct {
	Dir    string
	Prefix string
	Ext    string
}

// FramePath returns the file for frame.
func (l OutputLayout) FramePath(frame int) string {
	return filepath.Join(l.Dir, fmt.Sprintf("%s%04d.%s", l.Prefix, frame, l.Ext))
}

// RenderLayout returns the render output convention:
// <render_root>/<title>/slate_<slate>/<category>_<id>_<slate>_<frame>.<ext>.
// output_filepath_override replaces the directory and prefix.
func RenderLayout(renderRoot string, key shotlist.ShotKey, settings shotlist.ShotSettings, slate int) OutputLayout {
	if override := settings.OutputFilepathOverride; override != "" {
		dir, prefix := splitStub(override)
		return OutputLayout{Dir: dir, Prefix: prefix, Ext: settings.Extension()}
	}
	return OutputLayout{
		Dir:    filepath.Join(renderRoot, settings.Title, "slate_"+strconv.Itoa(slate)),
		Prefix: framePrefix(key, slate),
		Ext:    settings.Extension(),
	}
}

// CompositeLayout mirrors RenderLayout into a sibling "<dir>_composite"
// directory with the compositor's output extension.
func CompositeLayout(renderRoot string, key shotlist.ShotKey, settings shotlist.ShotSettings, slate int, ext string) OutputLayout {
	render := RenderLayout(renderRoot, key, settings, slate)
	return OutputLayout{
		Dir:    filepath.Clean(render.Dir) + "_composite",
		Prefix: render.Prefix,
		Ext:    ext,
	}
}

func framePrefix(key shotlist.ShotKey, slate int) string {
	return fmt.Sprintf("%s_%s_%d_", key.Category, key.ID, slate)
}

// splitStub splits a Blender output stub such as "/out/shot/frame_" into its
// directory and file prefix. A trailing separator means no prefix.
func splitStub(stub string) (string, string) {
	if strings.HasSuffix(stub, "/") || strings.HasSuffix(stub, `\`) {
		return filepath.Clean(stub), ""
	}
	return filepath.Dir(stub), filepath.Base(stub)
}

// CheckFrames reports whether the layout's output is complete. With a frame
// range every frame from start to end inclusive must exist; without one any
// file in the output directory counts. A missing directory is incomplete,
// other filesystem errors are returned.
func CheckFrames(layout OutputLayout, frames shotlist.FrameRange) (bool, error) {
	if frames.Set {
		for frame := frames.Start; frame <= frames.End; frame++ {
			path := layout.FramePath(frame)
			if _, err := os.Stat(path); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return false, nil
				}
				return false, fmt.Errorf("stat frame %s: %w", path, err)
			}
		}
		return true, nil
	}

	entries, err := os.ReadDir(layout.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read output dir %s: %w", layout.Dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			return true, nil
		}
	}
	return false, nil
}

// CountFrames returns how many frames of the range exist.
func CountFrames(layout OutputLayout, frames shotlist.FrameRange) int {
	if !frames.Set {
		return 0
	}
	count := 0
	for frame := frames.Start; frame <= frames.End; frame++ {
		if _, err := os.Stat(layout.FramePath(frame)); err == nil {
			count++
		}
	}
	return count
}

// ResolveBlendFile replaces a "[X]" marker in the file name with the highest
// number found among existing files. Paths without the marker are returned
// unchanged.
func ResolveBlendFile(path string) (string, error) {
	if !strings.Contains(path, latestMarker) {
		return path, nil
	}
	dir, base := filepath.Split(path)
	pattern := strings.Replace(regexp.QuoteMeta(base), regexp.QuoteMeta(latestMarker), "([0-9]+)", 1)
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "runner", "resolve blend", path, err)
	}

	listDir := dir
	if listDir == "" {
		listDir = "."
	}
	entries, err := os.ReadDir(listDir)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "runner", "resolve blend", "no blend file matching "+path, err)
	}

	best, bestDigits := -1, ""
	for _, entry := range entries {
		m := re.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > best {
			best, bestDigits = n, m[1]
		}
	}
	if best < 0 {
		return "", services.Wrap(services.ErrNotFound, "runner", "resolve blend", "no blend file matching "+path, nil)
	}
	// Keep the matched digits so zero-padded names like v007 resolve.
	return dir + strings.Replace(base, latestMarker, bestDigits, 1), nil
}
