package preflight

import (
	"context"

	"renderq/internal/config"
)

// MinRenderRootFree is the free space required under the render root.
const MinRenderRootFree = 10 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results are reported but do not block startup.
	Optional bool
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	for _, status := range CheckSystemDeps(ctx, cfg) {
		detail := status.Detail
		if status.Available && detail == "" {
			detail = status.Path
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available, Detail: detail, Optional: status.Optional})
	}

	shots, db := CheckShotList(cfg.Paths.ShotList)
	results = append(results, shots)
	results = append(results, CheckRenderQueue(cfg.Paths.RenderQueue))
	if db != nil {
		results = append(results, CheckFreeSpace("Render root free space", db.RenderRoot(), MinRenderRootFree))
	}

	results = append(results,
		CheckFileReadable("Render script", cfg.Blender.RenderScript),
		CheckFileReadable("Compositor script", cfg.Blender.CompositorScript),
	)
	chain := CheckFileReadable("Compositor chain", cfg.Blender.CompositorChain)
	chain.Optional = true
	results = append(results, chain)

	results = append(results,
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	)
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
