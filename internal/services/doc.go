// Package services defines the failure taxonomy and context annotations shared
// by the shot list, render queue, runner, and workflow packages.
//
// Key responsibilities:
//   - Marker errors (load, not found, external tool, refresh, configuration)
//     plus the Wrap helper so callers classify failures with errors.Is.
//   - Context helpers that stamp the worker lane, the shot under evaluation,
//     and launch identifiers for logging.
//
// Use these helpers when adding new components so failure handling in the
// worker loops stays uniform: load errors abort startup, everything else is
// logged at the loop boundary.
package services
