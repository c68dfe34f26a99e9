// Package runner launches Blender for render and composite passes and checks
// whether a shot's output already exists on disk.
//
// Runner is the boundary the queue workers program against. Blender is the
// production implementation: it resolves the shot through the shot list,
// derives the frame output convention, shells out through an injectable
// Executor, writes subprocess output to a per-launch tool log and records each
// launch in the ledger. Background launches return as soon as the process has
// started and are reaped on a goroutine; a second background launch of the
// same pass, shot and quality is refused while the first is still running.
package runner
