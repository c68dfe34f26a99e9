// Package workflow walks the render queue and launches work for shots whose
// output is incomplete.
//
// A Worker owns one lane (render or composite) and a cursor into the queue.
// Each Step evaluates the cursor shot, launches Blender in the background when
// output is missing, advances the cursor, refreshes the queue file, and sleeps
// the lane's poll interval. Reaching the end of the queue, or finding the
// cursor shot edited out of it, wraps back to the first shot after the lane's
// end-of-queue interval.
//
// The render lane stays on a shot until its frames are complete. The composite
// lane is fire and forget: it launches the compositor and moves on, revisiting
// the shot on the next pass.
//
// Manager runs one or more lanes concurrently over a shared queue and stops
// them together.
package workflow
