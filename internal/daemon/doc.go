// Package daemon coordinates the long-running renderq worker process.
//
// Run wires configuration, logging, the shot list, the render queue, the
// Blender runner, and the launch ledger into a workflow manager, then holds a
// flock-based lock per worker role so only one process walks the queue for a
// given role against a state directory. Render and composite lanes may run in
// the same process or in separate ones.
//
// On startup the daemon prunes old run logs and finished ledger rows, and
// closes out ledger launches left "running" by a previous process whose
// Blender child has since exited.
package daemon
