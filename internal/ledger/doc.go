// Package ledger persists the history of Blender launches in SQLite.
//
// Every render or composite launch gets a row when the subprocess starts and
// is completed with exit code and error text when it is reaped. The CLI
// history command and worker diagnostics read from it; nothing in the worker
// loop depends on it for correctness.
package ledger
