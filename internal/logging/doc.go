// Package logging assembles structured slog loggers and formatting helpers used
// across renderq.
//
// It owns the console (plain or tint-colored) and JSON handlers, fans worker
// output out to per-run log files, and exposes context-aware helpers so worker
// code can tag log lines with the lane, shot, launch and session identifiers
// carried on a context. NewNop provides a discard logger for tests and wiring
// code that cannot fail.
package logging
