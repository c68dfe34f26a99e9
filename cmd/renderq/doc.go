// Package main hosts the renderq CLI entrypoint and command graph.
//
// The Cobra-based command tree inspects the shot list and render queue,
// launches one-off renders and composites in the foreground, reports launch
// history from the ledger, runs preflight checks, and starts the long-running
// render and composite workers. It centralizes configuration resolution and
// logging setup so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
