// Package shotlist loads the project shot list and resolves shot descriptors.
//
// A shot list is a JSON document with project_root, render_root and an ordered
// shots array. Each shot may name a parent [category, id] whose fields it
// inherits; resolution merges the chain with the child winning, then rewrites
// "//"-prefixed path fields onto project_root. ResolvedShot.Settings turns the
// open field map into typed render settings with every default enumerated in
// one place.
//
// Source wraps a DB in an mtime-gated reloader so long-running workers pick up
// edits without restarting.
package shotlist
