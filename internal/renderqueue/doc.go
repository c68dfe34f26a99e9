// Package renderqueue loads the render queue file (a quality tier and an
// ordered list of shot references) and serves immutable snapshots of it.
//
// Refresh re-reads the file only when its modification time changes and swaps
// the whole snapshot at once, so every worker lane sharing a Queue sees either
// the old {quality, shots} pair or the new one. Failed reloads are logged and
// the previous snapshot stays in effect.
package renderqueue
