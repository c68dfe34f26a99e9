// Package fileutil holds file helpers shared by the shot list and render queue
// stores, chiefly a modification-time gated reloader that swaps decoded
// snapshots atomically so concurrent readers never observe a partial update.
package fileutil
