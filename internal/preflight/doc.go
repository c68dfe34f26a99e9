// Package preflight provides readiness checks for the files, directories and
// binaries renderq depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll before starting its lanes and refuses to start
//     when a required check fails.
//   - The CLI "renderq check" command prints every result as a table.
package preflight
