// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the typed failures returned whenever
// git or repo exit with a non-zero status.
package execshell
