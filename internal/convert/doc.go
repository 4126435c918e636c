// Package convert implements the command that turns a repo manifest into git submodules.
//
// A run checks that the target repository is clean (or initializes one),
// fetches the manifest into a scratch directory, reconciles the submodules,
// and renders a report of what changed or, in dry-run mode, what would change.
package convert
