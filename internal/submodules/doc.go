// Package submodules reconciles the submodules registered in a superproject
// with the project list of a manifest.
//
// BuildPlan computes which worktrees to remove, add, and update without
// touching the repository. Reconciler executes a plan through typed git
// operations: removals first, then one add-or-update per project in manifest
// order, each followed by a checkout of the pinned revision, staging, and a
// recursive update of nested submodules. Every completed step leaves a valid
// repository, so a failed run can simply be repeated.
package submodules
