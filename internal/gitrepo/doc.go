// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// RepositoryManager exposes one typed method per git subcommand the converter
// runs against the superproject and its submodules. RepositoryInspector reads
// repository state directly through go-git when no process needs to be spawned.
package gitrepo
