// Package cli constructs the repo2gitmodules command-line interface, wiring the
// convert command as the Cobra root, the layered configuration loader, and the
// zap logger. Execute runs the application under a context cancelled by SIGINT
// or SIGTERM.
package cli
