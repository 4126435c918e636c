// Package utils holds the command line plumbing shared by every command: layered Viper configuration
// (defaults, embedded YAML, config file, REPO2GITMODULES_* environment) and the zap logger factory.
//
// Home directory shortcuts in user supplied paths are handled by the sibling path package.
package utils
