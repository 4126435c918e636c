package convert

import (
	"errors"
	"fmt"
)

const (
	dirtyRepositoryErrorTemplateConstant      = "git repository %s is not clean; commit or stash your changes"
	unsupportedOutputFormatTemplateConstant   = "unsupported output format %q (expected table or yaml)"
	repositoryManagerMissingMessageConstant   = "repository manager not configured"
	repositoryInspectorMissingMessageConstant = "repository inspector not configured"
	manifestFetcherMissingMessageConstant     = "manifest fetcher not configured"
	repositoryPathMissingMessageConstant      = "repository path must be provided"
	manifestURLMissingMessageConstant         = "manifest url must be provided (--manifest-url)"
)

var (
	errRepositoryManagerMissing   = errors.New(repositoryManagerMissingMessageConstant)
	errRepositoryInspectorMissing = errors.New(repositoryInspectorMissingMessageConstant)
	errManifestFetcherMissing     = errors.New(manifestFetcherMissingMessageConstant)
	// ErrRepositoryPathRequired indicates the run options lacked a repository path.
	ErrRepositoryPathRequired = errors.New(repositoryPathMissingMessageConstant)
	// ErrManifestURLRequired indicates neither a flag nor configuration supplied the manifest URL.
	ErrManifestURLRequired = errors.New(manifestURLMissingMessageConstant)
)

// DirtyRepositoryError reports an existing repository with uncommitted changes. Nothing is mutated.
type DirtyRepositoryError struct {
	RepositoryPath string
}

// Error describes the dirty repository.
func (dirtyError DirtyRepositoryError) Error() string {
	return fmt.Sprintf(dirtyRepositoryErrorTemplateConstant, dirtyError.RepositoryPath)
}

// UnsupportedOutputFormatError reports an unknown report format.
type UnsupportedOutputFormatError struct {
	Format string
}

// Error describes the unsupported format.
func (formatError UnsupportedOutputFormatError) Error() string {
	return fmt.Sprintf(unsupportedOutputFormatTemplateConstant, formatError.Format)
}
