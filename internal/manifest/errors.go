package manifest

import (
	"errors"
	"fmt"
)

const (
	manifestFetchErrorTemplateConstant     = "failed to fetch manifest from %s: %v"
	duplicateWorktreeErrorTemplateConstant = "projects %s and %s share worktree %s"
	invalidWorktreeErrorTemplateConstant   = "project %s has invalid worktree %q"
	unknownRemoteErrorTemplateConstant     = "project %s references unknown remote %q"
	manifestParseErrorTemplateConstant     = "failed to parse manifest %s: %v"
	missingRepoExecutorMessageConstant     = "manifest fetcher requires a repo executor"
	missingReaderFactoryMessageConstant    = "manifest fetcher requires a reader factory"
	missingManifestURLMessageConstant      = "manifest url must be provided"
	missingManifestBranchMessageConstant   = "manifest branch must be provided"
	missingManifestNameMessageConstant     = "manifest file name must be provided"
)

var (
	// ErrRepoExecutorNotConfigured indicates the fetcher was constructed without a repo executor.
	ErrRepoExecutorNotConfigured = errors.New(missingRepoExecutorMessageConstant)
	// ErrReaderFactoryNotConfigured indicates the fetcher was constructed without a reader factory.
	ErrReaderFactoryNotConfigured = errors.New(missingReaderFactoryMessageConstant)
	// ErrManifestURLRequired indicates fetch options lacked a manifest URL.
	ErrManifestURLRequired = errors.New(missingManifestURLMessageConstant)
	// ErrManifestBranchRequired indicates fetch options lacked a manifest branch.
	ErrManifestBranchRequired = errors.New(missingManifestBranchMessageConstant)
	// ErrManifestNameRequired indicates fetch options lacked a manifest file name.
	ErrManifestNameRequired = errors.New(missingManifestNameMessageConstant)
)

// ManifestFetchError reports that no usable manifest could be produced.
type ManifestFetchError struct {
	ManifestURL string
	Cause       error
}

// Error describes the failed fetch.
func (fetchError ManifestFetchError) Error() string {
	return fmt.Sprintf(manifestFetchErrorTemplateConstant, fetchError.ManifestURL, fetchError.Cause)
}

// Unwrap exposes the underlying failure.
func (fetchError ManifestFetchError) Unwrap() error {
	return fetchError.Cause
}

// DuplicateWorktreeError reports two projects mapped to the same worktree path.
type DuplicateWorktreeError struct {
	Worktree          string
	FirstProjectName  string
	SecondProjectName string
}

// Error describes the collision.
func (duplicateError DuplicateWorktreeError) Error() string {
	return fmt.Sprintf(duplicateWorktreeErrorTemplateConstant, duplicateError.FirstProjectName, duplicateError.SecondProjectName, duplicateError.Worktree)
}

// InvalidWorktreeError reports a worktree that is empty, absolute, unclean, or outside the repository.
type InvalidWorktreeError struct {
	ProjectName string
	Worktree    string
}

// Error describes the rejected worktree.
func (worktreeError InvalidWorktreeError) Error() string {
	return fmt.Sprintf(invalidWorktreeErrorTemplateConstant, worktreeError.ProjectName, worktreeError.Worktree)
}

// UnknownRemoteError reports a project whose remote is not declared in the manifest.
type UnknownRemoteError struct {
	ProjectName string
	RemoteName  string
}

// Error describes the missing remote.
func (remoteError UnknownRemoteError) Error() string {
	return fmt.Sprintf(unknownRemoteErrorTemplateConstant, remoteError.ProjectName, remoteError.RemoteName)
}

// ParseError reports a manifest file that could not be read or decoded.
type ParseError struct {
	Path  string
	Cause error
}

// Error describes the parse failure.
func (parseError ParseError) Error() string {
	return fmt.Sprintf(manifestParseErrorTemplateConstant, parseError.Path, parseError.Cause)
}

// Unwrap exposes the underlying failure.
func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}
