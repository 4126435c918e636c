package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repo2gitmodules/internal/execshell"
)

const (
	scratchDirectoryPatternConstant        = "repo2gitmodules-manifest-*"
	repoMetadataDirectoryConstant          = ".repo"
	resolvedManifestFileNameConstant       = "manifest.xml"
	repoInitSubcommandConstant             = "init"
	repoManifestURLFlagConstant            = "-u"
	repoManifestBranchFlagConstant         = "-b"
	repoManifestNameFlagConstant           = "-m"
	logMessageScratchCreatedConstant       = "Created manifest scratch directory"
	logMessageScratchRemovedConstant       = "Removed manifest scratch directory"
	logMessageScratchRemovalFailedConstant = "Failed to remove manifest scratch directory"
	logMessageManifestReadConstant         = "Read manifest projects"
	logFieldScratchDirectoryConstant       = "scratch_directory"
	logFieldManifestPathConstant           = "manifest_path"
	logFieldProjectCountConstant           = "project_count"
	terminalPromptEnvironmentVariableName  = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabledValueConstant    = "0"
)

// RepoExecutor runs the repo manifest tool.
type RepoExecutor interface {
	ExecuteRepo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ReaderFactory builds the Reader used for one fetch.
type ReaderFactory func(options FetchOptions) Reader

// FetchOptions identify the manifest to retrieve.
type FetchOptions struct {
	ManifestURL    string
	ManifestBranch string
	ManifestName   string
	Groups         []string
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(fetcher *Fetcher)

// WithScratchRoot places scratch directories under the provided root instead of the OS temp dir.
func WithScratchRoot(scratchRoot string) FetcherOption {
	return func(fetcher *Fetcher) {
		fetcher.scratchRoot = scratchRoot
	}
}

// WithReaderFactory replaces the default XML reader.
func WithReaderFactory(factory ReaderFactory) FetcherOption {
	return func(fetcher *Fetcher) {
		if factory != nil {
			fetcher.readerFactory = factory
		}
	}
}

// Fetcher runs `repo init` in a scratch directory and reads the resulting manifest.
type Fetcher struct {
	executor      RepoExecutor
	logger        *zap.Logger
	readerFactory ReaderFactory
	scratchRoot   string
}

// NewFetcher constructs a Fetcher backed by the XML reader.
func NewFetcher(executor RepoExecutor, logger *zap.Logger, options ...FetcherOption) (*Fetcher, error) {
	if executor == nil {
		return nil, ErrRepoExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fetcher := &Fetcher{
		executor:      executor,
		logger:        logger,
		readerFactory: DefaultReaderFactory,
	}
	for _, option := range options {
		if option != nil {
			option(fetcher)
		}
	}
	if fetcher.readerFactory == nil {
		return nil, ErrReaderFactoryNotConfigured
	}
	return fetcher, nil
}

// DefaultReaderFactory returns an XMLReader resolving relative remotes against the manifest URL.
func DefaultReaderFactory(options FetchOptions) Reader {
	return NewXMLReader(XMLReaderOptions{ManifestURL: options.ManifestURL, Groups: options.Groups})
}

// Fetch retrieves the manifest and returns its snapshot. The scratch directory is removed on every path.
func (fetcher *Fetcher) Fetch(executionContext context.Context, options FetchOptions) (Snapshot, error) {
	normalizedOptions, validationError := normalizeFetchOptions(options)
	if validationError != nil {
		return Snapshot{}, validationError
	}

	scratchDirectory, scratchError := os.MkdirTemp(fetcher.scratchRoot, scratchDirectoryPatternConstant)
	if scratchError != nil {
		return Snapshot{}, ManifestFetchError{ManifestURL: normalizedOptions.ManifestURL, Cause: scratchError}
	}
	fetcher.logger.Debug(logMessageScratchCreatedConstant, zap.String(logFieldScratchDirectoryConstant, scratchDirectory))
	defer fetcher.removeScratchDirectory(scratchDirectory)

	_, initError := fetcher.executor.ExecuteRepo(executionContext, execshell.CommandDetails{
		Arguments: []string{
			repoInitSubcommandConstant,
			repoManifestURLFlagConstant, normalizedOptions.ManifestURL,
			repoManifestBranchFlagConstant, normalizedOptions.ManifestBranch,
			repoManifestNameFlagConstant, normalizedOptions.ManifestName,
		},
		WorkingDirectory:     scratchDirectory,
		EnvironmentVariables: map[string]string{terminalPromptEnvironmentVariableName: terminalPromptDisabledValueConstant},
	})
	if initError != nil {
		return Snapshot{}, ManifestFetchError{ManifestURL: normalizedOptions.ManifestURL, Cause: initError}
	}

	manifestPath := filepath.Join(scratchDirectory, repoMetadataDirectoryConstant, resolvedManifestFileNameConstant)
	projects, readError := fetcher.readerFactory(normalizedOptions).Read(manifestPath)
	if readError != nil {
		return Snapshot{}, ManifestFetchError{ManifestURL: normalizedOptions.ManifestURL, Cause: readError}
	}
	if validationError := ValidateProjects(projects); validationError != nil {
		return Snapshot{}, ManifestFetchError{ManifestURL: normalizedOptions.ManifestURL, Cause: validationError}
	}

	fetcher.logger.Debug(
		logMessageManifestReadConstant,
		zap.String(logFieldManifestPathConstant, manifestPath),
		zap.Int(logFieldProjectCountConstant, len(projects)),
	)

	return Snapshot{
		ManifestURL:    normalizedOptions.ManifestURL,
		ManifestBranch: normalizedOptions.ManifestBranch,
		ManifestName:   normalizedOptions.ManifestName,
		Projects:       projects,
	}, nil
}

func (fetcher *Fetcher) removeScratchDirectory(scratchDirectory string) {
	if removalError := os.RemoveAll(scratchDirectory); removalError != nil {
		fetcher.logger.Warn(logMessageScratchRemovalFailedConstant, zap.String(logFieldScratchDirectoryConstant, scratchDirectory), zap.Error(removalError))
		return
	}
	fetcher.logger.Debug(logMessageScratchRemovedConstant, zap.String(logFieldScratchDirectoryConstant, scratchDirectory))
}

func normalizeFetchOptions(options FetchOptions) (FetchOptions, error) {
	normalized := FetchOptions{
		ManifestURL:    strings.TrimSpace(options.ManifestURL),
		ManifestBranch: strings.TrimSpace(options.ManifestBranch),
		ManifestName:   strings.TrimSpace(options.ManifestName),
	}
	for _, group := range options.Groups {
		if trimmedGroup := strings.TrimSpace(group); len(trimmedGroup) > 0 {
			normalized.Groups = append(normalized.Groups, trimmedGroup)
		}
	}

	switch {
	case len(normalized.ManifestURL) == 0:
		return FetchOptions{}, ErrManifestURLRequired
	case len(normalized.ManifestBranch) == 0:
		return FetchOptions{}, ErrManifestBranchRequired
	case len(normalized.ManifestName) == 0:
		return FetchOptions{}, ErrManifestNameRequired
	}
	return normalized, nil
}
