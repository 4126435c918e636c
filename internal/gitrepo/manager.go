package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/repo2gitmodules/internal/execshell"
)

const (
	gitInitSubcommandConstant            = "init"
	gitDiffIndexSubcommandConstant       = "diff-index"
	gitQuietFlagConstant                 = "--quiet"
	gitHeadReferenceConstant             = "HEAD"
	gitArgumentTerminatorConstant        = "--"
	gitSubmoduleSubcommandConstant       = "submodule"
	gitSubmoduleStatusActionConstant     = "status"
	gitSubmoduleAddActionConstant        = "add"
	gitSubmoduleDeinitActionConstant     = "deinit"
	gitSubmoduleSetURLActionConstant     = "set-url"
	gitSubmoduleSetBranchActionConstant  = "set-branch"
	gitSubmoduleUpdateActionConstant     = "update"
	gitSubmoduleBranchFlagConstant       = "--branch"
	gitSubmoduleShortBranchFlagConstant  = "-b"
	gitSubmoduleDefaultFlagConstant      = "--default"
	gitSubmoduleInitFlagConstant         = "--init"
	gitSubmoduleRecursiveFlagConstant    = "--recursive"
	gitRemoveSubcommandConstant          = "rm"
	gitFetchSubcommandConstant           = "fetch"
	gitFetchAllFlagConstant              = "--all"
	gitCheckoutSubcommandConstant        = "checkout"
	gitAddSubcommandConstant             = "add"
	gitMetadataDirectoryConstant         = ".git"
	gitModulesDirectoryConstant          = "modules"
	placeholderBranchNameConstant        = "repo2gitmodules-placeholder"
	repositoryPathFieldNameConstant      = "repository path"
	worktreeFieldNameConstant            = "submodule worktree"
	remoteURLFieldNameConstant           = "submodule url"
	revisionFieldNameConstant            = "revision"
	worktreeMustBeRelativeMessage        = "must be a relative path inside the repository"
	diffIndexDirtyExitCodeConstant       = 1
	terminalPromptEnvironmentVariable    = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabledValueConstant  = "0"
	submoduleStatusMinimumFieldsConstant = 2
	parentDirectoryConstant              = ".."
)

// GitExecutor runs git with the provided details.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// SubmoduleDefinition describes a submodule to register.
type SubmoduleDefinition struct {
	Worktree  string
	RemoteURL string
	Branch    string
}

// RepositoryManager runs typed git operations against a superproject and its submodules.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// InitRepository creates an empty repository at repositoryPath.
func (manager *RepositoryManager) InitRepository(executionContext context.Context, repositoryPath string) error {
	if validationError := requireValue(repositoryPathFieldNameConstant, repositoryPath); validationError != nil {
		return validationError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitInitSubcommandConstant},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// CheckCleanWorktree reports whether tracked files match HEAD.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	if validationError := requireValue(repositoryPathFieldNameConstant, repositoryPath); validationError != nil {
		return false, validationError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitDiffIndexSubcommandConstant, gitQuietFlagConstant, gitHeadReferenceConstant, gitArgumentTerminatorConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError == nil {
		return true, nil
	}

	var failedCommand execshell.CommandFailedError
	if errors.As(executionError, &failedCommand) && failedCommand.Result.ExitCode == diffIndexDirtyExitCodeConstant {
		return false, nil
	}
	return false, executionError
}

// ListSubmodules returns the worktree paths of every registered submodule.
func (manager *RepositoryManager) ListSubmodules(executionContext context.Context, repositoryPath string) ([]string, error) {
	if validationError := requireValue(repositoryPathFieldNameConstant, repositoryPath); validationError != nil {
		return nil, validationError
	}
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitSubmoduleSubcommandConstant, gitSubmoduleStatusActionConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, executionError
	}
	return ParseSubmoduleStatus(executionResult.StandardOutput)
}

// AddSubmodule registers and clones a new submodule, tracking definition.Branch when set.
func (manager *RepositoryManager) AddSubmodule(executionContext context.Context, repositoryPath string, definition SubmoduleDefinition) error {
	if validationError := validateRepositoryAndWorktree(repositoryPath, definition.Worktree); validationError != nil {
		return validationError
	}
	if validationError := requireValue(remoteURLFieldNameConstant, definition.RemoteURL); validationError != nil {
		return validationError
	}

	arguments := []string{gitSubmoduleSubcommandConstant, gitSubmoduleAddActionConstant}
	if trimmedBranch := strings.TrimSpace(definition.Branch); len(trimmedBranch) > 0 {
		arguments = append(arguments, gitSubmoduleShortBranchFlagConstant, trimmedBranch)
	}
	arguments = append(arguments, gitArgumentTerminatorConstant, definition.RemoteURL, definition.Worktree)

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: networkEnvironment(),
	})
	return executionError
}

// RemoveSubmodule deinitializes the submodule, removes it from the index and working tree,
// and purges its clone under .git/modules.
func (manager *RepositoryManager) RemoveSubmodule(executionContext context.Context, repositoryPath string, worktree string) error {
	if validationError := validateRepositoryAndWorktree(repositoryPath, worktree); validationError != nil {
		return validationError
	}

	if _, deinitError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitSubmoduleSubcommandConstant, gitSubmoduleDeinitActionConstant, gitArgumentTerminatorConstant, worktree},
		WorkingDirectory: repositoryPath,
	}); deinitError != nil {
		return deinitError
	}

	if _, removeError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoveSubcommandConstant, gitArgumentTerminatorConstant, worktree},
		WorkingDirectory: repositoryPath,
	}); removeError != nil {
		return removeError
	}

	moduleDirectory := filepath.Join(repositoryPath, gitMetadataDirectoryConstant, gitModulesDirectoryConstant, filepath.FromSlash(worktree))
	if purgeError := os.RemoveAll(moduleDirectory); purgeError != nil {
		return fmt.Errorf(moduleDirectoryRemovalTemplateConstant, moduleDirectory, purgeError)
	}
	return nil
}

// SetSubmoduleURL points an existing submodule at remoteURL.
func (manager *RepositoryManager) SetSubmoduleURL(executionContext context.Context, repositoryPath string, worktree string, remoteURL string) error {
	if validationError := validateRepositoryAndWorktree(repositoryPath, worktree); validationError != nil {
		return validationError
	}
	if validationError := requireValue(remoteURLFieldNameConstant, remoteURL); validationError != nil {
		return validationError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitSubmoduleSubcommandConstant, gitSubmoduleSetURLActionConstant, gitArgumentTerminatorConstant, worktree, remoteURL},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// RetargetSubmoduleBranch makes the submodule track branch, or clears tracking when branch is empty.
// A placeholder branch is set first because git refuses to reset a submodule that tracks nothing.
func (manager *RepositoryManager) RetargetSubmoduleBranch(executionContext context.Context, repositoryPath string, worktree string, branch string) error {
	if validationError := validateRepositoryAndWorktree(repositoryPath, worktree); validationError != nil {
		return validationError
	}

	if placeholderError := manager.setSubmoduleBranch(executionContext, repositoryPath, worktree, []string{gitSubmoduleBranchFlagConstant, placeholderBranchNameConstant}); placeholderError != nil {
		return placeholderError
	}

	trimmedBranch := strings.TrimSpace(branch)
	if len(trimmedBranch) == 0 {
		return manager.setSubmoduleBranch(executionContext, repositoryPath, worktree, []string{gitSubmoduleDefaultFlagConstant})
	}
	return manager.setSubmoduleBranch(executionContext, repositoryPath, worktree, []string{gitSubmoduleBranchFlagConstant, trimmedBranch})
}

func (manager *RepositoryManager) setSubmoduleBranch(executionContext context.Context, repositoryPath string, worktree string, branchArguments []string) error {
	arguments := append([]string{gitSubmoduleSubcommandConstant, gitSubmoduleSetBranchActionConstant}, branchArguments...)
	arguments = append(arguments, gitArgumentTerminatorConstant, worktree)
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// InitializeSubmodule clones and checks out the recorded commit of a registered submodule whose working
// tree is missing, as in a fresh clone of the superproject. Initialized submodules are left untouched.
func (manager *RepositoryManager) InitializeSubmodule(executionContext context.Context, repositoryPath string, worktree string) error {
	if validationError := validateRepositoryAndWorktree(repositoryPath, worktree); validationError != nil {
		return validationError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{
			gitSubmoduleSubcommandConstant,
			gitSubmoduleUpdateActionConstant,
			gitSubmoduleInitFlagConstant,
			gitArgumentTerminatorConstant,
			worktree,
		},
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: networkEnvironment(),
	})
	return executionError
}

// FetchSubmodule fetches every remote inside the submodule so new revisions become available.
func (manager *RepositoryManager) FetchSubmodule(executionContext context.Context, repositoryPath string, worktree string) error {
	if validationError := validateRepositoryAndWorktree(repositoryPath, worktree); validationError != nil {
		return validationError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitFetchSubcommandConstant, gitFetchAllFlagConstant},
		WorkingDirectory:     submoduleDirectory(repositoryPath, worktree),
		EnvironmentVariables: networkEnvironment(),
	})
	return executionError
}

// CheckoutRevision checks out revision inside the submodule working tree.
func (manager *RepositoryManager) CheckoutRevision(executionContext context.Context, repositoryPath string, worktree string, revision string) error {
	if validationError := validateRepositoryAndWorktree(repositoryPath, worktree); validationError != nil {
		return validationError
	}
	if validationError := requireValue(revisionFieldNameConstant, revision); validationError != nil {
		return validationError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, revision},
		WorkingDirectory: submoduleDirectory(repositoryPath, worktree),
	})
	return executionError
}

// StagePath records the current state of worktree in the superproject index.
func (manager *RepositoryManager) StagePath(executionContext context.Context, repositoryPath string, worktree string) error {
	if validationError := validateRepositoryAndWorktree(repositoryPath, worktree); validationError != nil {
		return validationError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, gitArgumentTerminatorConstant, worktree},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// UpdateSubmoduleRecursive initializes and updates the submodules nested inside worktree.
func (manager *RepositoryManager) UpdateSubmoduleRecursive(executionContext context.Context, repositoryPath string, worktree string) error {
	if validationError := validateRepositoryAndWorktree(repositoryPath, worktree); validationError != nil {
		return validationError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{
			gitSubmoduleSubcommandConstant,
			gitSubmoduleUpdateActionConstant,
			gitSubmoduleInitFlagConstant,
			gitSubmoduleRecursiveFlagConstant,
			gitArgumentTerminatorConstant,
			worktree,
		},
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: networkEnvironment(),
	})
	return executionError
}

// ParseSubmoduleStatus extracts worktree paths from `git submodule status` output.
// Each line is a status flag, a commit id, the path, and an optional "(describe)" suffix.
func ParseSubmoduleStatus(output string) ([]string, error) {
	worktrees := []string{}
	for _, line := range strings.Split(output, "\n") {
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		fields := strings.Fields(line[1:])
		if len(fields) < submoduleStatusMinimumFieldsConstant {
			return nil, SubmoduleStatusParseError{Line: line}
		}
		worktree := strings.Join(fields[1:], " ")
		if describeIndex := strings.LastIndex(worktree, " ("); describeIndex > 0 && strings.HasSuffix(worktree, ")") {
			worktree = worktree[:describeIndex]
		}
		worktrees = append(worktrees, worktree)
	}
	return worktrees, nil
}

func submoduleDirectory(repositoryPath string, worktree string) string {
	return filepath.Join(repositoryPath, filepath.FromSlash(worktree))
}

func networkEnvironment() map[string]string {
	return map[string]string{terminalPromptEnvironmentVariable: terminalPromptDisabledValueConstant}
}

func requireValue(fieldName string, value string) error {
	if len(strings.TrimSpace(value)) == 0 {
		return InvalidInputError{FieldName: fieldName, Message: requiredValueMessageConstant}
	}
	return nil
}

func validateRepositoryAndWorktree(repositoryPath string, worktree string) error {
	if validationError := requireValue(repositoryPathFieldNameConstant, repositoryPath); validationError != nil {
		return validationError
	}
	if validationError := requireValue(worktreeFieldNameConstant, worktree); validationError != nil {
		return validationError
	}
	cleanedWorktree := filepath.ToSlash(filepath.Clean(worktree))
	if filepath.IsAbs(worktree) || cleanedWorktree == parentDirectoryConstant || strings.HasPrefix(cleanedWorktree, parentDirectoryConstant+"/") {
		return InvalidInputError{FieldName: worktreeFieldNameConstant, Message: worktreeMustBeRelativeMessage}
	}
	return nil
}
