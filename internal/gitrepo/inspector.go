package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	gitModulesFileNameConstant           = ".gitmodules"
	repositoryOpenErrorTemplateConstant  = "failed to open repository %s: %w"
	headLookupErrorTemplateConstant      = "failed to resolve HEAD in %s: %w"
	indexReadErrorTemplateConstant       = "failed to read index of %s: %w"
	gitModulesReadErrorTemplateConstant  = "failed to read %s: %w"
	gitModulesParseErrorTemplateConstant = "failed to parse %s: %w"
)

// SubmoduleConfiguration is one entry of the superproject's .gitmodules file.
type SubmoduleConfiguration struct {
	Name   string
	Path   string
	URL    string
	Branch string
}

// RepositoryInspector answers read-only questions about a repository without spawning git.
type RepositoryInspector struct{}

// NewRepositoryInspector constructs a RepositoryInspector.
func NewRepositoryInspector() *RepositoryInspector {
	return &RepositoryInspector{}
}

// RepositoryExists reports whether repositoryPath holds a git repository.
func (inspector *RepositoryInspector) RepositoryExists(repositoryPath string) (bool, error) {
	_, openError := git.PlainOpen(repositoryPath)
	if openError == nil {
		return true, nil
	}
	if errors.Is(openError, git.ErrRepositoryNotExists) {
		return false, nil
	}
	return false, fmt.Errorf(repositoryOpenErrorTemplateConstant, repositoryPath, openError)
}

// HeadUnborn reports whether HEAD points at a branch without commits.
func (inspector *RepositoryInspector) HeadUnborn(repositoryPath string) (bool, error) {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return false, fmt.Errorf(repositoryOpenErrorTemplateConstant, repositoryPath, openError)
	}
	_, headError := repository.Head()
	if headError == nil {
		return false, nil
	}
	if errors.Is(headError, plumbing.ErrReferenceNotFound) {
		return true, nil
	}
	return false, fmt.Errorf(headLookupErrorTemplateConstant, repositoryPath, headError)
}

// IndexEmpty reports whether nothing is staged in the index.
func (inspector *RepositoryInspector) IndexEmpty(repositoryPath string) (bool, error) {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return false, fmt.Errorf(repositoryOpenErrorTemplateConstant, repositoryPath, openError)
	}
	repositoryIndex, indexError := repository.Storer.Index()
	if indexError != nil {
		return false, fmt.Errorf(indexReadErrorTemplateConstant, repositoryPath, indexError)
	}
	return len(repositoryIndex.Entries) == 0, nil
}

// SubmoduleConfigurations returns the .gitmodules entries keyed by worktree path.
// A repository without .gitmodules yields an empty map.
func (inspector *RepositoryInspector) SubmoduleConfigurations(repositoryPath string) (map[string]SubmoduleConfiguration, error) {
	gitModulesPath := filepath.Join(repositoryPath, gitModulesFileNameConstant)
	gitModulesContent, readError := os.ReadFile(gitModulesPath)
	if errors.Is(readError, os.ErrNotExist) {
		return map[string]SubmoduleConfiguration{}, nil
	}
	if readError != nil {
		return nil, fmt.Errorf(gitModulesReadErrorTemplateConstant, gitModulesPath, readError)
	}

	modules := gitconfig.NewModules()
	if unmarshalError := modules.Unmarshal(gitModulesContent); unmarshalError != nil {
		return nil, fmt.Errorf(gitModulesParseErrorTemplateConstant, gitModulesPath, unmarshalError)
	}

	configurations := make(map[string]SubmoduleConfiguration, len(modules.Submodules))
	for _, submodule := range modules.Submodules {
		configurations[submodule.Path] = SubmoduleConfiguration{
			Name:   submodule.Name,
			Path:   submodule.Path,
			URL:    submodule.URL,
			Branch: submodule.Branch,
		}
	}
	return configurations, nil
}
