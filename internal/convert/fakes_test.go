package convert_test

import (
	"context"
	"slices"
	"strings"

	"github.com/temirov/repo2gitmodules/internal/gitrepo"
	"github.com/temirov/repo2gitmodules/internal/manifest"
)

// recordingRepositoryManager tracks registered worktrees and records every call as "operation arguments".
type recordingRepositoryManager struct {
	worktrees      map[string]bool
	clean          bool
	cleanError     error
	calls          []string
	failOperations map[string]error
}

func newRecordingRepositoryManager(worktrees ...string) *recordingRepositoryManager {
	registered := make(map[string]bool, len(worktrees))
	for _, worktree := range worktrees {
		registered[worktree] = true
	}
	return &recordingRepositoryManager{worktrees: registered, clean: true, failOperations: map[string]error{}}
}

func (manager *recordingRepositoryManager) record(parts ...string) error {
	call := strings.Join(parts, " ")
	manager.calls = append(manager.calls, call)
	return manager.failOperations[call]
}

func (manager *recordingRepositoryManager) mutatingCalls() []string {
	var mutating []string
	for _, call := range manager.calls {
		if strings.HasPrefix(call, "list") || strings.HasPrefix(call, "check-clean") {
			continue
		}
		mutating = append(mutating, call)
	}
	return mutating
}

func (manager *recordingRepositoryManager) InitRepository(_ context.Context, repositoryPath string) error {
	return manager.record("init", repositoryPath)
}

func (manager *recordingRepositoryManager) CheckCleanWorktree(_ context.Context, repositoryPath string) (bool, error) {
	manager.calls = append(manager.calls, "check-clean "+repositoryPath)
	return manager.clean, manager.cleanError
}

func (manager *recordingRepositoryManager) ListSubmodules(context.Context, string) ([]string, error) {
	manager.calls = append(manager.calls, "list")
	worktrees := make([]string, 0, len(manager.worktrees))
	for worktree := range manager.worktrees {
		worktrees = append(worktrees, worktree)
	}
	slices.Sort(worktrees)
	return worktrees, nil
}

func (manager *recordingRepositoryManager) AddSubmodule(_ context.Context, _ string, definition gitrepo.SubmoduleDefinition) error {
	if failure := manager.record("add", definition.Worktree, definition.RemoteURL, definition.Branch); failure != nil {
		return failure
	}
	manager.worktrees[definition.Worktree] = true
	return nil
}

func (manager *recordingRepositoryManager) RemoveSubmodule(_ context.Context, _ string, worktree string) error {
	if failure := manager.record("remove", worktree); failure != nil {
		return failure
	}
	delete(manager.worktrees, worktree)
	return nil
}

func (manager *recordingRepositoryManager) SetSubmoduleURL(_ context.Context, _ string, worktree string, remoteURL string) error {
	return manager.record("set-url", worktree, remoteURL)
}

func (manager *recordingRepositoryManager) RetargetSubmoduleBranch(_ context.Context, _ string, worktree string, branch string) error {
	return manager.record("set-branch", worktree, branch)
}

func (manager *recordingRepositoryManager) InitializeSubmodule(_ context.Context, _ string, worktree string) error {
	return manager.record("init-submodule", worktree)
}

func (manager *recordingRepositoryManager) FetchSubmodule(_ context.Context, _ string, worktree string) error {
	return manager.record("fetch", worktree)
}

func (manager *recordingRepositoryManager) CheckoutRevision(_ context.Context, _ string, worktree string, revision string) error {
	return manager.record("checkout", worktree, revision)
}

func (manager *recordingRepositoryManager) StagePath(_ context.Context, _ string, worktree string) error {
	return manager.record("stage", worktree)
}

func (manager *recordingRepositoryManager) UpdateSubmoduleRecursive(_ context.Context, _ string, worktree string) error {
	return manager.record("update", worktree)
}

// stubRepositoryInspector answers inspection questions from fixed values.
type stubRepositoryInspector struct {
	exists         bool
	headUnborn     bool
	indexEmpty     bool
	configurations map[string]gitrepo.SubmoduleConfiguration
}

func (inspector stubRepositoryInspector) RepositoryExists(string) (bool, error) {
	return inspector.exists, nil
}

func (inspector stubRepositoryInspector) HeadUnborn(string) (bool, error) {
	return inspector.headUnborn, nil
}

func (inspector stubRepositoryInspector) IndexEmpty(string) (bool, error) {
	return inspector.indexEmpty, nil
}

func (inspector stubRepositoryInspector) SubmoduleConfigurations(string) (map[string]gitrepo.SubmoduleConfiguration, error) {
	if inspector.configurations == nil {
		return map[string]gitrepo.SubmoduleConfiguration{}, nil
	}
	return inspector.configurations, nil
}

// stubManifestFetcher returns a fixed snapshot and counts fetches.
type stubManifestFetcher struct {
	projects      []manifest.Project
	fetchError    error
	fetchCount    int
	lastRequested manifest.FetchOptions
}

func (fetcher *stubManifestFetcher) Fetch(_ context.Context, options manifest.FetchOptions) (manifest.Snapshot, error) {
	fetcher.fetchCount++
	fetcher.lastRequested = options
	if fetcher.fetchError != nil {
		return manifest.Snapshot{}, fetcher.fetchError
	}
	return manifest.Snapshot{
		ManifestURL:    options.ManifestURL,
		ManifestBranch: options.ManifestBranch,
		ManifestName:   options.ManifestName,
		Projects:       fetcher.projects,
	}, nil
}

func sampleProjects() []manifest.Project {
	return []manifest.Project{
		{
			Name:               "platform/build",
			Worktree:           "build",
			RemoteName:         "aosp",
			RemoteURL:          "https://example.com/platform/build",
			RevisionExpression: "main",
		},
		{
			Name:               "platform/tools",
			Worktree:           "tools",
			RemoteName:         "aosp",
			RemoteURL:          "https://example.com/platform/tools",
			Branch:             "stable",
			RevisionID:         "0123456789abcdef0123456789abcdef01234567",
			RevisionExpression: "refs/heads/stable",
		},
	}
}
