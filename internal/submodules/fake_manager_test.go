package submodules_test

import (
	"context"
	"slices"
	"strings"

	"github.com/temirov/repo2gitmodules/internal/gitrepo"
)

type fakeSubmodule struct {
	remoteURL string
	branch    string
	revision  string
}

// fakeRepositoryManager keeps submodules in memory and records every call as "operation worktree [argument]".
type fakeRepositoryManager struct {
	submodules     map[string]fakeSubmodule
	calls          []string
	failOperations map[string]error
}

func newFakeRepositoryManager(existing map[string]fakeSubmodule) *fakeRepositoryManager {
	submodules := make(map[string]fakeSubmodule, len(existing))
	for worktree, submodule := range existing {
		submodules[worktree] = submodule
	}
	return &fakeRepositoryManager{
		submodules:     submodules,
		failOperations: map[string]error{},
	}
}

func (manager *fakeRepositoryManager) record(parts ...string) error {
	call := strings.Join(parts, " ")
	manager.calls = append(manager.calls, call)
	if failure, exists := manager.failOperations[call]; exists {
		return failure
	}
	return nil
}

func (manager *fakeRepositoryManager) worktrees() []string {
	worktrees := make([]string, 0, len(manager.submodules))
	for worktree := range manager.submodules {
		worktrees = append(worktrees, worktree)
	}
	slices.Sort(worktrees)
	return worktrees
}

func (manager *fakeRepositoryManager) countCalls(operation string) int {
	count := 0
	for _, call := range manager.calls {
		if strings.HasPrefix(call, operation+" ") {
			count++
		}
	}
	return count
}

func (manager *fakeRepositoryManager) ListSubmodules(context.Context, string) ([]string, error) {
	if failure := manager.record("list", "."); failure != nil {
		return nil, failure
	}
	return manager.worktrees(), nil
}

func (manager *fakeRepositoryManager) AddSubmodule(_ context.Context, _ string, definition gitrepo.SubmoduleDefinition) error {
	if failure := manager.record("add", definition.Worktree, definition.RemoteURL, definition.Branch); failure != nil {
		return failure
	}
	manager.submodules[definition.Worktree] = fakeSubmodule{remoteURL: definition.RemoteURL, branch: definition.Branch}
	return nil
}

func (manager *fakeRepositoryManager) RemoveSubmodule(_ context.Context, _ string, worktree string) error {
	if failure := manager.record("remove", worktree); failure != nil {
		return failure
	}
	delete(manager.submodules, worktree)
	return nil
}

func (manager *fakeRepositoryManager) SetSubmoduleURL(_ context.Context, _ string, worktree string, remoteURL string) error {
	if failure := manager.record("set-url", worktree, remoteURL); failure != nil {
		return failure
	}
	submodule := manager.submodules[worktree]
	submodule.remoteURL = remoteURL
	manager.submodules[worktree] = submodule
	return nil
}

func (manager *fakeRepositoryManager) RetargetSubmoduleBranch(_ context.Context, _ string, worktree string, branch string) error {
	if failure := manager.record("set-branch", worktree, branch); failure != nil {
		return failure
	}
	submodule := manager.submodules[worktree]
	submodule.branch = branch
	manager.submodules[worktree] = submodule
	return nil
}

func (manager *fakeRepositoryManager) InitializeSubmodule(_ context.Context, _ string, worktree string) error {
	return manager.record("init", worktree)
}

func (manager *fakeRepositoryManager) FetchSubmodule(_ context.Context, _ string, worktree string) error {
	return manager.record("fetch", worktree)
}

func (manager *fakeRepositoryManager) CheckoutRevision(_ context.Context, _ string, worktree string, revision string) error {
	if failure := manager.record("checkout", worktree, revision); failure != nil {
		return failure
	}
	submodule := manager.submodules[worktree]
	submodule.revision = revision
	manager.submodules[worktree] = submodule
	return nil
}

func (manager *fakeRepositoryManager) StagePath(_ context.Context, _ string, worktree string) error {
	return manager.record("stage", worktree)
}

func (manager *fakeRepositoryManager) UpdateSubmoduleRecursive(_ context.Context, _ string, worktree string) error {
	return manager.record("update", worktree)
}
