package submodules_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/temirov/repo2gitmodules/internal/manifest"
	"github.com/temirov/repo2gitmodules/internal/submodules"
)

func testProject(worktree string) manifest.Project {
	return manifest.Project{
		Name:               worktree,
		Worktree:           worktree,
		RemoteName:         "origin",
		RemoteURL:          "https://git.example.com/" + worktree,
		RevisionExpression: "main",
	}
}

func TestBuildPlan(testInstance *testing.T) {
	pinned := testProject("libs/pinned")
	pinned.RevisionID = "abc123"

	testCases := []struct {
		name         string
		current      []string
		projects     []manifest.Project
		expectedPlan submodules.Plan
	}{
		{
			name:     "fresh_repository",
			current:  nil,
			projects: []manifest.Project{testProject("b"), testProject("a")},
			expectedPlan: submodules.Plan{
				Removals: []string{},
				Actions: []submodules.Action{
					{Kind: submodules.ActionAdd, Project: testProject("b"), Revision: "main"},
					{Kind: submodules.ActionAdd, Project: testProject("a"), Revision: "main"},
				},
			},
		},
		{
			name:     "stale_submodule_removed",
			current:  []string{"c", "a", "b"},
			projects: []manifest.Project{testProject("b"), testProject("c")},
			expectedPlan: submodules.Plan{
				Removals: []string{"a"},
				Actions: []submodules.Action{
					{Kind: submodules.ActionUpdate, Project: testProject("b"), Revision: "main"},
					{Kind: submodules.ActionUpdate, Project: testProject("c"), Revision: "main"},
				},
			},
		},
		{
			name:     "revision_id_preferred",
			current:  []string{"libs/pinned"},
			projects: []manifest.Project{pinned},
			expectedPlan: submodules.Plan{
				Removals: []string{},
				Actions:  []submodules.Action{{Kind: submodules.ActionUpdate, Project: pinned, Revision: "abc123"}},
			},
		},
		{
			name:     "empty_manifest_removes_everything",
			current:  []string{"z", "y"},
			projects: nil,
			expectedPlan: submodules.Plan{
				Removals: []string{"y", "z"},
				Actions:  []submodules.Action{},
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			plan := submodules.BuildPlan(testCase.current, testCase.projects)
			if difference := cmp.Diff(testCase.expectedPlan, plan); len(difference) > 0 {
				testInstance.Fatalf("unexpected plan (-want +got):\n%s", difference)
			}
		})
	}
}

func TestPlanSummaries(testInstance *testing.T) {
	plan := submodules.BuildPlan([]string{"a", "old"}, []manifest.Project{testProject("a"), testProject("new")})
	require.Equal(testInstance, []string{"new"}, plan.Additions())
	require.Equal(testInstance, []string{"a"}, plan.Updates())
	require.False(testInstance, plan.Empty())
	require.True(testInstance, submodules.BuildPlan(nil, nil).Empty())
}
