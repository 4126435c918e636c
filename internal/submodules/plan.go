package submodules

import (
	"slices"

	"github.com/temirov/repo2gitmodules/internal/manifest"
)

// ActionKind distinguishes registering a new submodule from refreshing an existing one.
type ActionKind string

// Supported action kinds.
const (
	ActionAdd    ActionKind = ActionKind("add")
	ActionUpdate ActionKind = ActionKind("update")
)

// Action is the work planned for one manifest project.
type Action struct {
	Kind     ActionKind
	Project  manifest.Project
	Revision string
}

// Plan lists the removals followed by the per-project actions in manifest order.
type Plan struct {
	Removals []string
	Actions  []Action
}

// BuildPlan compares the registered submodule worktrees with the manifest projects.
// Removals are sorted; actions keep manifest order.
func BuildPlan(currentWorktrees []string, projects []manifest.Project) Plan {
	registered := make(map[string]struct{}, len(currentWorktrees))
	for _, worktree := range currentWorktrees {
		registered[worktree] = struct{}{}
	}

	desired := make(map[string]struct{}, len(projects))
	actions := make([]Action, 0, len(projects))
	for _, project := range projects {
		desired[project.Worktree] = struct{}{}
		kind := ActionAdd
		if _, exists := registered[project.Worktree]; exists {
			kind = ActionUpdate
		}
		actions = append(actions, Action{Kind: kind, Project: project, Revision: project.Revision()})
	}

	removals := []string{}
	for worktree := range registered {
		if _, wanted := desired[worktree]; !wanted {
			removals = append(removals, worktree)
		}
	}
	slices.Sort(removals)

	return Plan{Removals: removals, Actions: actions}
}

// Additions returns the worktrees that will be registered as new submodules.
func (plan Plan) Additions() []string {
	return plan.worktreesOfKind(ActionAdd)
}

// Updates returns the worktrees of submodules that already exist.
func (plan Plan) Updates() []string {
	return plan.worktreesOfKind(ActionUpdate)
}

// Empty reports whether the plan neither removes nor touches any submodule.
func (plan Plan) Empty() bool {
	return len(plan.Removals) == 0 && len(plan.Actions) == 0
}

func (plan Plan) worktreesOfKind(kind ActionKind) []string {
	worktrees := []string{}
	for _, action := range plan.Actions {
		if action.Kind == kind {
			worktrees = append(worktrees, action.Project.Worktree)
		}
	}
	return worktrees
}
