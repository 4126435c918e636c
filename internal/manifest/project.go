package manifest

import (
	"path"
	"strings"
)

const (
	currentDirectoryConstant = "."
	parentDirectoryConstant  = ".."
)

// Project describes one repository listed in a manifest.
type Project struct {
	Name               string
	Worktree           string
	RemoteName         string
	RemoteURL          string
	Branch             string
	RevisionID         string
	RevisionExpression string
	Groups             []string
}

// Revision returns the concrete commit id when known and the revision expression otherwise.
func (project Project) Revision() string {
	if len(project.RevisionID) > 0 {
		return project.RevisionID
	}
	return project.RevisionExpression
}

// HasBranch reports whether the project tracks an upstream branch.
func (project Project) HasBranch() bool {
	return len(project.Branch) > 0
}

// Snapshot is the ordered project list produced by one manifest fetch.
type Snapshot struct {
	ManifestURL    string
	ManifestBranch string
	ManifestName   string
	Projects       []Project
}

// Worktrees returns the worktree paths of the snapshot in manifest order.
func (snapshot Snapshot) Worktrees() []string {
	worktrees := make([]string, 0, len(snapshot.Projects))
	for _, project := range snapshot.Projects {
		worktrees = append(worktrees, project.Worktree)
	}
	return worktrees
}

// ValidateProjects rejects project lists whose worktrees collide or escape the repository root.
func ValidateProjects(projects []Project) error {
	projectsByWorktree := make(map[string]string, len(projects))
	for _, project := range projects {
		if !isContainedWorktree(project.Worktree) {
			return InvalidWorktreeError{ProjectName: project.Name, Worktree: project.Worktree}
		}
		if existingProjectName, exists := projectsByWorktree[project.Worktree]; exists {
			return DuplicateWorktreeError{
				Worktree:          project.Worktree,
				FirstProjectName:  existingProjectName,
				SecondProjectName: project.Name,
			}
		}
		projectsByWorktree[project.Worktree] = project.Name
	}
	return nil
}

func isContainedWorktree(worktree string) bool {
	if len(worktree) == 0 || path.IsAbs(worktree) {
		return false
	}
	cleanedWorktree := path.Clean(worktree)
	if cleanedWorktree != worktree || cleanedWorktree == currentDirectoryConstant {
		return false
	}
	return cleanedWorktree != parentDirectoryConstant && !strings.HasPrefix(cleanedWorktree, parentDirectoryConstant+"/")
}
