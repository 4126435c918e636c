package submodules

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/repo2gitmodules/internal/gitrepo"
	"github.com/temirov/repo2gitmodules/internal/manifest"
)

const (
	listSubmodulesErrorTemplateConstant  = "failed to list submodules: %w"
	removalErrorTemplateConstant         = "failed to remove submodule %s: %w"
	removalsFailedErrorTemplateConstant  = "failed to remove stale submodules: %w"
	addErrorTemplateConstant             = "failed to add submodule %s: %w"
	updateErrorTemplateConstant          = "failed to update submodule %s: %w"
	checkoutErrorTemplateConstant        = "failed to check out %s at %s: %w"
	invalidProjectsErrorTemplateConstant = "invalid manifest projects: %w"
	managerNotConfiguredMessageConstant  = "submodule reconciler requires a repository manager"
	logMessageRemovingSubmoduleConstant  = "Removing submodule"
	logMessageAddingSubmoduleConstant    = "Adding submodule"
	logMessageUpdatingSubmoduleConstant  = "Updating submodule"
	logMessageCheckingOutConstant        = "Checking out submodule"
	logMessageReconciledConstant         = "Reconciled submodules"
	logFieldWorktreeConstant             = "worktree"
	logFieldRevisionConstant             = "revision"
	logFieldRemoteURLConstant            = "remote_url"
	logFieldBranchConstant               = "branch"
	logFieldRemovedCountConstant         = "removed"
	logFieldAddedCountConstant           = "added"
	logFieldUpdatedCountConstant         = "updated"
	logFieldRepositoryPathConstant       = "repository_path"
	logMessageRemovalFailedConstant      = "Failed to remove submodule"
	logMessagePlanComputedConstant       = "Computed submodule plan"
	logFieldRegisteredSubmodulesConstant = "registered"
	logFieldManifestProjectCountConstant = "projects"
	logFieldPlannedRemovalCountConstant  = "planned_removals"
	logFieldPlannedAdditionCountConstant = "planned_additions"
	logFieldPlannedUpdateCountConstant   = "planned_updates"
	logFieldRemovalFailureCountConstant  = "failures"
	logMessageRemovalsFailedConstant     = "Stale submodule removal incomplete"
)

// ErrRepositoryManagerNotConfigured indicates the reconciler was constructed without git operations.
var ErrRepositoryManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)

// RepositoryManager exposes the git operations the reconciler drives.
type RepositoryManager interface {
	ListSubmodules(executionContext context.Context, repositoryPath string) ([]string, error)
	AddSubmodule(executionContext context.Context, repositoryPath string, definition gitrepo.SubmoduleDefinition) error
	RemoveSubmodule(executionContext context.Context, repositoryPath string, worktree string) error
	SetSubmoduleURL(executionContext context.Context, repositoryPath string, worktree string, remoteURL string) error
	RetargetSubmoduleBranch(executionContext context.Context, repositoryPath string, worktree string, branch string) error
	InitializeSubmodule(executionContext context.Context, repositoryPath string, worktree string) error
	FetchSubmodule(executionContext context.Context, repositoryPath string, worktree string) error
	CheckoutRevision(executionContext context.Context, repositoryPath string, worktree string, revision string) error
	StagePath(executionContext context.Context, repositoryPath string, worktree string) error
	UpdateSubmoduleRecursive(executionContext context.Context, repositoryPath string, worktree string) error
}

// Checkout records the revision a submodule was pinned to.
type Checkout struct {
	Worktree string
	Revision string
}

// Result summarizes what a reconciliation changed.
type Result struct {
	Removed    []string
	Added      []string
	Updated    []string
	CheckedOut []Checkout
}

// Reconciler applies manifest projects to the submodules of a superproject.
type Reconciler struct {
	manager RepositoryManager
	logger  *zap.Logger
}

// NewReconciler constructs a Reconciler.
func NewReconciler(manager RepositoryManager, logger *zap.Logger) (*Reconciler, error) {
	if manager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{manager: manager, logger: logger}, nil
}

// Plan lists the registered submodules and compares them with projects without mutating anything.
func (reconciler *Reconciler) Plan(executionContext context.Context, repositoryPath string, projects []manifest.Project) (Plan, error) {
	if validationError := manifest.ValidateProjects(projects); validationError != nil {
		return Plan{}, fmt.Errorf(invalidProjectsErrorTemplateConstant, validationError)
	}

	currentWorktrees, listError := reconciler.manager.ListSubmodules(executionContext, repositoryPath)
	if listError != nil {
		return Plan{}, fmt.Errorf(listSubmodulesErrorTemplateConstant, listError)
	}

	plan := BuildPlan(currentWorktrees, projects)
	reconciler.logger.Debug(
		logMessagePlanComputedConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.Int(logFieldRegisteredSubmodulesConstant, len(currentWorktrees)),
		zap.Int(logFieldManifestProjectCountConstant, len(projects)),
		zap.Int(logFieldPlannedRemovalCountConstant, len(plan.Removals)),
		zap.Int(logFieldPlannedAdditionCountConstant, len(plan.Additions())),
		zap.Int(logFieldPlannedUpdateCountConstant, len(plan.Updates())),
	)
	return plan, nil
}

// Reconcile makes the registered submodules match projects exactly and pins each to its revision.
func (reconciler *Reconciler) Reconcile(executionContext context.Context, repositoryPath string, projects []manifest.Project) (Result, error) {
	plan, planError := reconciler.Plan(executionContext, repositoryPath, projects)
	if planError != nil {
		return Result{}, planError
	}
	return reconciler.Apply(executionContext, repositoryPath, plan)
}

// Apply executes plan. Every removal is attempted; if any fails the run stops before projects are
// touched. Project actions stop at the first failure. Nothing is rolled back.
func (reconciler *Reconciler) Apply(executionContext context.Context, repositoryPath string, plan Plan) (Result, error) {
	result := Result{Removed: []string{}, Added: []string{}, Updated: []string{}, CheckedOut: []Checkout{}}

	removalFailures := []error{}
	for _, worktree := range plan.Removals {
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}
		reconciler.logger.Info(logMessageRemovingSubmoduleConstant, zap.String(logFieldWorktreeConstant, worktree))
		if removalError := reconciler.manager.RemoveSubmodule(executionContext, repositoryPath, worktree); removalError != nil {
			reconciler.logger.Warn(logMessageRemovalFailedConstant, zap.String(logFieldWorktreeConstant, worktree), zap.Error(removalError))
			removalFailures = append(removalFailures, fmt.Errorf(removalErrorTemplateConstant, worktree, removalError))
			continue
		}
		result.Removed = append(result.Removed, worktree)
	}
	if len(removalFailures) > 0 {
		reconciler.logger.Warn(logMessageRemovalsFailedConstant, zap.Int(logFieldRemovalFailureCountConstant, len(removalFailures)))
		return result, fmt.Errorf(removalsFailedErrorTemplateConstant, errors.Join(removalFailures...))
	}

	for _, action := range plan.Actions {
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}
		if actionError := reconciler.applyAction(executionContext, repositoryPath, action); actionError != nil {
			return result, actionError
		}
		switch action.Kind {
		case ActionAdd:
			result.Added = append(result.Added, action.Project.Worktree)
		case ActionUpdate:
			result.Updated = append(result.Updated, action.Project.Worktree)
		}
		result.CheckedOut = append(result.CheckedOut, Checkout{Worktree: action.Project.Worktree, Revision: action.Revision})
	}

	reconciler.logger.Debug(
		logMessageReconciledConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.Int(logFieldRemovedCountConstant, len(result.Removed)),
		zap.Int(logFieldAddedCountConstant, len(result.Added)),
		zap.Int(logFieldUpdatedCountConstant, len(result.Updated)),
	)
	return result, nil
}

func (reconciler *Reconciler) applyAction(executionContext context.Context, repositoryPath string, action Action) error {
	project := action.Project
	projectFields := []zap.Field{
		zap.String(logFieldWorktreeConstant, project.Worktree),
		zap.String(logFieldRemoteURLConstant, project.RemoteURL),
		zap.String(logFieldBranchConstant, project.Branch),
	}

	switch action.Kind {
	case ActionUpdate:
		reconciler.logger.Info(logMessageUpdatingSubmoduleConstant, projectFields...)
		if updateError := reconciler.updateSubmodule(executionContext, repositoryPath, project); updateError != nil {
			return fmt.Errorf(updateErrorTemplateConstant, project.Worktree, updateError)
		}
	default:
		reconciler.logger.Info(logMessageAddingSubmoduleConstant, projectFields...)
		addError := reconciler.manager.AddSubmodule(executionContext, repositoryPath, gitrepo.SubmoduleDefinition{
			Worktree:  project.Worktree,
			RemoteURL: project.RemoteURL,
			Branch:    project.Branch,
		})
		if addError != nil {
			return fmt.Errorf(addErrorTemplateConstant, project.Worktree, addError)
		}
	}

	reconciler.logger.Info(logMessageCheckingOutConstant, zap.String(logFieldWorktreeConstant, project.Worktree), zap.String(logFieldRevisionConstant, action.Revision))
	if checkoutError := reconciler.checkoutSubmodule(executionContext, repositoryPath, project.Worktree, action.Revision); checkoutError != nil {
		return fmt.Errorf(checkoutErrorTemplateConstant, project.Worktree, action.Revision, checkoutError)
	}
	return nil
}

func (reconciler *Reconciler) updateSubmodule(executionContext context.Context, repositoryPath string, project manifest.Project) error {
	if urlError := reconciler.manager.SetSubmoduleURL(executionContext, repositoryPath, project.Worktree, project.RemoteURL); urlError != nil {
		return urlError
	}
	if branchError := reconciler.manager.RetargetSubmoduleBranch(executionContext, repositoryPath, project.Worktree, project.Branch); branchError != nil {
		return branchError
	}
	// Fetch and checkout run inside the submodule directory; without a working tree git would act on the superproject.
	if initializeError := reconciler.manager.InitializeSubmodule(executionContext, repositoryPath, project.Worktree); initializeError != nil {
		return initializeError
	}
	return reconciler.manager.FetchSubmodule(executionContext, repositoryPath, project.Worktree)
}

func (reconciler *Reconciler) checkoutSubmodule(executionContext context.Context, repositoryPath string, worktree string, revision string) error {
	if checkoutError := reconciler.manager.CheckoutRevision(executionContext, repositoryPath, worktree, revision); checkoutError != nil {
		return checkoutError
	}
	if stageError := reconciler.manager.StagePath(executionContext, repositoryPath, worktree); stageError != nil {
		return stageError
	}
	return reconciler.manager.UpdateSubmoduleRecursive(executionContext, repositoryPath, worktree)
}
