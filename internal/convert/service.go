package convert

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/repo2gitmodules/internal/gitrepo"
	"github.com/temirov/repo2gitmodules/internal/manifest"
	"github.com/temirov/repo2gitmodules/internal/submodules"
)

const (
	repositoryPathResolutionErrorTemplate  = "unable to resolve repository path %s: %w"
	repositoryDetectionErrorTemplate       = "unable to inspect repository %s: %w"
	repositoryCreationErrorTemplate        = "unable to create repository directory %s: %w"
	repositoryInitializationErrorTemplate  = "unable to initialize repository %s: %w"
	cleanCheckErrorTemplate                = "unable to check repository %s for changes: %w"
	reconcilerCreationErrorTemplate        = "unable to construct submodule reconciler: %w"
	planErrorTemplate                      = "unable to plan submodule changes: %w"
	reconciliationErrorTemplate            = "submodule reconciliation failed: %w"
	submoduleConfigurationErrorTemplate    = "unable to read submodule configuration: %w"
	repositoryDirectoryPermissionsConstant = 0o755
	logMessageRepositoryMissingConstant    = "No git repository found; initializing a new one"
	logMessageDryRunSkipsInitConstant      = "No git repository found; dry run plans against an empty repository"
	logMessageFetchingManifestConstant     = "Retrieving repo manifest"
	logMessageManifestFetchedConstant      = "Retrieved repo manifest"
	logMessageConversionCompletedConstant  = "Converted manifest to submodules"
	logFieldRepositoryPathConstant         = "repository_path"
	logFieldManifestURLConstant            = "manifest_url"
	logFieldManifestBranchConstant         = "manifest_branch"
	logFieldManifestNameConstant           = "manifest"
	logFieldProjectCountConstant           = "projects"
	logFieldRemovedConstant                = "removed"
	logFieldAddedConstant                  = "added"
	logFieldUpdatedConstant                = "updated"
)

// RepositoryManager is the set of git operations a conversion performs.
type RepositoryManager interface {
	submodules.RepositoryManager
	InitRepository(executionContext context.Context, repositoryPath string) error
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
}

// RepositoryInspector answers read-only questions about the target repository.
type RepositoryInspector interface {
	RepositoryExists(repositoryPath string) (bool, error)
	HeadUnborn(repositoryPath string) (bool, error)
	IndexEmpty(repositoryPath string) (bool, error)
	SubmoduleConfigurations(repositoryPath string) (map[string]gitrepo.SubmoduleConfiguration, error)
}

// ManifestFetcher retrieves a manifest snapshot.
type ManifestFetcher interface {
	Fetch(executionContext context.Context, options manifest.FetchOptions) (manifest.Snapshot, error)
}

// ServiceDependencies describes required collaborators for a conversion.
type ServiceDependencies struct {
	Logger              *zap.Logger
	RepositoryManager   RepositoryManager
	RepositoryInspector RepositoryInspector
	ManifestFetcher     ManifestFetcher
}

// Options configure one conversion run.
type Options struct {
	RepositoryPath string
	Manifest       manifest.FetchOptions
	DryRun         bool
}

// Report captures what a conversion did or, for a dry run, would do.
type Report struct {
	RepositoryPath       string
	Manifest             manifest.Snapshot
	RepositoryCreated    bool
	DryRun               bool
	Plan                 submodules.Plan
	Result               submodules.Result
	RegisteredSubmodules map[string]gitrepo.SubmoduleConfiguration
}

// Service orchestrates the pre-check, manifest retrieval, and submodule reconciliation.
type Service struct {
	logger              *zap.Logger
	repositoryManager   RepositoryManager
	repositoryInspector RepositoryInspector
	manifestFetcher     ManifestFetcher
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil {
		return nil, errRepositoryManagerMissing
	}
	if dependencies.RepositoryInspector == nil {
		return nil, errRepositoryInspectorMissing
	}
	if dependencies.ManifestFetcher == nil {
		return nil, errManifestFetcherMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:              logger,
		repositoryManager:   dependencies.RepositoryManager,
		repositoryInspector: dependencies.RepositoryInspector,
		manifestFetcher:     dependencies.ManifestFetcher,
	}, nil
}

// Execute performs one conversion.
func (service *Service) Execute(executionContext context.Context, options Options) (Report, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Report{}, ErrRepositoryPathRequired
	}
	if len(strings.TrimSpace(options.Manifest.ManifestURL)) == 0 {
		return Report{}, ErrManifestURLRequired
	}

	repositoryPath, absoluteError := convertConfigurationHomeExpander.Resolve(trimmedRepositoryPath)
	if absoluteError != nil {
		return Report{}, fmt.Errorf(repositoryPathResolutionErrorTemplate, trimmedRepositoryPath, absoluteError)
	}

	report := Report{RepositoryPath: repositoryPath, DryRun: options.DryRun}

	repositoryExists, prepareError := service.prepareRepository(executionContext, repositoryPath, options.DryRun)
	if prepareError != nil {
		return report, prepareError
	}
	report.RepositoryCreated = !repositoryExists && !options.DryRun

	service.logger.Info(
		logMessageFetchingManifestConstant,
		zap.String(logFieldManifestURLConstant, options.Manifest.ManifestURL),
		zap.String(logFieldManifestBranchConstant, options.Manifest.ManifestBranch),
		zap.String(logFieldManifestNameConstant, options.Manifest.ManifestName),
	)
	snapshot, fetchError := service.manifestFetcher.Fetch(executionContext, options.Manifest)
	if fetchError != nil {
		return report, fetchError
	}
	report.Manifest = snapshot
	service.logger.Debug(logMessageManifestFetchedConstant, zap.Int(logFieldProjectCountConstant, len(snapshot.Projects)))

	reconciler, reconcilerError := submodules.NewReconciler(service.repositoryManager, service.logger)
	if reconcilerError != nil {
		return report, fmt.Errorf(reconcilerCreationErrorTemplate, reconcilerError)
	}

	if options.DryRun {
		return service.planDryRun(executionContext, reconciler, report, repositoryExists)
	}

	plan, planError := reconciler.Plan(executionContext, repositoryPath, snapshot.Projects)
	if planError != nil {
		return report, fmt.Errorf(planErrorTemplate, planError)
	}
	report.Plan = plan

	result, reconcileError := reconciler.Apply(executionContext, repositoryPath, plan)
	report.Result = result
	if reconcileError != nil {
		return report, fmt.Errorf(reconciliationErrorTemplate, reconcileError)
	}

	service.logger.Info(
		logMessageConversionCompletedConstant,
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
		zap.Int(logFieldRemovedConstant, len(result.Removed)),
		zap.Int(logFieldAddedConstant, len(result.Added)),
		zap.Int(logFieldUpdatedConstant, len(result.Updated)),
	)
	return report, nil
}

// prepareRepository enforces a clean existing repository or initializes a new one. It reports
// whether a repository existed beforehand.
func (service *Service) prepareRepository(executionContext context.Context, repositoryPath string, dryRun bool) (bool, error) {
	repositoryExists, detectionError := service.repositoryInspector.RepositoryExists(repositoryPath)
	if detectionError != nil {
		return false, fmt.Errorf(repositoryDetectionErrorTemplate, repositoryPath, detectionError)
	}

	if repositoryExists {
		return true, service.ensureClean(executionContext, repositoryPath)
	}

	if dryRun {
		service.logger.Info(logMessageDryRunSkipsInitConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))
		return false, nil
	}

	service.logger.Info(logMessageRepositoryMissingConstant, zap.String(logFieldRepositoryPathConstant, repositoryPath))
	if mkdirError := os.MkdirAll(repositoryPath, repositoryDirectoryPermissionsConstant); mkdirError != nil {
		return false, fmt.Errorf(repositoryCreationErrorTemplate, repositoryPath, mkdirError)
	}
	if initError := service.repositoryManager.InitRepository(executionContext, repositoryPath); initError != nil {
		return false, fmt.Errorf(repositoryInitializationErrorTemplate, repositoryPath, initError)
	}
	return false, nil
}

// ensureClean compares the working tree and index with HEAD. Without commits, only an empty index is clean.
func (service *Service) ensureClean(executionContext context.Context, repositoryPath string) error {
	headUnborn, headError := service.repositoryInspector.HeadUnborn(repositoryPath)
	if headError != nil {
		return fmt.Errorf(cleanCheckErrorTemplate, repositoryPath, headError)
	}

	if headUnborn {
		indexEmpty, indexError := service.repositoryInspector.IndexEmpty(repositoryPath)
		if indexError != nil {
			return fmt.Errorf(cleanCheckErrorTemplate, repositoryPath, indexError)
		}
		if !indexEmpty {
			return DirtyRepositoryError{RepositoryPath: repositoryPath}
		}
		return nil
	}

	clean, cleanError := service.repositoryManager.CheckCleanWorktree(executionContext, repositoryPath)
	if cleanError != nil {
		return fmt.Errorf(cleanCheckErrorTemplate, repositoryPath, cleanError)
	}
	if !clean {
		return DirtyRepositoryError{RepositoryPath: repositoryPath}
	}
	return nil
}

func (service *Service) planDryRun(executionContext context.Context, reconciler *submodules.Reconciler, report Report, repositoryExists bool) (Report, error) {
	projects := report.Manifest.Projects
	if !repositoryExists {
		if validationError := manifest.ValidateProjects(projects); validationError != nil {
			return report, fmt.Errorf(planErrorTemplate, validationError)
		}
		report.Plan = submodules.BuildPlan(nil, projects)
		report.RegisteredSubmodules = map[string]gitrepo.SubmoduleConfiguration{}
		return report, nil
	}

	plan, planError := reconciler.Plan(executionContext, report.RepositoryPath, projects)
	if planError != nil {
		return report, fmt.Errorf(planErrorTemplate, planError)
	}
	report.Plan = plan

	configurations, configurationError := service.repositoryInspector.SubmoduleConfigurations(report.RepositoryPath)
	if configurationError != nil {
		return report, fmt.Errorf(submoduleConfigurationErrorTemplate, configurationError)
	}
	report.RegisteredSubmodules = configurations
	return report, nil
}
