package convert

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repo2gitmodules/internal/execshell"
	"github.com/temirov/repo2gitmodules/internal/gitrepo"
	"github.com/temirov/repo2gitmodules/internal/manifest"
	"github.com/temirov/repo2gitmodules/internal/ui"
)

const (
	commandUseConstant                        = "repo2gitmodules"
	commandShortDescriptionConstant           = "Convert a repo manifest into git submodules"
	commandLongDescriptionConstant            = "repo2gitmodules fetches a repo manifest and reconciles the submodules of a git repository with the manifest's projects: stale submodules are removed, missing ones added, existing ones retargeted, and every submodule is checked out at its manifest revision."
	manifestURLFlagNameConstant               = "manifest-url"
	manifestURLFlagShorthandConstant          = "u"
	manifestURLFlagUsageConstant              = "Manifest repository URL"
	manifestBranchFlagNameConstant            = "branch"
	manifestBranchFlagShorthandConstant       = "b"
	manifestBranchFlagUsageConstant           = "Manifest branch"
	manifestNameFlagNameConstant              = "manifest"
	manifestNameFlagShorthandConstant         = "m"
	manifestNameFlagUsageConstant             = "Manifest file within the manifest repository"
	repositoryFlagNameConstant                = "repository"
	repositoryFlagShorthandConstant           = "C"
	repositoryFlagUsageConstant               = "Path of the git repository that receives the submodules"
	groupsFlagNameConstant                    = "groups"
	groupsFlagUsageConstant                   = "Manifest groups to include (comma-separated, prefix with - to exclude)"
	dryRunFlagNameConstant                    = "dry-run"
	dryRunFlagUsageConstant                   = "Print the planned submodule changes without modifying the repository"
	outputFlagNameConstant                    = "output"
	outputFlagUsageConstant                   = "Report format: table or yaml"
	repositoryManagerCreationErrorTemplate    = "unable to construct repository manager: %w"
	manifestFetcherCreationErrorTemplate      = "unable to construct manifest fetcher: %w"
	executorCreationErrorTemplate             = "unable to construct command executor: %w"
	reportRenderErrorTemplate                 = "unable to render conversion report: %w"
	logMessageConversionFailedConstant        = "Conversion failed"
	logMessageConversionConfigurationConstant = "Conversion configuration resolved"
	logFieldDryRunConstant                    = "dry_run"
	logFieldGroupsConstant                    = "groups"
)

// CommandExecutor runs git and repo commands.
type CommandExecutor interface {
	gitrepo.GitExecutor
	manifest.RepoExecutor
}

// ConversionExecutor performs one conversion run.
type ConversionExecutor interface {
	Execute(executionContext context.Context, options Options) (Report, error)
}

// ServiceProvider constructs a conversion executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (ConversionExecutor, error)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

type commandOptions struct {
	runOptions   Options
	outputFormat OutputFormat
	scratchRoot  string
}

// CommandBuilder assembles the convert Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     CommandExecutor
	RepositoryInspector          RepositoryInspector
	ManifestFetcher              ManifestFetcher
	ServiceProvider              ServiceProvider
	OutputWriter                 io.Writer
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the convert command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().StringP(manifestURLFlagNameConstant, manifestURLFlagShorthandConstant, defaults.ManifestURL, manifestURLFlagUsageConstant)
	command.Flags().StringP(manifestBranchFlagNameConstant, manifestBranchFlagShorthandConstant, defaults.ManifestBranch, manifestBranchFlagUsageConstant)
	command.Flags().StringP(manifestNameFlagNameConstant, manifestNameFlagShorthandConstant, defaults.ManifestName, manifestNameFlagUsageConstant)
	command.Flags().StringP(repositoryFlagNameConstant, repositoryFlagShorthandConstant, defaults.RepositoryPath, repositoryFlagUsageConstant)
	command.Flags().StringSlice(groupsFlagNameConstant, nil, groupsFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, defaults.DryRun, dryRunFlagUsageConstant)
	command.Flags().String(outputFlagNameConstant, defaults.OutputFormat, outputFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	logger.Debug(
		logMessageConversionConfigurationConstant,
		zap.String(logFieldRepositoryPathConstant, options.runOptions.RepositoryPath),
		zap.String(logFieldManifestURLConstant, options.runOptions.Manifest.ManifestURL),
		zap.String(logFieldManifestBranchConstant, options.runOptions.Manifest.ManifestBranch),
		zap.String(logFieldManifestNameConstant, options.runOptions.Manifest.ManifestName),
		zap.Strings(logFieldGroupsConstant, options.runOptions.Manifest.Groups),
		zap.Bool(logFieldDryRunConstant, options.runOptions.DryRun),
	)

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplate, executorError)
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return fmt.Errorf(repositoryManagerCreationErrorTemplate, managerError)
	}

	manifestFetcher, fetcherError := builder.resolveManifestFetcher(executor, logger, options.scratchRoot)
	if fetcherError != nil {
		return fmt.Errorf(manifestFetcherCreationErrorTemplate, fetcherError)
	}

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:              logger,
		RepositoryManager:   repositoryManager,
		RepositoryInspector: builder.resolveRepositoryInspector(),
		ManifestFetcher:     manifestFetcher,
	})
	if serviceError != nil {
		return serviceError
	}

	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}

	report, executionError := service.Execute(executionContext, options.runOptions)
	if executionError != nil {
		logger.Debug(
			logMessageConversionFailedConstant,
			zap.String(logFieldRepositoryPathConstant, options.runOptions.RepositoryPath),
			zap.Error(executionError),
		)
		return executionError
	}

	renderer := NewReportRenderer(builder.resolveOutputWriter(command), options.outputFormat)
	if renderError := renderer.Render(report); renderError != nil {
		return fmt.Errorf(reportRenderErrorTemplate, renderError)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	if command != nil {
		flags := command.Flags()
		if flags.Changed(manifestURLFlagNameConstant) {
			configuration.ManifestURL, _ = flags.GetString(manifestURLFlagNameConstant)
		}
		if flags.Changed(manifestBranchFlagNameConstant) {
			configuration.ManifestBranch, _ = flags.GetString(manifestBranchFlagNameConstant)
		}
		if flags.Changed(manifestNameFlagNameConstant) {
			configuration.ManifestName, _ = flags.GetString(manifestNameFlagNameConstant)
		}
		if flags.Changed(repositoryFlagNameConstant) {
			configuration.RepositoryPath, _ = flags.GetString(repositoryFlagNameConstant)
		}
		if flags.Changed(groupsFlagNameConstant) {
			configuration.Groups, _ = flags.GetStringSlice(groupsFlagNameConstant)
		}
		if flags.Changed(dryRunFlagNameConstant) {
			configuration.DryRun, _ = flags.GetBool(dryRunFlagNameConstant)
		}
		if flags.Changed(outputFlagNameConstant) {
			configuration.OutputFormat, _ = flags.GetString(outputFlagNameConstant)
		}
		configuration = configuration.Sanitize()
	}

	if len(strings.TrimSpace(configuration.ManifestURL)) == 0 {
		return commandOptions{}, ErrManifestURLRequired
	}

	outputFormat, formatError := ParseOutputFormat(configuration.OutputFormat)
	if formatError != nil {
		return commandOptions{}, formatError
	}

	return commandOptions{
		runOptions: Options{
			RepositoryPath: configuration.RepositoryPath,
			Manifest: manifest.FetchOptions{
				ManifestURL:    configuration.ManifestURL,
				ManifestBranch: configuration.ManifestBranch,
				ManifestName:   configuration.ManifestName,
				Groups:         configuration.Groups,
			},
			DryRun: configuration.DryRun,
		},
		outputFormat: outputFormat,
		scratchRoot:  configuration.ScratchRoot,
	}, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	var executorOptions []execshell.ExecutorOption
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), executorOptions...)
}

func (builder *CommandBuilder) resolveManifestFetcher(executor manifest.RepoExecutor, logger *zap.Logger, scratchRoot string) (ManifestFetcher, error) {
	if builder.ManifestFetcher != nil {
		return builder.ManifestFetcher, nil
	}
	return manifest.NewFetcher(executor, logger, manifest.WithScratchRoot(scratchRoot))
}

func (builder *CommandBuilder) resolveRepositoryInspector() RepositoryInspector {
	if builder.RepositoryInspector != nil {
		return builder.RepositoryInspector
	}
	return gitrepo.NewRepositoryInspector()
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (ConversionExecutor, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveOutputWriter(command *cobra.Command) io.Writer {
	if builder.OutputWriter != nil {
		return builder.OutputWriter
	}
	return command.OutOrStdout()
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}
