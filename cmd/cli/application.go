package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/repo2gitmodules/internal/convert"
	"github.com/temirov/repo2gitmodules/internal/utils"
)

const (
	applicationNameConstant                 = "repo2gitmodules"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Path to a YAML configuration file; config.yaml is searched in . and the user configuration directory otherwise."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Log level: debug, info, warn, or error."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Log encoding: console for readable progress lines, structured for JSON."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	convertConfigurationKeyConstant         = "convert"
	environmentPrefixConstant               = "REPO2GITMODULES"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationEmbeddedFieldConstant      = "embedded_defaults"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s command: %w"
	defaultConfigurationSearchPathConstant  = "."
	versionTemplateConstant                 = "{{.Name}} version: {{.Version}}\n"
	unknownVersionConstant                  = "(devel)"
)

// ApplicationConfiguration mirrors default_config.yaml.
type ApplicationConfiguration struct {
	Common  LoggingConfiguration         `mapstructure:"common"`
	Convert convert.CommandConfiguration `mapstructure:"convert"`
}

// LoggingConfiguration selects the zap level and encoding.
type LoggingConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application owns the root command and the state resolved before it runs.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	versionResolver       func(context.Context) string
}

// NewApplication assembles a fully wired CLI application instance. The convert command is the root command.
func NewApplication() (*Application, error) {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		configuration:       ApplicationConfiguration{Convert: convert.DefaultCommandConfiguration()},
		versionResolver:     resolveBuildVersion,
	}

	convertBuilder := convert.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() convert.CommandConfiguration {
			return application.configuration.Convert
		},
	}
	cobraCommand, buildError := convertBuilder.Build()
	if buildError != nil {
		return nil, fmt.Errorf(commandBuildErrorTemplateConstant, applicationNameConstant, buildError)
	}

	cobraCommand.Use = applicationNameConstant
	cobraCommand.PersistentPreRunE = func(command *cobra.Command, arguments []string) error {
		return application.initializeConfiguration(command)
	}
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application, nil
}

// SetArguments overrides the process arguments passed to the root command.
func (application *Application) SetArguments(arguments []string) {
	application.rootCommand.SetArgs(arguments)
}

// SetOutput redirects the rendered report.
func (application *Application) SetOutput(writer io.Writer) {
	application.rootCommand.SetOut(writer)
}

// Execute runs the root command with arguments from the process and ensures logger flushing.
func (application *Application) Execute(executionContext context.Context) error {
	application.rootCommand.Version = application.versionResolver(executionContext)
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := syncLogger(application.logger); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and runs it until completion or until SIGINT/SIGTERM
// cancels the running command.
func Execute() error {
	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	application, applicationError := NewApplication()
	if applicationError != nil {
		return applicationError
	}
	return application.Execute(signalContext)
}

// initializeConfiguration resolves configuration layers, applies logging flag overrides, and replaces the
// placeholder logger. It runs before the command body so that every provider sees the final values.
func (application *Application) initializeConfiguration(command *cobra.Command) error {
	metadata, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, applicationDefaultValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = metadata

	if command != nil {
		application.configuration.Common.applyFlagOverrides(command.Flags())
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, metadata.ConfigFileUsed),
		zap.Bool(configurationEmbeddedFieldConstant, metadata.EmbeddedApplied),
	)
	return nil
}

// applyFlagOverrides copies explicitly set logging flags over the loaded values. Cobra merges persistent
// flags into the command flag set before PersistentPreRunE runs.
func (logging *LoggingConfiguration) applyFlagOverrides(flagSet *pflag.FlagSet) {
	overrides := map[string]*string{
		logLevelFlagNameConstant:  &logging.LogLevel,
		logFormatFlagNameConstant: &logging.LogFormat,
	}
	for flagName, target := range overrides {
		flag := flagSet.Lookup(flagName)
		if flag != nil && flag.Changed {
			*target = flag.Value.String()
		}
	}
}

func applicationDefaultValues() map[string]any {
	defaultValues := convert.DefaultConfigurationValues(convertConfigurationKeyConstant)
	defaultValues[commonLogLevelConfigKeyConstant] = string(utils.LogLevelInfo)
	defaultValues[commonLogFormatConfigKeyConstant] = string(utils.LogFormatConsole)
	return defaultValues
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogFormat), string(utils.LogFormatConsole))
}

// syncLogger flushes buffered entries. Terminals and pipes reject fsync, which is not a failure.
func syncLogger(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	syncError := logger.Sync()
	for _, ignoredError := range []error{syscall.ENOTSUP, syscall.EINVAL, syscall.ENOTTY} {
		if errors.Is(syncError, ignoredError) {
			return nil
		}
	}
	return syncError
}

// configurationSearchPaths lists the working directory followed by the per-user configuration directory.
func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return searchPaths
}

func resolveBuildVersion(context.Context) string {
	buildInfo, available := debug.ReadBuildInfo()
	if !available || len(buildInfo.Main.Version) == 0 {
		return unknownVersionConstant
	}
	return buildInfo.Main.Version
}
