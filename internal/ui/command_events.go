package ui

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/repo2gitmodules/internal/execshell"
)

const (
	gitDiffIndexSubcommandConstant = "diff-index"
	gitSubmoduleSubcommandConstant = "submodule"
	submoduleStatusActionConstant  = "status"
)

// ConsoleCommandEventLogger narrates external commands as one sentence per line. Commands that only
// inspect the repository are narrated at debug level so the default output lists what changed.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs a ConsoleCommandEventLogger. A nil logger discards every event.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted logs the command being launched.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	startLevel := zapcore.InfoLevel
	if isInspectionCommand(command) {
		startLevel = zapcore.DebugLevel
	}
	eventLogger.emit(startLevel, func(formatter execshell.CommandMessageFormatter) string {
		return formatter.BuildStartedMessage(command)
	})
}

// CommandCompleted logs successful exits at debug level and non-zero exits as warnings; the caller decides
// whether a non-zero exit is fatal.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if result.ExitCode == 0 {
		eventLogger.emit(zapcore.DebugLevel, func(formatter execshell.CommandMessageFormatter) string {
			return formatter.BuildSuccessMessage(command)
		})
		return
	}
	eventLogger.emit(zapcore.WarnLevel, func(formatter execshell.CommandMessageFormatter) string {
		return formatter.BuildFailureMessage(command, result)
	})
}

// CommandExecutionFailed logs a command that could not be run at all.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	eventLogger.emit(zapcore.ErrorLevel, func(formatter execshell.CommandMessageFormatter) string {
		return formatter.BuildExecutionFailureMessage(command, failure)
	})
}

// emit renders the message only when the level is enabled.
func (eventLogger *ConsoleCommandEventLogger) emit(level zapcore.Level, render func(execshell.CommandMessageFormatter) string) {
	if eventLogger == nil || eventLogger.logger == nil {
		return
	}
	if !eventLogger.logger.Core().Enabled(level) {
		return
	}
	eventLogger.logger.Log(level, render(eventLogger.formatter))
}

func isInspectionCommand(command execshell.ShellCommand) bool {
	if command.Name != execshell.CommandGit {
		return false
	}
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return false
	}
	switch arguments[0] {
	case gitDiffIndexSubcommandConstant:
		return true
	case gitSubmoduleSubcommandConstant:
		return len(arguments) > 1 && arguments[1] == submoduleStatusActionConstant
	default:
		return false
	}
}
