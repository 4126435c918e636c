package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	argumentTerminatorConstant              = "--"
)

const (
	gitInitSubcommandNameConstant        = "init"
	gitDiffIndexSubcommandNameConstant   = "diff-index"
	gitSubmoduleSubcommandNameConstant   = "submodule"
	gitRemoveSubcommandNameConstant      = "rm"
	gitFetchSubcommandNameConstant       = "fetch"
	gitCheckoutSubcommandNameConstant    = "checkout"
	gitAddSubcommandNameConstant         = "add"
	submoduleStatusActionConstant        = "status"
	submoduleAddActionConstant           = "add"
	submoduleDeinitActionConstant        = "deinit"
	submoduleSetURLActionConstant        = "set-url"
	submoduleSetBranchActionConstant     = "set-branch"
	submoduleUpdateActionConstant        = "update"
	submoduleBranchFlagConstant          = "--branch"
	submoduleShortBranchFlagConstant     = "-b"
	submoduleDefaultBranchFlagConstant   = "--default"
	submoduleRecursiveFlagConstant       = "--recursive"
	repoInitSubcommandNameConstant       = "init"
	repoManifestURLFlagConstant          = "-u"
	repoManifestBranchFlagConstant       = "-b"
	repoManifestNameFlagConstant         = "-m"
	subjectInDirectoryTemplateConstant   = "%s in %s"
	subjectFromSourceTemplateConstant    = "%s from %s in %s"
	subjectRetargetTemplateConstant      = "%s at %s in %s"
	subjectBranchTemplateConstant        = "branch %s for submodule %s in %s"
	subjectDefaultBranchTemplateConstant = "default branch for submodule %s in %s"
	subjectManifestTemplateConstant      = "manifest %s (branch %s) from %s into %s"
)

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	gitInitTemplates = stageTemplates{
		start:            "Initializing Git repository in %s",
		success:          "Initialized Git repository in %s",
		failure:          "Failed to initialize Git repository in %s (exit code %d%s)",
		executionFailure: "Unable to initialize Git repository in %s: %s",
	}
	gitCleanCheckTemplates = stageTemplates{
		start:            "Checking %s for uncommitted changes",
		success:          "%s has no uncommitted changes",
		failure:          "Uncommitted changes detected in %s (exit code %d%s)",
		executionFailure: "Unable to check %s for uncommitted changes: %s",
	}
	gitSubmoduleStatusTemplates = stageTemplates{
		start:            "Listing submodules in %s",
		success:          "Listed submodules in %s",
		failure:          "Failed to list submodules in %s (exit code %d%s)",
		executionFailure: "Unable to list submodules in %s: %s",
	}
	gitSubmoduleAddTemplates = stageTemplates{
		start:            "Adding submodule %s",
		success:          "Added submodule %s",
		failure:          "Failed to add submodule %s (exit code %d%s)",
		executionFailure: "Unable to add submodule %s: %s",
	}
	gitSubmoduleDeinitTemplates = stageTemplates{
		start:            "Deinitializing submodule %s",
		success:          "Deinitialized submodule %s",
		failure:          "Failed to deinitialize submodule %s (exit code %d%s)",
		executionFailure: "Unable to deinitialize submodule %s: %s",
	}
	gitSubmoduleSetURLTemplates = stageTemplates{
		start:            "Pointing submodule %s",
		success:          "Pointed submodule %s",
		failure:          "Failed to point submodule %s (exit code %d%s)",
		executionFailure: "Unable to point submodule %s: %s",
	}
	gitSubmoduleSetBranchTemplates = stageTemplates{
		start:            "Tracking %s",
		success:          "Now tracking %s",
		failure:          "Failed to track %s (exit code %d%s)",
		executionFailure: "Unable to track %s: %s",
	}
	gitSubmoduleInitTemplates = stageTemplates{
		start:            "Initializing submodule %s",
		success:          "Initialized submodule %s",
		failure:          "Failed to initialize submodule %s (exit code %d%s)",
		executionFailure: "Unable to initialize submodule %s: %s",
	}
	gitSubmoduleUpdateTemplates = stageTemplates{
		start:            "Updating nested submodules of %s",
		success:          "Updated nested submodules of %s",
		failure:          "Failed to update nested submodules of %s (exit code %d%s)",
		executionFailure: "Unable to update nested submodules of %s: %s",
	}
	gitRemoveTemplates = stageTemplates{
		start:            "Removing %s",
		success:          "Removed %s",
		failure:          "Failed to remove %s (exit code %d%s)",
		executionFailure: "Unable to remove %s: %s",
	}
	gitFetchTemplates = stageTemplates{
		start:            "Fetching from all remotes in %s",
		success:          "Fetched from all remotes in %s",
		failure:          "Failed to fetch from all remotes in %s (exit code %d%s)",
		executionFailure: "Unable to fetch from all remotes in %s: %s",
	}
	gitCheckoutTemplates = stageTemplates{
		start:            "Checking out %s",
		success:          "Checked out %s",
		failure:          "Failed to check out %s (exit code %d%s)",
		executionFailure: "Unable to check out %s: %s",
	}
	gitAddTemplates = stageTemplates{
		start:            "Staging %s",
		success:          "Staged %s",
		failure:          "Failed to stage %s (exit code %d%s)",
		executionFailure: "Unable to stage %s: %s",
	}
	repoInitTemplates = stageTemplates{
		start:            "Fetching %s",
		success:          "Fetched %s",
		failure:          "Failed to fetch %s (exit code %d%s)",
		executionFailure: "Unable to fetch %s: %s",
	}
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	var subject string
	var templates stageTemplates
	var described bool

	switch command.Name {
	case CommandGit:
		subject, templates, described = formatter.describeGitCommand(command)
	case CommandRepo:
		subject, templates, described = formatter.describeRepoCommand(command)
	}

	if !described {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	return formatter.renderStage(templates, subject, result, failure, stage)
}

func (formatter CommandMessageFormatter) renderStage(templates stageTemplates, subject string, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, subject, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describeGitCommand(command ShellCommand) (string, stageTemplates, bool) {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return emptyStringConstant, stageTemplates{}, false
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	operands := formatter.collectOperands(arguments[1:])

	switch strings.TrimSpace(arguments[0]) {
	case gitInitSubcommandNameConstant:
		return workingDirectory, gitInitTemplates, true
	case gitDiffIndexSubcommandNameConstant:
		return workingDirectory, gitCleanCheckTemplates, true
	case gitSubmoduleSubcommandNameConstant:
		return formatter.describeGitSubmoduleCommand(arguments[1:], workingDirectory)
	case gitRemoveSubcommandNameConstant:
		return fmt.Sprintf(subjectInDirectoryTemplateConstant, formatter.operandAtIndex(operands, 0), workingDirectory), gitRemoveTemplates, true
	case gitFetchSubcommandNameConstant:
		return workingDirectory, gitFetchTemplates, true
	case gitCheckoutSubcommandNameConstant:
		return fmt.Sprintf(subjectInDirectoryTemplateConstant, formatter.operandAtIndex(operands, 0), workingDirectory), gitCheckoutTemplates, true
	case gitAddSubcommandNameConstant:
		return fmt.Sprintf(subjectInDirectoryTemplateConstant, formatter.operandAtIndex(operands, 0), workingDirectory), gitAddTemplates, true
	default:
		return emptyStringConstant, stageTemplates{}, false
	}
}

func (formatter CommandMessageFormatter) describeGitSubmoduleCommand(arguments []string, workingDirectory string) (string, stageTemplates, bool) {
	if len(arguments) == 0 {
		return workingDirectory, gitSubmoduleStatusTemplates, true
	}

	operands := formatter.collectOperands(arguments[1:])

	switch strings.TrimSpace(arguments[0]) {
	case submoduleStatusActionConstant:
		return workingDirectory, gitSubmoduleStatusTemplates, true
	case submoduleAddActionConstant:
		subject := fmt.Sprintf(subjectFromSourceTemplateConstant, formatter.operandAtIndex(operands, 1), formatter.operandAtIndex(operands, 0), workingDirectory)
		return subject, gitSubmoduleAddTemplates, true
	case submoduleDeinitActionConstant:
		return fmt.Sprintf(subjectInDirectoryTemplateConstant, formatter.operandAtIndex(operands, 0), workingDirectory), gitSubmoduleDeinitTemplates, true
	case submoduleSetURLActionConstant:
		subject := fmt.Sprintf(subjectRetargetTemplateConstant, formatter.operandAtIndex(operands, 0), formatter.operandAtIndex(operands, 1), workingDirectory)
		return subject, gitSubmoduleSetURLTemplates, true
	case submoduleSetBranchActionConstant:
		submodulePath := formatter.operandAtIndex(operands, 0)
		if containsArgument(arguments, submoduleDefaultBranchFlagConstant) {
			return fmt.Sprintf(subjectDefaultBranchTemplateConstant, submodulePath, workingDirectory), gitSubmoduleSetBranchTemplates, true
		}
		branchName := formatter.ensureValue(findFlagValue(arguments, submoduleBranchFlagConstant, submoduleShortBranchFlagConstant))
		return fmt.Sprintf(subjectBranchTemplateConstant, branchName, submodulePath, workingDirectory), gitSubmoduleSetBranchTemplates, true
	case submoduleUpdateActionConstant:
		subject := fmt.Sprintf(subjectInDirectoryTemplateConstant, formatter.operandAtIndex(operands, 0), workingDirectory)
		if !containsArgument(arguments, submoduleRecursiveFlagConstant) {
			return subject, gitSubmoduleInitTemplates, true
		}
		return subject, gitSubmoduleUpdateTemplates, true
	default:
		return emptyStringConstant, stageTemplates{}, false
	}
}

func (formatter CommandMessageFormatter) describeRepoCommand(command ShellCommand) (string, stageTemplates, bool) {
	arguments := command.Details.Arguments
	if len(arguments) == 0 || strings.TrimSpace(arguments[0]) != repoInitSubcommandNameConstant {
		return emptyStringConstant, stageTemplates{}, false
	}

	subject := fmt.Sprintf(
		subjectManifestTemplateConstant,
		formatter.ensureValue(findFlagValue(arguments, repoManifestNameFlagConstant)),
		formatter.ensureValue(findFlagValue(arguments, repoManifestBranchFlagConstant)),
		formatter.ensureValue(findFlagValue(arguments, repoManifestURLFlagConstant)),
		formatter.describeWorkingDirectory(command),
	)
	return subject, repoInitTemplates, true
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

// collectOperands returns positional arguments, skipping flags and the values of flags known to take one.
func (formatter CommandMessageFormatter) collectOperands(arguments []string) []string {
	operands := make([]string, 0, len(arguments))
	terminated := false
	for index := 0; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 {
			continue
		}
		if terminated {
			operands = append(operands, trimmed)
			continue
		}
		if trimmed == argumentTerminatorConstant {
			terminated = true
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			if trimmed == submoduleBranchFlagConstant || trimmed == submoduleShortBranchFlagConstant {
				index++
			}
			continue
		}
		operands = append(operands, trimmed)
	}
	return operands
}

func (formatter CommandMessageFormatter) operandAtIndex(operands []string, index int) string {
	if index >= 0 && index < len(operands) {
		return operands[index]
	}
	return fallbackUnknownValueLabelConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flags ...string) string {
	for index := 0; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if trimmed == argumentTerminatorConstant {
			return emptyStringConstant
		}
		for _, flag := range flags {
			if trimmed == flag && index+1 < len(arguments) {
				return strings.TrimSpace(arguments[index+1])
			}
		}
	}
	return emptyStringConstant
}
