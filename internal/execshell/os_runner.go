package execshell

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"os"
	"os/exec"
	"slices"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner starts real processes through os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an OSCommandRunner.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the command and waits for it. A non-zero exit is reported through ExecutionResult.ExitCode;
// only failures to start or await the process, including cancellation, produce an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	var standardOutput bytes.Buffer
	var standardError bytes.Buffer

	process := buildProcess(executionContext, command)
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	runError := process.Run()
	result := ExecutionResult{
		StandardOutput: standardOutput.String(),
		StandardError:  standardError.String(),
	}
	if runError == nil {
		return result, nil
	}
	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, contextError
	}

	var exitError *exec.ExitError
	if !errors.As(runError, &exitError) {
		return ExecutionResult{}, runError
	}
	result.ExitCode = exitError.ExitCode()
	return result, nil
}

func buildProcess(executionContext context.Context, command ShellCommand) *exec.Cmd {
	process := exec.CommandContext(executionContext, string(command.Name), slices.Clone(command.Details.Arguments)...)
	process.Dir = command.Details.WorkingDirectory
	if len(command.Details.EnvironmentVariables) > 0 {
		process.Env = overlayEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	}
	return process
}

// overlayEnvironment appends overrides in key order; later assignments win in exec.
func overlayEnvironment(baseEnvironment []string, overrides map[string]string) []string {
	overlaid := slices.Clone(baseEnvironment)
	for _, environmentKey := range slices.Sorted(maps.Keys(overrides)) {
		overlaid = append(overlaid, environmentKey+environmentAssignmentSeparatorConstant+overrides[environmentKey])
	}
	return overlaid
}
