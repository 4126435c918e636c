package gitrepo

import (
	"errors"
	"fmt"
)

const (
	requiredValueMessageConstant           = "value required"
	invalidInputErrorTemplateConstant      = "invalid %s: %s"
	gitExecutorNotConfiguredMessage        = "repository manager requires a git executor"
	submoduleStatusParseTemplateConstant   = "unable to parse submodule status line %q"
	moduleDirectoryRemovalTemplateConstant = "failed to remove module directory %s: %w"
)

// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessage)

// InvalidInputError reports an argument rejected before any git process is started.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the rejected input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// SubmoduleStatusParseError reports unexpected `git submodule status` output.
type SubmoduleStatusParseError struct {
	Line string
}

// Error describes the unparsable line.
func (parseError SubmoduleStatusParseError) Error() string {
	return fmt.Sprintf(submoduleStatusParseTemplateConstant, parseError.Line)
}
