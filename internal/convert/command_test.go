package convert_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repo2gitmodules/internal/convert"
	"github.com/temirov/repo2gitmodules/internal/execshell"
	"github.com/temirov/repo2gitmodules/internal/manifest"
)

type capturingConversionExecutor struct {
	receivedOptions []convert.Options
	report          convert.Report
	executionError  error
}

func (executor *capturingConversionExecutor) Execute(_ context.Context, options convert.Options) (convert.Report, error) {
	executor.receivedOptions = append(executor.receivedOptions, options)
	return executor.report, executor.executionError
}

type unusedCommandExecutor struct{}

func (unusedCommandExecutor) ExecuteGit(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, errors.New("unexpected git invocation")
}

func (unusedCommandExecutor) ExecuteRepo(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, errors.New("unexpected repo invocation")
}

func manifestFetchOptions(manifestURL string, manifestBranch string, manifestName string, groups []string) manifest.FetchOptions {
	return manifest.FetchOptions{
		ManifestURL:    manifestURL,
		ManifestBranch: manifestBranch,
		ManifestName:   manifestName,
		Groups:         groups,
	}
}

func TestCommandBuilderResolvesOptions(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration convert.CommandConfiguration
		arguments     []string
		expected      convert.Options
	}{
		{
			name:          "flags_only",
			configuration: convert.DefaultCommandConfiguration(),
			arguments:     []string{"-u", testManifestURLConstant, "-C", "/workspace/android"},
			expected: convert.Options{
				RepositoryPath: "/workspace/android",
				Manifest:       manifestFetchOptions(testManifestURLConstant, "main", "default.xml", nil),
			},
		},
		{
			name: "configuration_values",
			configuration: convert.CommandConfiguration{
				RepositoryPath: "/workspace/configured",
				ManifestURL:    "https://example.com/configured/manifest",
				ManifestBranch: "release",
				ManifestName:   "release.xml",
				Groups:         []string{"default,tools"},
				DryRun:         true,
			},
			arguments: []string{},
			expected: convert.Options{
				RepositoryPath: "/workspace/configured",
				Manifest:       manifestFetchOptions("https://example.com/configured/manifest", "release", "release.xml", []string{"default", "tools"}),
				DryRun:         true,
			},
		},
		{
			name: "flags_override_configuration",
			configuration: convert.CommandConfiguration{
				RepositoryPath: "/workspace/configured",
				ManifestURL:    "https://example.com/configured/manifest",
				ManifestBranch: "release",
				ManifestName:   "release.xml",
				DryRun:         true,
			},
			arguments: []string{
				"--manifest-url", testManifestURLConstant,
				"--branch", "android-14",
				"--manifest", "minimal.xml",
				"--repository", "/workspace/flag",
				"--groups=-notdefault,tools",
				"--dry-run=false",
			},
			expected: convert.Options{
				RepositoryPath: "/workspace/flag",
				Manifest:       manifestFetchOptions(testManifestURLConstant, "android-14", "minimal.xml", []string{"-notdefault", "tools"}),
				DryRun:         false,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			conversionExecutor := &capturingConversionExecutor{}
			var output bytes.Buffer
			builder := convert.CommandBuilder{
				LoggerProvider: func() *zap.Logger { return zap.NewNop() },
				Executor:       unusedCommandExecutor{},
				ServiceProvider: func(convert.ServiceDependencies) (convert.ConversionExecutor, error) {
					return conversionExecutor, nil
				},
				OutputWriter: &output,
				ConfigurationProvider: func() convert.CommandConfiguration {
					return testCase.configuration
				},
			}

			command, buildError := builder.Build()
			require.NoError(subtest, buildError)
			command.SetArgs(testCase.arguments)
			command.SetContext(context.Background())

			require.NoError(subtest, command.Execute())
			require.Len(subtest, conversionExecutor.receivedOptions, 1)
			require.Equal(subtest, testCase.expected, conversionExecutor.receivedOptions[0])
		})
	}
}

func TestCommandBuilderRendersRequestedFormat(testInstance *testing.T) {
	conversionExecutor := &capturingConversionExecutor{report: sampleReport(true)}
	var output bytes.Buffer
	builder := convert.CommandBuilder{
		Executor: unusedCommandExecutor{},
		ServiceProvider: func(convert.ServiceDependencies) (convert.ConversionExecutor, error) {
			return conversionExecutor, nil
		},
		OutputWriter: &output,
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetArgs([]string{"-u", testManifestURLConstant, "--output", "yaml"})

	require.NoError(testInstance, command.Execute())
	require.Contains(testInstance, output.String(), "repository: /workspace/android")
	require.Contains(testInstance, output.String(), "action: remove")
}

func TestCommandBuilderRejectsInvalidInvocations(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectedError error
		errorTarget   any
	}{
		{
			name:          "missing_manifest_url",
			arguments:     []string{},
			expectedError: convert.ErrManifestURLRequired,
		},
		{
			name:        "unsupported_output",
			arguments:   []string{"-u", testManifestURLConstant, "--output", "json"},
			errorTarget: &convert.UnsupportedOutputFormatError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			conversionExecutor := &capturingConversionExecutor{}
			builder := convert.CommandBuilder{
				Executor: unusedCommandExecutor{},
				ServiceProvider: func(convert.ServiceDependencies) (convert.ConversionExecutor, error) {
					return conversionExecutor, nil
				},
				OutputWriter: &bytes.Buffer{},
			}

			command, buildError := builder.Build()
			require.NoError(subtest, buildError)
			command.SetArgs(testCase.arguments)

			executionError := command.Execute()
			require.Error(subtest, executionError)
			if testCase.expectedError != nil {
				require.ErrorIs(subtest, executionError, testCase.expectedError)
			}
			if testCase.errorTarget != nil {
				require.ErrorAs(subtest, executionError, testCase.errorTarget)
			}
			require.Empty(subtest, conversionExecutor.receivedOptions)
		})
	}
}

func TestCommandBuilderPropagatesConversionFailure(testInstance *testing.T) {
	dirtyError := convert.DirtyRepositoryError{RepositoryPath: "/workspace/android"}
	conversionExecutor := &capturingConversionExecutor{executionError: dirtyError}
	var output bytes.Buffer
	builder := convert.CommandBuilder{
		Executor: unusedCommandExecutor{},
		ServiceProvider: func(convert.ServiceDependencies) (convert.ConversionExecutor, error) {
			return conversionExecutor, nil
		},
		OutputWriter: &output,
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetArgs([]string{"-u", testManifestURLConstant})

	executionError := command.Execute()
	require.ErrorAs(testInstance, executionError, &convert.DirtyRepositoryError{})
	require.Empty(testInstance, output.String())
}
