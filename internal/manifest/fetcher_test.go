package manifest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repo2gitmodules/internal/execshell"
	"github.com/temirov/repo2gitmodules/internal/manifest"
)

const (
	testFetchManifestContent = `<manifest>
  <remote name="origin" fetch=".." />
  <default remote="origin" revision="main" />
  <project name="libs/a" />
  <project name="libs/b" revision="release" upstream="release" />
</manifest>
`
	testFetchManifestURLConstant = "https://git.example.com/platform/manifest"
	testFetchBranchConstant      = "main"
	testFetchManifestName        = "default.xml"
)

type recordingRepoExecutor struct {
	recordedDetails  []execshell.CommandDetails
	manifestContent  string
	failure          error
	scratchDirectory string
}

func (executor *recordingRepoExecutor) ExecuteRepo(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	executor.scratchDirectory = details.WorkingDirectory
	if executor.failure != nil {
		return execshell.ExecutionResult{}, executor.failure
	}
	repoDirectory := filepath.Join(details.WorkingDirectory, ".repo")
	if mkdirError := os.MkdirAll(repoDirectory, 0o755); mkdirError != nil {
		return execshell.ExecutionResult{}, mkdirError
	}
	if writeError := os.WriteFile(filepath.Join(repoDirectory, "manifest.xml"), []byte(executor.manifestContent), 0o600); writeError != nil {
		return execshell.ExecutionResult{}, writeError
	}
	return execshell.ExecutionResult{}, nil
}

func testFetchOptions() manifest.FetchOptions {
	return manifest.FetchOptions{
		ManifestURL:    testFetchManifestURLConstant,
		ManifestBranch: testFetchBranchConstant,
		ManifestName:   testFetchManifestName,
	}
}

func TestFetcherFetchReadsManifestAndRemovesScratch(testInstance *testing.T) {
	scratchRoot := testInstance.TempDir()
	executor := &recordingRepoExecutor{manifestContent: testFetchManifestContent}
	fetcher, constructionError := manifest.NewFetcher(executor, zap.NewNop(), manifest.WithScratchRoot(scratchRoot))
	require.NoError(testInstance, constructionError)

	snapshot, fetchError := fetcher.Fetch(context.Background(), testFetchOptions())
	require.NoError(testInstance, fetchError)

	require.Len(testInstance, executor.recordedDetails, 1)
	require.Equal(testInstance,
		[]string{"init", "-u", testFetchManifestURLConstant, "-b", testFetchBranchConstant, "-m", testFetchManifestName},
		executor.recordedDetails[0].Arguments,
	)
	require.Equal(testInstance, scratchRoot, filepath.Dir(executor.scratchDirectory))
	require.NoDirExists(testInstance, executor.scratchDirectory)

	require.Equal(testInstance, testFetchManifestURLConstant, snapshot.ManifestURL)
	require.Equal(testInstance, []string{"libs/a", "libs/b"}, snapshot.Worktrees())
	require.Equal(testInstance, "https://git.example.com/libs/a", snapshot.Projects[0].RemoteURL)
	require.Equal(testInstance, "release", snapshot.Projects[1].Branch)
	require.Equal(testInstance, "main", snapshot.Projects[0].Revision())
}

func TestFetcherFetchFailureRemovesScratch(testInstance *testing.T) {
	commandFailure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandRepo, Details: execshell.CommandDetails{Arguments: []string{"init"}}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "fatal: manifest not found"},
	}
	executor := &recordingRepoExecutor{failure: commandFailure}
	fetcher, constructionError := manifest.NewFetcher(executor, zap.NewNop(), manifest.WithScratchRoot(testInstance.TempDir()))
	require.NoError(testInstance, constructionError)

	_, fetchError := fetcher.Fetch(context.Background(), testFetchOptions())
	require.Error(testInstance, fetchError)

	var manifestFetchError manifest.ManifestFetchError
	require.True(testInstance, errors.As(fetchError, &manifestFetchError))
	require.Equal(testInstance, testFetchManifestURLConstant, manifestFetchError.ManifestURL)

	var failedCommand execshell.CommandFailedError
	require.True(testInstance, errors.As(fetchError, &failedCommand))
	require.NoDirExists(testInstance, executor.scratchDirectory)
}

func TestFetcherFetchReaderFailureRemovesScratch(testInstance *testing.T) {
	executor := &recordingRepoExecutor{manifestContent: `<manifest><project name="orphan" /></manifest>`}
	fetcher, constructionError := manifest.NewFetcher(executor, zap.NewNop(), manifest.WithScratchRoot(testInstance.TempDir()))
	require.NoError(testInstance, constructionError)

	_, fetchError := fetcher.Fetch(context.Background(), testFetchOptions())
	require.Error(testInstance, fetchError)

	var remoteError manifest.UnknownRemoteError
	require.True(testInstance, errors.As(fetchError, &remoteError))
	require.NoDirExists(testInstance, executor.scratchDirectory)
}

func TestFetcherUsesInjectedReader(testInstance *testing.T) {
	executor := &recordingRepoExecutor{manifestContent: testFetchManifestContent}
	injectedProjects := []manifest.Project{{Name: "injected", Worktree: "injected", RemoteURL: "https://example.com/injected"}}
	var receivedOptions manifest.FetchOptions
	fetcher, constructionError := manifest.NewFetcher(
		executor,
		zap.NewNop(),
		manifest.WithScratchRoot(testInstance.TempDir()),
		manifest.WithReaderFactory(func(options manifest.FetchOptions) manifest.Reader {
			receivedOptions = options
			return staticReader{projects: injectedProjects}
		}),
	)
	require.NoError(testInstance, constructionError)

	options := testFetchOptions()
	options.Groups = []string{" device ", ""}
	snapshot, fetchError := fetcher.Fetch(context.Background(), options)
	require.NoError(testInstance, fetchError)
	require.Equal(testInstance, injectedProjects, snapshot.Projects)
	require.Equal(testInstance, []string{"device"}, receivedOptions.Groups)
}

func TestFetcherValidation(testInstance *testing.T) {
	_, constructionError := manifest.NewFetcher(nil, zap.NewNop())
	require.ErrorIs(testInstance, constructionError, manifest.ErrRepoExecutorNotConfigured)

	fetcher, constructionError := manifest.NewFetcher(&recordingRepoExecutor{}, nil)
	require.NoError(testInstance, constructionError)

	testCases := []struct {
		name          string
		mutate        func(options *manifest.FetchOptions)
		expectedError error
	}{
		{name: "missing_url", mutate: func(options *manifest.FetchOptions) { options.ManifestURL = " " }, expectedError: manifest.ErrManifestURLRequired},
		{name: "missing_branch", mutate: func(options *manifest.FetchOptions) { options.ManifestBranch = "" }, expectedError: manifest.ErrManifestBranchRequired},
		{name: "missing_manifest", mutate: func(options *manifest.FetchOptions) { options.ManifestName = "" }, expectedError: manifest.ErrManifestNameRequired},
	}
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			options := testFetchOptions()
			testCase.mutate(&options)
			_, fetchError := fetcher.Fetch(context.Background(), options)
			require.ErrorIs(testInstance, fetchError, testCase.expectedError)
		})
	}
}

type staticReader struct {
	projects []manifest.Project
}

func (reader staticReader) Read(string) ([]manifest.Project, error) {
	return reader.projects, nil
}
