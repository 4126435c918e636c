package pathutils_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/repo2gitmodules/internal/utils/path"
)

const (
	testHomeDirectoryConstant          = "/home/tester"
	testHomeExpanderSubtestTemplate    = "%d_%s"
	testHomeLookupFailureMessage       = "home lookup failed"
	testAbsoluteRepositoryPathConstant = "/srv/checkout"
)

func TestHomeExpanderExpand(testInstance *testing.T) {
	testCases := []struct {
		name         string
		provider     pathutils.HomeDirectoryProvider
		input        string
		expectedPath string
	}{
		{
			name:         "bare_tilde",
			provider:     staticHomeProvider(testHomeDirectoryConstant),
			input:        "~",
			expectedPath: testHomeDirectoryConstant,
		},
		{
			name:         "tilde_prefix",
			provider:     staticHomeProvider(testHomeDirectoryConstant),
			input:        "~/src/android",
			expectedPath: filepath.Join(testHomeDirectoryConstant, "src", "android"),
		},
		{
			name:         "absolute_path_unchanged",
			provider:     staticHomeProvider(testHomeDirectoryConstant),
			input:        testAbsoluteRepositoryPathConstant,
			expectedPath: testAbsoluteRepositoryPathConstant,
		},
		{
			name:         "other_user_unchanged",
			provider:     staticHomeProvider(testHomeDirectoryConstant),
			input:        "~other/src",
			expectedPath: "~other/src",
		},
		{
			name:         "empty_path",
			provider:     staticHomeProvider(testHomeDirectoryConstant),
			input:        "",
			expectedPath: "",
		},
		{
			name: "lookup_failure",
			provider: func() (string, error) {
				return "", errors.New(testHomeLookupFailureMessage)
			},
			input:        "~/src",
			expectedPath: "~/src",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testHomeExpanderSubtestTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			expander := pathutils.NewHomeExpanderWithProvider(testCase.provider)
			require.Equal(testInstance, testCase.expectedPath, expander.Expand(testCase.input))
		})
	}
}

func TestHomeExpanderResolvesHomeOnce(testInstance *testing.T) {
	lookupCount := 0
	expander := pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		lookupCount++
		return testHomeDirectoryConstant, nil
	})

	expander.Expand("~/first")
	expander.Expand("~/second")

	require.Equal(testInstance, 1, lookupCount)
}

func staticHomeProvider(homeDirectory string) pathutils.HomeDirectoryProvider {
	return func() (string, error) {
		return homeDirectory, nil
	}
}

func TestHomeExpanderResolve(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	testInstance.Chdir(workingDirectory)
	expander := pathutils.NewHomeExpanderWithProvider(staticHomeProvider(testHomeDirectoryConstant))

	homeResolved, homeError := expander.Resolve("~/src/../android")
	require.NoError(testInstance, homeError)
	require.Equal(testInstance, filepath.Join(testHomeDirectoryConstant, "android"), homeResolved)

	relativeResolved, relativeError := expander.Resolve("android")
	require.NoError(testInstance, relativeError)
	expectedRelative, expectedError := filepath.Abs("android")
	require.NoError(testInstance, expectedError)
	require.Equal(testInstance, expectedRelative, relativeResolved)
}
