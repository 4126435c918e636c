package manifest_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repo2gitmodules/internal/manifest"
)

const fetchURLSubtestTemplateConstant = "%d_%s"

func TestResolveFetchURL(testInstance *testing.T) {
	testCases := []struct {
		name        string
		manifestURL string
		fetchURL    string
		expectedURL string
		expectError bool
	}{
		{
			name:        "absolute_https_unchanged",
			manifestURL: "https://android.googlesource.com/platform/manifest",
			fetchURL:    "https://example.com/mirror/",
			expectedURL: "https://example.com/mirror",
		},
		{
			name:        "parent_of_https_manifest",
			manifestURL: "https://android.googlesource.com/platform/manifest",
			fetchURL:    "..",
			expectedURL: "https://android.googlesource.com/",
		},
		{
			name:        "sibling_of_https_manifest",
			manifestURL: "https://example.com/group/manifest.git/",
			fetchURL:    "../tools",
			expectedURL: "https://example.com/tools",
		},
		{
			name:        "parent_of_scp_manifest",
			manifestURL: "git@example.com:org/manifest",
			fetchURL:    "..",
			expectedURL: "git@example.com:org/",
		},
		{
			name:        "sibling_of_scp_manifest",
			manifestURL: "git@example.com:org/manifest",
			fetchURL:    "../vendor",
			expectedURL: "git@example.com:org/vendor",
		},
		{
			name:        "parent_of_local_manifest",
			manifestURL: "/srv/mirror/platform/manifest",
			fetchURL:    "..",
			expectedURL: "/srv/mirror/",
		},
		{
			name:        "relative_without_manifest_url",
			manifestURL: "",
			fetchURL:    "..",
			expectError: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(fetchURLSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			resolvedURL, resolveError := manifest.ResolveFetchURL(testCase.manifestURL, testCase.fetchURL)
			if testCase.expectError {
				require.Error(testInstance, resolveError)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedURL, resolvedURL)
		})
	}
}

func TestProjectURL(testInstance *testing.T) {
	projectURL, urlError := manifest.ProjectURL("aosp", "https://android.googlesource.com/", "platform/build")
	require.NoError(testInstance, urlError)
	require.Equal(testInstance, "https://android.googlesource.com/platform/build", projectURL)

	_, missingError := manifest.ProjectURL("aosp", "", "platform/build")
	require.Error(testInstance, missingError)
}
