package convert_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/repo2gitmodules/internal/convert"
	"github.com/temirov/repo2gitmodules/internal/gitrepo"
	"github.com/temirov/repo2gitmodules/internal/manifest"
	"github.com/temirov/repo2gitmodules/internal/submodules"
)

func sampleReport(dryRun bool) convert.Report {
	projects := sampleProjects()
	plan := submodules.BuildPlan([]string{"build", "obsolete"}, projects)
	report := convert.Report{
		RepositoryPath: "/workspace/android",
		Manifest: manifest.Snapshot{
			ManifestURL:    testManifestURLConstant,
			ManifestBranch: testManifestBranchConstant,
			ManifestName:   testManifestNameConstant,
			Projects:       projects,
		},
		DryRun: dryRun,
		Plan:   plan,
		RegisteredSubmodules: map[string]gitrepo.SubmoduleConfiguration{
			"build":    {Name: "build", Path: "build", URL: "https://mirror.example.com/platform/build"},
			"obsolete": {Name: "obsolete", Path: "obsolete", URL: "https://example.com/obsolete", Branch: "legacy"},
		},
	}
	if !dryRun {
		report.Result = submodules.Result{
			Removed: []string{"obsolete"},
			Added:   []string{},
			Updated: []string{"build"},
			CheckedOut: []submodules.Checkout{
				{Worktree: "build", Revision: "main"},
			},
		}
	}
	return report
}

func TestReportEntries(testInstance *testing.T) {
	testCases := []struct {
		name     string
		report   convert.Report
		expected []convert.ReportEntry
	}{
		{
			name:   "dry_run_lists_plan",
			report: sampleReport(true),
			expected: []convert.ReportEntry{
				{Action: "remove", Worktree: "obsolete", Branch: "legacy", RemoteURL: "https://example.com/obsolete"},
				{Action: "update", Worktree: "build", Revision: "main", RemoteURL: "https://mirror.example.com/platform/build => https://example.com/platform/build"},
				{Action: "add", Worktree: "tools", Revision: "0123456789abcdef0123456789abcdef01234567", Branch: "stable", RemoteURL: "https://example.com/platform/tools"},
			},
		},
		{
			name:   "completed_run_lists_applied_actions",
			report: sampleReport(false),
			expected: []convert.ReportEntry{
				{Action: "remove", Worktree: "obsolete", Branch: "legacy", RemoteURL: "https://example.com/obsolete"},
				{Action: "update", Worktree: "build", Revision: "main", RemoteURL: "https://mirror.example.com/platform/build => https://example.com/platform/build"},
			},
		},
		{
			name:     "empty_report",
			report:   convert.Report{},
			expected: []convert.ReportEntry{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expected, testCase.report.Entries())
		})
	}
}

func TestReportRendererTable(testInstance *testing.T) {
	var output bytes.Buffer
	renderer := convert.NewReportRenderer(&output, convert.OutputFormatTable)

	require.NoError(testInstance, renderer.Render(sampleReport(true)))

	rendered := output.String()
	require.Contains(testInstance, rendered, "/workspace/android (dry run): 1 to remove, 1 to add, 1 to update")
	require.Contains(testInstance, rendered, "WORKTREE")
	require.Contains(testInstance, rendered, "obsolete")
	require.Contains(testInstance, rendered, "0123456789abcdef0123456789abcdef01234567")
}

func TestReportRendererTableOmitsEmptyTable(testInstance *testing.T) {
	var output bytes.Buffer
	renderer := convert.NewReportRenderer(&output, convert.OutputFormatTable)

	require.NoError(testInstance, renderer.Render(convert.Report{RepositoryPath: "/workspace/android"}))
	require.Equal(testInstance, "/workspace/android: 0 removed, 0 added, 0 updated\n", output.String())
}

func TestReportRendererYAML(testInstance *testing.T) {
	var output bytes.Buffer
	renderer := convert.NewReportRenderer(&output, convert.OutputFormatYAML)

	require.NoError(testInstance, renderer.Render(sampleReport(false)))

	var decoded struct {
		Repository  string                `yaml:"repository"`
		ManifestURL string                `yaml:"manifest_url"`
		DryRun      bool                  `yaml:"dry_run"`
		Submodules  []convert.ReportEntry `yaml:"submodules"`
	}
	require.NoError(testInstance, yaml.Unmarshal(output.Bytes(), &decoded))
	require.Equal(testInstance, "/workspace/android", decoded.Repository)
	require.Equal(testInstance, testManifestURLConstant, decoded.ManifestURL)
	require.False(testInstance, decoded.DryRun)
	require.Len(testInstance, decoded.Submodules, 2)
	require.Equal(testInstance, "remove", decoded.Submodules[0].Action)
	require.Equal(testInstance, "build", decoded.Submodules[1].Worktree)
}

func TestParseOutputFormat(testInstance *testing.T) {
	testCases := []struct {
		name        string
		value       string
		expected    convert.OutputFormat
		expectError bool
	}{
		{name: "table", value: "table", expected: convert.OutputFormatTable},
		{name: "yaml_mixed_case", value: " YAML ", expected: convert.OutputFormatYAML},
		{name: "unsupported", value: "json", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			format, parseError := convert.ParseOutputFormat(testCase.value)
			if testCase.expectError {
				var formatError convert.UnsupportedOutputFormatError
				require.ErrorAs(subtest, parseError, &formatError)
				return
			}
			require.NoError(subtest, parseError)
			require.Equal(subtest, testCase.expected, format)
		})
	}
}
