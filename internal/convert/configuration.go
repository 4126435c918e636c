package convert

import (
	"strings"

	pathutils "github.com/temirov/repo2gitmodules/internal/utils/path"
)

const (
	defaultRepositoryPathConstant = "."
	defaultManifestBranchConstant = "main"
	defaultManifestNameConstant   = "default.xml"
)

var convertConfigurationHomeExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures persisted configuration for the convert command.
type CommandConfiguration struct {
	RepositoryPath string   `mapstructure:"repository"`
	ManifestURL    string   `mapstructure:"manifest_url"`
	ManifestBranch string   `mapstructure:"branch"`
	ManifestName   string   `mapstructure:"manifest"`
	Groups         []string `mapstructure:"groups"`
	DryRun         bool     `mapstructure:"dry_run"`
	OutputFormat   string   `mapstructure:"output"`
	ScratchRoot    string   `mapstructure:"scratch_root"`
}

// DefaultCommandConfiguration returns baseline configuration values for the convert command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath: defaultRepositoryPathConstant,
		ManifestURL:    "",
		ManifestBranch: defaultManifestBranchConstant,
		ManifestName:   defaultManifestNameConstant,
		Groups:         nil,
		DryRun:         false,
		OutputFormat:   string(OutputFormatTable),
		ScratchRoot:    "",
	}
}

// Sanitize trims configured values, expands home shortcuts, and fills empty values with defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.RepositoryPath = convertConfigurationHomeExpander.Expand(strings.TrimSpace(configuration.RepositoryPath))
	if len(sanitized.RepositoryPath) == 0 {
		sanitized.RepositoryPath = defaults.RepositoryPath
	}
	sanitized.ManifestURL = strings.TrimSpace(configuration.ManifestURL)
	sanitized.ManifestBranch = strings.TrimSpace(configuration.ManifestBranch)
	if len(sanitized.ManifestBranch) == 0 {
		sanitized.ManifestBranch = defaults.ManifestBranch
	}
	sanitized.ManifestName = strings.TrimSpace(configuration.ManifestName)
	if len(sanitized.ManifestName) == 0 {
		sanitized.ManifestName = defaults.ManifestName
	}
	sanitized.Groups = sanitizeGroups(configuration.Groups)
	sanitized.OutputFormat = strings.ToLower(strings.TrimSpace(configuration.OutputFormat))
	if len(sanitized.OutputFormat) == 0 {
		sanitized.OutputFormat = defaults.OutputFormat
	}
	sanitized.ScratchRoot = convertConfigurationHomeExpander.Expand(strings.TrimSpace(configuration.ScratchRoot))
	return sanitized
}

// sanitizeGroups splits comma-joined entries and drops blanks.
func sanitizeGroups(groups []string) []string {
	var sanitized []string
	for _, group := range groups {
		for _, candidate := range strings.Split(group, ",") {
			if trimmed := strings.TrimSpace(candidate); len(trimmed) > 0 {
				sanitized = append(sanitized, trimmed)
			}
		}
	}
	return sanitized
}

// DefaultConfigurationValues returns the convert defaults keyed for the configuration loader beneath configurationKey.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := configurationKey + "."
	return map[string]any{
		prefix + "repository":   defaults.RepositoryPath,
		prefix + "manifest_url": defaults.ManifestURL,
		prefix + "branch":       defaults.ManifestBranch,
		prefix + "manifest":     defaults.ManifestName,
		prefix + "groups":       []string{},
		prefix + "dry_run":      defaults.DryRun,
		prefix + "output":       defaults.OutputFormat,
		prefix + "scratch_root": defaults.ScratchRoot,
	}
}
