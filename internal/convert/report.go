package convert

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"

	"github.com/temirov/repo2gitmodules/internal/submodules"
)

const (
	reportActionRemoveConstant          = "remove"
	reportActionAddConstant             = "add"
	reportActionUpdateConstant          = "update"
	reportHeaderActionConstant          = "ACTION"
	reportHeaderWorktreeConstant        = "WORKTREE"
	reportHeaderRevisionConstant        = "REVISION"
	reportHeaderBranchConstant          = "BRANCH"
	reportHeaderRemoteURLConstant       = "REMOTE URL"
	reportURLChangeTemplateConstant     = "%s => %s"
	reportTableRenderErrorTemplate      = "unable to render report table: %w"
	reportYAMLRenderErrorTemplate       = "unable to render report yaml: %w"
	reportSummaryTemplateConstant       = "%s: %d removed, %d added, %d updated\n"
	reportDryRunSummaryTemplate         = "%s (dry run): %d to remove, %d to add, %d to update\n"
	reportTableMaximumWidthConstant     = 160
	reportYAMLIndentationSpacesConstant = 2
)

// OutputFormat selects how a report is rendered.
type OutputFormat string

// Supported output formats.
const (
	OutputFormatTable OutputFormat = OutputFormat("table")
	OutputFormatYAML  OutputFormat = OutputFormat("yaml")
)

// ParseOutputFormat validates a configured output format.
func ParseOutputFormat(value string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(value))) {
	case OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatYAML:
		return OutputFormatYAML, nil
	default:
		return "", UnsupportedOutputFormatError{Format: value}
	}
}

// ReportEntry is one row of a rendered report.
type ReportEntry struct {
	Action    string `yaml:"action"`
	Worktree  string `yaml:"worktree"`
	Revision  string `yaml:"revision,omitempty"`
	Branch    string `yaml:"branch,omitempty"`
	RemoteURL string `yaml:"remote_url,omitempty"`
}

type reportDocument struct {
	Repository        string        `yaml:"repository"`
	ManifestURL       string        `yaml:"manifest_url"`
	ManifestBranch    string        `yaml:"manifest_branch"`
	Manifest          string        `yaml:"manifest"`
	DryRun            bool          `yaml:"dry_run"`
	RepositoryCreated bool          `yaml:"repository_created"`
	Submodules        []ReportEntry `yaml:"submodules"`
}

// Entries lists the removals and per-project actions of the report. A dry run lists the plan;
// a completed run lists only what was applied.
func (report Report) Entries() []ReportEntry {
	entries := []ReportEntry{}

	removals := report.Result.Removed
	if report.DryRun {
		removals = report.Plan.Removals
	}
	for _, worktree := range removals {
		entry := ReportEntry{Action: reportActionRemoveConstant, Worktree: worktree}
		if configuration, registered := report.RegisteredSubmodules[worktree]; registered {
			entry.RemoteURL = configuration.URL
			entry.Branch = configuration.Branch
		}
		entries = append(entries, entry)
	}

	applied := make(map[string]bool, len(report.Result.CheckedOut))
	for _, checkout := range report.Result.CheckedOut {
		applied[checkout.Worktree] = true
	}

	for _, action := range report.Plan.Actions {
		if !report.DryRun && !applied[action.Project.Worktree] {
			continue
		}
		entry := ReportEntry{
			Action:    reportActionAddConstant,
			Worktree:  action.Project.Worktree,
			Revision:  action.Revision,
			Branch:    action.Project.Branch,
			RemoteURL: action.Project.RemoteURL,
		}
		if action.Kind == submodules.ActionUpdate {
			entry.Action = reportActionUpdateConstant
			if configuration, registered := report.RegisteredSubmodules[action.Project.Worktree]; registered && len(configuration.URL) > 0 && configuration.URL != action.Project.RemoteURL {
				entry.RemoteURL = fmt.Sprintf(reportURLChangeTemplateConstant, configuration.URL, action.Project.RemoteURL)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// ReportRenderer writes reports in the configured format.
type ReportRenderer struct {
	writer io.Writer
	format OutputFormat
}

// NewReportRenderer constructs a ReportRenderer.
func NewReportRenderer(writer io.Writer, format OutputFormat) *ReportRenderer {
	return &ReportRenderer{writer: writer, format: format}
}

// Render writes the report.
func (reportRenderer *ReportRenderer) Render(report Report) error {
	switch reportRenderer.format {
	case OutputFormatYAML:
		return reportRenderer.renderYAML(report)
	default:
		return reportRenderer.renderTable(report)
	}
}

func (reportRenderer *ReportRenderer) renderTable(report Report) error {
	entries := report.Entries()
	removed, added, updated := countActions(entries)
	summaryTemplate := reportSummaryTemplateConstant
	if report.DryRun {
		summaryTemplate = reportDryRunSummaryTemplate
	}
	if _, writeError := fmt.Fprintf(reportRenderer.writer, summaryTemplate, report.RepositoryPath, removed, added, updated); writeError != nil {
		return fmt.Errorf(reportTableRenderErrorTemplate, writeError)
	}
	if len(entries) == 0 {
		return nil
	}

	table := newReportTable(reportRenderer.writer)
	for _, entry := range entries {
		if appendError := table.Append([]string{entry.Action, entry.Worktree, entry.Revision, entry.Branch, entry.RemoteURL}); appendError != nil {
			return fmt.Errorf(reportTableRenderErrorTemplate, appendError)
		}
	}
	if renderError := table.Render(); renderError != nil {
		return fmt.Errorf(reportTableRenderErrorTemplate, renderError)
	}
	return nil
}

func (reportRenderer *ReportRenderer) renderYAML(report Report) error {
	document := reportDocument{
		Repository:        report.RepositoryPath,
		ManifestURL:       report.Manifest.ManifestURL,
		ManifestBranch:    report.Manifest.ManifestBranch,
		Manifest:          report.Manifest.ManifestName,
		DryRun:            report.DryRun,
		RepositoryCreated: report.RepositoryCreated,
		Submodules:        report.Entries(),
	}

	encoder := yaml.NewEncoder(reportRenderer.writer)
	encoder.SetIndent(reportYAMLIndentationSpacesConstant)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return fmt.Errorf(reportYAMLRenderErrorTemplate, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(reportYAMLRenderErrorTemplate, closeError)
	}
	return nil
}

func newReportTable(writer io.Writer) *tablewriter.Table {
	configuration := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: reportTableMaximumWidthConstant,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(writer,
		tablewriter.WithConfig(configuration),
		tablewriter.WithHeader([]string{
			reportHeaderActionConstant,
			reportHeaderWorktreeConstant,
			reportHeaderRevisionConstant,
			reportHeaderBranchConstant,
			reportHeaderRemoteURLConstant,
		}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleLight),
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

func countActions(entries []ReportEntry) (int, int, int) {
	removed, added, updated := 0, 0, 0
	for _, entry := range entries {
		switch entry.Action {
		case reportActionRemoveConstant:
			removed++
		case reportActionAddConstant:
			added++
		case reportActionUpdateConstant:
			updated++
		}
	}
	return removed, added, updated
}
