package manifest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

const (
	includedManifestsDirectoryConstant = "manifests"
	groupSeparatorPattern              = `[,\s]+`
	groupAllConstant                   = "all"
	groupDefaultConstant               = "default"
	groupNotDefaultConstant            = "notdefault"
	groupNamePrefixConstant            = "name:"
	groupPathPrefixConstant            = "path:"
	groupExclusionPrefixConstant       = "-"
	includeCycleTemplateConstant       = "include cycle through %s"
	unmatchedRemovalTemplateConstant   = "remove-project %s matches no project"
	optionalAttributeTrueConstant      = "true"
	missingProjectNameMessageConstant  = "project element without a name"
	missingRemoteNameMessageConstant   = "remote element without a name"
	missingIncludeNameMessageConstant  = "include element without a name"
	remoteElementNameConstant          = "remote"
	defaultElementNameConstant         = "default"
	projectElementNameConstant         = "project"
	includeElementNameConstant         = "include"
	removeProjectElementNameConstant   = "remove-project"
	extendProjectElementNameConstant   = "extend-project"
)

var (
	commitIDPattern       = regexp.MustCompile(`^[0-9a-f]{40}$`)
	groupSeparatorRegexp  = regexp.MustCompile(groupSeparatorPattern)
	errMissingProjectName = errors.New(missingProjectNameMessageConstant)
	errMissingRemoteName  = errors.New(missingRemoteNameMessageConstant)
	errMissingIncludeName = errors.New(missingIncludeNameMessageConstant)
)

// Reader decodes a manifest file into its ordered project list.
type Reader interface {
	Read(manifestPath string) ([]Project, error)
}

// XMLReaderOptions configures how remote URLs are resolved and which projects are selected.
type XMLReaderOptions struct {
	ManifestURL string
	Groups      []string
}

// XMLReader reads the repo tool's manifest XML format, following include elements.
type XMLReader struct {
	options XMLReaderOptions
}

// NewXMLReader constructs an XMLReader.
func NewXMLReader(options XMLReaderOptions) *XMLReader {
	return &XMLReader{options: options}
}

type manifestDocument struct {
	XMLName  xml.Name          `xml:"manifest"`
	Elements []manifestElement `xml:",any"`
}

// manifestElement carries the union of attributes used by the supported child elements.
type manifestElement struct {
	XMLName  xml.Name
	Name     string `xml:"name,attr"`
	Alias    string `xml:"alias,attr"`
	Fetch    string `xml:"fetch,attr"`
	Path     string `xml:"path,attr"`
	DestPath string `xml:"dest-path,attr"`
	Remote   string `xml:"remote,attr"`
	Revision string `xml:"revision,attr"`
	Upstream string `xml:"upstream,attr"`
	Groups   string `xml:"groups,attr"`
	Optional string `xml:"optional,attr"`
}

// manifestState accumulates declarations across the root manifest and its includes.
type manifestState struct {
	remotes  map[string]manifestElement
	defaults manifestElement
	projects []manifestElement
}

// Read parses the manifest at manifestPath. Include names resolve against the sibling
// "manifests" directory when present, which is how the repo tool lays out .repo.
func (reader *XMLReader) Read(manifestPath string) ([]Project, error) {
	includeDirectory := filepath.Dir(manifestPath)
	checkoutDirectory := filepath.Join(includeDirectory, includedManifestsDirectoryConstant)
	if directoryInfo, statError := os.Stat(checkoutDirectory); statError == nil && directoryInfo.IsDir() {
		includeDirectory = checkoutDirectory
	}

	state := &manifestState{remotes: map[string]manifestElement{}}
	if loadError := reader.load(manifestPath, includeDirectory, state, map[string]bool{}); loadError != nil {
		return nil, loadError
	}

	return reader.resolveProjects(state)
}

func (reader *XMLReader) load(manifestPath string, includeDirectory string, state *manifestState, visiting map[string]bool) error {
	absolutePath, absoluteError := filepath.Abs(manifestPath)
	if absoluteError != nil {
		return ParseError{Path: manifestPath, Cause: absoluteError}
	}
	if visiting[absolutePath] {
		return ParseError{Path: manifestPath, Cause: fmt.Errorf(includeCycleTemplateConstant, manifestPath)}
	}
	visiting[absolutePath] = true
	defer delete(visiting, absolutePath)

	manifestContent, readError := os.ReadFile(manifestPath)
	if readError != nil {
		return ParseError{Path: manifestPath, Cause: readError}
	}

	var document manifestDocument
	if decodeError := xml.Unmarshal(manifestContent, &document); decodeError != nil {
		return ParseError{Path: manifestPath, Cause: decodeError}
	}

	for _, element := range document.Elements {
		switch element.XMLName.Local {
		case remoteElementNameConstant:
			if len(element.Name) == 0 {
				return ParseError{Path: manifestPath, Cause: errMissingRemoteName}
			}
			state.remotes[element.Name] = element
		case defaultElementNameConstant:
			state.defaults = mergeDefaults(state.defaults, element)
		case projectElementNameConstant:
			if len(element.Name) == 0 {
				return ParseError{Path: manifestPath, Cause: errMissingProjectName}
			}
			state.projects = append(state.projects, element)
		case includeElementNameConstant:
			if len(element.Name) == 0 {
				return ParseError{Path: manifestPath, Cause: errMissingIncludeName}
			}
			includePath := filepath.Join(includeDirectory, filepath.FromSlash(element.Name))
			if includeError := reader.load(includePath, includeDirectory, state, visiting); includeError != nil {
				return includeError
			}
		case removeProjectElementNameConstant:
			declaredCount := len(state.projects)
			state.projects = slices.DeleteFunc(state.projects, func(project manifestElement) bool {
				return project.Name == element.Name && (len(element.Path) == 0 || projectPath(project) == element.Path)
			})
			if len(state.projects) == declaredCount && element.Optional != optionalAttributeTrueConstant {
				return ParseError{Path: manifestPath, Cause: fmt.Errorf(unmatchedRemovalTemplateConstant, element.Name)}
			}
		case extendProjectElementNameConstant:
			for projectPosition := range state.projects {
				project := &state.projects[projectPosition]
				if project.Name != element.Name {
					continue
				}
				if len(element.Path) > 0 && projectPath(*project) != element.Path {
					continue
				}
				applyExtension(project, element)
			}
		}
	}

	return nil
}

func (reader *XMLReader) resolveProjects(state *manifestState) ([]Project, error) {
	resolvedFetchURLs := make(map[string]string, len(state.remotes))
	projects := make([]Project, 0, len(state.projects))

	for _, element := range state.projects {
		remoteName := firstNonEmpty(element.Remote, state.defaults.Remote)
		remote, remoteExists := state.remotes[remoteName]
		if !remoteExists {
			return nil, UnknownRemoteError{ProjectName: element.Name, RemoteName: remoteName}
		}

		resolvedFetchURL, resolved := resolvedFetchURLs[remoteName]
		if !resolved {
			fetchURL, resolveError := ResolveFetchURL(reader.options.ManifestURL, remote.Fetch)
			if resolveError != nil {
				return nil, resolveError
			}
			resolvedFetchURL = fetchURL
			resolvedFetchURLs[remoteName] = fetchURL
		}

		remoteURL, urlError := ProjectURL(remoteName, resolvedFetchURL, element.Name)
		if urlError != nil {
			return nil, urlError
		}

		worktree := projectPath(element)
		groups := projectGroups(element, worktree)
		if !matchesGroups(groups, reader.options.Groups) {
			continue
		}

		revisionExpression := firstNonEmpty(element.Revision, remote.Revision, state.defaults.Revision)
		project := Project{
			Name:               element.Name,
			Worktree:           worktree,
			RemoteName:         firstNonEmpty(remote.Alias, remoteName),
			RemoteURL:          remoteURL,
			Branch:             firstNonEmpty(element.Upstream, state.defaults.Upstream),
			RevisionExpression: revisionExpression,
			Groups:             groups,
		}
		if commitIDPattern.MatchString(revisionExpression) {
			project.RevisionID = revisionExpression
		}
		projects = append(projects, project)
	}

	if validationError := ValidateProjects(projects); validationError != nil {
		return nil, validationError
	}
	return projects, nil
}

func mergeDefaults(current manifestElement, override manifestElement) manifestElement {
	return manifestElement{
		Remote:   firstNonEmpty(override.Remote, current.Remote),
		Revision: firstNonEmpty(override.Revision, current.Revision),
		Upstream: firstNonEmpty(override.Upstream, current.Upstream),
	}
}

func applyExtension(project *manifestElement, extension manifestElement) {
	if len(extension.DestPath) > 0 {
		project.Path = extension.DestPath
	}
	if len(extension.Remote) > 0 {
		project.Remote = extension.Remote
	}
	if len(extension.Revision) > 0 {
		project.Revision = extension.Revision
	}
	if len(extension.Upstream) > 0 {
		project.Upstream = extension.Upstream
	}
	if len(extension.Groups) > 0 {
		project.Groups = strings.TrimSpace(project.Groups + "," + extension.Groups)
	}
}

func projectPath(project manifestElement) string {
	return firstNonEmpty(project.Path, project.Name)
}

// projectGroups returns the declared groups plus the implicit ones every project belongs to.
func projectGroups(project manifestElement, worktree string) []string {
	groups := []string{}
	for _, group := range groupSeparatorRegexp.Split(project.Groups, -1) {
		if len(group) > 0 && !slices.Contains(groups, group) {
			groups = append(groups, group)
		}
	}
	groups = append(groups, groupAllConstant, groupNamePrefixConstant+project.Name, groupPathPrefixConstant+worktree)
	if !slices.Contains(groups, groupNotDefaultConstant) {
		groups = append(groups, groupDefaultConstant)
	}
	return groups
}

// matchesGroups applies the selection in order; a "-group" entry deselects, and the last match wins.
// An empty selection keeps every project, notdefault ones included.
func matchesGroups(projectGroups []string, selectedGroups []string) bool {
	if len(selectedGroups) == 0 {
		selectedGroups = []string{groupAllConstant}
	}
	matched := false
	for _, selectedGroup := range selectedGroups {
		trimmedGroup := strings.TrimSpace(selectedGroup)
		if excludedGroup, isExclusion := strings.CutPrefix(trimmedGroup, groupExclusionPrefixConstant); isExclusion {
			if slices.Contains(projectGroups, excludedGroup) {
				matched = false
			}
			continue
		}
		if slices.Contains(projectGroups, trimmedGroup) {
			matched = true
		}
	}
	return matched
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if len(value) > 0 {
			return value
		}
	}
	return ""
}
