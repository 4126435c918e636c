package manifest

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	schemeDelimiterConstant              = "://"
	scpHostDelimiterConstant             = ":"
	urlPathSeparatorConstant             = "/"
	scpPlaceholderSchemeConstant         = "scp"
	scpPlaceholderHostConstant           = "placeholder"
	fetchURLResolutionErrorTemplate      = "cannot resolve fetch url %q against %q: %w"
	fetchURLRequiresManifestURLTemplate  = "relative fetch url %q requires a manifest url"
	projectURLRequiresFetchURLTemplate   = "remote %s has no fetch url"
	relativeFetchPrefixCurrentDirectory  = "."
	relativeFetchPrefixParentDirectory   = ".."
	relativeFetchPrefixCurrentDirSlashed = "./"
	relativeFetchPrefixParentDirSlashed  = "../"
)

// ResolveFetchURL resolves a remote fetch attribute against the manifest repository URL.
// Absolute fetch URLs are returned unchanged. Relative ones such as ".." are joined onto the
// manifest URL, which may be a URL, an scp-like address, or a local path.
func ResolveFetchURL(manifestURL string, fetchURL string) (string, error) {
	trimmedFetchURL := strings.TrimRight(strings.TrimSpace(fetchURL), urlPathSeparatorConstant)
	if !isRelativeFetchURL(trimmedFetchURL) {
		return trimmedFetchURL, nil
	}

	trimmedManifestURL := strings.TrimRight(strings.TrimSpace(manifestURL), urlPathSeparatorConstant)
	if len(trimmedManifestURL) == 0 {
		return "", fmt.Errorf(fetchURLRequiresManifestURLTemplate, fetchURL)
	}

	reference, referenceError := url.Parse(trimmedFetchURL)
	if referenceError != nil {
		return "", fmt.Errorf(fetchURLResolutionErrorTemplate, fetchURL, manifestURL, referenceError)
	}

	if scpPrefix, scpPath, isScp := splitScpAddress(trimmedManifestURL); isScp {
		base := &url.URL{Scheme: scpPlaceholderSchemeConstant, Host: scpPlaceholderHostConstant, Path: scpPath}
		resolved := base.ResolveReference(reference)
		return scpPrefix + resolved.Path, nil
	}

	base, baseError := url.Parse(trimmedManifestURL)
	if baseError != nil {
		return "", fmt.Errorf(fetchURLResolutionErrorTemplate, fetchURL, manifestURL, baseError)
	}
	return base.ResolveReference(reference).String(), nil
}

// ProjectURL joins a resolved fetch URL and a project name into a clone URL.
func ProjectURL(remoteName string, resolvedFetchURL string, projectName string) (string, error) {
	trimmedFetchURL := strings.TrimRight(resolvedFetchURL, urlPathSeparatorConstant)
	if len(trimmedFetchURL) == 0 {
		return "", fmt.Errorf(projectURLRequiresFetchURLTemplate, remoteName)
	}
	return trimmedFetchURL + urlPathSeparatorConstant + projectName, nil
}

func isRelativeFetchURL(fetchURL string) bool {
	switch {
	case fetchURL == relativeFetchPrefixCurrentDirectory, fetchURL == relativeFetchPrefixParentDirectory:
		return true
	case strings.HasPrefix(fetchURL, relativeFetchPrefixCurrentDirSlashed), strings.HasPrefix(fetchURL, relativeFetchPrefixParentDirSlashed):
		return true
	default:
		return false
	}
}

// splitScpAddress separates an scp-like address such as "git@host:org/manifest" into the
// authority "git@host:org" and the rooted path "/manifest". The first segment after the colon
// stays with the authority, matching how the repo tool resolves these addresses.
func splitScpAddress(address string) (string, string, bool) {
	if strings.Contains(address, schemeDelimiterConstant) {
		return "", "", false
	}
	hostDelimiterIndex := strings.Index(address, scpHostDelimiterConstant)
	if hostDelimiterIndex <= 0 {
		return "", "", false
	}
	if slashIndex := strings.Index(address, urlPathSeparatorConstant); slashIndex >= 0 && slashIndex < hostDelimiterIndex {
		return "", "", false
	}
	pathIndex := strings.Index(address[hostDelimiterIndex:], urlPathSeparatorConstant)
	if pathIndex == -1 {
		return address, "", true
	}
	pathIndex += hostDelimiterIndex
	return address[:pathIndex], address[pathIndex:], true
}
