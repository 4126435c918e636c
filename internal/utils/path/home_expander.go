package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	homeShortcutConstant       = "~"
	forwardSlashSuffixConstant = "/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander rewrites "~" and "~/..." paths beneath the current user's home directory.
// The home directory is looked up at most once.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	lookupOnce            sync.Once
}

// NewHomeExpander constructs a HomeExpander using the operating system lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// Expand resolves a leading home shortcut. Paths naming another user ("~other") and paths
// whose home lookup fails are returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil {
		return candidatePath
	}

	remainder, hasShortcut := homeRelativeRemainder(candidatePath)
	if !hasShortcut {
		return candidatePath
	}

	homeDirectory := expander.lookupHomeDirectory()
	if len(homeDirectory) == 0 {
		return candidatePath
	}
	if len(remainder) == 0 {
		return homeDirectory
	}
	return filepath.Join(homeDirectory, remainder)
}

// Resolve expands the home shortcut and returns the cleaned absolute path.
func (expander *HomeExpander) Resolve(candidatePath string) (string, error) {
	return filepath.Abs(expander.Expand(candidatePath))
}

// homeRelativeRemainder reports whether candidatePath starts with the current user's home
// shortcut and returns the path below it.
func homeRelativeRemainder(candidatePath string) (string, bool) {
	if candidatePath == homeShortcutConstant {
		return "", true
	}
	for _, separator := range []string{forwardSlashSuffixConstant, string(os.PathSeparator)} {
		if strings.HasPrefix(candidatePath, homeShortcutConstant+separator) {
			return candidatePath[len(homeShortcutConstant)+len(separator):], true
		}
	}
	return "", false
}

func (expander *HomeExpander) lookupHomeDirectory() string {
	expander.lookupOnce.Do(func() {
		expander.homeDirectory, expander.homeDirectoryError = expander.homeDirectoryProvider()
	})
	if expander.homeDirectoryError != nil {
		return ""
	}
	return expander.homeDirectory
}
