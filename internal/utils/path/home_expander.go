package pathutils

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	tildePrefixConstant     = "~"
	tildePathPrefixConstant = "~/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander rewrites leading tilde shortcuts in user supplied paths.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
}

// NewHomeExpander constructs a HomeExpander backed by the operating system
// home directory lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom
// provider; a nil provider falls back to the operating system lookup.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// Expand resolves "~" and "~/..." against the user's home directory. Paths
// without the shortcut, and paths whose home lookup fails, pass through
// unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if candidatePath != tildePrefixConstant && !strings.HasPrefix(candidatePath, tildePathPrefixConstant) {
		return candidatePath
	}

	homeDirectory, homeError := expander.homeDirectoryProvider()
	if homeError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}

	if candidatePath == tildePrefixConstant {
		return homeDirectory
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, tildePathPrefixConstant))
}
