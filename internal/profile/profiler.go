package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Language names a detected project language.
type Language string

// Languages recognized by the profiler.
const (
	LanguageGo         Language = "go"
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageRust       Language = "rust"
	LanguageJava       Language = "java"
	LanguageDotnet     Language = "dotnet"
	LanguageRuby       Language = "ruby"
)

// ErrRootUnreadable reports that the scan root could not be listed. It is
// the only fatal error in the review pipeline.
var ErrRootUnreadable = errors.New("project root is not readable")

const rootUnreadableTemplateConstant = "%w: %s"

// Profile captures what was detected under a project root. It is built once
// per run and treated as immutable afterwards; accessors return copies.
type Profile struct {
	languages       []Language
	manifests       []string
	packageManagers []string
}

// Languages returns the detected languages in sorted order.
func (profile Profile) Languages() []Language {
	return append([]Language{}, profile.languages...)
}

// Manifests returns root-relative paths of the manifest files found.
func (profile Profile) Manifests() []string {
	return append([]string{}, profile.manifests...)
}

// PackageManagers returns the detected package manager names.
func (profile Profile) PackageManagers() []string {
	return append([]string{}, profile.packageManagers...)
}

// HasLanguage reports whether the profile detected the given language.
func (profile Profile) HasLanguage(language Language) bool {
	for _, candidate := range profile.languages {
		if candidate == language {
			return true
		}
	}
	return false
}

// IsEmpty reports whether nothing recognizable was found. An empty profile
// is valid; every category then falls back to heuristics.
func (profile Profile) IsEmpty() bool {
	return len(profile.languages) == 0 && len(profile.manifests) == 0
}

// IsIgnoredDirectory reports whether scanners should skip the directory
// name (vendored code, build output, VCS metadata).
func IsIgnoredDirectory(directoryName string) bool {
	_, ignored := ignoredDirectoryNames[directoryName]
	return ignored
}

type manifestMarker struct {
	language       Language
	packageManager string
}

// Directories never descended into during detection.
var ignoredDirectoryNames = map[string]struct{}{
	".git":         {},
	".hg":          {},
	"node_modules": {},
	"vendor":       {},
	"bin":          {},
	"obj":          {},
	"target":       {},
	"dist":         {},
	"build":        {},
	".venv":        {},
	"venv":         {},
	"__pycache__":  {},
}

var manifestMarkersByFileName = map[string]manifestMarker{
	"go.mod":            {language: LanguageGo, packageManager: "gomod"},
	"go.sum":            {language: LanguageGo},
	"package.json":      {language: LanguageJavaScript},
	"package-lock.json": {language: LanguageJavaScript, packageManager: "npm"},
	"yarn.lock":         {language: LanguageJavaScript, packageManager: "yarn"},
	"pnpm-lock.yaml":    {language: LanguageJavaScript, packageManager: "pnpm"},
	"bun.lock":          {language: LanguageJavaScript, packageManager: "bun"},
	"requirements.txt":  {language: LanguagePython, packageManager: "pip"},
	"pyproject.toml":    {language: LanguagePython, packageManager: "pip"},
	"pipfile":           {language: LanguagePython, packageManager: "pipenv"},
	"setup.py":          {language: LanguagePython},
	"cargo.toml":        {language: LanguageRust, packageManager: "cargo"},
	"cargo.lock":        {language: LanguageRust, packageManager: "cargo"},
	"pom.xml":           {language: LanguageJava, packageManager: "maven"},
	"build.gradle":      {language: LanguageJava, packageManager: "gradle"},
	"build.gradle.kts":  {language: LanguageJava, packageManager: "gradle"},
	"gemfile":           {language: LanguageRuby, packageManager: "bundler"},
	"gemfile.lock":      {language: LanguageRuby, packageManager: "bundler"},
}

var manifestMarkersByExtension = map[string]manifestMarker{
	".csproj": {language: LanguageDotnet, packageManager: "nuget"},
	".sln":    {language: LanguageDotnet, packageManager: "nuget"},
}

// Detect walks the tree under rootPath and assembles a Profile. Unreadable
// files inside the tree are skipped; only an unlistable root is fatal.
func Detect(rootPath string) (Profile, error) {
	absoluteRoot, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		return Profile{}, fmt.Errorf(rootUnreadableTemplateConstant, ErrRootUnreadable, rootPath)
	}
	if _, listError := os.ReadDir(absoluteRoot); listError != nil {
		return Profile{}, fmt.Errorf(rootUnreadableTemplateConstant, ErrRootUnreadable, rootPath)
	}

	languageSet := map[Language]struct{}{}
	manifestSet := map[string]struct{}{}
	packageManagerSet := map[string]struct{}{}

	walkError := filepath.WalkDir(absoluteRoot, func(path string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if _, ignored := ignoredDirectoryNames[entry.Name()]; ignored {
				return filepath.SkipDir
			}
			return nil
		}

		fileName := strings.ToLower(entry.Name())
		marker, matched := manifestMarkersByFileName[fileName]
		if !matched {
			marker, matched = manifestMarkersByExtension[filepath.Ext(fileName)]
		}
		if !matched {
			return nil
		}

		languageSet[marker.language] = struct{}{}
		if len(marker.packageManager) > 0 {
			packageManagerSet[marker.packageManager] = struct{}{}
		}
		if relativePath, relativeError := filepath.Rel(absoluteRoot, path); relativeError == nil {
			manifestSet[filepath.ToSlash(relativePath)] = struct{}{}
		}
		return nil
	})
	if walkError != nil {
		return Profile{}, fmt.Errorf(rootUnreadableTemplateConstant, ErrRootUnreadable, rootPath)
	}

	return Profile{
		languages:       sortedLanguages(languageSet),
		manifests:       sortedStrings(manifestSet),
		packageManagers: sortedStrings(packageManagerSet),
	}, nil
}

// NewProfile builds a profile from explicit values, used by tests and tools
// that already know the project composition.
func NewProfile(languages []Language, manifests []string, packageManagers []string) Profile {
	profile := Profile{
		languages:       append([]Language{}, languages...),
		manifests:       append([]string{}, manifests...),
		packageManagers: append([]string{}, packageManagers...),
	}
	sort.Slice(profile.languages, func(left int, right int) bool {
		return profile.languages[left] < profile.languages[right]
	})
	sort.Strings(profile.manifests)
	sort.Strings(profile.packageManagers)
	return profile
}

func sortedLanguages(values map[Language]struct{}) []Language {
	languages := make([]Language, 0, len(values))
	for language := range values {
		languages = append(languages, language)
	}
	sort.Slice(languages, func(left int, right int) bool {
		return languages[left] < languages[right]
	})
	return languages
}

func sortedStrings(values map[string]struct{}) []string {
	sorted := make([]string, 0, len(values))
	for value := range values {
		sorted = append(sorted, value)
	}
	sort.Strings(sorted)
	return sorted
}
