package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/checkup/internal/profile"
)

const (
	testGoAndJavaScriptCaseNameConstant = "go_and_javascript_project"
	testEmptyProjectCaseNameConstant    = "unrecognized_project"
	testIgnoredDirectoryCaseNameConstant = "ignored_directories_not_descended"
	testDotnetExtensionCaseNameConstant = "dotnet_detected_by_extension"
)

func writeFixtureFile(testInstance *testing.T, rootPath string, relativePath string, content string) {
	testInstance.Helper()
	fullPath := filepath.Join(rootPath, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(testInstance, os.WriteFile(fullPath, []byte(content), 0o644))
}

func TestDetect(testInstance *testing.T) {
	testCases := []struct {
		name             string
		fixtureFiles     map[string]string
		expectedLanguages []profile.Language
		expectedManagers []string
	}{
		{
			name: testGoAndJavaScriptCaseNameConstant,
			fixtureFiles: map[string]string{
				"go.mod":                "module example.com/demo\n",
				"web/package.json":      "{}\n",
				"web/package-lock.json": "{}\n",
			},
			expectedLanguages: []profile.Language{profile.LanguageGo, profile.LanguageJavaScript},
			expectedManagers:  []string{"gomod", "npm"},
		},
		{
			name:              testEmptyProjectCaseNameConstant,
			fixtureFiles:      map[string]string{"README.txt": "hello\n"},
			expectedLanguages: []profile.Language{},
			expectedManagers:  []string{},
		},
		{
			name: testIgnoredDirectoryCaseNameConstant,
			fixtureFiles: map[string]string{
				"node_modules/left-pad/package.json": "{}\n",
				"vendor/example/go.mod":              "module vendored\n",
				"requirements.txt":                   "requests\n",
			},
			expectedLanguages: []profile.Language{profile.LanguagePython},
			expectedManagers:  []string{"pip"},
		},
		{
			name: testDotnetExtensionCaseNameConstant,
			fixtureFiles: map[string]string{
				"src/App/App.csproj": "<Project/>\n",
			},
			expectedLanguages: []profile.Language{profile.LanguageDotnet},
			expectedManagers:  []string{"nuget"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			rootPath := subTest.TempDir()
			for relativePath, content := range testCase.fixtureFiles {
				writeFixtureFile(subTest, rootPath, relativePath, content)
			}

			detectedProfile, detectError := profile.Detect(rootPath)
			require.NoError(subTest, detectError)
			require.Equal(subTest, testCase.expectedLanguages, detectedProfile.Languages())
			require.Equal(subTest, testCase.expectedManagers, detectedProfile.PackageManagers())
		})
	}
}

func TestDetectEmptyProfileIsValid(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	detectedProfile, detectError := profile.Detect(rootPath)
	require.NoError(testInstance, detectError)
	require.True(testInstance, detectedProfile.IsEmpty())
}

func TestDetectUnreadableRoot(testInstance *testing.T) {
	missingRoot := filepath.Join(testInstance.TempDir(), "does-not-exist")
	_, detectError := profile.Detect(missingRoot)
	require.ErrorIs(testInstance, detectError, profile.ErrRootUnreadable)
}

func TestManifestsAreRootRelative(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	writeFixtureFile(testInstance, rootPath, "services/api/go.mod", "module api\n")

	detectedProfile, detectError := profile.Detect(rootPath)
	require.NoError(testInstance, detectError)
	require.Equal(testInstance, []string{"services/api/go.mod"}, detectedProfile.Manifests())
}
