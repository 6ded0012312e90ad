package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/profile"
	"github.com/temirov/checkup/internal/registry"
)

const validCatalogContentConstant = `tools:
  - name: custom-linter
    category: security
    languages: [go]
    command: custom-linter
    arguments: ["--json", "{{scope}}"]
    parser: generic-json
    priority: 5
overrides:
  - name: gosec
    priority: 40
`

const unknownParserCatalogContentConstant = `tools:
  - name: custom-linter
    category: security
    command: custom-linter
    parser: mystery-format
`

func writeCatalogFile(testInstance *testing.T, content string) string {
	testInstance.Helper()
	catalogPath := filepath.Join(testInstance.TempDir(), "catalog.yaml")
	require.NoError(testInstance, os.WriteFile(catalogPath, []byte(content), 0o644))
	return catalogPath
}

func TestLoadCatalogValidation(testInstance *testing.T) {
	testCases := []struct {
		name        string
		content     string
		expectError bool
	}{
		{name: "valid_catalog", content: validCatalogContentConstant},
		{name: "unknown_parser", content: unknownParserCatalogContentConstant, expectError: true},
		{name: "malformed_yaml", content: ":\n  - broken", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			catalogPath := writeCatalogFile(subTest, testCase.content)
			_, loadError := registry.LoadCatalog(catalogPath)
			if testCase.expectError {
				require.Error(subTest, loadError)
				return
			}
			require.NoError(subTest, loadError)
		})
	}
}

func TestLoadCatalogRequiresPath(testInstance *testing.T) {
	_, loadError := registry.LoadCatalog("  ")
	require.Error(testInstance, loadError)
}

func TestCatalogApplyRegistersAndOverrides(testInstance *testing.T) {
	catalogPath := writeCatalogFile(testInstance, validCatalogContentConstant)
	catalog, loadError := registry.LoadCatalog(catalogPath)
	require.NoError(testInstance, loadError)

	toolRegistry, buildError := registry.NewDefaultRegistry()
	require.NoError(testInstance, buildError)
	require.NoError(testInstance, catalog.Apply(toolRegistry))
	toolRegistry.Freeze()

	candidates := toolRegistry.Candidates(model.CategorySecurity, []profile.Language{profile.LanguageGo})
	require.NotEmpty(testInstance, candidates)
	require.Equal(testInstance, "custom-linter", candidates[0].Name)

	for _, candidate := range candidates {
		if candidate.Name == "gosec" {
			require.Equal(testInstance, 40, candidate.PriorityRank)
		}
	}
}
