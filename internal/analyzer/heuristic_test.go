package analyzer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/checkup/internal/analyzer"
	"github.com/temirov/checkup/internal/model"
)

func writeHeuristicFixture(testInstance *testing.T, rootPath string, relativePath string, content string) {
	testInstance.Helper()
	fullPath := filepath.Join(rootPath, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(testInstance, os.WriteFile(fullPath, []byte(content), 0o644))
}

func TestHeuristicDetectsHardcodedCredential(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	writeHeuristicFixture(testInstance, rootPath, "config/setup.go", "package config\n\nvar apiKey = \"sk-super-secret-value\"\nconst password = \"hunter22\"\n")

	heuristic := analyzer.NewHeuristic(model.CategorySecurity, analyzer.DefaultRuleSet(), zap.NewNop())
	result, runError := heuristic.Run(context.Background(), analyzer.Request{Category: model.CategorySecurity, RootPath: rootPath})
	require.NoError(testInstance, runError)
	require.NotEmpty(testInstance, result.Findings)

	finding := result.Findings[0]
	require.Equal(testInstance, []string{model.ProvenanceHeuristic}, finding.Provenance)
	require.Equal(testInstance, model.CategorySecurity, finding.Category)
	require.LessOrEqual(testInstance, finding.Confidence.Rank(), model.ConfidenceMedium.Rank())
	require.Equal(testInstance, "config/setup.go", finding.FilePath)
	require.Positive(testInstance, finding.StartLine)
}

func TestHeuristicAbsenceRules(testInstance *testing.T) {
	testCases := []struct {
		name          string
		category      model.CheckCategory
		fixtureFiles  map[string]string
		expectFinding bool
	}{
		{
			name:          "missing_readme_reported",
			category:      model.CategoryDocumentation,
			fixtureFiles:  map[string]string{"main.go": "package main\n"},
			expectFinding: true,
		},
		{
			name:          "readme_present_not_reported",
			category:      model.CategoryDocumentation,
			fixtureFiles:  map[string]string{"README.md": "# demo\n"},
			expectFinding: false,
		},
		{
			name:          "missing_tests_reported",
			category:      model.CategoryTestCoverage,
			fixtureFiles:  map[string]string{"main.go": "package main\n"},
			expectFinding: true,
		},
		{
			name:          "tests_present_not_reported",
			category:      model.CategoryTestCoverage,
			fixtureFiles:  map[string]string{"main.go": "package main\n", "main_test.go": "package main\n"},
			expectFinding: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			rootPath := subTest.TempDir()
			for relativePath, content := range testCase.fixtureFiles {
				writeHeuristicFixture(subTest, rootPath, relativePath, content)
			}

			heuristic := analyzer.NewHeuristic(testCase.category, analyzer.DefaultRuleSet(), zap.NewNop())
			result, runError := heuristic.Run(context.Background(), analyzer.Request{Category: testCase.category, RootPath: rootPath})
			require.NoError(subTest, runError)

			absenceFindings := 0
			for _, finding := range result.Findings {
				if len(finding.FilePath) == 0 {
					absenceFindings++
				}
			}
			if testCase.expectFinding {
				require.Positive(subTest, absenceFindings)
			} else {
				require.Zero(subTest, absenceFindings)
			}
		})
	}
}

func TestHeuristicScopeRestrictsScan(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	writeHeuristicFixture(testInstance, rootPath, "included/app.py", "eval(user_input)\n")
	writeHeuristicFixture(testInstance, rootPath, "excluded/app.py", "eval(user_input)\n")

	heuristic := analyzer.NewHeuristic(model.CategorySecurity, analyzer.DefaultRuleSet(), zap.NewNop())
	result, runError := heuristic.Run(context.Background(), analyzer.Request{
		Category:  model.CategorySecurity,
		RootPath:  rootPath,
		ScopePath: filepath.Join(rootPath, "included"),
	})
	require.NoError(testInstance, runError)

	require.NotEmpty(testInstance, result.Findings)
	for _, finding := range result.Findings {
		require.Equal(testInstance, "included/app.py", finding.FilePath)
	}
}

func TestHeuristicNotesUnreadableFiles(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	writeHeuristicFixture(testInstance, rootPath, "setup.go", "password = \"hunter22\"\n")
	require.NoError(testInstance, os.Symlink(filepath.Join(rootPath, "missing.go"), filepath.Join(rootPath, "broken.go")))

	heuristic := analyzer.NewHeuristic(model.CategorySecurity, analyzer.DefaultRuleSet(), zap.NewNop())
	result, runError := heuristic.Run(context.Background(), analyzer.Request{Category: model.CategorySecurity, RootPath: rootPath})
	require.NoError(testInstance, runError)

	require.NotEmpty(testInstance, result.Findings, "readable files must still be scanned")
	require.Len(testInstance, result.Notes, 1)
	require.Contains(testInstance, result.Notes[0], "broken.go")
}

func TestHeuristicSkipsBinaryFiles(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	binaryContent := append([]byte("password = \"secret-value\""), 0x00, 0x01)
	require.NoError(testInstance, os.WriteFile(filepath.Join(rootPath, "blob.go"), binaryContent, 0o644))

	heuristic := analyzer.NewHeuristic(model.CategorySecurity, analyzer.DefaultRuleSet(), zap.NewNop())
	result, runError := heuristic.Run(context.Background(), analyzer.Request{Category: model.CategorySecurity, RootPath: rootPath})
	require.NoError(testInstance, runError)
	require.Empty(testInstance, result.Findings)
}
