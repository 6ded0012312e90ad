package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/profile"
	"github.com/temirov/checkup/internal/registry"
)

const (
	testFirstToolNameConstant  = "alpha-scanner"
	testSecondToolNameConstant = "beta-scanner"
	testThirdToolNameConstant  = "gamma-scanner"
	testCommandNameConstant    = "scanner"
)

func buildDescriptor(name string, category model.CheckCategory, languages []profile.Language, priorityRank int) registry.ToolDescriptor {
	return registry.ToolDescriptor{
		Name:         name,
		Category:     category,
		Languages:    languages,
		Command:      testCommandNameConstant,
		Arguments:    []string{registry.ScopePlaceholder},
		Parser:       registry.ParserGenericJSON,
		PriorityRank: priorityRank,
	}
}

func TestRegisterValidation(testInstance *testing.T) {
	testCases := []struct {
		name        string
		descriptor  registry.ToolDescriptor
		expectError error
	}{
		{
			name:        "missing_name",
			descriptor:  registry.ToolDescriptor{Command: testCommandNameConstant, Category: model.CategorySecurity, Parser: registry.ParserGenericJSON},
			expectError: registry.ErrDescriptorNameRequired,
		},
		{
			name:        "missing_command",
			descriptor:  registry.ToolDescriptor{Name: testFirstToolNameConstant, Category: model.CategorySecurity, Parser: registry.ParserGenericJSON},
			expectError: registry.ErrDescriptorCommandRequired,
		},
		{
			name:        "missing_category",
			descriptor:  registry.ToolDescriptor{Name: testFirstToolNameConstant, Command: testCommandNameConstant, Parser: registry.ParserGenericJSON},
			expectError: registry.ErrDescriptorCategoryRequired,
		},
		{
			name:        "missing_parser",
			descriptor:  registry.ToolDescriptor{Name: testFirstToolNameConstant, Command: testCommandNameConstant, Category: model.CategorySecurity},
			expectError: registry.ErrDescriptorParserRequired,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			toolRegistry := registry.NewRegistry()
			require.ErrorIs(subTest, toolRegistry.Register(testCase.descriptor), testCase.expectError)
		})
	}
}

func TestRegisterRejectsDuplicatesAndFrozenRegistry(testInstance *testing.T) {
	toolRegistry := registry.NewRegistry()
	descriptor := buildDescriptor(testFirstToolNameConstant, model.CategorySecurity, nil, 10)

	require.NoError(testInstance, toolRegistry.Register(descriptor))
	require.Error(testInstance, toolRegistry.Register(descriptor))

	toolRegistry.Freeze()
	require.ErrorIs(testInstance, toolRegistry.Register(buildDescriptor(testSecondToolNameConstant, model.CategorySecurity, nil, 10)), registry.ErrRegistryFrozen)
}

func TestCandidatesOrderingAndTieBreak(testInstance *testing.T) {
	toolRegistry := registry.NewRegistry()
	require.NoError(testInstance, toolRegistry.Register(buildDescriptor(testFirstToolNameConstant, model.CategorySecurity, nil, 20)))
	require.NoError(testInstance, toolRegistry.Register(buildDescriptor(testSecondToolNameConstant, model.CategorySecurity, nil, 10)))
	require.NoError(testInstance, toolRegistry.Register(buildDescriptor(testThirdToolNameConstant, model.CategorySecurity, nil, 10)))
	toolRegistry.Freeze()

	candidates := toolRegistry.Candidates(model.CategorySecurity, nil)
	require.Len(testInstance, candidates, 3)
	require.Equal(testInstance, testSecondToolNameConstant, candidates[0].Name)
	require.Equal(testInstance, testThirdToolNameConstant, candidates[1].Name)
	require.Equal(testInstance, testFirstToolNameConstant, candidates[2].Name)
}

func TestCandidatesFilterByLanguage(testInstance *testing.T) {
	toolRegistry := registry.NewRegistry()
	require.NoError(testInstance, toolRegistry.Register(buildDescriptor(testFirstToolNameConstant, model.CategorySecurity, []profile.Language{profile.LanguageGo}, 10)))
	require.NoError(testInstance, toolRegistry.Register(buildDescriptor(testSecondToolNameConstant, model.CategorySecurity, nil, 20)))
	toolRegistry.Freeze()

	goCandidates := toolRegistry.Candidates(model.CategorySecurity, []profile.Language{profile.LanguageGo})
	require.Len(testInstance, goCandidates, 2)

	pythonCandidates := toolRegistry.Candidates(model.CategorySecurity, []profile.Language{profile.LanguagePython})
	require.Len(testInstance, pythonCandidates, 1)
	require.Equal(testInstance, testSecondToolNameConstant, pythonCandidates[0].Name)
}

func TestOverridePriorityReordersCandidates(testInstance *testing.T) {
	toolRegistry := registry.NewRegistry()
	require.NoError(testInstance, toolRegistry.Register(buildDescriptor(testFirstToolNameConstant, model.CategorySecurity, nil, 10)))
	require.NoError(testInstance, toolRegistry.Register(buildDescriptor(testSecondToolNameConstant, model.CategorySecurity, nil, 20)))
	require.NoError(testInstance, toolRegistry.OverridePriority(testSecondToolNameConstant, 5))
	toolRegistry.Freeze()

	candidates := toolRegistry.Candidates(model.CategorySecurity, nil)
	require.Equal(testInstance, testSecondToolNameConstant, candidates[0].Name)
}

func TestRenderArguments(testInstance *testing.T) {
	descriptor := registry.ToolDescriptor{
		Name:      testFirstToolNameConstant,
		Category:  model.CategorySecurity,
		Command:   testCommandNameConstant,
		Arguments: []string{"scan", registry.ScopePlaceholder, "--root", registry.RootPlaceholder},
		Parser:    registry.ParserGenericJSON,
	}

	withoutScope := descriptor.RenderArguments("/project", "")
	require.Equal(testInstance, []string{"scan", "/project", "--root", "/project"}, withoutScope)

	withScope := descriptor.RenderArguments("/project", "/project/internal")
	require.Equal(testInstance, []string{"scan", "/project/internal", "--root", "/project"}, withScope)
}

func TestDefaultRegistryRegistersCatalog(testInstance *testing.T) {
	toolRegistry, buildError := registry.NewDefaultRegistry()
	require.NoError(testInstance, buildError)
	require.NotEmpty(testInstance, toolRegistry.Descriptors())

	goSecurityCandidates := toolRegistry.Candidates(model.CategorySecurity, []profile.Language{profile.LanguageGo})
	require.NotEmpty(testInstance, goSecurityCandidates)
	require.Equal(testInstance, "gosec", goSecurityCandidates[0].Name)
}
