package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/checkup/internal/analyzer"
	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/registry"
)

const (
	categoriesCommandUseConstant        = "categories"
	categoriesCommandShortConstant      = "List check categories and their registered analyzers"
	categoriesRowTemplateConstant       = "%-18s %s\n"
	categoriesFallbackLabelConstant     = "heuristics"
	categoriesSeparatorConstant         = ", "
	categoriesFallbackSuffixTemplate    = " (fallback: %s)"
	categoriesHeaderCategoryConstant    = "CATEGORY"
	categoriesHeaderAnalyzersConstant   = "ANALYZERS"
	categoriesInstalledLabelConstant    = "installed"
	categoriesNotInstalledLabelConstant = "not installed"
	categoriesToolTemplateConstant      = "%s (%s)"
)

// buildCategoriesCommand constructs the command that prints every built-in
// check category with the analyzers registered for it, in priority order,
// annotating each tool with its probe result. A nil prober selects the
// executable-path prober.
func buildCategoriesCommand(prober analyzer.Prober) (*cobra.Command, error) {
	if prober == nil {
		prober = analyzer.LookPathProber{}
	}
	command := &cobra.Command{
		Use:   categoriesCommandUseConstant,
		Short: categoriesCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runCategoriesCommand(command, prober)
		},
	}
	return command, nil
}

func runCategoriesCommand(command *cobra.Command, prober analyzer.Prober) error {
	toolRegistry, registryError := registry.NewDefaultRegistry()
	if registryError != nil {
		return registryError
	}

	output := command.OutOrStdout()
	fmt.Fprintf(output, categoriesRowTemplateConstant, categoriesHeaderCategoryConstant, categoriesHeaderAnalyzersConstant)

	for _, category := range model.AllCategories() {
		toolColumns := make([]string, 0)
		for _, descriptor := range toolRegistry.Descriptors() {
			if descriptor.Category != category {
				continue
			}
			availabilityLabel := categoriesNotInstalledLabelConstant
			if prober.Probe(command.Context(), descriptor) {
				availabilityLabel = categoriesInstalledLabelConstant
			}
			toolColumns = append(toolColumns, fmt.Sprintf(categoriesToolTemplateConstant, descriptor.Name, availabilityLabel))
		}
		analyzersColumn := strings.Join(toolColumns, categoriesSeparatorConstant)
		if len(analyzersColumn) == 0 {
			analyzersColumn = categoriesFallbackLabelConstant
		} else {
			analyzersColumn += fmt.Sprintf(categoriesFallbackSuffixTemplate, categoriesFallbackLabelConstant)
		}
		fmt.Fprintf(output, categoriesRowTemplateConstant, string(category), analyzersColumn)
	}
	return nil
}
