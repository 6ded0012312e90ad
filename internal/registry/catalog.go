package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/profile"
)

const (
	catalogLoadErrorTemplateConstant       = "failed to load tool catalog: %w"
	catalogParseErrorTemplateConstant      = "failed to parse tool catalog: %w"
	catalogPathRequiredMessageConstant     = "tool catalog path must be provided"
	catalogToolNameRequiredMessage         = "tool catalog entries must name a tool"
	catalogOverrideNameRequiredMessage     = "tool catalog overrides must name a tool"
	catalogUnknownParserTemplateConstant   = "tool %s references unknown parser %s"
	catalogInvalidCategoryTemplateConstant = "tool %s: %w"
)

// CatalogToolConfiguration describes one additional tool supplied through a
// catalog file.
type CatalogToolConfiguration struct {
	Name      string   `yaml:"name"`
	Category  string   `yaml:"category"`
	Languages []string `yaml:"languages"`
	Command   string   `yaml:"command"`
	Arguments []string `yaml:"arguments"`
	Parser    string   `yaml:"parser"`
	Priority  int      `yaml:"priority"`
}

// CatalogOverrideConfiguration adjusts the priority of a built-in tool.
type CatalogOverrideConfiguration struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
}

// Catalog is the parsed representation of a tool catalog file.
type Catalog struct {
	Tools     []CatalogToolConfiguration     `yaml:"tools"`
	Overrides []CatalogOverrideConfiguration `yaml:"overrides"`
}

var knownParserNames = map[string]struct{}{
	ParserTrivyJSON:       {},
	ParserGovulncheckJSON: {},
	ParserNpmAuditJSON:    {},
	ParserGosecJSON:       {},
	ParserGenericJSON:     {},
	ParserLineText:        {},
}

// LoadCatalog reads a YAML catalog file and performs basic validation.
func LoadCatalog(filePath string) (Catalog, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Catalog{}, errors.New(catalogPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Catalog{}, fmt.Errorf(catalogLoadErrorTemplateConstant, readError)
	}

	var catalog Catalog
	if unmarshalError := yaml.Unmarshal(contentBytes, &catalog); unmarshalError != nil {
		return Catalog{}, fmt.Errorf(catalogParseErrorTemplateConstant, unmarshalError)
	}

	for _, toolConfiguration := range catalog.Tools {
		if len(strings.TrimSpace(toolConfiguration.Name)) == 0 {
			return Catalog{}, errors.New(catalogToolNameRequiredMessage)
		}
		if _, parserKnown := knownParserNames[toolConfiguration.Parser]; !parserKnown {
			return Catalog{}, fmt.Errorf(catalogUnknownParserTemplateConstant, toolConfiguration.Name, toolConfiguration.Parser)
		}
	}
	for _, overrideConfiguration := range catalog.Overrides {
		if len(strings.TrimSpace(overrideConfiguration.Name)) == 0 {
			return Catalog{}, errors.New(catalogOverrideNameRequiredMessage)
		}
	}

	return catalog, nil
}

// Apply registers the catalog's tools and priority overrides against the
// supplied registry. Category names outside the built-in set are accepted
// verbatim, which is how new check categories are introduced.
func (catalog Catalog) Apply(toolRegistry *Registry) error {
	for _, toolConfiguration := range catalog.Tools {
		category, parseError := model.ParseCategory(toolConfiguration.Category)
		if parseError != nil {
			trimmedCategory := strings.TrimSpace(strings.ToLower(toolConfiguration.Category))
			if len(trimmedCategory) == 0 {
				return fmt.Errorf(catalogInvalidCategoryTemplateConstant, toolConfiguration.Name, parseError)
			}
			category = model.CheckCategory(trimmedCategory)
		}

		languages := make([]profile.Language, 0, len(toolConfiguration.Languages))
		for _, languageName := range toolConfiguration.Languages {
			languages = append(languages, profile.Language(strings.ToLower(strings.TrimSpace(languageName))))
		}

		registrationError := toolRegistry.Register(ToolDescriptor{
			Name:         toolConfiguration.Name,
			Category:     category,
			Languages:    languages,
			Command:      toolConfiguration.Command,
			Arguments:    toolConfiguration.Arguments,
			Parser:       toolConfiguration.Parser,
			PriorityRank: toolConfiguration.Priority,
		})
		if registrationError != nil {
			return registrationError
		}
	}

	for _, overrideConfiguration := range catalog.Overrides {
		if overrideError := toolRegistry.OverridePriority(overrideConfiguration.Name, overrideConfiguration.Priority); overrideError != nil {
			return overrideError
		}
	}

	return nil
}
