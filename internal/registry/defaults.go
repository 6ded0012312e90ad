package registry

import (
	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/profile"
)

// Parser reference names understood by the analyzer package.
const (
	ParserTrivyJSON       = "trivy-json"
	ParserGovulncheckJSON = "govulncheck-json"
	ParserNpmAuditJSON    = "npm-audit-json"
	ParserGosecJSON       = "gosec-json"
	ParserGenericJSON     = "generic-json"
	ParserLineText        = "line-text"
)

// DefaultDescriptors returns the built-in tool catalog. Priority ranks
// encode the preference for machine-parseable structured output: rank 10
// tools emit dedicated JSON schemas, rank 20 tools need looser parsing.
func DefaultDescriptors() []ToolDescriptor {
	return []ToolDescriptor{
		{
			Name:         "govulncheck",
			Category:     model.CategoryDependencyAudit,
			Languages:    []profile.Language{profile.LanguageGo},
			Command:      "govulncheck",
			Arguments:    []string{"-json", "./..."},
			Parser:       ParserGovulncheckJSON,
			PriorityRank: 10,
		},
		{
			Name:         "osv-scanner",
			Category:     model.CategoryDependencyAudit,
			Command:      "osv-scanner",
			Arguments:    []string{"--format", "json", ScopePlaceholder},
			Parser:       ParserGenericJSON,
			PriorityRank: 15,
		},
		{
			Name:         "npm-audit",
			Category:     model.CategoryDependencyAudit,
			Languages:    []profile.Language{profile.LanguageJavaScript},
			Command:      "npm",
			Arguments:    []string{"audit", "--json"},
			Parser:       ParserNpmAuditJSON,
			PriorityRank: 15,
		},
		{
			Name:         "trivy-fs",
			Category:     model.CategoryDependencyAudit,
			Command:      "trivy",
			Arguments:    []string{"fs", "--format", "json", "--quiet", ScopePlaceholder},
			Parser:       ParserTrivyJSON,
			PriorityRank: 20,
		},
		{
			Name:         "gosec",
			Category:     model.CategorySecurity,
			Languages:    []profile.Language{profile.LanguageGo},
			Command:      "gosec",
			Arguments:    []string{"-fmt", "json", "-quiet", "./..."},
			Parser:       ParserGosecJSON,
			PriorityRank: 10,
		},
		{
			Name:         "semgrep",
			Category:     model.CategorySecurity,
			Command:      "semgrep",
			Arguments:    []string{"scan", "--config", "auto", "--json", ScopePlaceholder},
			Parser:       ParserGenericJSON,
			PriorityRank: 15,
		},
		{
			Name:         "bandit",
			Category:     model.CategorySecurity,
			Languages:    []profile.Language{profile.LanguagePython},
			Command:      "bandit",
			Arguments:    []string{"-r", "-f", "json", ScopePlaceholder},
			Parser:       ParserGenericJSON,
			PriorityRank: 15,
		},
		{
			Name:         "gocyclo",
			Category:     model.CategoryComplexity,
			Languages:    []profile.Language{profile.LanguageGo},
			Command:      "gocyclo",
			Arguments:    []string{"-over", "15", ScopePlaceholder},
			Parser:       ParserLineText,
			PriorityRank: 10,
		},
		{
			Name:         "radon",
			Category:     model.CategoryComplexity,
			Languages:    []profile.Language{profile.LanguagePython},
			Command:      "radon",
			Arguments:    []string{"cc", "--json", ScopePlaceholder},
			Parser:       ParserGenericJSON,
			PriorityRank: 10,
		},
		{
			Name:         "jscpd",
			Category:     model.CategoryDuplication,
			Command:      "jscpd",
			Arguments:    []string{"--reporters", "json", "--silent", ScopePlaceholder},
			Parser:       ParserGenericJSON,
			PriorityRank: 10,
		},
		{
			Name:         "dupl",
			Category:     model.CategoryDuplication,
			Languages:    []profile.Language{profile.LanguageGo},
			Command:      "dupl",
			Arguments:    []string{"-t", "60", ScopePlaceholder},
			Parser:       ParserLineText,
			PriorityRank: 20,
		},
		{
			Name:         "deadcode",
			Category:     model.CategoryDeadCode,
			Languages:    []profile.Language{profile.LanguageGo},
			Command:      "deadcode",
			Arguments:    []string{"-json", "./..."},
			Parser:       ParserGenericJSON,
			PriorityRank: 10,
		},
		{
			Name:         "vulture",
			Category:     model.CategoryDeadCode,
			Languages:    []profile.Language{profile.LanguagePython},
			Command:      "vulture",
			Arguments:    []string{ScopePlaceholder},
			Parser:       ParserLineText,
			PriorityRank: 15,
		},
		{
			Name:         "misspell",
			Category:     model.CategoryDocumentation,
			Command:      "misspell",
			Arguments:    []string{ScopePlaceholder},
			Parser:       ParserLineText,
			PriorityRank: 20,
		},
	}
}

// NewDefaultRegistry builds a registry preloaded with the built-in catalog.
func NewDefaultRegistry() (*Registry, error) {
	toolRegistry := NewRegistry()
	for _, descriptor := range DefaultDescriptors() {
		if registrationError := toolRegistry.Register(descriptor); registrationError != nil {
			return nil, registrationError
		}
	}
	return toolRegistry, nil
}
