package analyzer

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/temirov/checkup/internal/model"
)

// Source file extensions scanned by default content rules.
var defaultSourceExtensions = []string{
	".go", ".js", ".jsx", ".ts", ".tsx", ".py", ".rb", ".java", ".cs", ".rs",
	".php", ".sh", ".yaml", ".yml", ".tf", ".json", ".toml", ".env",
}

var codeOnlyExtensions = []string{
	".go", ".js", ".jsx", ".ts", ".tsx", ".py", ".rb", ".java", ".cs", ".rs", ".php",
}

// DefaultRuleSet returns the built-in heuristic rules. Like tool priority
// ranks, these are policy data: callers may supply their own set.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Content: []ContentRule{
			{
				Category:       model.CategorySecurity,
				Pattern:        regexp.MustCompile(`(?i)(password|passwd|secret|api[-_]?key|auth[-_]?token)\s*[:=]\s*["'][^"']{4,}["']`),
				FileExtensions: defaultSourceExtensions,
				Severity:       model.SeverityHigh,
				Confidence:     model.ConfidenceMedium,
				Title:          "possible hardcoded credential",
				Remediation:    "move the secret into environment configuration or a secret store",
				RiskTags:       []string{"auth", "secret"},
			},
			{
				Category:       model.CategorySecurity,
				Pattern:        regexp.MustCompile(`http://[a-zA-Z0-9.-]+`),
				FileExtensions: defaultSourceExtensions,
				Severity:       model.SeverityLow,
				Confidence:     model.ConfidenceLow,
				Title:          "cleartext http url",
				Remediation:    "prefer https endpoints",
				RiskTags:       []string{"http", "external"},
			},
			{
				Category:       model.CategorySecurity,
				Pattern:        regexp.MustCompile(`(?i)insecureskipverify\s*:\s*true`),
				FileExtensions: []string{".go"},
				Severity:       model.SeverityHigh,
				Confidence:     model.ConfidenceMedium,
				Title:          "tls certificate verification disabled",
				Remediation:    "remove InsecureSkipVerify or scope it to test builds",
				RiskTags:       []string{"http", "external"},
			},
			{
				Category:       model.CategorySecurity,
				Pattern:        regexp.MustCompile(`(?i)\beval\s*\(`),
				FileExtensions: []string{".js", ".jsx", ".ts", ".tsx", ".py", ".rb", ".php"},
				Severity:       model.SeverityMedium,
				Confidence:     model.ConfidenceLow,
				Title:          "dynamic code evaluation",
				Remediation:    "avoid eval on data that may contain user input",
				RiskTags:       []string{"input"},
			},
			{
				Category:       model.CategorySecurity,
				Pattern:        regexp.MustCompile(`(?i)\b(md5|sha1)\s*\(|crypto/(md5|sha1)`),
				FileExtensions: codeOnlyExtensions,
				Severity:       model.SeverityLow,
				Confidence:     model.ConfidenceLow,
				Title:          "weak hash algorithm",
				Remediation:    "use sha-256 or stronger for security-sensitive hashing",
			},
			{
				Category:       model.CategoryDependencyAudit,
				Pattern:        regexp.MustCompile(`"[^"]+"\s*:\s*"\s*(\*|latest)\s*"`),
				FileExtensions: []string{".json"},
				Severity:       model.SeverityMedium,
				Confidence:     model.ConfidenceMedium,
				Title:          "unpinned dependency version",
				Remediation:    "pin the dependency to a specific version range",
				RiskTags:       []string{"dependency"},
			},
			{
				Category:       model.CategoryDependencyAudit,
				Pattern:        regexp.MustCompile(`(?i)(git\+http|git://)`),
				FileExtensions: []string{".json", ".txt", ".toml"},
				Severity:       model.SeverityMedium,
				Confidence:     model.ConfidenceLow,
				Title:          "dependency fetched over insecure transport",
				Remediation:    "use https git urls for dependency sources",
				RiskTags:       []string{"dependency", "external"},
			},
			{
				Category:       model.CategoryComplexity,
				Pattern:        regexp.MustCompile(`^(\t{5,}|[ ]{20,})\S`),
				FileExtensions: codeOnlyExtensions,
				Severity:       model.SeverityLow,
				Confidence:     model.ConfidenceLow,
				Title:          "deeply nested code",
				Remediation:    "extract helper functions to flatten nesting",
			},
			{
				Category:       model.CategoryDeadCode,
				Pattern:        regexp.MustCompile(`^\s*(//|#)\s*(func |def |if |for |while |return\b)`),
				FileExtensions: codeOnlyExtensions,
				Severity:       model.SeverityInfo,
				Confidence:     model.ConfidenceLow,
				Title:          "commented-out code",
				Remediation:    "delete dead code; version control preserves history",
			},
			{
				Category:       model.CategoryDuplication,
				Pattern:        regexp.MustCompile(`(?i)(//|#)\s*(copied from|copy of|duplicated from)`),
				FileExtensions: codeOnlyExtensions,
				Severity:       model.SeverityInfo,
				Confidence:     model.ConfidenceLow,
				Title:          "self-declared duplicated block",
				Remediation:    "extract the shared logic into one place",
			},
			{
				Category:       model.CategoryDocumentation,
				Pattern:        regexp.MustCompile(`(?i)\b(TODO|FIXME|XXX|HACK)\b`),
				FileExtensions: codeOnlyExtensions,
				Severity:       model.SeverityInfo,
				Confidence:     model.ConfidenceMedium,
				Title:          "unresolved marker comment",
				Remediation:    "resolve the marker or track it in the issue tracker",
			},
		},
		Absence: []AbsenceRule{
			{
				Category:     model.CategoryDocumentation,
				FilePatterns: []string{"README*", "readme*"},
				Severity:     model.SeverityMedium,
				Title:        "project has no readme",
				Remediation:  "add a README describing purpose, setup, and usage",
			},
			{
				Category:     model.CategoryTestCoverage,
				FilePatterns: []string{"*_test.go", "*.test.js", "*.test.ts", "*.spec.js", "*.spec.ts", "test_*.py", "*_test.py", "*_spec.rb"},
				Severity:     model.SeverityHigh,
				Title:        "no automated tests detected",
				Remediation:  "add a test suite covering the core behavior",
			},
		},
	}
}

// NewDefaultHeuristics builds the per-category fallback analyzers for every
// requested category using the built-in rule set.
func NewDefaultHeuristics(categories []model.CheckCategory, logger *zap.Logger) map[model.CheckCategory]Analyzer {
	ruleSet := DefaultRuleSet()
	heuristics := make(map[model.CheckCategory]Analyzer, len(categories))
	for _, category := range categories {
		heuristics[category] = NewHeuristic(category, ruleSet, logger)
	}
	return heuristics
}
