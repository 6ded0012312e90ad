package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/checkup/internal/analyzer"
	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/registry"
)

const sampleTrivyOutputConstant = `{
  "Results": [
    {
      "Target": "package-lock.json",
      "Vulnerabilities": [
        {
          "VulnerabilityID": "CVE-2021-44906",
          "PkgName": "minimist",
          "InstalledVersion": "0.0.8",
          "FixedVersion": "1.2.6",
          "Title": "prototype pollution in minimist",
          "Description": "minimist is vulnerable to prototype pollution",
          "Severity": "CRITICAL",
          "PrimaryURL": "https://avd.aquasec.com/nvd/cve-2021-44906"
        }
      ]
    }
  ]
}`

const sampleGosecOutputConstant = `{
  "Issues": [
    {
      "severity": "HIGH",
      "confidence": "HIGH",
      "rule_id": "G401",
      "details": "Use of weak cryptographic primitive",
      "file": "internal/hash/hash.go",
      "code": "md5.New()",
      "line": "14"
    }
  ]
}`

const sampleNpmAuditOutputConstant = `{
  "vulnerabilities": {
    "minimist": {
      "name": "minimist",
      "severity": "moderate",
      "range": "<1.2.6",
      "via": [
        {"title": "Prototype Pollution", "url": "https://example.org/advisory", "severity": "moderate"}
      ]
    }
  }
}`

const sampleGovulncheckOutputConstant = `{"osv": {"id": "GO-2023-1234", "summary": "denial of service in example.com/mod", "details": "crafted input causes a panic"}}
{"finding": {"osv": "GO-2023-1234", "trace": [{"module": "example.com/mod"}]}}`

const sampleGenericArrayOutputConstant = `[
  {"check_id": "rule.one", "severity": "high", "message": "dangerous call", "path": "app/main.py", "line": 8}
]`

const sampleLineTextOutputConstant = "cmd/run.go:42:7: exported function Run should have comment\ninternal/util.go:9: misspelled word\n"

func TestParserForRejectsUnknownName(testInstance *testing.T) {
	_, parserError := analyzer.ParserFor("mystery-format")
	require.Error(testInstance, parserError)
}

func TestTrivyParser(testInstance *testing.T) {
	parser, parserError := analyzer.ParserFor(registry.ParserTrivyJSON)
	require.NoError(testInstance, parserError)

	findings, parseError := parser.Parse(model.CategoryDependencyAudit, "trivy-fs", []byte(sampleTrivyOutputConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, findings, 1)
	require.Equal(testInstance, model.SeverityCritical, findings[0].Severity)
	require.Equal(testInstance, "package-lock.json", findings[0].FilePath)
	require.Equal(testInstance, []string{"trivy-fs"}, findings[0].Provenance)
	require.Contains(testInstance, findings[0].Remediation, "1.2.6")
}

func TestGosecParser(testInstance *testing.T) {
	parser, parserError := analyzer.ParserFor(registry.ParserGosecJSON)
	require.NoError(testInstance, parserError)

	findings, parseError := parser.Parse(model.CategorySecurity, "gosec", []byte(sampleGosecOutputConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, findings, 1)
	require.Equal(testInstance, model.SeverityHigh, findings[0].Severity)
	require.Equal(testInstance, 14, findings[0].StartLine)
	require.Equal(testInstance, model.ConfidenceHigh, findings[0].Confidence)
}

func TestNpmAuditParser(testInstance *testing.T) {
	parser, parserError := analyzer.ParserFor(registry.ParserNpmAuditJSON)
	require.NoError(testInstance, parserError)

	findings, parseError := parser.Parse(model.CategoryDependencyAudit, "npm-audit", []byte(sampleNpmAuditOutputConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, findings, 1)
	require.Equal(testInstance, model.SeverityMedium, findings[0].Severity)
	require.Contains(testInstance, findings[0].Title, "Prototype Pollution")
}

func TestGovulncheckParser(testInstance *testing.T) {
	parser, parserError := analyzer.ParserFor(registry.ParserGovulncheckJSON)
	require.NoError(testInstance, parserError)

	findings, parseError := parser.Parse(model.CategoryDependencyAudit, "govulncheck", []byte(sampleGovulncheckOutputConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, findings, 1)
	require.Contains(testInstance, findings[0].Title, "denial of service")
	require.Contains(testInstance, findings[0].Evidence[0], "GO-2023-1234")
}

func TestGenericJSONParser(testInstance *testing.T) {
	parser, parserError := analyzer.ParserFor(registry.ParserGenericJSON)
	require.NoError(testInstance, parserError)

	findings, parseError := parser.Parse(model.CategorySecurity, "semgrep", []byte(sampleGenericArrayOutputConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, findings, 1)
	require.Equal(testInstance, "app/main.py", findings[0].FilePath)
	require.Equal(testInstance, 8, findings[0].StartLine)
}

func TestLineTextParser(testInstance *testing.T) {
	parser, parserError := analyzer.ParserFor(registry.ParserLineText)
	require.NoError(testInstance, parserError)

	findings, parseError := parser.Parse(model.CategoryDocumentation, "misspell", []byte(sampleLineTextOutputConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, findings, 2)
	require.Equal(testInstance, "cmd/run.go", findings[0].FilePath)
	require.Equal(testInstance, 42, findings[0].StartLine)
	require.Equal(testInstance, "internal/util.go", findings[1].FilePath)
	require.Equal(testInstance, 9, findings[1].StartLine)
}

func TestParsersRejectMalformedOutput(testInstance *testing.T) {
	testCases := []struct {
		name       string
		parserName string
		output     string
	}{
		{name: "trivy_malformed", parserName: registry.ParserTrivyJSON, output: "not json"},
		{name: "gosec_malformed", parserName: registry.ParserGosecJSON, output: "{}"},
		{name: "npm_malformed", parserName: registry.ParserNpmAuditJSON, output: "[]"},
		{name: "generic_malformed", parserName: registry.ParserGenericJSON, output: "plain text output"},
		{name: "line_text_unstructured", parserName: registry.ParserLineText, output: "completely unstructured output"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			parser, parserError := analyzer.ParserFor(testCase.parserName)
			require.NoError(subTest, parserError)
			_, parseError := parser.Parse(model.CategorySecurity, "tool", []byte(testCase.output))
			require.Error(subTest, parseError)
		})
	}
}
