package analyzer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/checkup/internal/model"
	"github.com/temirov/checkup/internal/registry"
)

const (
	unknownParserTemplateConstant   = "unknown output parser: %s"
	parseFailureTemplateConstant    = "failed to parse %s output: %w"
	emptyOutputMessageConstant      = "analyzer produced no parseable output"
	dependencyRiskTagConstant       = "dependency"
	vulnerabilityRiskTagConstant    = "vulnerability"
	remediationUpgradeTemplate      = "upgrade %s to %s"
	remediationReviewConstant       = "review the reported occurrence and address the underlying issue"
	defaultLineTextSeverityConstant = model.SeverityMedium
)

// OutputParser converts raw analyzer output into normalized findings.
type OutputParser interface {
	Parse(category model.CheckCategory, toolName string, output []byte) ([]model.Finding, error)
}

var outputParsers = map[string]OutputParser{
	registry.ParserTrivyJSON:       trivyJSONParser{},
	registry.ParserGovulncheckJSON: govulncheckJSONParser{},
	registry.ParserNpmAuditJSON:    npmAuditJSONParser{},
	registry.ParserGosecJSON:       gosecJSONParser{},
	registry.ParserGenericJSON:     genericJSONParser{},
	registry.ParserLineText:        lineTextParser{},
}

// ParserFor resolves a parser reference from a tool descriptor.
func ParserFor(parserName string) (OutputParser, error) {
	parser, exists := outputParsers[parserName]
	if !exists {
		return nil, fmt.Errorf(unknownParserTemplateConstant, parserName)
	}
	return parser, nil
}

// trivyJSONParser understands trivy's filesystem scan report: results with
// vulnerability and misconfiguration lists.
type trivyJSONParser struct{}

type trivyReportDocument struct {
	Results []struct {
		Target          string `json:"Target"`
		Vulnerabilities []struct {
			VulnerabilityID  string `json:"VulnerabilityID"`
			PkgName          string `json:"PkgName"`
			InstalledVersion string `json:"InstalledVersion"`
			FixedVersion     string `json:"FixedVersion"`
			Title            string `json:"Title"`
			Description      string `json:"Description"`
			Severity         string `json:"Severity"`
			PrimaryURL       string `json:"PrimaryURL"`
		} `json:"Vulnerabilities"`
		Misconfigurations []struct {
			ID            string `json:"ID"`
			Title         string `json:"Title"`
			Description   string `json:"Description"`
			Severity      string `json:"Severity"`
			Resolution    string `json:"Resolution"`
			CauseMetadata struct {
				StartLine int `json:"StartLine"`
				EndLine   int `json:"EndLine"`
			} `json:"CauseMetadata"`
		} `json:"Misconfigurations"`
	} `json:"Results"`
}

func (trivyJSONParser) Parse(category model.CheckCategory, toolName string, output []byte) ([]model.Finding, error) {
	var document trivyReportDocument
	if unmarshalError := json.Unmarshal(output, &document); unmarshalError != nil {
		return nil, fmt.Errorf(parseFailureTemplateConstant, toolName, unmarshalError)
	}

	var findings []model.Finding
	for _, result := range document.Results {
		for _, vulnerability := range result.Vulnerabilities {
			severity, severityError := model.ParseSeverity(vulnerability.Severity)
			if severityError != nil {
				severity = model.SeverityInfo
			}
			title := vulnerability.Title
			if len(title) == 0 {
				title = fmt.Sprintf("%s in %s", vulnerability.VulnerabilityID, vulnerability.PkgName)
			}
			remediation := remediationReviewConstant
			if len(vulnerability.FixedVersion) > 0 {
				remediation = fmt.Sprintf(remediationUpgradeTemplate, vulnerability.PkgName, vulnerability.FixedVersion)
			}
			findings = append(findings, model.Finding{
				Category:    category,
				Severity:    severity,
				FilePath:    result.Target,
				Title:       title,
				Description: vulnerability.Description,
				Evidence:    []string{fmt.Sprintf("%s %s (%s)", vulnerability.PkgName, vulnerability.InstalledVersion, vulnerability.VulnerabilityID)},
				Remediation: remediation,
				Provenance:  []string{toolName},
				Confidence:  model.ConfidenceHigh,
				RiskTags:    []string{dependencyRiskTagConstant, vulnerabilityRiskTagConstant},
			})
		}
		for _, misconfiguration := range result.Misconfigurations {
			severity, severityError := model.ParseSeverity(misconfiguration.Severity)
			if severityError != nil {
				severity = model.SeverityInfo
			}
			remediation := misconfiguration.Resolution
			if len(remediation) == 0 {
				remediation = remediationReviewConstant
			}
			findings = append(findings, model.Finding{
				Category:    category,
				Severity:    severity,
				FilePath:    result.Target,
				StartLine:   misconfiguration.CauseMetadata.StartLine,
				EndLine:     misconfiguration.CauseMetadata.EndLine,
				Title:       misconfiguration.Title,
				Description: misconfiguration.Description,
				Remediation: remediation,
				Provenance:  []string{toolName},
				Confidence:  model.ConfidenceHigh,
			})
		}
	}
	return findings, nil
}

// govulncheckJSONParser understands govulncheck's streamed JSON objects and
// extracts the OSV advisories relevant to the scanned module.
type govulncheckJSONParser struct{}

type govulncheckStreamEntry struct {
	OSV *struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
		Details string `json:"details"`
	} `json:"osv"`
	Finding *struct {
		OSV   string `json:"osv"`
		Trace []struct {
			Module string `json:"module"`
		} `json:"trace"`
	} `json:"finding"`
}

func (govulncheckJSONParser) Parse(category model.CheckCategory, toolName string, output []byte) ([]model.Finding, error) {
	decoder := json.NewDecoder(strings.NewReader(string(output)))

	advisories := map[string]govulncheckStreamEntry{}
	reached := map[string]string{}
	decodedAny := false
	for decoder.More() {
		var entry govulncheckStreamEntry
		if decodeError := decoder.Decode(&entry); decodeError != nil {
			return nil, fmt.Errorf(parseFailureTemplateConstant, toolName, decodeError)
		}
		decodedAny = true
		if entry.OSV != nil {
			advisories[entry.OSV.ID] = entry
		}
		if entry.Finding != nil {
			module := ""
			if len(entry.Finding.Trace) > 0 {
				module = entry.Finding.Trace[0].Module
			}
			reached[entry.Finding.OSV] = module
		}
	}
	if !decodedAny {
		return nil, fmt.Errorf(parseFailureTemplateConstant, toolName, fmt.Errorf(emptyOutputMessageConstant))
	}

	var findings []model.Finding
	for advisoryID, module := range reached {
		entry, known := advisories[advisoryID]
		title := advisoryID
		description := ""
		if known {
			if len(entry.OSV.Summary) > 0 {
				title = entry.OSV.Summary
			}
			description = entry.OSV.Details
		}
		evidence := advisoryID
		if len(module) > 0 {
			evidence = fmt.Sprintf("%s via %s", advisoryID, module)
		}
		findings = append(findings, model.Finding{
			Category:    category,
			Severity:    model.SeverityHigh,
			Title:       title,
			Description: description,
			Evidence:    []string{evidence},
			Remediation: remediationReviewConstant,
			Provenance:  []string{toolName},
			Confidence:  model.ConfidenceHigh,
			RiskTags:    []string{dependencyRiskTagConstant, vulnerabilityRiskTagConstant},
		})
	}
	return findings, nil
}

// npmAuditJSONParser understands the npm v7+ audit report shape.
type npmAuditJSONParser struct{}

type npmAuditDocument struct {
	Vulnerabilities map[string]struct {
		Name     string          `json:"name"`
		Severity string          `json:"severity"`
		Range    string          `json:"range"`
		Via      json.RawMessage `json:"via"`
	} `json:"vulnerabilities"`
}

type npmAuditViaDetail struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Severity string `json:"severity"`
}

func (npmAuditJSONParser) Parse(category model.CheckCategory, toolName string, output []byte) ([]model.Finding, error) {
	var document npmAuditDocument
	if unmarshalError := json.Unmarshal(output, &document); unmarshalError != nil {
		return nil, fmt.Errorf(parseFailureTemplateConstant, toolName, unmarshalError)
	}
	if document.Vulnerabilities == nil {
		return nil, fmt.Errorf(parseFailureTemplateConstant, toolName, fmt.Errorf(emptyOutputMessageConstant))
	}

	var findings []model.Finding
	for packageName, vulnerability := range document.Vulnerabilities {
		severity, severityError := model.ParseSeverity(vulnerability.Severity)
		if severityError != nil {
			severity = model.SeverityInfo
		}

		title := fmt.Sprintf("vulnerable dependency %s %s", packageName, vulnerability.Range)
		description := ""
		// via entries are either advisory objects or plain package names.
		var rawViaEntries []json.RawMessage
		if viaError := json.Unmarshal(vulnerability.Via, &rawViaEntries); viaError == nil {
			for _, rawEntry := range rawViaEntries {
				var detail npmAuditViaDetail
				if detailError := json.Unmarshal(rawEntry, &detail); detailError == nil && len(detail.Title) > 0 {
					title = fmt.Sprintf("%s: %s", packageName, detail.Title)
					description = detail.URL
					break
				}
			}
		}

		findings = append(findings, model.Finding{
			Category:    category,
			Severity:    severity,
			Title:       title,
			Description: description,
			Evidence:    []string{fmt.Sprintf("%s (vulnerable range %s)", packageName, vulnerability.Range)},
			Remediation: remediationReviewConstant,
			Provenance:  []string{toolName},
			Confidence:  model.ConfidenceHigh,
			RiskTags:    []string{dependencyRiskTagConstant, vulnerabilityRiskTagConstant},
		})
	}
	return findings, nil
}

// gosecJSONParser understands gosec's issue report.
type gosecJSONParser struct{}

type gosecDocument struct {
	Issues []struct {
		Severity   string `json:"severity"`
		Confidence string `json:"confidence"`
		RuleID     string `json:"rule_id"`
		Details    string `json:"details"`
		File       string `json:"file"`
		Code       string `json:"code"`
		Line       string `json:"line"`
	} `json:"Issues"`
}

func (gosecJSONParser) Parse(category model.CheckCategory, toolName string, output []byte) ([]model.Finding, error) {
	var document gosecDocument
	if unmarshalError := json.Unmarshal(output, &document); unmarshalError != nil {
		return nil, fmt.Errorf(parseFailureTemplateConstant, toolName, unmarshalError)
	}
	if document.Issues == nil {
		return nil, fmt.Errorf(parseFailureTemplateConstant, toolName, fmt.Errorf(emptyOutputMessageConstant))
	}

	var findings []model.Finding
	for _, issue := range document.Issues {
		severity, severityError := model.ParseSeverity(issue.Severity)
		if severityError != nil {
			severity = model.SeverityMedium
		}
		confidence := model.ConfidenceMedium
		if strings.EqualFold(issue.Confidence, string(model.ConfidenceHigh)) {
			confidence = model.ConfidenceHigh
		}
		startLine, _ := strconv.Atoi(strings.Split(issue.Line, "-")[0])

		findings = append(findings, model.Finding{
			Category:    category,
			Severity:    severity,
			FilePath:    issue.File,
			StartLine:   startLine,
			Title:       fmt.Sprintf("%s: %s", issue.RuleID, issue.Details),
			Evidence:    []string{strings.TrimSpace(issue.Code)},
			Remediation: remediationReviewConstant,
			Provenance:  []string{toolName},
			Confidence:  confidence,
		})
	}
	return findings, nil
}

// genericJSONParser accepts a tolerant list-of-issues schema: either a top
// level array or an object wrapping the list under issues/results/findings.
type genericJSONParser struct{}

type genericIssueDocument struct {
	Issues   []genericIssueEntry `json:"issues"`
	Results  []genericIssueEntry `json:"results"`
	Findings []genericIssueEntry `json:"findings"`
}

type genericIssueEntry struct {
	RuleID      string `json:"rule_id"`
	CheckID     string `json:"check_id"`
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Description string `json:"description"`
	File        string `json:"file"`
	Path        string `json:"path"`
	FileName    string `json:"filename"`
	Line        int    `json:"line"`
	StartLine   int    `json:"start_line"`
}

func (genericJSONParser) Parse(category model.CheckCategory, toolName string, output []byte) ([]model.Finding, error) {
	var entries []genericIssueEntry
	if unmarshalError := json.Unmarshal(output, &entries); unmarshalError != nil {
		var document genericIssueDocument
		if documentError := json.Unmarshal(output, &document); documentError != nil {
			return nil, fmt.Errorf(parseFailureTemplateConstant, toolName, documentError)
		}
		entries = append(entries, document.Issues...)
		entries = append(entries, document.Results...)
		entries = append(entries, document.Findings...)
	}

	var findings []model.Finding
	for _, entry := range entries {
		severity, severityError := model.ParseSeverity(entry.Severity)
		if severityError != nil {
			severity = model.SeverityMedium
		}
		title := firstNonEmptyString(entry.Title, entry.Message, entry.RuleID, entry.CheckID, entry.ID)
		if len(title) == 0 {
			continue
		}
		startLine := entry.StartLine
		if startLine == 0 {
			startLine = entry.Line
		}
		findings = append(findings, model.Finding{
			Category:    category,
			Severity:    severity,
			FilePath:    firstNonEmptyString(entry.File, entry.Path, entry.FileName),
			StartLine:   startLine,
			Title:       title,
			Description: entry.Description,
			Remediation: remediationReviewConstant,
			Provenance:  []string{toolName},
			Confidence:  model.ConfidenceHigh,
		})
	}
	return findings, nil
}

// lineTextParser handles tools that print one issue per line in the common
// "path:line[:column]: message" shape.
type lineTextParser struct{}

func (lineTextParser) Parse(category model.CheckCategory, toolName string, output []byte) ([]model.Finding, error) {
	var findings []model.Finding
	for _, rawLine := range strings.Split(string(output), "\n") {
		line := strings.TrimSpace(rawLine)
		if len(line) == 0 {
			continue
		}
		filePath, lineNumber, message, matched := splitPathLineMessage(line)
		if !matched {
			continue
		}
		findings = append(findings, model.Finding{
			Category:    category,
			Severity:    defaultLineTextSeverityConstant,
			FilePath:    filePath,
			StartLine:   lineNumber,
			Title:       message,
			Evidence:    []string{line},
			Remediation: remediationReviewConstant,
			Provenance:  []string{toolName},
			Confidence:  model.ConfidenceMedium,
		})
	}
	if len(findings) == 0 && len(strings.TrimSpace(string(output))) > 0 {
		return nil, fmt.Errorf(parseFailureTemplateConstant, toolName, fmt.Errorf(emptyOutputMessageConstant))
	}
	return findings, nil
}

func splitPathLineMessage(line string) (string, int, string, bool) {
	segments := strings.SplitN(line, ":", 4)
	if len(segments) < 3 {
		return "", 0, "", false
	}
	lineNumber, numberError := strconv.Atoi(strings.TrimSpace(segments[1]))
	if numberError != nil {
		return "", 0, "", false
	}
	message := strings.TrimSpace(segments[2])
	if len(segments) == 4 {
		// Third segment may be a column number preceding the message.
		if _, columnError := strconv.Atoi(strings.TrimSpace(segments[2])); columnError == nil {
			message = strings.TrimSpace(segments[3])
		} else {
			message = strings.TrimSpace(segments[2] + ":" + segments[3])
		}
	}
	if len(message) == 0 {
		return "", 0, "", false
	}
	return segments[0], lineNumber, message, true
}

func firstNonEmptyString(values ...string) string {
	for _, value := range values {
		if len(strings.TrimSpace(value)) > 0 {
			return value
		}
	}
	return ""
}
