package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/temirov/checkup/internal/model"
)

// Format selects the rendering of an assembled report.
type Format string

// Supported output formats.
const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

const (
	invalidFormatTemplateConstant = "invalid report format: %s"

	reportTitleConstant               = "# Project Review Report"
	summaryHeadingConstant            = "## Summary"
	findingsHeadingConstant           = "## Findings"
	recommendationsHeadingConstant    = "## Recommendations"
	runDetailsHeadingConstant         = "## Run Details"
	immediateBucketHeadingConstant    = "### Address immediately"
	currentCycleBucketHeadingConstant = "### Plan for this cycle"
	backlogBucketHeadingConstant      = "### Backlog"
	noFindingsMessageConstant         = "No findings."
	degradedCategoriesLabelConstant   = "Degraded categories (heuristic or fallback results)"
	skippedCategoriesLabelConstant    = "Skipped categories (run deadline expired)"
	toolsUsedLabelConstant            = "Tools used"
	notesLabelConstant                = "Notes"
)

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf(invalidFormatTemplateConstant, value)
	}
}

// Render writes the report to the destination in the requested format.
func Render(destination io.Writer, reviewReport model.Report, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(destination, reviewReport)
	case FormatMarkdown:
		return renderMarkdown(destination, reviewReport)
	default:
		return fmt.Errorf(invalidFormatTemplateConstant, string(format))
	}
}

func renderJSON(destination io.Writer, reviewReport model.Report) error {
	encoder := json.NewEncoder(destination)
	encoder.SetIndent("", "  ")
	return encoder.Encode(reviewReport)
}

func renderMarkdown(destination io.Writer, reviewReport model.Report) error {
	var builder strings.Builder

	builder.WriteString(reportTitleConstant + "\n\n")
	writeSummarySection(&builder, reviewReport)
	writeFindingsSection(&builder, reviewReport)
	writeRecommendationsSection(&builder, reviewReport)
	writeRunDetailsSection(&builder, reviewReport)

	_, writeError := io.WriteString(destination, builder.String())
	return writeError
}

// writeSummarySection emits a category by severity count table over the
// categories that produced findings, ordered by category name.
func writeSummarySection(builder *strings.Builder, reviewReport model.Report) {
	builder.WriteString(summaryHeadingConstant + "\n\n")

	if reviewReport.TotalFindings() == 0 {
		builder.WriteString(noFindingsMessageConstant + "\n\n")
		return
	}

	severityColumns := model.SeveritiesDescending()
	builder.WriteString("| Category |")
	for _, severity := range severityColumns {
		builder.WriteString(" " + capitalize(string(severity)) + " |")
	}
	builder.WriteString(" Total |\n")
	builder.WriteString("|---|")
	for range severityColumns {
		builder.WriteString("---|")
	}
	builder.WriteString("---|\n")

	categories := make([]model.CheckCategory, 0, len(reviewReport.Summary))
	for category := range reviewReport.Summary {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(firstIndex, secondIndex int) bool {
		return categories[firstIndex] < categories[secondIndex]
	})

	for _, category := range categories {
		severityCounts := reviewReport.Summary[category]
		builder.WriteString("| " + string(category) + " |")
		categoryTotal := 0
		for _, severity := range severityColumns {
			count := severityCounts[severity]
			categoryTotal += count
			builder.WriteString(fmt.Sprintf(" %d |", count))
		}
		builder.WriteString(fmt.Sprintf(" %d |\n", categoryTotal))
	}
	builder.WriteString("\n")
}

// writeFindingsSection groups findings by severity, then by risk area,
// preserving the aggregator's ordering inside each group.
func writeFindingsSection(builder *strings.Builder, reviewReport model.Report) {
	builder.WriteString(findingsHeadingConstant + "\n\n")

	if reviewReport.TotalFindings() == 0 {
		builder.WriteString(noFindingsMessageConstant + "\n\n")
		return
	}

	for _, severity := range model.SeveritiesDescending() {
		severityFindings := findingsWithSeverity(reviewReport.Findings, severity)
		if len(severityFindings) == 0 {
			continue
		}
		builder.WriteString("### " + capitalize(string(severity)) + "\n\n")

		for _, riskArea := range riskAreasInOrder(severityFindings) {
			builder.WriteString("#### " + string(riskArea) + "\n\n")
			for _, finding := range severityFindings {
				if finding.RiskArea != riskArea {
					continue
				}
				writeFinding(builder, finding)
			}
		}
	}
}

func findingsWithSeverity(findings []model.Finding, severity model.Severity) []model.Finding {
	matching := make([]model.Finding, 0)
	for _, finding := range findings {
		if finding.Severity == severity {
			matching = append(matching, finding)
		}
	}
	return matching
}

func riskAreasInOrder(findings []model.Finding) []model.RiskArea {
	seen := map[model.RiskArea]struct{}{}
	ordered := make([]model.RiskArea, 0)
	for _, finding := range findings {
		if _, alreadySeen := seen[finding.RiskArea]; alreadySeen {
			continue
		}
		seen[finding.RiskArea] = struct{}{}
		ordered = append(ordered, finding.RiskArea)
	}
	return ordered
}

func writeFinding(builder *strings.Builder, finding model.Finding) {
	builder.WriteString("- **" + finding.Title + "**")
	if location := formatLocation(finding); len(location) > 0 {
		builder.WriteString(" (" + location + ")")
	}
	builder.WriteString("\n")
	builder.WriteString("  - Category: " + string(finding.Category) +
		", confidence: " + string(finding.Confidence) +
		", source: " + strings.Join(finding.Provenance, ", ") + "\n")
	if len(finding.Description) > 0 {
		builder.WriteString("  - " + finding.Description + "\n")
	}
	for _, evidence := range finding.Evidence {
		builder.WriteString("  - Evidence: `" + evidence + "`\n")
	}
	if len(finding.Remediation) > 0 {
		builder.WriteString("  - Remediation: " + finding.Remediation + "\n")
	}
	builder.WriteString("\n")
}

func formatLocation(finding model.Finding) string {
	if len(finding.FilePath) == 0 {
		return ""
	}
	location := finding.FilePath
	if finding.StartLine > 0 {
		location = fmt.Sprintf("%s:%d", location, finding.StartLine)
		if finding.EndLine > finding.StartLine {
			location = fmt.Sprintf("%s-%d", location, finding.EndLine)
		}
	}
	return location
}

// writeRecommendationsSection buckets findings by urgency: critical and
// high severity must be addressed immediately, medium within the current
// cycle, low and informational go to the backlog.
func writeRecommendationsSection(builder *strings.Builder, reviewReport model.Report) {
	builder.WriteString(recommendationsHeadingConstant + "\n\n")

	if reviewReport.TotalFindings() == 0 {
		builder.WriteString(noFindingsMessageConstant + "\n\n")
		return
	}

	buckets := []struct {
		heading    string
		severities []model.Severity
	}{
		{heading: immediateBucketHeadingConstant, severities: []model.Severity{model.SeverityCritical, model.SeverityHigh}},
		{heading: currentCycleBucketHeadingConstant, severities: []model.Severity{model.SeverityMedium}},
		{heading: backlogBucketHeadingConstant, severities: []model.Severity{model.SeverityLow, model.SeverityInfo}},
	}

	for _, bucket := range buckets {
		bucketFindings := make([]model.Finding, 0)
		for _, severity := range bucket.severities {
			bucketFindings = append(bucketFindings, findingsWithSeverity(reviewReport.Findings, severity)...)
		}
		if len(bucketFindings) == 0 {
			continue
		}
		builder.WriteString(bucket.heading + "\n\n")
		for _, finding := range bucketFindings {
			line := "- " + finding.Title
			if location := formatLocation(finding); len(location) > 0 {
				line += " (" + location + ")"
			}
			builder.WriteString(line + "\n")
		}
		builder.WriteString("\n")
	}
}

func writeRunDetailsSection(builder *strings.Builder, reviewReport model.Report) {
	builder.WriteString(runDetailsHeadingConstant + "\n\n")
	metadata := reviewReport.Metadata

	builder.WriteString("- Root: `" + metadata.RootPath + "`\n")
	if len(metadata.Scope) > 0 {
		builder.WriteString("- Scope: `" + metadata.Scope + "`\n")
	}
	if len(metadata.ToolsUsed) > 0 {
		builder.WriteString("- " + toolsUsedLabelConstant + ": " + strings.Join(metadata.ToolsUsed, ", ") + "\n")
	}
	if len(metadata.DegradedCategories) > 0 {
		builder.WriteString("- " + degradedCategoriesLabelConstant + ": " + joinCategories(metadata.DegradedCategories) + "\n")
	}
	if len(metadata.SkippedCategories) > 0 {
		builder.WriteString("- " + skippedCategoriesLabelConstant + ": " + joinCategories(metadata.SkippedCategories) + "\n")
	}
	builder.WriteString("- Generated: " + metadata.GeneratedAt.Format("2006-01-02 15:04:05 MST") + "\n")

	if len(metadata.Notes) > 0 {
		builder.WriteString("\n" + notesLabelConstant + ":\n\n")
		for _, note := range metadata.Notes {
			builder.WriteString("- " + note + "\n")
		}
	}
}

func capitalize(value string) string {
	if len(value) == 0 {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func joinCategories(categories []model.CheckCategory) string {
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, string(category))
	}
	return strings.Join(names, ", ")
}
