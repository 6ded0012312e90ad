package aggregate

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/checkup/internal/engine"
	"github.com/temirov/checkup/internal/model"
)

const (
	invalidFindingDroppedMessageConstant = "dropping finding that failed validation"
	findingTitleFieldNameConstant        = "finding_title"
	findingCategoryFieldNameConstant     = "finding_category"
	validationFailureFieldNameConstant   = "validation_failure"
)

// riskAreaMarkers maps lowercase substrings of a finding's path, title, or
// risk tags to the risk area they indicate. Order matters: earlier entries
// win when several match.
var riskAreaMarkers = []struct {
	marker string
	area   model.RiskArea
}{
	{marker: "auth", area: model.RiskAreaAuthentication},
	{marker: "login", area: model.RiskAreaAuthentication},
	{marker: "password", area: model.RiskAreaAuthentication},
	{marker: "credential", area: model.RiskAreaAuthentication},
	{marker: "token", area: model.RiskAreaAuthentication},
	{marker: "session", area: model.RiskAreaAuthentication},
	{marker: "inject", area: model.RiskAreaInputValidation},
	{marker: "sanitiz", area: model.RiskAreaInputValidation},
	{marker: "validat", area: model.RiskAreaInputValidation},
	{marker: "xss", area: model.RiskAreaInputValidation},
	{marker: "traversal", area: model.RiskAreaInputValidation},
	{marker: "sql", area: model.RiskAreaDataAccess},
	{marker: "database", area: model.RiskAreaDataAccess},
	{marker: "query", area: model.RiskAreaDataAccess},
	{marker: "repository", area: model.RiskAreaDataAccess},
	{marker: "storage", area: model.RiskAreaDataAccess},
	{marker: "panic", area: model.RiskAreaErrorHandling},
	{marker: "unhandled", area: model.RiskAreaErrorHandling},
	{marker: "error return", area: model.RiskAreaErrorHandling},
	{marker: "recover", area: model.RiskAreaErrorHandling},
	{marker: "http://", area: model.RiskAreaExternalServices},
	{marker: "https://", area: model.RiskAreaExternalServices},
	{marker: "api call", area: model.RiskAreaExternalServices},
	{marker: "request", area: model.RiskAreaExternalServices},
	{marker: "client", area: model.RiskAreaExternalServices},
	{marker: "webhook", area: model.RiskAreaExternalServices},
}

// Aggregator assembles category outcomes into a final report.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator constructs an Aggregator. A nil logger falls back to a
// no-op logger.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{logger: logger}
}

// Assemble validates, deduplicates, classifies, orders, and summarizes the
// findings from every category outcome into a single report. Invalid
// findings are dropped with a structured warning rather than failing the
// run.
func (aggregator *Aggregator) Assemble(outcomes []engine.CategoryOutcome, rootPath string, scopePath string) model.Report {
	mergedFindings := aggregator.mergeFindings(outcomes)
	for findingIndex := range mergedFindings {
		mergedFindings[findingIndex].RiskArea = classifyRiskArea(mergedFindings[findingIndex])
	}
	orderFindings(mergedFindings)

	return model.Report{
		Summary:  summarize(mergedFindings),
		Findings: mergedFindings,
		Metadata: buildMetadata(outcomes, rootPath, scopePath),
	}
}

func (aggregator *Aggregator) mergeFindings(outcomes []engine.CategoryOutcome) []model.Finding {
	mergedByKey := map[string]int{}
	merged := make([]model.Finding, 0)

	for _, outcome := range outcomes {
		for _, finding := range outcome.Findings {
			if validationError := finding.Validate(); validationError != nil {
				aggregator.logger.Warn(invalidFindingDroppedMessageConstant,
					zap.String(findingCategoryFieldNameConstant, string(finding.Category)),
					zap.String(findingTitleFieldNameConstant, finding.Title),
					zap.String(validationFailureFieldNameConstant, validationError.Error()),
				)
				continue
			}

			deduplicationKey := finding.DedupKey()
			existingIndex, alreadySeen := mergedByKey[deduplicationKey]
			if !alreadySeen {
				mergedByKey[deduplicationKey] = len(merged)
				merged = append(merged, finding)
				continue
			}
			merged[existingIndex] = mergeDuplicate(merged[existingIndex], finding)
		}
	}
	return merged
}

// mergeDuplicate folds a duplicate into the retained finding: the severity
// and confidence escalate to the higher of the two, while evidence,
// provenance, and risk tags accumulate without repeats.
func mergeDuplicate(retained model.Finding, duplicate model.Finding) model.Finding {
	retained.Severity = model.MaxSeverity(retained.Severity, duplicate.Severity)
	retained.Confidence = model.MaxConfidence(retained.Confidence, duplicate.Confidence)
	retained.Evidence = appendUnique(retained.Evidence, duplicate.Evidence)
	retained.Provenance = appendUnique(retained.Provenance, duplicate.Provenance)
	retained.RiskTags = appendUnique(retained.RiskTags, duplicate.RiskTags)
	if len(retained.Description) == 0 {
		retained.Description = duplicate.Description
	}
	if len(retained.Remediation) == 0 {
		retained.Remediation = duplicate.Remediation
	}
	if retained.StartLine == 0 || (duplicate.StartLine > 0 && duplicate.StartLine < retained.StartLine) {
		retained.StartLine = duplicate.StartLine
	}
	if duplicate.EndLine > retained.EndLine {
		retained.EndLine = duplicate.EndLine
	}
	return retained
}

func appendUnique(existing []string, additions []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, value := range existing {
		seen[value] = struct{}{}
	}
	for _, addition := range additions {
		if _, alreadyPresent := seen[addition]; alreadyPresent {
			continue
		}
		seen[addition] = struct{}{}
		existing = append(existing, addition)
	}
	return existing
}

// classifyRiskArea inspects risk tags first, then the file path and title,
// for markers indicating a cross-cutting risk area.
func classifyRiskArea(finding model.Finding) model.RiskArea {
	searchTexts := make([]string, 0, len(finding.RiskTags)+2)
	for _, riskTag := range finding.RiskTags {
		searchTexts = append(searchTexts, strings.ToLower(riskTag))
	}
	searchTexts = append(searchTexts, strings.ToLower(finding.FilePath), strings.ToLower(finding.Title))

	for _, searchText := range searchTexts {
		for _, candidateMarker := range riskAreaMarkers {
			if strings.Contains(searchText, candidateMarker.marker) {
				return candidateMarker.area
			}
		}
	}
	return model.RiskAreaOther
}

// orderFindings sorts by severity descending, then category, file path, and
// start line, so equal inputs always render identically.
func orderFindings(findings []model.Finding) {
	sort.SliceStable(findings, func(firstIndex, secondIndex int) bool {
		first, second := findings[firstIndex], findings[secondIndex]
		if first.Severity.Rank() != second.Severity.Rank() {
			return first.Severity.Rank() > second.Severity.Rank()
		}
		if first.Category != second.Category {
			return first.Category < second.Category
		}
		if first.FilePath != second.FilePath {
			return first.FilePath < second.FilePath
		}
		return first.StartLine < second.StartLine
	})
}

func summarize(findings []model.Finding) map[model.CheckCategory]map[model.Severity]int {
	summary := map[model.CheckCategory]map[model.Severity]int{}
	for _, finding := range findings {
		severityCounts, categoryPresent := summary[finding.Category]
		if !categoryPresent {
			severityCounts = map[model.Severity]int{}
			summary[finding.Category] = severityCounts
		}
		severityCounts[finding.Severity]++
	}
	return summary
}

func buildMetadata(outcomes []engine.CategoryOutcome, rootPath string, scopePath string) model.RunMetadata {
	metadata := model.RunMetadata{
		RootPath:    rootPath,
		Scope:       scopePath,
		GeneratedAt: time.Now().UTC(),
	}

	toolsSeen := map[string]struct{}{}
	for _, outcome := range outcomes {
		if len(outcome.ToolUsed) > 0 {
			if _, alreadySeen := toolsSeen[outcome.ToolUsed]; !alreadySeen {
				toolsSeen[outcome.ToolUsed] = struct{}{}
				metadata.ToolsUsed = append(metadata.ToolsUsed, outcome.ToolUsed)
			}
		}
		if outcome.Skipped {
			metadata.SkippedCategories = append(metadata.SkippedCategories, outcome.Category)
		} else if outcome.Degraded {
			metadata.DegradedCategories = append(metadata.DegradedCategories, outcome.Category)
		}
		for _, failureNote := range outcome.Failures {
			metadata.Notes = append(metadata.Notes, string(outcome.Category)+": "+failureNote)
		}
		metadata.Notes = append(metadata.Notes, outcome.Notes...)
	}
	sort.Strings(metadata.ToolsUsed)
	return metadata
}
