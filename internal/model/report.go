package model

import "time"

// RunMetadata records how a review run proceeded: the scope that was
// scanned, the analyzers that actually ran, and which categories fell back
// to heuristics or never started.
type RunMetadata struct {
	RootPath           string          `json:"root_path"`
	Scope              string          `json:"scope,omitempty"`
	ToolsUsed          []string        `json:"tools_used,omitempty"`
	DegradedCategories []CheckCategory `json:"degraded_categories,omitempty"`
	SkippedCategories  []CheckCategory `json:"skipped_categories,omitempty"`
	Notes              []string        `json:"notes,omitempty"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// Report is the final assembled result of a review run. It is built once by
// the aggregator and immutable once rendered.
type Report struct {
	Summary  map[CheckCategory]map[Severity]int `json:"summary"`
	Findings []Finding                          `json:"findings"`
	Metadata RunMetadata                        `json:"metadata"`
}

// WorstSeverity returns the most serious severity present among findings of
// categories that were not skipped, and false when no such finding exists.
func (report Report) WorstSeverity() (Severity, bool) {
	skipped := make(map[CheckCategory]struct{}, len(report.Metadata.SkippedCategories))
	for _, category := range report.Metadata.SkippedCategories {
		skipped[category] = struct{}{}
	}

	worstFound := false
	worst := SeverityInfo
	for _, finding := range report.Findings {
		if _, isSkipped := skipped[finding.Category]; isSkipped {
			continue
		}
		if !worstFound || finding.Severity.Rank() > worst.Rank() {
			worst = finding.Severity
			worstFound = true
		}
	}
	return worst, worstFound
}

// TotalFindings returns the number of findings in the report.
func (report Report) TotalFindings() int {
	return len(report.Findings)
}
