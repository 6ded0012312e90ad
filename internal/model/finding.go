package model

import (
	"errors"
	"path/filepath"
	"strings"
)

// ProvenanceHeuristic marks findings produced by pattern-based fallback
// scanning rather than an external analyzer.
const ProvenanceHeuristic = "heuristic"

const (
	findingMissingTitleMessageConstant      = "finding is missing a title"
	findingInvalidSeverityMessageConstant   = "finding severity is not one of the defined levels"
	findingMissingCategoryMessageConstant   = "finding is missing a category"
	findingMissingProvenanceMessageConstant = "finding is missing provenance"
)

// RiskArea is a cross-cutting classification assigned during aggregation.
type RiskArea string

// Supported risk areas.
const (
	RiskAreaAuthentication   RiskArea = "authentication"
	RiskAreaInputValidation  RiskArea = "input-validation"
	RiskAreaDataAccess       RiskArea = "data-access"
	RiskAreaErrorHandling    RiskArea = "error-handling"
	RiskAreaExternalServices RiskArea = "external-services"
	RiskAreaOther            RiskArea = "other"
)

// Finding is one normalized unit of detected issue. Instances are owned by
// the producing analyzer until handed to the aggregator; only the
// aggregator's merge step mutates them afterwards.
type Finding struct {
	Category    CheckCategory `json:"category"`
	Severity    Severity      `json:"severity"`
	FilePath    string        `json:"file_path,omitempty"`
	StartLine   int           `json:"start_line,omitempty"`
	EndLine     int           `json:"end_line,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Evidence    []string      `json:"evidence,omitempty"`
	Remediation string        `json:"remediation,omitempty"`
	Provenance  []string      `json:"provenance"`
	Confidence  Confidence    `json:"confidence"`
	RiskTags    []string      `json:"risk_tags,omitempty"`
	RiskArea    RiskArea      `json:"risk_area,omitempty"`
}

// Validate reports why a finding violates the aggregation schema, or nil.
func (finding Finding) Validate() error {
	if len(strings.TrimSpace(finding.Title)) == 0 {
		return errors.New(findingMissingTitleMessageConstant)
	}
	if !finding.Severity.IsValid() {
		return errors.New(findingInvalidSeverityMessageConstant)
	}
	if len(strings.TrimSpace(string(finding.Category))) == 0 {
		return errors.New(findingMissingCategoryMessageConstant)
	}
	if len(finding.Provenance) == 0 {
		return errors.New(findingMissingProvenanceMessageConstant)
	}
	return nil
}

// DedupKey returns the identity used for merging duplicate findings:
// category, normalized file path, and normalized title.
func (finding Finding) DedupKey() string {
	normalizedPath := filepath.ToSlash(filepath.Clean(finding.FilePath))
	normalizedTitle := strings.Join(strings.Fields(strings.ToLower(finding.Title)), " ")
	return string(finding.Category) + "|" + normalizedPath + "|" + normalizedTitle
}
