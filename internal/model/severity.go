package model

import (
	"fmt"
	"strings"
)

// Severity classifies how serious a finding is.
type Severity string

// Supported severity levels ordered from least to most serious.
const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const invalidSeverityTemplateConstant = "invalid severity: %s"

// Rank returns an integer rank for comparison (info=0, critical=4).
func (severity Severity) Rank() int {
	switch severity {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	case SeverityInfo:
		return 0
	default:
		return -1
	}
}

// String returns the lower-case severity name.
func (severity Severity) String() string {
	return string(severity)
}

// IsValid reports whether the severity is one of the five defined levels.
func (severity Severity) IsValid() bool {
	return severity.Rank() >= 0
}

// MaxSeverity returns the more serious of the two severities.
func MaxSeverity(first Severity, second Severity) Severity {
	if second.Rank() > first.Rank() {
		return second
	}
	return first
}

// ParseSeverity parses a severity name case-insensitively. "moderate" is
// accepted as an alias for medium because npm audit reports use it.
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "info", "informational", "note":
		return SeverityInfo, nil
	case "low":
		return SeverityLow, nil
	case "medium", "moderate":
		return SeverityMedium, nil
	case "high", "error":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return "", fmt.Errorf(invalidSeverityTemplateConstant, value)
	}
}

// SeveritiesDescending lists all severities from most to least serious.
func SeveritiesDescending() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// Confidence expresses how certain the producing analyzer is about a finding.
type Confidence string

// Supported confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank returns an integer rank for comparison (low=0, high=2).
func (confidence Confidence) Rank() int {
	switch confidence {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// MaxConfidence returns the stronger of the two confidence levels.
func MaxConfidence(first Confidence, second Confidence) Confidence {
	if second.Rank() > first.Rank() {
		return second
	}
	return first
}
