package model

import (
	"fmt"
	"strings"
)

// CheckCategory identifies one analysis dimension of a review run.
type CheckCategory string

// Built-in check categories. The set is extensible by registering tool
// descriptors for new category names; execution never branches on a
// specific category.
const (
	CategoryDependencyAudit CheckCategory = "dependency-audit"
	CategoryComplexity      CheckCategory = "complexity"
	CategoryDuplication     CheckCategory = "duplication"
	CategoryDeadCode        CheckCategory = "dead-code"
	CategoryDocumentation   CheckCategory = "documentation"
	CategorySecurity        CheckCategory = "security"
	CategoryTestCoverage    CheckCategory = "test-coverage"
)

const invalidCategoryTemplateConstant = "invalid check category: %s"

// String returns the category name.
func (category CheckCategory) String() string {
	return string(category)
}

// AllCategories lists the built-in categories in their canonical order.
func AllCategories() []CheckCategory {
	return []CheckCategory{
		CategoryDependencyAudit,
		CategoryComplexity,
		CategoryDuplication,
		CategoryDeadCode,
		CategoryDocumentation,
		CategorySecurity,
		CategoryTestCoverage,
	}
}

// ParseCategory resolves a category name case-insensitively against the
// built-in set.
func ParseCategory(value string) (CheckCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, category := range AllCategories() {
		if normalized == string(category) {
			return category, nil
		}
	}
	return "", fmt.Errorf(invalidCategoryTemplateConstant, value)
}

// ParseCategories resolves a list of category names, preserving order and
// dropping duplicates.
func ParseCategories(values []string) ([]CheckCategory, error) {
	seen := make(map[CheckCategory]struct{}, len(values))
	categories := make([]CheckCategory, 0, len(values))
	for _, value := range values {
		category, parseError := ParseCategory(value)
		if parseError != nil {
			return nil, parseError
		}
		if _, duplicate := seen[category]; duplicate {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	return categories, nil
}
