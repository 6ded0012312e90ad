package flags

import (
	"fmt"
	"strings"
)

const (
	choiceListOpenConstant      = "<"
	choiceListCloseConstant     = ">"
	choiceListSeparatorConstant = "|"
)

// FormatChoiceUsage renders a flag usage string whose placeholder enumerates
// the accepted values with the default in upper case, e.g. `<MARKDOWN|json>`.
// Blank and repeated values are dropped.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	renderedChoices := make([]string, 0, len(choices))
	seenChoices := make(map[string]bool, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		if len(trimmedChoice) == 0 || seenChoices[strings.ToLower(trimmedChoice)] {
			continue
		}
		seenChoices[strings.ToLower(trimmedChoice)] = true
		if strings.EqualFold(trimmedChoice, strings.TrimSpace(defaultChoice)) {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		renderedChoices = append(renderedChoices, trimmedChoice)
	}

	placeholder := choiceListOpenConstant + strings.Join(renderedChoices, choiceListSeparatorConstant) + choiceListCloseConstant
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf("`%s`", placeholder)
	}
	return fmt.Sprintf("`%s` %s", placeholder, description)
}
