package flags

import (
	"fmt"
	"strings"
)

const (
	choiceListOpenerConstant        = "<"
	choiceListCloserConstant        = ">"
	choiceListSeparatorConstant     = "|"
	choiceUsageBareTemplateConstant = "`%s`"
	choiceUsageTemplateConstant     = "`%s` %s"
)

// FormatChoiceUsage renders a flag usage string whose placeholder enumerates
// the accepted values with the default spelled in upper case.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choiceListOpenerConstant + strings.Join(emphasizeDefaultChoice(defaultChoice, choices), choiceListSeparatorConstant) + choiceListCloserConstant

	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(choiceUsageBareTemplateConstant, placeholder)
	}
	return fmt.Sprintf(choiceUsageTemplateConstant, placeholder, trimmedDescription)
}

func emphasizeDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))

	rendered := make([]string, 0, len(choices))
	seenChoices := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		if len(trimmedChoice) == 0 {
			continue
		}

		normalizedChoice := strings.ToLower(trimmedChoice)
		if _, alreadyRendered := seenChoices[normalizedChoice]; alreadyRendered {
			continue
		}
		seenChoices[normalizedChoice] = struct{}{}

		if normalizedChoice == normalizedDefault {
			rendered = append(rendered, strings.ToUpper(trimmedChoice))
			continue
		}
		rendered = append(rendered, trimmedChoice)
	}

	return rendered
}
