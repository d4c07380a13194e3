// Package flags provides helpers for binding yes/no style toggle flags to
// Cobra commands and normalizing their command-line spellings.
package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue               = "true"
	toggleFalseCanonicalValue              = "false"
	toggleParseErrorTemplateConstant       = "invalid toggle value %q"
	toggleArgumentTruePlaceholderConstant  = "<YES|no>"
	toggleArgumentFalsePlaceholderConstant = "<yes|NO>"
	toggleUsageTemplateConstant            = "`%s` %s"
	longFlagPrefixConstant                 = "--"
	flagValueSeparatorConstant             = "="
	argumentTerminatorConstant             = "--"
)

var (
	trueToggleLiterals = map[string]struct{}{
		toggleTrueCanonicalValue: {},
		"yes":                    {},
		"on":                     {},
		"1":                      {},
		"t":                      {},
		"y":                      {},
	}
	falseToggleLiterals = map[string]struct{}{
		toggleFalseCanonicalValue: {},
		"no":                      {},
		"off":                     {},
		"0":                       {},
		"f":                       {},
		"n":                       {},
	}

	toggleFlagRegistryMutex sync.RWMutex
	registeredToggleFlags   = map[string]struct{}{}
)

// AddToggleFlag registers a boolean flag that accepts yes/no style values and
// defaults to true when given without a value.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, flagName string, defaultValue bool, usage string) {
	if flagSet == nil || len(flagName) == 0 {
		return
	}

	toggleValue := newToggleFlagValue(defaultValue, target)
	flagSet.Var(toggleValue, flagName, usage)

	registeredFlag := flagSet.Lookup(flagName)
	if registeredFlag == nil {
		return
	}
	registeredFlag.NoOptDefVal = toggleTrueCanonicalValue
	registeredFlag.Usage = formatToggleUsage(usage, defaultValue)

	toggleFlagRegistryMutex.Lock()
	registeredToggleFlags[flagName] = struct{}{}
	toggleFlagRegistryMutex.Unlock()
}

// NormalizeToggleArguments rewrites "--flag value" into "--flag=value" for
// registered toggle flags so pflag does not treat the value as positional.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	argumentIndex := 0
	for argumentIndex < len(arguments) {
		currentArgument := arguments[argumentIndex]
		if currentArgument == argumentTerminatorConstant {
			normalized = append(normalized, arguments[argumentIndex:]...)
			break
		}

		rewrittenArgument, consumedArguments := rewriteToggleArgument(currentArgument, arguments, argumentIndex)
		if consumedArguments > 0 {
			normalized = append(normalized, rewrittenArgument)
			argumentIndex += consumedArguments
			continue
		}

		normalized = append(normalized, currentArgument)
		argumentIndex++
	}

	return normalized
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func newToggleFlagValue(defaultValue bool, target *bool) *toggleFlagValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleFlagValue{currentValue: defaultValue, target: target}
}

func (value *toggleFlagValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}

	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || !value.currentValue {
		return toggleFalseCanonicalValue
	}
	return toggleTrueCanonicalValue
}

func (value *toggleFlagValue) Type() string {
	return "bool"
}

func parseToggleValue(rawValue string) (bool, error) {
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		trimmedValue = toggleTrueCanonicalValue
	}

	normalizedValue := strings.ToLower(trimmedValue)
	if _, isTrue := trueToggleLiterals[normalizedValue]; isTrue {
		return true, nil
	}
	if _, isFalse := falseToggleLiterals[normalizedValue]; isFalse {
		return false, nil
	}

	return false, fmt.Errorf(toggleParseErrorTemplateConstant, rawValue)
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleArgumentFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleArgumentTruePlaceholderConstant
	}
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf("`%s`", placeholder)
	}
	return fmt.Sprintf(toggleUsageTemplateConstant, placeholder, trimmedDescription)
}

func rewriteToggleArgument(currentArgument string, arguments []string, argumentIndex int) (string, int) {
	if !strings.HasPrefix(currentArgument, longFlagPrefixConstant) {
		return "", 0
	}

	flagSpelling := strings.TrimPrefix(currentArgument, longFlagPrefixConstant)
	if len(flagSpelling) == 0 {
		return "", 0
	}

	flagName := flagSpelling
	hasInlineValue := false
	if separatorIndex := strings.Index(flagSpelling, flagValueSeparatorConstant); separatorIndex >= 0 {
		flagName = flagSpelling[:separatorIndex]
		hasInlineValue = true
	}

	if !isRegisteredToggleFlag(flagName) {
		return "", 0
	}
	if hasInlineValue {
		return currentArgument, 1
	}
	if argumentIndex+1 >= len(arguments) {
		return currentArgument, 1
	}

	candidateValue := arguments[argumentIndex+1]
	if strings.HasPrefix(candidateValue, "-") {
		return currentArgument, 1
	}
	if _, parseError := parseToggleValue(candidateValue); parseError != nil {
		return currentArgument, 1
	}

	return currentArgument + flagValueSeparatorConstant + candidateValue, 2
}

func isRegisteredToggleFlag(flagName string) bool {
	toggleFlagRegistryMutex.RLock()
	defer toggleFlagRegistryMutex.RUnlock()
	_, exists := registeredToggleFlags[flagName]
	return exists
}
