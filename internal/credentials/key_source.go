package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	pathutils "github.com/kegpkg/keg/internal/utils/path"
)

const (
	keySourceSeparatorConstant               = ":"
	environmentKeySourceTypeValueConstant    = "env"
	fileKeySourceTypeValueConstant           = "file"
	keySourceMissingErrorMessageConstant     = "API key source must be provided"
	environmentNameMissingErrorConstant      = "environment variable name must be provided"
	filePathMissingErrorMessageConstant      = "key file path must be provided"
	environmentKeyMissingTemplateConstant    = "environment variable %s is not set"
	keyFileReadErrorTemplateConstant         = "unable to read key file %s: %w"
	keyFileEmptyErrorTemplateConstant        = "key file %s is empty"
	unsupportedKeySourceTemplateConstant     = "unsupported API key source type %q"
	environmentLookupNilErrorMessageConstant = "environment lookup function not configured"
	fileReaderNilErrorMessageConstant        = "file reader function not configured"
)

// KeySourceType enumerates the supported API key retrieval mechanisms.
type KeySourceType string

// Key source type enumerations.
const (
	KeySourceTypeEnvironment KeySourceType = KeySourceType(environmentKeySourceTypeValueConstant)
	KeySourceTypeFile        KeySourceType = KeySourceType(fileKeySourceTypeValueConstant)
)

// KeySource specifies where a registry API key is located.
type KeySource struct {
	Type      KeySourceType
	Reference string
}

// KeyResolver retrieves API keys from configured sources.
type KeyResolver interface {
	ResolveKey(resolutionContext context.Context, source KeySource) (string, error)
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(variableName string) (string, bool)

// FileReader reads the contents of a file path.
type FileReader func(filePath string) ([]byte, error)

// ParseKeySource interprets a textual API key source declaration.
func ParseKeySource(sourceValue string) (KeySource, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return KeySource{}, errors.New(keySourceMissingErrorMessageConstant)
	}

	sourceComponents := strings.SplitN(trimmedValue, keySourceSeparatorConstant, 2)
	if len(sourceComponents) == 1 {
		return KeySource{Type: KeySourceTypeEnvironment, Reference: trimmedValue}, nil
	}

	sourceType := strings.ToLower(strings.TrimSpace(sourceComponents[0]))
	sourceReference := strings.TrimSpace(sourceComponents[1])

	switch sourceType {
	case environmentKeySourceTypeValueConstant:
		if len(sourceReference) == 0 {
			return KeySource{}, errors.New(environmentNameMissingErrorConstant)
		}
		return KeySource{Type: KeySourceTypeEnvironment, Reference: sourceReference}, nil
	case fileKeySourceTypeValueConstant:
		if len(sourceReference) == 0 {
			return KeySource{}, errors.New(filePathMissingErrorMessageConstant)
		}
		return KeySource{Type: KeySourceTypeFile, Reference: sourceReference}, nil
	default:
		return KeySource{}, fmt.Errorf(unsupportedKeySourceTemplateConstant, sourceType)
	}
}

// NewKeyResolver creates a key resolver with optional dependency overrides.
// File references undergo home directory expansion before reading.
func NewKeyResolver(environmentLookup EnvironmentLookup, fileReader FileReader) KeyResolver {
	resolvedEnvironmentLookup := environmentLookup
	if resolvedEnvironmentLookup == nil {
		resolvedEnvironmentLookup = os.LookupEnv
	}

	resolvedFileReader := fileReader
	if resolvedFileReader == nil {
		resolvedFileReader = os.ReadFile
	}

	return &keyResolver{
		environmentLookup: resolvedEnvironmentLookup,
		fileReader:        resolvedFileReader,
		homeExpander:      pathutils.NewHomeExpander(),
	}
}

type keyResolver struct {
	environmentLookup EnvironmentLookup
	fileReader        FileReader
	homeExpander      *pathutils.HomeExpander
}

func (resolver *keyResolver) ResolveKey(resolutionContext context.Context, source KeySource) (string, error) {
	_ = resolutionContext
	switch source.Type {
	case KeySourceTypeEnvironment:
		return resolver.resolveEnvironmentKey(source.Reference)
	case KeySourceTypeFile:
		return resolver.resolveFileKey(source.Reference)
	default:
		return "", fmt.Errorf(unsupportedKeySourceTemplateConstant, source.Type)
	}
}

func (resolver *keyResolver) resolveEnvironmentKey(variableName string) (string, error) {
	if resolver.environmentLookup == nil {
		return "", errors.New(environmentLookupNilErrorMessageConstant)
	}

	variableValue, variableFound := resolver.environmentLookup(variableName)
	trimmedValue := strings.TrimSpace(variableValue)
	if !variableFound || len(trimmedValue) == 0 {
		return "", fmt.Errorf(environmentKeyMissingTemplateConstant, variableName)
	}

	return trimmedValue, nil
}

func (resolver *keyResolver) resolveFileKey(filePath string) (string, error) {
	if resolver.fileReader == nil {
		return "", errors.New(fileReaderNilErrorMessageConstant)
	}

	expandedFilePath := resolver.homeExpander.Expand(filePath)
	fileContents, readError := resolver.fileReader(expandedFilePath)
	if readError != nil {
		return "", fmt.Errorf(keyFileReadErrorTemplateConstant, expandedFilePath, readError)
	}

	trimmedContents := strings.TrimSpace(string(fileContents))
	if len(trimmedContents) == 0 {
		return "", fmt.Errorf(keyFileEmptyErrorTemplateConstant, expandedFilePath)
	}

	return trimmedContents, nil
}
