package docs

import (
	"path/filepath"
	"strings"

	pathutils "github.com/kegpkg/keg/internal/utils/path"
)

var docsConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	defaultAPIBaseURLValueConstant         = "https://api.kegpkg.dev"
	defaultRepositoryBaseURLValueConstant  = "https://repo.kegpkg.dev"
	defaultHomeDirectoryValueConstant      = "~/.keg"
	defaultAPIKeySourceValueConstant       = "env:KEG_API_KEY"
	defaultProgressEnabledValueConstant    = true
	defaultTimeoutSecondsValueConstant     = 30
	configurationAPIBaseURLKeyConstant     = "api_base_url"
	configurationRepoBaseURLKeyConstant    = "repo_base_url"
	configurationHomeKeyConstant           = "home"
	configurationAPIKeySourceKeyConstant   = "api_key_source"
	configurationProgressKeyConstant       = "progress"
	configurationTimeoutSecondsKeyConstant = "timeout_seconds"
	configurationKeySeparatorConstant      = "."
	docsDirectoryNameConstant              = "docs"
)

// Configuration aggregates settings for the docs command.
type Configuration struct {
	APIBaseURL     string `mapstructure:"api_base_url"`
	RepoBaseURL    string `mapstructure:"repo_base_url"`
	Home           string `mapstructure:"home"`
	APIKeySource   string `mapstructure:"api_key_source"`
	Progress       bool   `mapstructure:"progress"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DefaultConfiguration supplies baseline values for the docs command.
func DefaultConfiguration() Configuration {
	return Configuration{
		APIBaseURL:     defaultAPIBaseURLValueConstant,
		RepoBaseURL:    defaultRepositoryBaseURLValueConstant,
		Home:           defaultHomeDirectoryValueConstant,
		APIKeySource:   defaultAPIKeySourceValueConstant,
		Progress:       defaultProgressEnabledValueConstant,
		TimeoutSeconds: defaultTimeoutSecondsValueConstant,
	}
}

// DefaultConfigurationValues exposes docs defaults keyed for the
// configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationAPIBaseURLKeyConstant:     defaults.APIBaseURL,
		rootKey + configurationKeySeparatorConstant + configurationRepoBaseURLKeyConstant:    defaults.RepoBaseURL,
		rootKey + configurationKeySeparatorConstant + configurationHomeKeyConstant:           defaults.Home,
		rootKey + configurationKeySeparatorConstant + configurationAPIKeySourceKeyConstant:   defaults.APIKeySource,
		rootKey + configurationKeySeparatorConstant + configurationProgressKeyConstant:       defaults.Progress,
		rootKey + configurationKeySeparatorConstant + configurationTimeoutSecondsKeyConstant: defaults.TimeoutSeconds,
	}
}

// Sanitize normalizes configured values, expands the home directory, and
// falls back to defaults for missing entries.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.APIBaseURL = strings.TrimSpace(configuration.APIBaseURL)
	if len(sanitized.APIBaseURL) == 0 {
		sanitized.APIBaseURL = defaults.APIBaseURL
	}

	sanitized.RepoBaseURL = strings.TrimSpace(configuration.RepoBaseURL)
	if len(sanitized.RepoBaseURL) == 0 {
		sanitized.RepoBaseURL = defaults.RepoBaseURL
	}

	sanitized.Home = strings.TrimSpace(configuration.Home)
	if len(sanitized.Home) == 0 {
		sanitized.Home = defaults.Home
	}
	sanitized.Home = docsConfigurationHomeDirectoryExpander.Expand(sanitized.Home)

	sanitized.APIKeySource = strings.TrimSpace(configuration.APIKeySource)
	if len(sanitized.APIKeySource) == 0 {
		sanitized.APIKeySource = defaults.APIKeySource
	}

	if sanitized.TimeoutSeconds <= 0 {
		sanitized.TimeoutSeconds = defaults.TimeoutSeconds
	}

	return sanitized
}

// DocsRootDirectory reports the directory holding all fetched documentation
// trees.
func (configuration Configuration) DocsRootDirectory() string {
	return filepath.Join(configuration.Home, docsDirectoryNameConstant)
}
