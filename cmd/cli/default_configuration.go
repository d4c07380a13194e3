package cli

import _ "embed"

//go:embed default_config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns a copy of the configuration shipped
// with the binary together with its type identifier.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	configurationCopy := make([]byte, len(embeddedDefaultConfiguration))
	copy(configurationCopy, embeddedDefaultConfiguration)
	return configurationCopy, configurationTypeConstant
}
