package cli_test

import (
	"bytes"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/kegpkg/keg/cmd/cli"
	"github.com/kegpkg/keg/internal/docs"
)

const (
	embeddedDefaultLogLevelConstant   = "info"
	embeddedDefaultLogFormatConstant  = "structured"
	docsConfigurationKeyPathConstant  = "tools.docs"
	mapstructureTagNameConstant       = "mapstructure"
	embeddedCommonDefaultsTestName    = "CommonDefaults"
	embeddedDocsDefaultsTestName      = "DocsDefaults"
	embeddedDocsConfigurationTestName = "DocsConfigurationRoundTrip"
)

func TestApplicationEmbeddedDefaults(testInstance *testing.T) {
	testInstance.Run(embeddedCommonDefaultsTestName, func(t *testing.T) {
		configuration := decodeEmbeddedApplicationConfiguration(t)

		require.Equal(t, embeddedDefaultLogLevelConstant, configuration.Common.LogLevel)
		require.Equal(t, embeddedDefaultLogFormatConstant, configuration.Common.LogFormat)
	})

	testInstance.Run(embeddedDocsDefaultsTestName, func(t *testing.T) {
		configuration := decodeEmbeddedApplicationConfiguration(t)
		expectedDefaults := docs.DefaultConfiguration()

		require.Equal(t, expectedDefaults, configuration.Tools.Docs)
	})

	testInstance.Run(embeddedDocsConfigurationTestName, func(t *testing.T) {
		viperInstance := buildEmbeddedConfigurationViper(t)
		docsOptions := viperInstance.GetStringMap(docsConfigurationKeyPathConstant)
		require.NotEmpty(t, docsOptions)

		var docsConfiguration docs.Configuration
		decodeDocsOptions(t, docsOptions, &docsConfiguration)

		require.Equal(t, docs.DefaultConfiguration().Sanitize(), docsConfiguration.Sanitize())
	})
}

func buildEmbeddedConfigurationViper(testingInstance testing.TB) *viper.Viper {
	testingInstance.Helper()

	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)

	readError := viperInstance.ReadConfig(bytes.NewReader(configurationData))
	require.NoError(testingInstance, readError)

	return viperInstance
}

func decodeEmbeddedApplicationConfiguration(testingInstance testing.TB) cli.ApplicationConfiguration {
	testingInstance.Helper()

	viperInstance := buildEmbeddedConfigurationViper(testingInstance)

	var configuration cli.ApplicationConfiguration
	unmarshalError := viperInstance.Unmarshal(&configuration)
	require.NoError(testingInstance, unmarshalError)

	return configuration
}

func decodeDocsOptions(testingInstance testing.TB, options map[string]any, target *docs.Configuration) {
	testingInstance.Helper()

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: mapstructureTagNameConstant, Result: target})
	require.NoError(testingInstance, decoderError)

	decodeError := decoder.Decode(options)
	require.NoError(testingInstance, decodeError)
}
