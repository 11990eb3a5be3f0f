package cli

import (
	_ "embed"

	mapstructure "github.com/go-viper/mapstructure/v2"

	setupcli "github.com/tyemirov/tapsmith/internal/tapsetup/cli"
)

//go:embed config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns the baked-in configuration document and
// its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return embeddedDefaultConfiguration, configurationTypeConstant
}

// ApplicationConfiguration describes the persisted configuration for the CLI
// entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Setup  map[string]any                 `mapstructure:"setup"`
}

// ApplicationCommonConfiguration stores logging defaults shared across
// commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// SetupConfiguration decodes the setup section over the provided base values.
func (configuration ApplicationConfiguration) SetupConfiguration(baseConfiguration setupcli.CommandConfiguration) (setupcli.CommandConfiguration, error) {
	if len(configuration.Setup) == 0 {
		return baseConfiguration, nil
	}

	decodedConfiguration := baseConfiguration
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &decodedConfiguration,
		WeaklyTypedInput: true,
	})
	if decoderError != nil {
		return baseConfiguration, decoderError
	}
	if decodeError := decoder.Decode(configuration.Setup); decodeError != nil {
		return baseConfiguration, decodeError
	}
	return decodedConfiguration, nil
}
