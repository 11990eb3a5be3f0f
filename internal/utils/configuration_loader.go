package utils

import (
	"bytes"
	"errors"
	"strings"

	"github.com/spf13/viper"
)

const environmentKeySeparatorConstant = "_"

// ConfigurationMetadata describes where the loaded configuration came from.
type ConfigurationMetadata struct {
	ConfigFileUsed string
}

// ConfigurationLoader layers configuration sources with viper: embedded
// defaults first, then an optional configuration file discovered on the
// search paths or named explicitly, then environment variables.
type ConfigurationLoader struct {
	configurationName   string
	configurationType   string
	environmentPrefix   string
	searchPaths         []string
	embeddedContent     []byte
	embeddedContentType string
	hasEmbeddedContent  bool
}

// NewConfigurationLoader constructs a ConfigurationLoader.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       searchPaths,
	}
}

// SetEmbeddedConfiguration registers baked-in defaults read before any file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(content []byte, contentType string) {
	loader.embeddedContent = content
	loader.embeddedContentType = contentType
	loader.hasEmbeddedContent = true
}

// LoadConfiguration merges every configuration source into target. An empty
// configurationFilePath falls back to searching the configured paths; a
// missing file is not an error.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, target any) (ConfigurationMetadata, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigType(loader.configurationType)

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if loader.hasEmbeddedContent {
		viperInstance.SetConfigType(loader.embeddedContentType)
		if readError := viperInstance.ReadConfig(bytes.NewReader(loader.embeddedContent)); readError != nil {
			return ConfigurationMetadata{}, readError
		}
		viperInstance.SetConfigType(loader.configurationType)
	}

	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			return ConfigurationMetadata{}, mergeError
		}
	} else {
		viperInstance.SetConfigName(loader.configurationName)
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			var fileNotFound viper.ConfigFileNotFoundError
			if !errors.As(mergeError, &fileNotFound) {
				return ConfigurationMetadata{}, mergeError
			}
		}
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", environmentKeySeparatorConstant))
	viperInstance.AutomaticEnv()

	if decodeError := viperInstance.Unmarshal(target); decodeError != nil {
		return ConfigurationMetadata{}, decodeError
	}

	return ConfigurationMetadata{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
