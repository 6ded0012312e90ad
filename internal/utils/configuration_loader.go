package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configurationFileTypeConstant      = "yaml"
	configurationKeySeparatorConstant  = "."
	environmentKeySeparatorConstant    = "_"
	configurationReadErrorTemplate     = "unable to read configuration: %w"
	configurationDecodeErrorTemplate   = "unable to decode configuration: %w"
	embeddedDefaultsMergeErrorTemplate = "unable to merge embedded defaults: %w"
)

// ConfigurationLoader resolves the effective CLI configuration by layering,
// lowest precedence first: programmatic defaults, embedded YAML defaults, an
// optional configuration file, and environment variables carrying the
// application prefix.
type ConfigurationLoader struct {
	configurationName string
	environmentPrefix string
	searchPaths       []string
	embeddedDefaults  []byte
}

// LoadedConfiguration reports where the effective configuration came from.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader that looks for a YAML file named
// configurationName in the given search paths and honors environment
// variables prefixed with environmentPrefix.
func NewConfigurationLoader(configurationName string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string{}, searchPaths...),
	}
}

// SetEmbeddedConfiguration registers YAML defaults that sit beneath any user
// supplied configuration file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte) {
	loader.embeddedDefaults = append([]byte{}, configurationData...)
}

// LoadConfiguration fills targetConfiguration from the layered sources. An
// explicit configurationFilePath bypasses the search paths; an absent
// configuration file is not an error.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(configurationFileTypeConstant)

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedDefaults) > 0 {
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedDefaults)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedDefaultsMergeErrorTemplate, mergeError)
		}
	}

	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}
	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
	viperInstance.AutomaticEnv()

	if readError := viperInstance.MergeInConfig(); readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplate, readError)
		}
	}

	if unmarshalError := viperInstance.Unmarshal(targetConfiguration); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplate, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
