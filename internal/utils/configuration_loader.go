package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configurationNameRequiredMessageConstant      = "configuration name must be provided"
	configurationTypeRequiredMessageConstant      = "configuration type must be provided"
	embeddedConfigurationReadErrorTemplate        = "unable to read embedded configuration: %w"
	explicitConfigurationReadErrorTemplate        = "unable to read configuration file %s: %w"
	discoveredConfigurationReadErrorTemplate      = "unable to read discovered configuration file: %w"
	configurationDecodeErrorTemplateConstant      = "unable to decode configuration: %w"
	environmentKeySeparatorConstant               = "."
	environmentKeyReplacementConstant             = "_"
	defaultEmbeddedConfigurationTypeValueConstant = "yaml"
)

var (
	// ErrConfigurationNameRequired indicates the loader was constructed without a configuration name.
	ErrConfigurationNameRequired = errors.New(configurationNameRequiredMessageConstant)
	// ErrConfigurationTypeRequired indicates the loader was constructed without a configuration type.
	ErrConfigurationTypeRequired = errors.New(configurationTypeRequiredMessageConstant)
)

// LoadedConfiguration describes the outcome of a configuration load.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader merges embedded defaults, configuration files, and environment overrides.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// NewConfigurationLoader constructs a loader for the provided configuration identity and search paths.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration registers embedded default configuration content.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	loader.embeddedConfiguration = append([]byte(nil), configurationData...)
	normalizedType := strings.TrimSpace(configurationType)
	if len(normalizedType) == 0 {
		normalizedType = defaultEmbeddedConfigurationTypeValueConstant
	}
	loader.embeddedConfigurationType = normalizedType
}

// LoadConfiguration resolves configuration values into the provided target structure.
//
// Precedence from weakest to strongest: embedded defaults, supplied default
// values, a discovered or explicit configuration file, and environment
// variables carrying the loader's prefix.
func (loader *ConfigurationLoader) LoadConfiguration(explicitFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	if len(strings.TrimSpace(loader.configurationName)) == 0 {
		return LoadedConfiguration{}, ErrConfigurationNameRequired
	}
	if len(strings.TrimSpace(loader.configurationType)) == 0 {
		return LoadedConfiguration{}, ErrConfigurationTypeRequired
	}

	viperInstance := viper.New()

	if len(loader.embeddedConfiguration) > 0 {
		viperInstance.SetConfigType(loader.embeddedConfigurationType)
		if readError := viperInstance.ReadConfig(bytes.NewReader(loader.embeddedConfiguration)); readError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationReadErrorTemplate, readError)
		}
	}

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	viperInstance.SetConfigType(loader.configurationType)

	trimmedExplicitPath := strings.TrimSpace(explicitFilePath)
	if len(trimmedExplicitPath) > 0 {
		viperInstance.SetConfigFile(trimmedExplicitPath)
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(explicitConfigurationReadErrorTemplate, trimmedExplicitPath, mergeError)
		}
	} else if len(loader.searchPaths) > 0 {
		viperInstance.SetConfigName(loader.configurationName)
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			var notFoundError viper.ConfigFileNotFoundError
			if !errors.As(mergeError, &notFoundError) {
				return LoadedConfiguration{}, fmt.Errorf(discoveredConfigurationReadErrorTemplate, mergeError)
			}
		}
	}

	if len(strings.TrimSpace(loader.environmentPrefix)) > 0 {
		viperInstance.SetEnvPrefix(loader.environmentPrefix)
		viperInstance.SetEnvKeyReplacer(strings.NewReplacer(environmentKeySeparatorConstant, environmentKeyReplacementConstant))
		viperInstance.AutomaticEnv()
	}

	if target != nil {
		if decodeError := viperInstance.Unmarshal(target); decodeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
		}
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
