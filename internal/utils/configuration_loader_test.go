package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/docrun/internal/utils"
)

const (
	testEnvironmentPrefixConstant                  = "TESTDOCRUN"
	testCommonSectionKeyConstant                   = "common"
	testLogLevelKeyConstant                        = testCommonSectionKeyConstant + ".log_level"
	testLogLevelEnvironmentVariableConstant        = testEnvironmentPrefixConstant + "_COMMON_LOG_LEVEL"
	testDefaultLogLevelConstant                    = "info"
	testConfiguredLogLevelConstant                 = "debug"
	testOverriddenLogLevelConstant                 = "error"
	testFileLogLevelConstant                       = "warn"
	testConfigFileNameConstant                     = "config.yaml"
	testConfigContentTemplateConstant              = "common:\n  log_level: %s\n"
	testCaseEmbeddedMessageConstant                = "embedded configuration merges"
	testCaseDefaultsMessageConstant                = "defaults are applied"
	testCaseFileMessageConstant                    = "config file overrides defaults"
	testCaseEnvironmentMessageConstant             = "environment overrides file"
	testConfigurationNameConstant                  = "config"
	testConfigurationTypeConstant                  = "yaml"
	configurationLoaderSubtestNameTemplateConstant = "%d_%s"
	testEmbeddedLogLevelConstant                   = "debug"
)

type testLoaderConfiguration struct {
	Common struct {
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"common"`
}

func writeConfigurationFile(testInstance *testing.T, directoryPath string, logLevelValue string) string {
	testInstance.Helper()
	configurationFilePath := filepath.Join(directoryPath, testConfigFileNameConstant)
	configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, logLevelValue)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))
	return configurationFilePath
}

func TestConfigurationLoaderPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name             string
		defaults         map[string]any
		embeddedContent  string
		fileLogLevel     string
		environmentValue string
		expectedLogLevel string
	}{
		{
			name:             testCaseEmbeddedMessageConstant,
			embeddedContent:  fmt.Sprintf(testConfigContentTemplateConstant, testEmbeddedLogLevelConstant),
			expectedLogLevel: testEmbeddedLogLevelConstant,
		},
		{
			name:             testCaseDefaultsMessageConstant,
			defaults:         map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant},
			expectedLogLevel: testDefaultLogLevelConstant,
		},
		{
			name:             testCaseFileMessageConstant,
			defaults:         map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant},
			fileLogLevel:     testFileLogLevelConstant,
			expectedLogLevel: testFileLogLevelConstant,
		},
		{
			name:             testCaseEnvironmentMessageConstant,
			defaults:         map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant},
			fileLogLevel:     testConfiguredLogLevelConstant,
			environmentValue: testOverriddenLogLevelConstant,
			expectedLogLevel: testOverriddenLogLevelConstant,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			temporaryDirectory := testInstance.TempDir()

			explicitFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				explicitFilePath = writeConfigurationFile(testInstance, temporaryDirectory, testCase.fileLogLevel)
			}

			if len(testCase.environmentValue) > 0 {
				testInstance.Setenv(testLogLevelEnvironmentVariableConstant, testCase.environmentValue)
			}

			loader := utils.NewConfigurationLoader(
				testConfigurationNameConstant,
				testConfigurationTypeConstant,
				testEnvironmentPrefixConstant,
				nil,
			)
			if len(testCase.embeddedContent) > 0 {
				loader.SetEmbeddedConfiguration([]byte(testCase.embeddedContent), testConfigurationTypeConstant)
			}

			var loadedConfiguration testLoaderConfiguration
			loadedMetadata, loadError := loader.LoadConfiguration(explicitFilePath, testCase.defaults, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)

			if len(explicitFilePath) > 0 {
				require.Equal(testInstance, explicitFilePath, loadedMetadata.ConfigFileUsed)
			}
		})
	}
}

func TestConfigurationLoaderSearchPathDiscovery(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	writeConfigurationFile(testInstance, temporaryDirectory, testFileLogLevelConstant)

	loader := utils.NewConfigurationLoader(
		testConfigurationNameConstant,
		testConfigurationTypeConstant,
		testEnvironmentPrefixConstant,
		[]string{temporaryDirectory},
	)

	var loadedConfiguration testLoaderConfiguration
	loadedMetadata, loadError := loader.LoadConfiguration("", nil, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, testFileLogLevelConstant, loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, filepath.Join(temporaryDirectory, testConfigFileNameConstant), loadedMetadata.ConfigFileUsed)
}

func TestConfigurationLoaderMissingDiscoveredFileIsNotAnError(testInstance *testing.T) {
	loader := utils.NewConfigurationLoader(
		testConfigurationNameConstant,
		testConfigurationTypeConstant,
		testEnvironmentPrefixConstant,
		[]string{testInstance.TempDir()},
	)

	var loadedConfiguration testLoaderConfiguration
	loadedMetadata, loadError := loader.LoadConfiguration("", map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant}, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, loadedMetadata.ConfigFileUsed)
	require.Equal(testInstance, testDefaultLogLevelConstant, loadedConfiguration.Common.LogLevel)
}

func TestConfigurationLoaderMissingExplicitFileFails(testInstance *testing.T) {
	loader := utils.NewConfigurationLoader(
		testConfigurationNameConstant,
		testConfigurationTypeConstant,
		testEnvironmentPrefixConstant,
		nil,
	)

	missingFilePath := filepath.Join(testInstance.TempDir(), testConfigFileNameConstant)
	_, loadError := loader.LoadConfiguration(missingFilePath, nil, &testLoaderConfiguration{})
	require.Error(testInstance, loadError)
}
