package cli

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	duplicateOperationErrorTemplateConstant = "operation %q configured more than once"
	operationDecodeErrorTemplateConstant    = "unable to decode operation %q configuration: %w"
)

// CommonConfiguration captures settings shared by every command.
type CommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	TasksFile string `mapstructure:"tasks_file"`
}

// OperationConfiguration carries the settings block of a single operation.
type OperationConfiguration struct {
	Operation string         `mapstructure:"operation"`
	With      map[string]any `mapstructure:"with"`
}

// ApplicationConfiguration mirrors the application configuration file.
type ApplicationConfiguration struct {
	Common     CommonConfiguration      `mapstructure:"common"`
	Operations []OperationConfiguration `mapstructure:"operations"`
}

// DuplicateOperationConfigurationError indicates an operation appeared more than once.
type DuplicateOperationConfigurationError struct {
	OperationName string
}

// Error describes the duplicated operation.
func (errorDetails DuplicateOperationConfigurationError) Error() string {
	return fmt.Sprintf(duplicateOperationErrorTemplateConstant, errorDetails.OperationName)
}

// OperationConfigurations indexes operation settings by operation name.
type OperationConfigurations struct {
	settings map[string]map[string]any
}

// NewOperationConfigurations indexes the provided operation entries, rejecting duplicates.
func NewOperationConfigurations(entries []OperationConfiguration) (*OperationConfigurations, error) {
	settings := make(map[string]map[string]any, len(entries))
	for _, entry := range entries {
		operationName := strings.ToLower(strings.TrimSpace(entry.Operation))
		if len(operationName) == 0 {
			continue
		}
		if _, alreadyConfigured := settings[operationName]; alreadyConfigured {
			return nil, DuplicateOperationConfigurationError{OperationName: operationName}
		}
		settingsCopy := make(map[string]any, len(entry.With))
		for settingKey, settingValue := range entry.With {
			settingsCopy[settingKey] = settingValue
		}
		settings[operationName] = settingsCopy
	}
	return &OperationConfigurations{settings: settings}, nil
}

// Lookup returns a copy of the settings configured for the named operation.
func (configurations *OperationConfigurations) Lookup(operationName string) (map[string]any, bool) {
	if configurations == nil {
		return nil, false
	}
	storedSettings, settingsAvailable := configurations.settings[strings.ToLower(strings.TrimSpace(operationName))]
	if !settingsAvailable {
		return nil, false
	}
	settingsCopy := make(map[string]any, len(storedSettings))
	for settingKey, settingValue := range storedSettings {
		settingsCopy[settingKey] = settingValue
	}
	return settingsCopy, true
}

// DecodeOperation fills target with the named operation's settings. Missing
// operations leave the target untouched.
func (configurations *OperationConfigurations) DecodeOperation(operationName string, target any) error {
	operationSettings, settingsAvailable := configurations.Lookup(operationName)
	if !settingsAvailable {
		return nil
	}

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if decoderError != nil {
		return fmt.Errorf(operationDecodeErrorTemplateConstant, operationName, decoderError)
	}
	if decodeError := decoder.Decode(operationSettings); decodeError != nil {
		return fmt.Errorf(operationDecodeErrorTemplateConstant, operationName, decodeError)
	}
	return nil
}
