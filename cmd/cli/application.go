// Package cli assembles the docrun command-line application.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/utils"
	flagutils "github.com/tyemirov/docrun/internal/utils/flags"
)

const (
	applicationNameConstant          = "docrun"
	applicationShortDescriptionText  = "Task runner and analysis toolkit for scanned invoice documents"
	applicationLongDescriptionText   = "docrun dispatches the project's install, run, start, and test tasks to their underlying tools and ships a native pipeline that renders invoice pages, extracts drawing components, and counts them by their OCR labels."
	configurationNameConstant        = "config"
	configurationTypeConstant        = "yaml"
	environmentPrefixConstant        = "DOCRUN"
	configurationSearchPathEnvName   = "DOCRUN_CONFIG_SEARCH_PATH"
	userConfigurationDirectoryName   = ".docrun"
	configurationFileNameConstant    = "config.yaml"
	configFlagNameConstant           = "config"
	configFlagUsageConstant          = "Path to the configuration file."
	logLevelFlagNameConstant         = "log-level"
	logLevelFlagUsageConstant        = "Logging verbosity (debug, info, warn, error)."
	logFormatFlagNameConstant        = "log-format"
	logFormatFlagUsageConstant       = "Logging output format (structured, console)."
	tasksFileFlagNameConstant        = "tasks-file"
	tasksFileFlagUsageConstant       = "Path to a YAML manifest declaring additional tasks."
	initFlagNameConstant             = "init"
	initFlagUsageConstant            = "Write a starter configuration file (local or user)."
	forceFlagNameConstant            = "force"
	forceFlagUsageConstant           = "Overwrite an existing configuration file during --init."
	versionFlagNameConstant          = "version"
	versionFlagUsageConstant         = "Print the application version and exit."
	initScopeLocalConstant           = "local"
	initScopeUserConstant            = "user"
	unknownInitScopeTemplateConstant = "unsupported --init scope %q (expected local or user)"
	configurationExistsTemplate      = "configuration file %s already exists (use --force to overwrite)"
	configurationWrittenTemplate     = "wrote configuration file %s\n"
	versionOutputTemplateConstant    = "%s version %s\n"
	defaultLogLevelValueConstant     = "info"
	defaultLogFormatValueConstant    = "structured"
	logLevelDefaultKeyConstant       = "common.log_level"
	logFormatDefaultKeyConstant      = "common.log_format"
	configurationDirectoryPermission = 0o755
	configurationFilePermission      = 0o600
)

// Application wires configuration loading, logging, and command registration.
type Application struct {
	rootCommand            *cobra.Command
	loggerFactory          *utils.LoggerFactory
	commandContextAccessor utils.CommandContextAccessor

	configuration           ApplicationConfiguration
	operationConfigurations *OperationConfigurations
	logger                  *zap.Logger
	humanReadableLogging    bool
	loadedConfigurationFile string
}

// NewApplication constructs the application with its full command tree.
func NewApplication() *Application {
	application := &Application{
		loggerFactory:           utils.NewLoggerFactory(),
		commandContextAccessor:  utils.NewCommandContextAccessor(),
		operationConfigurations: &OperationConfigurations{},
		logger:                  zap.NewNop(),
	}

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionText,
		Long:          applicationLongDescriptionText,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: application.runRootCommand,
	}

	rootCommand.PersistentFlags().String(configFlagNameConstant, "", configFlagUsageConstant)
	rootCommand.PersistentFlags().String(logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	rootCommand.PersistentFlags().String(logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	rootCommand.PersistentFlags().String(tasksFileFlagNameConstant, "", tasksFileFlagUsageConstant)
	rootCommand.Flags().String(initFlagNameConstant, "", initFlagUsageConstant)
	rootCommand.Flags().Bool(forceFlagNameConstant, false, forceFlagUsageConstant)
	rootCommand.Flags().Bool(versionFlagNameConstant, false, versionFlagUsageConstant)

	application.rootCommand = rootCommand
	application.registerCommands()

	return application
}

// Execute runs the application with the process arguments.
func Execute() error {
	return NewApplication().ExecuteWithArguments(os.Args[1:])
}

// ExecuteWithArguments runs the application with the provided arguments.
func (application *Application) ExecuteWithArguments(arguments []string) error {
	application.rootCommand.SetArgs(normalizeInitializationScopeArguments(arguments))
	executionError := application.rootCommand.Execute()
	application.flushLogger()
	return executionError
}

// Logger exposes the active diagnostic logger to command builders.
func (application *Application) Logger() *zap.Logger {
	if application.logger == nil {
		return zap.NewNop()
	}
	return application.logger
}

// HumanReadableLogging reports whether console formatting is active.
func (application *Application) HumanReadableLogging() bool {
	return application.humanReadableLogging
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	explicitConfigurationPath, _, configFlagError := flagutils.StringFlag(command, configFlagNameConstant)
	if configFlagError != nil && !errors.Is(configFlagError, flagutils.ErrFlagNotDefined) {
		return configFlagError
	}

	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		resolveConfigurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	defaultValues := map[string]any{
		logLevelDefaultKeyConstant:  defaultLogLevelValueConstant,
		logFormatDefaultKeyConstant: defaultLogFormatValueConstant,
	}

	loadedConfiguration, loadError := configurationLoader.LoadConfiguration(explicitConfigurationPath, defaultValues, &application.configuration)
	if loadError != nil {
		return loadError
	}
	application.loadedConfigurationFile = loadedConfiguration.ConfigFileUsed

	if requestedLevel, levelChanged, levelFlagError := flagutils.StringFlag(command, logLevelFlagNameConstant); levelFlagError == nil && levelChanged {
		application.configuration.Common.LogLevel = requestedLevel
	}
	if requestedFormat, formatChanged, formatFlagError := flagutils.StringFlag(command, logFormatFlagNameConstant); formatFlagError == nil && formatChanged {
		application.configuration.Common.LogFormat = requestedFormat
	}
	if requestedTasksFile, tasksFileChanged, tasksFileFlagError := flagutils.StringFlag(command, tasksFileFlagNameConstant); tasksFileFlagError == nil && tasksFileChanged {
		application.configuration.Common.TasksFile = requestedTasksFile
	}

	loggerOutputs, loggerError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerError != nil {
		return loggerError
	}
	application.logger = loggerOutputs.DiagnosticLogger
	application.humanReadableLogging = utils.LogFormat(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogFormat))) == utils.LogFormatConsole

	operationConfigurations, operationsError := NewOperationConfigurations(application.configuration.Operations)
	if operationsError != nil {
		return operationsError
	}
	application.operationConfigurations = operationConfigurations

	commandContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.loadedConfigurationFile)
	commandContext = application.commandContextAccessor.WithLogLevel(commandContext, application.configuration.Common.LogLevel)
	command.SetContext(commandContext)

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command, _ []string) error {
	if versionRequested, _, versionFlagError := flagutils.BoolFlag(command, versionFlagNameConstant); versionFlagError == nil && versionRequested {
		fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, application.detectVersion())
		return nil
	}

	initializationScope, initRequested, initFlagError := flagutils.StringFlag(command, initFlagNameConstant)
	if initFlagError == nil && initRequested {
		forceRequested, _, _ := flagutils.BoolFlag(command, forceFlagNameConstant)
		return application.initializeConfigurationFile(command, initializationScope, forceRequested)
	}

	return command.Help()
}

func (application *Application) initializeConfigurationFile(command *cobra.Command, initializationScope string, forceRequested bool) error {
	targetPath, planError := resolveConfigurationInitializationPath(initializationScope)
	if planError != nil {
		return planError
	}

	if _, statError := os.Stat(targetPath); statError == nil && !forceRequested {
		return fmt.Errorf(configurationExistsTemplate, targetPath)
	}

	if mkdirError := os.MkdirAll(filepath.Dir(targetPath), configurationDirectoryPermission); mkdirError != nil {
		return mkdirError
	}

	configurationContent, _ := EmbeddedDefaultConfiguration()
	if writeError := os.WriteFile(targetPath, configurationContent, configurationFilePermission); writeError != nil {
		return writeError
	}

	fmt.Fprintf(command.OutOrStdout(), configurationWrittenTemplate, targetPath)
	return nil
}

func resolveConfigurationInitializationPath(initializationScope string) (string, error) {
	normalizedScope := strings.ToLower(strings.TrimSpace(initializationScope))
	switch normalizedScope {
	case initScopeLocalConstant, "":
		return configurationFileNameConstant, nil
	case initScopeUserConstant:
		homeDirectory, homeError := os.UserHomeDir()
		if homeError != nil {
			return "", homeError
		}
		return filepath.Join(homeDirectory, userConfigurationDirectoryName, configurationFileNameConstant), nil
	default:
		return "", fmt.Errorf(unknownInitScopeTemplateConstant, initializationScope)
	}
}

// resolveConfigurationSearchPaths returns the directories searched for a
// configuration file, honoring the search path environment override.
func resolveConfigurationSearchPaths() []string {
	if overrideValue := strings.TrimSpace(os.Getenv(configurationSearchPathEnvName)); len(overrideValue) > 0 {
		return filepath.SplitList(overrideValue)
	}

	searchPaths := []string{"."}
	if userConfigDirectory, configError := os.UserConfigDir(); configError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigDirectory, applicationNameConstant))
	}
	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDirectory, userConfigurationDirectoryName))
	}
	return searchPaths
}

// normalizeInitializationScopeArguments lets a bare --init default to the
// local scope so both "--init" and "--init user" parse.
func normalizeInitializationScopeArguments(arguments []string) []string {
	normalizedArguments := make([]string, 0, len(arguments)+1)
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		currentArgument := arguments[argumentIndex]
		normalizedArguments = append(normalizedArguments, currentArgument)
		if currentArgument != "--"+initFlagNameConstant {
			continue
		}
		scopeFollows := argumentIndex+1 < len(arguments) &&
			!strings.HasPrefix(arguments[argumentIndex+1], "-")
		if !scopeFollows {
			normalizedArguments = append(normalizedArguments, initScopeLocalConstant)
		}
	}
	return normalizedArguments
}

func (application *Application) flushLogger() {
	if application.logger == nil {
		return
	}
	syncError := application.logger.Sync()
	if syncError == nil {
		return
	}
	var pathError *os.PathError
	if errors.As(syncError, &pathError) {
		syncError = pathError.Err
	}
	switch {
	case errors.Is(syncError, syscall.ENOTSUP),
		errors.Is(syncError, syscall.EINVAL),
		errors.Is(syncError, syscall.EBADF),
		errors.Is(syncError, syscall.ENOTTY):
		return
	default:
		fmt.Fprintf(os.Stderr, "%v\n", syncError)
	}
}
