package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dashboardcmd "github.com/tyemirov/docrun/cmd/cli/dashboard"
	"github.com/tyemirov/docrun/cmd/cli/pipeline"
	taskscmd "github.com/tyemirov/docrun/cmd/cli/tasks"
	"github.com/tyemirov/docrun/internal/tasks"
	"github.com/tyemirov/docrun/internal/version"
)

const (
	installOperationNameConstant   = "install"
	runOperationNameConstant       = "run"
	startOperationNameConstant     = "start"
	testOperationNameConstant      = "test"
	convertOperationNameConstant   = "convert"
	extractOperationNameConstant   = "extract"
	countOperationNameConstant     = "count"
	compareOperationNameConstant   = "compare"
	reportOperationNameConstant    = "report"
	dashboardOperationNameConstant = "dashboard"
	versionCommandUseConstant      = "version"
	versionCommandShortConstant    = "Print the application version"
	operationDecodeWarningConstant = "ignoring malformed operation configuration"
	operationFieldNameConstant     = "operation"
)

func (application *Application) registerCommands() {
	taskCommandBuilder := &taskscmd.CommandBuilder{
		LoggerProvider:               application.Logger,
		HumanReadableLoggingProvider: application.HumanReadableLogging,
		ConfigurationProvider:        application.taskTableConfiguration,
		ManifestPathProvider:         application.tasksFilePath,
	}

	convertCommandBuilder := &pipeline.ConvertCommandBuilder{
		LoggerProvider:               application.Logger,
		HumanReadableLoggingProvider: application.HumanReadableLogging,
		ConfigurationProvider:        decodeOperationProvider[pipeline.ConvertConfiguration](application, convertOperationNameConstant),
	}
	extractCommandBuilder := &pipeline.ExtractCommandBuilder{
		LoggerProvider:               application.Logger,
		HumanReadableLoggingProvider: application.HumanReadableLogging,
		ConfigurationProvider:        decodeOperationProvider[pipeline.ExtractConfiguration](application, extractOperationNameConstant),
	}
	countCommandBuilder := &pipeline.CountCommandBuilder{
		LoggerProvider:               application.Logger,
		HumanReadableLoggingProvider: application.HumanReadableLogging,
		ConfigurationProvider:        decodeOperationProvider[pipeline.CountConfiguration](application, countOperationNameConstant),
	}
	compareCommandBuilder := &pipeline.CompareCommandBuilder{
		LoggerProvider:               application.Logger,
		HumanReadableLoggingProvider: application.HumanReadableLogging,
		ConfigurationProvider:        decodeOperationProvider[pipeline.CompareConfiguration](application, compareOperationNameConstant),
	}
	reportCommandBuilder := &pipeline.ReportCommandBuilder{
		LoggerProvider:               application.Logger,
		HumanReadableLoggingProvider: application.HumanReadableLogging,
		ConfigurationProvider:        decodeOperationProvider[pipeline.ReportConfiguration](application, reportOperationNameConstant),
	}
	dashboardCommandBuilder := &dashboardcmd.CommandBuilder{
		LoggerProvider:               application.Logger,
		HumanReadableLoggingProvider: application.HumanReadableLogging,
		ConfigurationProvider:        decodeOperationProvider[dashboardcmd.Configuration](application, dashboardOperationNameConstant),
	}

	commandBuilders := []func() (*cobra.Command, error){
		taskCommandBuilder.BuildInstallCommand,
		taskCommandBuilder.BuildRunCommand,
		taskCommandBuilder.BuildStartCommand,
		taskCommandBuilder.BuildTestCommand,
		taskCommandBuilder.BuildTasksCommand,
		convertCommandBuilder.Build,
		extractCommandBuilder.Build,
		countCommandBuilder.Build,
		compareCommandBuilder.Build,
		reportCommandBuilder.Build,
		dashboardCommandBuilder.Build,
		application.buildVersionCommand,
	}

	for _, buildCommand := range commandBuilders {
		builtCommand, buildError := buildCommand()
		if buildError != nil {
			continue
		}
		application.rootCommand.AddCommand(builtCommand)
	}
}

func (application *Application) buildVersionCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           versionCommandUseConstant,
		Short:         versionCommandShortConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, _ []string) error {
			fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, application.detectVersion())
			return nil
		},
	}
	return command, nil
}

func (application *Application) detectVersion() string {
	return version.NewDetector(nil).Detect()
}

func (application *Application) tasksFilePath() string {
	return application.configuration.Common.TasksFile
}

func (application *Application) taskTableConfiguration() tasks.TaskTableConfiguration {
	configuration := tasks.TaskTableConfiguration{}
	application.decodeOperation(installOperationNameConstant, &configuration.Install)
	application.decodeOperation(runOperationNameConstant, &configuration.Run)
	application.decodeOperation(startOperationNameConstant, &configuration.Start)
	application.decodeOperation(testOperationNameConstant, &configuration.Test)
	return configuration
}

func (application *Application) decodeOperation(operationName string, target any) {
	if decodeError := application.operationConfigurations.DecodeOperation(operationName, target); decodeError != nil {
		application.Logger().Warn(operationDecodeWarningConstant,
			zap.String(operationFieldNameConstant, operationName),
			zap.Error(decodeError),
		)
	}
}

func decodeOperationProvider[ConfigurationType any](application *Application, operationName string) func() ConfigurationType {
	return func() ConfigurationType {
		var configuration ConfigurationType
		application.decodeOperation(operationName, &configuration)
		return configuration
	}
}
