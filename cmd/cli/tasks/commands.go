// Package tasks provides the Cobra commands that dispatch the built-in task
// table: install, run, start, test, and the tasks listing.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/tasks"
	flagutils "github.com/tyemirov/docrun/internal/utils/flags"
	"github.com/tyemirov/docrun/pkg/taskrunner"
)

const (
	installCommandUseConstant         = "install"
	installCommandShortConstant       = "Install toolchain dependencies"
	runCommandUseConstant             = "run"
	runCommandShortConstant           = "Run the pipeline entry-point script"
	runCommandLongConstant            = "run executes the configured entry-point script through its interpreter, streaming the script's output and propagating its exit code. With --watch the script is re-run whenever a watched path changes."
	startCommandUseConstant           = "start"
	startCommandShortConstant         = "Start the external web dashboard"
	startCommandLongConstant          = "start launches the configured dashboard process and blocks until it exits or the run is interrupted."
	testCommandUseConstant            = "test"
	testCommandShortConstant          = "Run the comparison script"
	tasksCommandUseConstant           = "tasks"
	tasksCommandShortConstant         = "List the available tasks"
	watchFlagNameConstant             = "watch"
	watchFlagUsageConstant            = "Re-run the task whenever a watched path changes."
	defaultWatchPathConstant          = "."
	initialWatchRunFailedLogConstant  = "initial run failed; watching for changes"
	builderConfigMissingErrorConstant = "task command builder requires a configuration provider"
)

// CommandBuilder assembles the task dispatch commands.
type CommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() tasks.TaskTableConfiguration
	ManifestPathProvider         func() string
	ExecutorFactory              taskrunner.Factory
}

func (builder *CommandBuilder) logger() *zap.Logger {
	if builder.LoggerProvider != nil {
		if provided := builder.LoggerProvider(); provided != nil {
			return provided
		}
	}
	return zap.NewNop()
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider != nil {
		return builder.HumanReadableLoggingProvider()
	}
	return false
}

func (builder *CommandBuilder) taskTableConfiguration() (tasks.TaskTableConfiguration, error) {
	if builder.ConfigurationProvider == nil {
		return tasks.TaskTableConfiguration{}, errors.New(builderConfigMissingErrorConstant)
	}
	return builder.ConfigurationProvider(), nil
}

func (builder *CommandBuilder) buildRegistry() (tasks.Registry, error) {
	configuration, configurationError := builder.taskTableConfiguration()
	if configurationError != nil {
		return tasks.Registry{}, configurationError
	}

	taskDefinitions := tasks.BuildTaskTable(configuration)

	if builder.ManifestPathProvider != nil {
		manifestPath := strings.TrimSpace(builder.ManifestPathProvider())
		if len(manifestPath) > 0 {
			manifestTasks, manifestError := tasks.LoadManifest(manifestPath)
			if manifestError != nil {
				return tasks.Registry{}, manifestError
			}
			taskDefinitions = tasks.MergeTasks(taskDefinitions, manifestTasks)
		}
	}

	return tasks.NewRegistry(taskDefinitions)
}

func (builder *CommandBuilder) resolveExecutor() (taskrunner.Executor, error) {
	registry, registryError := builder.buildRegistry()
	if registryError != nil {
		return nil, registryError
	}

	return taskrunner.Resolve(builder.ExecutorFactory, taskrunner.Dependencies{
		Logger:               builder.logger(),
		HumanReadableLogging: builder.humanReadableLogging(),
		Registry:             registry,
	})
}

func (builder *CommandBuilder) runNamedTask(command *cobra.Command, taskName string) error {
	executor, executorError := builder.resolveExecutor()
	if executorError != nil {
		return executorError
	}

	executionContext, stopSignalHandling := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignalHandling()

	return executor.Run(executionContext, taskName)
}

// BuildInstallCommand assembles the install command.
func (builder *CommandBuilder) BuildInstallCommand() (*cobra.Command, error) {
	return &cobra.Command{
		Use:           installCommandUseConstant,
		Short:         installCommandShortConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.runNamedTask(command, tasks.InstallTaskName)
		},
	}, nil
}

// BuildRunCommand assembles the run command with its watch mode.
func (builder *CommandBuilder) BuildRunCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           runCommandUseConstant,
		Short:         runCommandShortConstant,
		Long:          runCommandLongConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, _ []string) error {
			watchRequested, _, watchFlagError := flagutils.BoolFlag(command, watchFlagNameConstant)
			if watchFlagError != nil {
				return watchFlagError
			}
			if !watchRequested {
				return builder.runNamedTask(command, tasks.RunTaskName)
			}
			return builder.runTaskWithWatch(command)
		},
	}
	command.Flags().Bool(watchFlagNameConstant, false, watchFlagUsageConstant)
	return command, nil
}

// BuildStartCommand assembles the blocking dashboard launch command.
func (builder *CommandBuilder) BuildStartCommand() (*cobra.Command, error) {
	return &cobra.Command{
		Use:           startCommandUseConstant,
		Aliases:       []string{"streamlit", "app"},
		Short:         startCommandShortConstant,
		Long:          startCommandLongConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.runNamedTask(command, tasks.StartTaskName)
		},
	}, nil
}

// BuildTestCommand assembles the comparison script command.
func (builder *CommandBuilder) BuildTestCommand() (*cobra.Command, error) {
	return &cobra.Command{
		Use:           testCommandUseConstant,
		Short:         testCommandShortConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, _ []string) error {
			return builder.runNamedTask(command, tasks.TestTaskName)
		},
	}, nil
}

// BuildTasksCommand assembles the task listing command.
func (builder *CommandBuilder) BuildTasksCommand() (*cobra.Command, error) {
	return &cobra.Command{
		Use:           tasksCommandUseConstant,
		Short:         tasksCommandShortConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, _ []string) error {
			executor, executorError := builder.resolveExecutor()
			if executorError != nil {
				return executorError
			}
			fmt.Fprintln(command.OutOrStdout(), taskrunner.RenderTaskTable(executor.Tasks()))
			return nil
		},
	}, nil
}

func (builder *CommandBuilder) runTaskWithWatch(command *cobra.Command) error {
	executor, executorError := builder.resolveExecutor()
	if executorError != nil {
		return executorError
	}

	configuration, configurationError := builder.taskTableConfiguration()
	if configurationError != nil {
		return configurationError
	}
	watchedPaths := configuration.Run.WatchPaths
	if len(watchedPaths) == 0 {
		watchedPaths = []string{defaultWatchPathConstant}
	}

	commandLogger := builder.logger()
	watcher, watcherError := tasks.NewWatcher(commandLogger, watchedPaths, 0)
	if watcherError != nil {
		return watcherError
	}
	defer func() { _ = watcher.Close() }()

	executionContext, stopSignalHandling := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignalHandling()

	if initialRunError := executor.Run(executionContext, tasks.RunTaskName); initialRunError != nil {
		commandLogger.Warn(initialWatchRunFailedLogConstant, zap.Error(initialRunError))
	}

	watchError := watcher.Run(executionContext, func(callbackContext context.Context) error {
		return executor.Run(callbackContext, tasks.RunTaskName)
	})
	if errors.Is(watchError, context.Canceled) {
		return nil
	}
	return watchError
}
