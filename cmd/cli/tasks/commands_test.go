package tasks_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	taskscmd "github.com/tyemirov/docrun/cmd/cli/tasks"
	"github.com/tyemirov/docrun/internal/tasks"
	"github.com/tyemirov/docrun/pkg/taskrunner"
	"go.uber.org/zap"
)

type recordingExecutor struct {
	requestedTasks []string
	runError       error
	taskTable      []tasks.Task
}

func (executor *recordingExecutor) Run(_ context.Context, taskName string) error {
	executor.requestedTasks = append(executor.requestedTasks, taskName)
	return executor.runError
}

func (executor *recordingExecutor) Tasks() []tasks.Task {
	return executor.taskTable
}

func buildCommandBuilder(executor *recordingExecutor) *taskscmd.CommandBuilder {
	return &taskscmd.CommandBuilder{
		LoggerProvider:               func() *zap.Logger { return zap.NewNop() },
		HumanReadableLoggingProvider: func() bool { return false },
		ConfigurationProvider:        func() tasks.TaskTableConfiguration { return tasks.TaskTableConfiguration{} },
		ExecutorFactory: func(dependencies taskrunner.Dependencies) taskrunner.Executor {
			executor.taskTable = dependencies.Registry.Tasks()
			return executor
		},
	}
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments ...string) (string, error) {
	testInstance.Helper()
	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func TestTaskCommandsDispatchExpectedTasks(testInstance *testing.T) {
	testCases := []struct {
		name         string
		build        func(*taskscmd.CommandBuilder) (*cobra.Command, error)
		expectedTask string
	}{
		{name: "install", build: (*taskscmd.CommandBuilder).BuildInstallCommand, expectedTask: tasks.InstallTaskName},
		{name: "run", build: (*taskscmd.CommandBuilder).BuildRunCommand, expectedTask: tasks.RunTaskName},
		{name: "start", build: (*taskscmd.CommandBuilder).BuildStartCommand, expectedTask: tasks.StartTaskName},
		{name: "test", build: (*taskscmd.CommandBuilder).BuildTestCommand, expectedTask: tasks.TestTaskName},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			executor := &recordingExecutor{}
			builder := buildCommandBuilder(executor)

			command, buildError := testCase.build(builder)
			require.NoError(subtestInstance, buildError)

			_, executionError := executeCommand(subtestInstance, command)
			require.NoError(subtestInstance, executionError)
			require.Equal(subtestInstance, []string{testCase.expectedTask}, executor.requestedTasks)
		})
	}
}

func TestRunCommandPropagatesDelegateFailure(testInstance *testing.T) {
	executor := &recordingExecutor{runError: tasks.TaskNotFoundError{TaskName: tasks.RunTaskName}}
	builder := buildCommandBuilder(executor)

	command, buildError := builder.BuildRunCommand()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command)
	require.Error(testInstance, executionError)
}

func TestStartCommandExposesAliases(testInstance *testing.T) {
	builder := buildCommandBuilder(&recordingExecutor{})
	command, buildError := builder.BuildStartCommand()
	require.NoError(testInstance, buildError)
	require.ElementsMatch(testInstance, []string{"streamlit", "app"}, command.Aliases)
}

func TestTasksCommandListsBuiltInsAndManifestTasks(testInstance *testing.T) {
	manifestPath := filepath.Join(testInstance.TempDir(), "tasks.yaml")
	manifestContent := "tasks:\n  - task:\n      name: lint\n      tool: python3\n      arguments: [\"-m\", \"flake8\"]\n"
	require.NoError(testInstance, os.WriteFile(manifestPath, []byte(manifestContent), 0o644))

	executor := &recordingExecutor{}
	builder := buildCommandBuilder(executor)
	builder.ManifestPathProvider = func() string { return manifestPath }

	command, buildError := builder.BuildTasksCommand()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "install")
	require.Contains(testInstance, output, "start (streamlit, app)")
	require.Contains(testInstance, output, "lint")
}

func TestTasksCommandReportsManifestErrors(testInstance *testing.T) {
	builder := buildCommandBuilder(&recordingExecutor{})
	builder.ManifestPathProvider = func() string {
		return filepath.Join(testInstance.TempDir(), "absent.yaml")
	}

	command, buildError := builder.BuildTasksCommand()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command)
	require.Error(testInstance, executionError)
	require.ErrorContains(testInstance, executionError, "failed to load task manifest")
}
