package taskrunner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyemirov/docrun/internal/execshell"
	"github.com/tyemirov/docrun/internal/tasks"
	"github.com/tyemirov/docrun/pkg/taskrunner"
	"go.uber.org/zap"
)

type recordingRunner struct {
	executedCommands []execshell.ShellCommand
}

func (runner *recordingRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.executedCommands = append(runner.executedCommands, command)
	return execshell.ExecutionResult{}, nil
}

func buildFixtureRegistry(testInstance *testing.T) tasks.Registry {
	testInstance.Helper()
	registry, registryError := tasks.NewRegistry([]tasks.Task{
		{Name: "run", Description: "Run the entry point", Tool: "python3", Arguments: []string{"main.py"}, Streaming: true},
		{Name: "start", Aliases: []string{"app"}, Tool: "streamlit", Arguments: []string{"run", "streamlit_app.py"}, Streaming: true},
	})
	require.NoError(testInstance, registryError)
	return registry
}

func TestResolveBuildsDefaultExecutor(testInstance *testing.T) {
	commandRunner := &recordingRunner{}
	executor, resolveError := taskrunner.Resolve(nil, taskrunner.Dependencies{
		Logger:        zap.NewNop(),
		CommandRunner: commandRunner,
		Registry:      buildFixtureRegistry(testInstance),
	})
	require.NoError(testInstance, resolveError)

	require.NoError(testInstance, executor.Run(context.Background(), "run"))
	require.Len(testInstance, commandRunner.executedCommands, 1)
	require.Equal(testInstance, execshell.CommandName("python3"), commandRunner.executedCommands[0].Name)
	require.Len(testInstance, executor.Tasks(), 2)
}

func TestResolvePrefersFactoryExecutor(testInstance *testing.T) {
	factoryExecutor := &fakeExecutor{}
	executor, resolveError := taskrunner.Resolve(
		func(taskrunner.Dependencies) taskrunner.Executor { return factoryExecutor },
		taskrunner.Dependencies{Registry: buildFixtureRegistry(testInstance)},
	)
	require.NoError(testInstance, resolveError)
	require.Same(testInstance, factoryExecutor, executor.(*fakeExecutor))

	require.NoError(testInstance, executor.Run(context.Background(), "run"))
	require.Equal(testInstance, []string{"run"}, factoryExecutor.requestedTasks)
}

func TestResolveReportsUnknownTask(testInstance *testing.T) {
	executor, resolveError := taskrunner.Resolve(nil, taskrunner.Dependencies{
		Logger:        zap.NewNop(),
		CommandRunner: &recordingRunner{},
		Registry:      buildFixtureRegistry(testInstance),
	})
	require.NoError(testInstance, resolveError)

	runError := executor.Run(context.Background(), "deploy")
	var notFoundError tasks.TaskNotFoundError
	require.ErrorAs(testInstance, runError, &notFoundError)
}

type fakeExecutor struct {
	requestedTasks []string
}

func (executor *fakeExecutor) Run(_ context.Context, taskName string) error {
	executor.requestedTasks = append(executor.requestedTasks, taskName)
	return nil
}

func (executor *fakeExecutor) Tasks() []tasks.Task { return nil }
