package taskrunner

import (
	"context"

	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/execshell"
	"github.com/tyemirov/docrun/internal/tasks"
)

// Executor dispatches named tasks to their external commands.
type Executor interface {
	Run(ctx context.Context, taskName string) error
	Tasks() []tasks.Task
}

// Dependencies describes the collaborators required to build a task executor.
type Dependencies struct {
	Logger               *zap.Logger
	HumanReadableLogging bool
	CommandRunner        execshell.CommandRunner
	Registry             tasks.Registry
}

// Factory constructs an Executor given resolved dependencies.
type Factory func(Dependencies) Executor

type registryExecutor struct {
	runner   tasks.TaskRunner
	registry tasks.Registry
}

func (executor registryExecutor) Run(ctx context.Context, taskName string) error {
	return executor.runner.Run(ctx, taskName)
}

func (executor registryExecutor) Tasks() []tasks.Task {
	return executor.registry.Tasks()
}

// Resolve returns either the provided factory result or a default task runner
// backed by the operating system shell.
func Resolve(factory Factory, dependencies Dependencies) (Executor, error) {
	if factory != nil {
		if built := factory(dependencies); built != nil {
			return built, nil
		}
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	commandRunner := dependencies.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, dependencies.HumanReadableLogging)
	if executorError != nil {
		return nil, executorError
	}

	taskRunner, runnerError := tasks.NewTaskRunner(dependencies.Registry, shellExecutor, logger)
	if runnerError != nil {
		return nil, runnerError
	}

	return registryExecutor{runner: taskRunner, registry: dependencies.Registry}, nil
}
