package tasks

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/execshell"
)

const (
	runnerExecutorNotConfiguredMessageConstant = "task runner executor not configured"
	taskDispatchMessageConstant                = "dispatching task"
	taskCompletedMessageConstant               = "task completed"
	taskNameLogFieldConstant                   = "task"
	taskToolLogFieldConstant                   = "tool"
	taskArgumentsLogFieldConstant              = "arguments"
)

// ErrExecutorNotConfigured indicates the runner was built without a shell executor.
var ErrExecutorNotConfigured = errors.New(runnerExecutorNotConfiguredMessageConstant)

// CommandExecutor executes fully qualified shell commands.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// TaskRunner dispatches registry tasks to their external commands.
//
// Every dispatch is a stateless one-shot delegation: failures are returned to
// the caller unmodified, with no retries or local recovery.
type TaskRunner struct {
	registry Registry
	executor CommandExecutor
	logger   *zap.Logger
}

// NewTaskRunner constructs a TaskRunner over the provided registry and executor.
func NewTaskRunner(registry Registry, executor CommandExecutor, logger *zap.Logger) (TaskRunner, error) {
	if executor == nil {
		return TaskRunner{}, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return TaskRunner{registry: registry, executor: executor, logger: logger}, nil
}

// Run resolves the named task and executes its command, propagating failure.
func (runner TaskRunner) Run(executionContext context.Context, taskName string) error {
	resolvedTask, lookupError := runner.registry.Lookup(taskName)
	if lookupError != nil {
		return lookupError
	}
	return runner.RunTask(executionContext, resolvedTask)
}

// RunTask executes the provided task definition directly.
func (runner TaskRunner) RunTask(executionContext context.Context, task Task) error {
	runner.logger.Debug(taskDispatchMessageConstant,
		zap.String(taskNameLogFieldConstant, task.Name),
		zap.String(taskToolLogFieldConstant, task.Tool),
		zap.Strings(taskArgumentsLogFieldConstant, task.Arguments),
	)

	command := execshell.ShellCommand{
		Name: execshell.CommandName(task.Tool),
		Details: execshell.CommandDetails{
			Arguments:    task.Arguments,
			StreamOutput: task.Streaming,
		},
	}

	if _, executionError := runner.executor.Execute(executionContext, command); executionError != nil {
		return executionError
	}

	runner.logger.Debug(taskCompletedMessageConstant, zap.String(taskNameLogFieldConstant, task.Name))
	return nil
}
