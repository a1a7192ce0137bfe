package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
)

const (
	environmentEntryTemplateConstant   = "%s=%s"
	spawnFailureFallbackExitCodeNumber = 1
)

// OSCommandRunner executes shell commands on the host operating system.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an operating-system backed command runner.
func NewOSCommandRunner() OSCommandRunner {
	return OSCommandRunner{}
}

// Run executes the command via os/exec, honoring context cancellation.
func (runner OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	executableCommand := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	executableCommand.Dir = command.Details.WorkingDirectory
	executableCommand.Env = buildEnvironment(command.Details.EnvironmentVariables)

	if len(command.Details.StandardInput) > 0 {
		executableCommand.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	if command.Details.StreamOutput {
		executableCommand.Stdout = os.Stdout
		executableCommand.Stderr = os.Stderr
	} else {
		executableCommand.Stdout = &standardOutputBuffer
		executableCommand.Stderr = &standardErrorBuffer
	}

	runError := executableCommand.Run()

	executionResult := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}

	if runError == nil {
		return executionResult, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		executionResult.ExitCode = exitError.ExitCode()
		return executionResult, nil
	}

	executionResult.ExitCode = spawnFailureFallbackExitCodeNumber
	return executionResult, runError
}

func buildEnvironment(environmentVariables map[string]string) []string {
	environment := os.Environ()
	if len(environmentVariables) == 0 {
		return environment
	}

	variableNames := make([]string, 0, len(environmentVariables))
	for variableName := range environmentVariables {
		variableNames = append(variableNames, variableName)
	}
	sort.Strings(variableNames)

	for _, variableName := range variableNames {
		environment = append(environment, fmt.Sprintf(environmentEntryTemplateConstant, variableName, environmentVariables[variableName]))
	}
	return environment
}
