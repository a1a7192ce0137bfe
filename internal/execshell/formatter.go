package execshell

import (
	"fmt"
	"strings"
)

const (
	formatterStartedMessageTemplateConstant          = "Running %s"
	formatterSuccessMessageTemplateConstant          = "Completed %s"
	formatterFailureMessageTemplateConstant          = "%s failed with exit code %d"
	formatterFailureDetailTemplateConstant           = "%s: %s"
	formatterExecutionFailureMessageTemplateConstant = "%s could not be executed: %v"
	formatterWorkingDirectoryTemplateConstant        = "%s (in %s)"
)

// CommandMessageFormatter renders human-readable command lifecycle messages.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command that is about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(formatterStartedMessageTemplateConstant, formatter.describeCommand(command))
}

// BuildSuccessMessage describes a command that completed with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(formatterSuccessMessageTemplateConstant, formatter.describeCommand(command))
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	message := fmt.Sprintf(formatterFailureMessageTemplateConstant, formatter.describeCommand(command), result.ExitCode)
	detail := strings.TrimSpace(result.StandardError)
	if len(detail) == 0 {
		detail = strings.TrimSpace(result.StandardOutput)
	}
	if len(detail) > 0 {
		firstLine := strings.SplitN(detail, "\n", 2)[0]
		message = fmt.Sprintf(formatterFailureDetailTemplateConstant, message, strings.TrimSpace(firstLine))
	}
	return message
}

// BuildExecutionFailureMessage describes a command that could not be started.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, cause error) string {
	return fmt.Sprintf(formatterExecutionFailureMessageTemplateConstant, formatter.describeCommand(command), cause)
}

func (formatter CommandMessageFormatter) describeCommand(command ShellCommand) string {
	description := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		description = fmt.Sprintf("%s %s", description, strings.Join(command.Details.Arguments, " "))
	}
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) > 0 {
		description = fmt.Sprintf(formatterWorkingDirectoryTemplateConstant, description, workingDirectory)
	}
	return description
}
