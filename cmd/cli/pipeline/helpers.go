// Package pipeline provides the Cobra commands that run the invoice analysis
// stages natively: page conversion, component extraction, label counting,
// image comparison, and HTML report rendering.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/execshell"
)

func resolveLogger(loggerProvider func() *zap.Logger) *zap.Logger {
	if loggerProvider != nil {
		if provided := loggerProvider(); provided != nil {
			return provided
		}
	}
	return zap.NewNop()
}

func resolveHumanReadableLogging(provider func() bool) bool {
	if provider != nil {
		return provider()
	}
	return false
}

func resolveShellExecutor(logger *zap.Logger, humanReadableLogging bool, commandRunner execshell.CommandRunner) (*execshell.ShellExecutor, error) {
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}
	return execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
}
