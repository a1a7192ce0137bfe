package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tyemirov/docrun/cmd/cli"
	"github.com/tyemirov/docrun/internal/execshell"
)

const (
	exitErrorTemplateConstant = "%v\n"
	fallbackExitCodeNumber    = 1
)

// main executes the docrun command-line application, propagating delegate
// tool exit codes to the calling shell.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) && commandFailure.Result.ExitCode > 0 {
		os.Exit(commandFailure.Result.ExitCode)
	}
	os.Exit(fallbackExitCodeNumber)
}
