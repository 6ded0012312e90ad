package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/checkup/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
	fatalExitCodeConstant     = 1
)

// exitCoder is implemented by errors that carry a specific process exit
// status, such as a blocking severity threshold violation.
type exitCoder interface {
	ExitCode() int
}

// main executes the checkup command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)

		var codedError exitCoder
		if errors.As(executionError, &codedError) {
			os.Exit(codedError.ExitCode())
		}
		os.Exit(fatalExitCodeConstant)
	}
}
