package main

import (
	"fmt"
	"os"

	"github.com/temirov/repo2gitmodules/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main converts a repo manifest into git submodules.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
