package main

import (
	"errors"
	"os"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := cli.Execute()
	if err == nil {
		return 0
	}
	var cliErr *cli.CLIError
	if errors.As(cli.MapError(err), &cliErr) && cliErr.ExitCode != 0 {
		return cliErr.ExitCode
	}
	return 1
}
