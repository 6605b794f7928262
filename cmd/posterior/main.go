// Command posterior archives MCMC posterior draws and reports convergence
// diagnostics.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/posterior/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
