// robolog - Robocopy log to JSON converter
//
// robolog reads the log Robocopy writes with /LOG or /UNILOG and emits the
// run's timings, paths, options and statistics as JSON.
package main

import (
	"os"

	"github.com/ccollicutt/robolog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
