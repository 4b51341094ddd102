package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/storm-freeboard/internal/cli"
	"github.com/couchcryptid/storm-freeboard/internal/observability"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr, observability.NewMetrics())
	if err := app.Run(cli.ReorderArgs(os.Args)); err != nil {
		fmt.Fprintln(os.Stderr, "freeboard:", err)
		os.Exit(cli.ExitCode(err))
	}
}
