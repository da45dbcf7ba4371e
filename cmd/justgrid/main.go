package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/matzehuels/justgrid/internal/cli"
	"github.com/matzehuels/justgrid/pkg/buildinfo"
)

// shutdownSignals cancel the command context.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	preRun := root.PersistentPreRun
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if preRun != nil {
			preRun(cmd, args)
		}
	}

	// fang prints the error and cancels the context on interrupt.
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(buildinfo.Short()),
		fang.WithNotifySignal(shutdownSignals...),
	); err != nil {
		os.Exit(1)
	}
}
