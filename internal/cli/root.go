package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/justgrid/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Justified photo galleries with incremental loading",
		Long: `justgrid lays out photos in justified rows and loads remote collections
page by page as the viewer scrolls towards the end of the gallery.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env file is not an error.
			_ = godotenv.Load()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the page and probe cache")
	root.PersistentFlags().BoolVar(&c.refresh, "refresh", false, "refetch pages even when cached")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.probeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.cacheCommand())

	return root
}
