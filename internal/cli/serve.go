package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/justgrid/internal/server"
	"github.com/matzehuels/justgrid/pkg/loader"
	"github.com/matzehuels/justgrid/pkg/snapshot"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gallery HTTP API",
		Long: `Run the gallery HTTP API. Clients create galleries, request laid-out
rows for their container width, and report scroll proximity to load more
pages. Without a provider base_url only galleries of direct image URLs can
be created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			pc := c.openCache(ctx, cfg)
			defer pc.Close()

			var provider loader.PageProvider
			if cfg.Provider.BaseURL != "" {
				client, err := cfg.AlbumClient(pc, c.refresh, c.Logger)
				if err != nil {
					return err
				}
				provider = client
			} else {
				printWarning("No provider base_url set; only URL galleries are available")
			}

			var store snapshot.Store
			if store, err = cfg.OpenSnapshots(ctx); err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			srv, err := server.New(server.Options{
				Config:    cfg,
				Provider:  provider,
				URLs:      cfg.URLProvider(pc, c.Logger),
				Snapshots: store,
				Logger:    c.Logger,
			})
			if err != nil {
				return err
			}
			printKeyValue("Listening", cfg.Server.Addr)
			printKeyValue("Cache", cfg.Cache.Backend)
			printKeyValue("Snapshots", cfg.Snapshot.Backend)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config server.addr)")
	return cmd
}
