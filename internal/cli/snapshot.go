package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage saved gallery snapshots",
	}
	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())
	return cmd
}

func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			store, err := openSnapshots(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ids, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				printInfo("No snapshots")
				return nil
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				snap, err := store.Get(ctx, id)
				if err != nil || snap == nil {
					c.Logger.Warn("skipping unreadable snapshot", "gallery", id, "err", err)
					continue
				}
				rows = append(rows, []string{
					id,
					strconv.Itoa(len(snap.Items)),
					strconv.Itoa(len(snap.Sets)),
					snap.SavedAt.Local().Format(time.DateTime),
				})
			}
			printTable([]string{"Gallery", "Photos", "Sets", "Saved"}, rows)
			return nil
		},
	}
}

func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <gallery>...",
		Short: "Delete snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			store, err := openSnapshots(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.Delete(ctx, id); err != nil {
					return err
				}
				printSuccess("Deleted snapshot %s", id)
			}
			return nil
		},
	}
}
