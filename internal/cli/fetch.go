package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/justgrid/pkg/config"
	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/loader"
	"github.com/matzehuels/justgrid/pkg/snapshot"
)

const defaultGalleryID = "cli"

type fetchOpts struct {
	layoutOpts
	gallery   string
	sortOrder string
	maxItems  int
	maxRounds int
	save      bool
	resume    bool
}

func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch <collection>...",
		Short: "Load collections page by page until exhausted",
		Long: `Load collections from the photo API page by page, the way a scrolling
gallery would, and print the resulting layout.

Each round requests the next page of every collection that still has more.
Failed rounds are retried with backoff; a collection that does not exist is
skipped. With --save the gallery's progress is stored as a snapshot, and
--resume continues from it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd.Context(), args, opts)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.gallery, "gallery", "g", defaultGalleryID, "gallery id for snapshots")
	cmd.Flags().StringVar(&opts.sortOrder, "sort", "", "sort order: default, most-viewed")
	cmd.Flags().IntVar(&opts.maxItems, "max-items", 0, "stop after this many photos (0: config)")
	cmd.Flags().IntVar(&opts.maxRounds, "max-rounds", 0, "stop after this many load rounds (0: until exhausted)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save a snapshot of the gallery")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "continue from the gallery's snapshot")
	return cmd
}

func (c *CLI) runFetch(ctx context.Context, collections []string, opts fetchOpts) error {
	cfg, err := c.Config()
	if err != nil {
		return err
	}
	pc := c.openCache(ctx, cfg)
	defer pc.Close()

	client, err := cfg.AlbumClient(pc, c.refresh, c.Logger)
	if err != nil {
		return err
	}

	var store snapshot.Store
	if opts.save || opts.resume {
		if store, err = openSnapshots(ctx, cfg); err != nil {
			return err
		}
		defer store.Close()
	}

	settled := make(chan struct{}, 1)
	lopts := galleryOptions(cfg, collections, opts.sortOrder, opts.maxItems)
	lopts.ID = opts.gallery
	lopts.Provider = client
	lopts.Logger = c.Logger
	lopts.OnStatus = func(loader.Status) { notify(settled) }
	ctrl, err := loader.New(lopts)
	if err != nil {
		return err
	}
	defer ctrl.Destroy()

	if opts.resume {
		snap, err := store.Get(ctx, opts.gallery)
		if err != nil {
			return err
		}
		if snap == nil {
			printWarning("No snapshot for %s, starting fresh", opts.gallery)
		} else if err := snap.Apply(ctrl); err != nil {
			return err
		} else {
			printInfo("Resumed %s with %d photos", opts.gallery, len(snap.Items))
		}
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Loading "+strings.Join(collections, ", "))
	spinner.Start()
	st, err := drain(ctx, ctrl, settled, cfg.Loader.Cooldown, opts.maxRounds, func(st loader.Status) {
		spinner.SetMessage("Loading... %d photos", st.Items)
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	switch st.State {
	case loader.Fatal:
		printError("Loading stopped: %s", st.Indicator.Message)
	case loader.Exhausted:
		prog.done("Gallery complete")
	default:
		prog.done("Stopped after round limit")
	}
	printStatus(st)

	if opts.save {
		snap := snapshot.Take(ctrl, lopts.SortOrder)
		if err := store.Save(ctx, snap); err != nil {
			return err
		}
		printSuccess("Saved snapshot %s (%d photos)", snap.GalleryID, len(snap.Items))
		if st.State != loader.Exhausted {
			printNextStep("Continue later", fmt.Sprintf("%s fetch %s -g %s --resume", appName, strings.Join(collections, " "), snap.GalleryID))
		}
	}

	if err := c.writeLayout(ctrl.Items(), cfg.Layout, opts.layoutOpts, opts.gallery); err != nil {
		return err
	}
	if st.State == loader.Fatal {
		return errors.New(errors.ErrCodeUnauthorized, "%s", st.Indicator.Message)
	}
	return nil
}

// galleryOptions returns controller options for the collections with the
// command-line overrides applied.
func galleryOptions(cfg config.Config, collections []string, sortOrder string, maxItems int) loader.Options {
	opts := cfg.LoaderOptions(collections)
	if sortOrder != "" {
		opts.SortOrder = loader.SortOrder(sortOrder)
	}
	if maxItems > 0 {
		opts.MaxItems = maxItems
	}
	return opts
}

func openSnapshots(ctx context.Context, cfg config.Config) (snapshot.Store, error) {
	store, err := cfg.OpenSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "snapshots are disabled (snapshot.backend = none)")
	}
	return store, nil
}

// notify signals ch without blocking.
func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// drain runs load rounds until the gallery is exhausted or fatal, or until
// maxRounds rounds have run (0 for no limit). Between rounds it waits out
// the cooldown; during backoff it waits for the scheduled retry, which the
// controller runs itself. settled is signalled on every status change.
func drain(ctx context.Context, ctrl *loader.Controller, settled <-chan struct{}, cooldown time.Duration, maxRounds int, onRound func(loader.Status)) (loader.Status, error) {
	for round := 0; ; {
		st, err := waitSettled(ctx, ctrl, settled)
		if err != nil {
			return st, err
		}
		if st.State.Terminal() || (maxRounds > 0 && round >= maxRounds) {
			return st, nil
		}

		ctrl.LoadNextPages(ctx)
		round++
		st = ctrl.Status()
		if onRound != nil {
			onRound(st)
		}
		if st.State == loader.Idle {
			select {
			case <-ctx.Done():
				return st, ctx.Err()
			case <-time.After(cooldown):
			}
		}
	}
}

// waitSettled blocks while a load or a scheduled retry is pending.
func waitSettled(ctx context.Context, ctrl *loader.Controller, settled <-chan struct{}) (loader.Status, error) {
	for {
		st := ctrl.Status()
		if st.State != loader.Loading && st.State != loader.Backoff {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-settled:
		}
	}
}
