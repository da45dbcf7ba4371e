package cli

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/integrations/urls"
)

func (c *CLI) probeCommand() *cobra.Command {
	var (
		format      string
		orient      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "probe <url>...",
		Short: "Read image dimensions from URLs",
		Long: `Read image dimensions from URLs by downloading as little of each file as
needed. JPEG, PNG, GIF, WebP, BMP and TIFF are recognized. With --orient the
whole image is decoded and its EXIF orientation applied.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			pc := c.openCache(cmd.Context(), cfg)
			defer pc.Close()

			prober := urls.NewProber(urls.ProberOptions{
				Cache:       pc,
				Concurrency: concurrency,
				Orient:      orient || cfg.Provider.Orient,
			})
			return c.runProbe(cmd.Context(), prober, args, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json")
	cmd.Flags().BoolVar(&orient, "orient", false, "apply EXIF orientation")
	cmd.Flags().IntVar(&concurrency, "concurrency", urls.DefaultConcurrency, "parallel downloads")
	return cmd
}

type probeResult struct {
	URL   string           `json:"url"`
	Dims  *urls.Dimensions `json:"dimensions,omitempty"`
	Error string           `json:"error,omitempty"`
}

func (c *CLI) runProbe(ctx context.Context, prober *urls.Prober, list []string, format string) error {
	if format != formatTable && format != formatJSON {
		return errors.New(errors.ErrCodeUnsupported, "unsupported format: %q (must be table or json)", format)
	}

	spinner := newSpinner(ctx, "Probing "+strconv.Itoa(len(list))+" images")
	spinner.Start()
	results := prober.ProbeAll(ctx, list)
	spinner.Stop()
	if err := ctx.Err(); err != nil {
		return err
	}

	out := make([]probeResult, len(results))
	failed := 0
	for i, r := range results {
		out[i] = probeResult{URL: r.URL}
		if r.Err != nil {
			out[i].Error = errors.UserMessage(r.Err)
			failed++
			c.Logger.Debug("probe failed", "url", r.URL, "err", r.Err)
			continue
		}
		dims := r.Dims
		out[i].Dims = &dims
	}

	if format == formatJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		rows := make([][]string, len(out))
		for i, r := range out {
			if r.Dims == nil {
				rows[i] = []string{r.URL, "", "", "", r.Error}
				continue
			}
			rows[i] = []string{r.URL, strconv.Itoa(r.Dims.Width), strconv.Itoa(r.Dims.Height), r.Dims.Format, ""}
		}
		printTable([]string{"URL", "Width", "Height", "Format", "Error"}, rows)
	}

	if failed > 0 {
		printWarning("%d of %d images could not be probed", failed, len(out))
		return errors.New(errors.ErrCodeMalformed, "%d images failed", failed)
	}
	printSuccess("Probed %d images", len(out))
	return nil
}
