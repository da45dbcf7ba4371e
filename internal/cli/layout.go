package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/gallery"
	"github.com/matzehuels/justgrid/pkg/layout"
	"github.com/matzehuels/justgrid/pkg/render"
)

// Output formats of layout and fetch.
const (
	formatJSON  = "json"
	formatTable = "table"
	formatSVG   = "svg"
	formatPNG   = "png"
)

const defaultWidth = 1200

type layoutOpts struct {
	width          float64
	viewportHeight float64
	format         string
	output         string
	scale          float64
	images         bool
	titles         bool
}

func (o *layoutOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&o.width, "width", defaultWidth, "container width in pixels")
	cmd.Flags().Float64Var(&o.viewportHeight, "viewport-height", 0, "viewport height in pixels (0: unknown)")
	cmd.Flags().StringVarP(&o.format, "format", "f", formatTable, "output format: table, json, svg, png")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file for svg and png (default: <name>.<format>)")
	cmd.Flags().Float64Var(&o.scale, "scale", 1, "png scale factor")
	cmd.Flags().BoolVar(&o.images, "images", false, "link images in svg output")
	cmd.Flags().BoolVar(&o.titles, "titles", false, "draw titles in svg output")
}

func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout <items.json>",
		Short: "Compute justified rows for a list of items",
		Long: `Compute justified rows for a list of items.

The input is a JSON array of items, or an object with an "items" array, as
written by 'fetch -f json'. Use - to read from stdin. Items need image_url;
width and height are optional and default to a 3:2 placeholder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItems(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			return c.writeLayout(items, cfg.Layout, opts, strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])))
		},
	}
	opts.addFlags(cmd)
	return cmd
}

// readItems decodes an item list from path, or from stdin for "-".
func readItems(path string, stdin io.Reader) ([]gallery.Item, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	data = bytes.TrimSpace(data)
	var items []gallery.Item
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Items []gallery.Item `json:"items"`
		}
		err = json.Unmarshal(data, &wrapped)
		items = wrapped.Items
	} else {
		err = json.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode items from %s", path)
	}
	for i, it := range items {
		if it.Key() == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "item %d has neither id nor image_url", i)
		}
	}
	return items, nil
}

// layoutDocument is the JSON output of layout and fetch.
type layoutDocument struct {
	Width       float64        `json:"width"`
	TotalHeight float64        `json:"total_height"`
	Items       []gallery.Item `json:"items"`
	Rows        []layout.Row   `json:"rows"`
}

func (c *CLI) writeLayout(items []gallery.Item, cfg layout.Config, opts layoutOpts, name string) error {
	if opts.width <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width must be > 0, got %v", opts.width)
	}
	rows := layout.Compute(items, opts.width, cfg, layout.Viewport{Width: opts.width, Height: opts.viewportHeight})
	px := layout.Pixels(rows)

	switch opts.format {
	case formatJSON:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(layoutDocument{
			Width:       opts.width,
			TotalHeight: layout.TotalHeight(px),
			Items:       items,
			Rows:        px,
		})

	case formatTable:
		printLayoutTable(px, cfg.GapPx)
		printDetail("%d items in %d rows, %.0fpx tall", len(items), len(px), layout.TotalHeight(px))
		return nil

	case formatSVG, formatPNG:
		renderOpts := []render.RenderOption{render.WithWidth(opts.width)}
		if opts.images {
			renderOpts = append(renderOpts, render.WithImages())
		}
		if opts.titles {
			renderOpts = append(renderOpts, render.WithTitles())
		}
		var data []byte
		if opts.format == formatSVG {
			data = render.RenderSVG(rows, renderOpts...)
		} else {
			var err error
			if data, err = render.RenderPNG(rows, opts.scale, renderOpts...); err != nil {
				return fmt.Errorf("render png: %w", err)
			}
		}
		path := opts.output
		if path == "" {
			path = name + "." + opts.format
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess("Rendered %d rows", len(rows))
		printFile(path)
		return nil
	}
	return errors.New(errors.ErrCodeUnsupported, "unsupported format: %q (must be one of: table, json, svg, png)", opts.format)
}

func printLayoutTable(rows []layout.Row, gap float64) {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			strconv.Itoa(r.Index),
			strconv.FormatFloat(r.Top, 'f', 0, 64),
			strconv.FormatFloat(r.Height, 'f', 0, 64),
			strconv.Itoa(len(r.Cells)),
			strconv.FormatFloat(r.Width(gap), 'f', 0, 64),
		}
	}
	printTable([]string{"Row", "Top", "Height", "Items", "Width"}, out)
}
