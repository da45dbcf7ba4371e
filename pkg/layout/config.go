package layout

import (
	"math"
	"sort"

	"go.uber.org/multierr"

	"github.com/matzehuels/justgrid/pkg/errors"
)

// RowHeightMode selects how row heights are chosen.
type RowHeightMode string

const (
	// Auto sizes each row so it exactly fills the container width.
	Auto RowHeightMode = "auto"
	// Fixed gives every row the same configured height.
	Fixed RowHeightMode = "fixed"
)

// Minimum and maximum share of the viewport height a row may occupy,
// in percent. The configured fraction is clamped into this range.
const (
	minViewportPercent = 50.0
	maxViewportPercent = 100.0
)

// Default configuration values.
const (
	DefaultGapPx                     = 4.0
	DefaultItemsPerRow               = 4
	DefaultFixedRowHeightPx          = 240.0
	DefaultMaxViewportHeightFraction = 0.75
)

// Breakpoint maps a minimum container width to a number of items per row.
type Breakpoint struct {
	MinWidthPx  float64 `json:"min_width" toml:"min_width" yaml:"min_width"`
	ItemsPerRow int     `json:"items_per_row" toml:"items_per_row" yaml:"items_per_row"`
}

// Config controls the justified layout.
type Config struct {
	GapPx                     float64       `json:"gap" toml:"gap" yaml:"gap"`
	Breakpoints               []Breakpoint  `json:"breakpoints,omitempty" toml:"breakpoints" yaml:"breakpoints"`
	DefaultItemsPerRow        int           `json:"default_items_per_row,omitempty" toml:"default_items_per_row" yaml:"default_items_per_row"`
	RowHeightMode             RowHeightMode `json:"row_height_mode,omitempty" toml:"row_height_mode" yaml:"row_height_mode"`
	FixedRowHeightPx          float64       `json:"fixed_row_height,omitempty" toml:"fixed_row_height" yaml:"fixed_row_height"`
	MaxViewportHeightFraction float64       `json:"max_viewport_height,omitempty" toml:"max_viewport_height" yaml:"max_viewport_height"`
}

// DefaultConfig returns the layout used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		GapPx: DefaultGapPx,
		Breakpoints: []Breakpoint{
			{MinWidthPx: 1200, ItemsPerRow: 5},
			{MinWidthPx: 900, ItemsPerRow: 4},
			{MinWidthPx: 600, ItemsPerRow: 3},
			{MinWidthPx: 0, ItemsPerRow: 2},
		},
		DefaultItemsPerRow:        DefaultItemsPerRow,
		RowHeightMode:             Auto,
		FixedRowHeightPx:          DefaultFixedRowHeightPx,
		MaxViewportHeightFraction: DefaultMaxViewportHeightFraction,
	}
}

// SetDefaults fills zero-valued fields with their defaults.
// Breakpoints are left alone; an empty table falls back to DefaultItemsPerRow.
func (c *Config) SetDefaults() {
	if c.DefaultItemsPerRow == 0 {
		c.DefaultItemsPerRow = DefaultItemsPerRow
	}
	if c.RowHeightMode == "" {
		c.RowHeightMode = Auto
	}
	if c.FixedRowHeightPx == 0 {
		c.FixedRowHeightPx = DefaultFixedRowHeightPx
	}
	if c.MaxViewportHeightFraction == 0 {
		c.MaxViewportHeightFraction = DefaultMaxViewportHeightFraction
	}
}

// Validate reports every invalid field of c.
func (c Config) Validate() error {
	var err error
	if c.GapPx < 0 || math.IsNaN(c.GapPx) {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "gap must be >= 0, got %v", c.GapPx))
	}
	switch c.RowHeightMode {
	case Auto, "":
	case Fixed:
		if c.FixedRowHeightPx <= 0 {
			err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "fixed row height must be > 0, got %v", c.FixedRowHeightPx))
		}
	default:
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "invalid row height mode: %q (must be one of: auto, fixed)", c.RowHeightMode))
	}
	if c.MaxViewportHeightFraction < 0 || c.MaxViewportHeightFraction > 1 {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "max viewport height must be within [0, 1], got %v", c.MaxViewportHeightFraction))
	}
	seen := make(map[float64]bool, len(c.Breakpoints))
	for _, bp := range c.Breakpoints {
		if bp.MinWidthPx < 0 {
			err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "breakpoint min width must be >= 0, got %v", bp.MinWidthPx))
		}
		if bp.ItemsPerRow < 1 {
			err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "breakpoint %v: items per row must be >= 1, got %d", bp.MinWidthPx, bp.ItemsPerRow))
		}
		if seen[bp.MinWidthPx] {
			err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "duplicate breakpoint min width %v", bp.MinWidthPx))
		}
		seen[bp.MinWidthPx] = true
	}
	return err
}

// ItemsPerRow returns how many items fit in one row of a container of the
// given width. Breakpoints are evaluated widest-first; when none matches the
// narrowest breakpoint applies, and with no breakpoints DefaultItemsPerRow
// is used. The result is never below 1.
func ItemsPerRow(containerWidth float64, c Config) int {
	if len(c.Breakpoints) == 0 {
		return max(c.DefaultItemsPerRow, 1)
	}
	bps := make([]Breakpoint, len(c.Breakpoints))
	copy(bps, c.Breakpoints)
	sort.SliceStable(bps, func(i, j int) bool { return bps[i].MinWidthPx > bps[j].MinWidthPx })

	for _, bp := range bps {
		if containerWidth >= bp.MinWidthPx {
			return max(bp.ItemsPerRow, 1)
		}
	}
	return max(bps[len(bps)-1].ItemsPerRow, 1)
}

// MaxAllowedHeight returns the tallest a row may be for the given viewport
// height. The configured fraction is clamped to [0.5, 1]. A non-positive
// viewport height means unknown and imposes no limit.
func (c Config) MaxAllowedHeight(viewportHeight float64) float64 {
	if viewportHeight <= 0 {
		return math.Inf(1)
	}
	pct := max(minViewportPercent, min(maxViewportPercent, c.MaxViewportHeightFraction*100))
	return pct / 100 * viewportHeight
}
