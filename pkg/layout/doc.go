// Package layout packs gallery items into justified rows.
//
// # Overview
//
// A justified row is a horizontal strip of images sharing one height whose
// widths, plus the gaps between them, sum to the container width. [Compute]
// turns a list of items into such rows:
//
//	rows := layout.Compute(items, 1024, layout.DefaultConfig(), layout.Viewport{Height: 800})
//	for _, row := range rows {
//	    for _, cell := range row.Cells {
//	        draw(cell.Item, cell.X, row.Top, cell.Width, cell.Height)
//	    }
//	}
//
// # Row Heights
//
// In [Auto] mode a row of n items with aspect ratios a1..an gets the height
//
//	(containerWidth - gap*(n-1)) / (a1 + ... + an)
//
// which makes the row fill the container exactly without cropping. In
// [Fixed] mode every row uses [Config.FixedRowHeightPx] instead. Either way
// the height is clamped to [Config.MaxAllowedHeight], a share of the viewport
// height between 50% and 100%.
//
// A lone item in the final row is never taller than the row before it, so a
// single portrait image at the end of a gallery does not blow up to the full
// container width.
//
// # Breakpoints
//
// The number of items per row comes from the breakpoint table, evaluated
// widest-first (see [ItemsPerRow]).
//
// # Pixels
//
// [Compute] works in fractional pixels. Renderers that need whole pixels use
// [Pixels], which rounds cell edges rather than sizes so that a row still
// ends exactly at the container width.
package layout
