package layout

import (
	"math"

	"github.com/matzehuels/justgrid/pkg/gallery"
)

// Viewport describes the visible area the gallery is rendered into.
// A zero Height means the viewport height is unknown.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Compute packs items into justified rows for a container of the given
// width.
//
// Rows hold up to [ItemsPerRow] items. In [Auto] mode each row's height is
// chosen so that its widths plus gaps fill the container exactly, then
// clamped to [Config.MaxAllowedHeight]. In [Fixed] mode every row uses
// FixedRowHeightPx under the same clamp. A lone item in the final row is
// never taller than the row before it, nor than the container width allows.
//
// Compute is a pure function: identical arguments yield identical rows.
// It returns nil when containerWidth <= 0 or items is empty.
func Compute(items []gallery.Item, containerWidth float64, cfg Config, vp Viewport) []Row {
	if containerWidth <= 0 || math.IsNaN(containerWidth) || math.IsInf(containerWidth, 0) || len(items) == 0 {
		return nil
	}
	gap := max(cfg.GapPx, 0)
	maxH := cfg.MaxAllowedHeight(vp.Height)

	if len(items) == 1 {
		return []Row{singleItemRow(items[0], containerWidth, maxH)}
	}

	perRow := ItemsPerRow(containerWidth, cfg)
	rows := make([]Row, 0, (len(items)+perRow-1)/perRow)
	top := 0.0
	prevHeight := 0.0

	for start := 0; start < len(items); start += perRow {
		end := min(start+perRow, len(items))
		chunk := items[start:end]
		last := end == len(items)

		var h float64
		switch {
		case last && len(chunk) == 1 && perRow > 1 && len(rows) > 0:
			h = min(prevHeight, containerWidth/chunk[0].AspectRatio(), maxH)
		case cfg.RowHeightMode == Fixed && cfg.FixedRowHeightPx > 0:
			h = min(cfg.FixedRowHeightPx, maxH)
		default:
			h = min(fillHeight(chunk, containerWidth, gap), maxH)
		}

		rows = append(rows, buildRow(len(rows), chunk, h, top, gap))
		prevHeight = h
		top += h + gap
	}
	return rows
}

// fillHeight is the row height at which the items' widths plus gaps sum to
// the container width: (W - gap*(n-1)) / sum(aspect ratios).
func fillHeight(items []gallery.Item, containerWidth, gap float64) float64 {
	var sum float64
	for _, it := range items {
		sum += it.AspectRatio()
	}
	avail := containerWidth - gap*float64(len(items)-1)
	if avail <= 0 || sum <= 0 {
		return 0
	}
	return avail / sum
}

// singleItemRow fits one item to the container, capped by maxH and never
// wider than its natural size.
func singleItemRow(it gallery.Item, containerWidth, maxH float64) Row {
	ar := it.AspectRatio()
	w := containerWidth
	if nw, _, ok := it.DisplaySize(); ok && nw < w {
		w = nw
	}
	h := w / ar
	if h > maxH {
		h = maxH
		w = h * ar
	}
	return Row{
		Index:  0,
		Height: h,
		Cells:  []Cell{{Item: it, Width: w, Height: h}},
	}
}

func buildRow(index int, items []gallery.Item, h, top, gap float64) Row {
	row := Row{
		Index:  index,
		Top:    top,
		Height: h,
		Cells:  make([]Cell, len(items)),
	}
	x := 0.0
	for i, it := range items {
		w := h * it.AspectRatio()
		row.Cells[i] = Cell{Item: it, X: x, Width: w, Height: h}
		x += w + gap
	}
	return row
}
