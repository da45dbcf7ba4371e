package layout

import (
	"math"
	"sort"

	"github.com/matzehuels/justgrid/pkg/gallery"
)

// Cell is one positioned item in a row. X is relative to the row's left
// edge; all values are in pixels.
type Cell struct {
	Item   gallery.Item `json:"item"`
	X      float64      `json:"x"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
}

// Row is a horizontal strip of cells sharing one height.
type Row struct {
	Index  int     `json:"index"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Cells  []Cell  `json:"cells"`
}

// Width returns the summed cell widths plus the gaps between them.
func (r Row) Width(gap float64) float64 {
	if len(r.Cells) == 0 {
		return 0
	}
	var w float64
	for _, c := range r.Cells {
		w += c.Width
	}
	return w + gap*float64(len(r.Cells)-1)
}

// Bottom returns the y coordinate of the row's lower edge.
func (r Row) Bottom() float64 { return r.Top + r.Height }

// TotalHeight returns the height of the whole gallery.
func TotalHeight(rows []Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	return rows[len(rows)-1].Bottom()
}

// LastItem returns the final item of the layout.
func LastItem(rows []Row) (gallery.Item, bool) {
	if len(rows) == 0 || len(rows[len(rows)-1].Cells) == 0 {
		return gallery.Item{}, false
	}
	cells := rows[len(rows)-1].Cells
	return cells[len(cells)-1].Item, true
}

// ItemCount returns the number of cells across all rows.
func ItemCount(rows []Row) int {
	n := 0
	for _, r := range rows {
		n += len(r.Cells)
	}
	return n
}

// LastVisible returns the last item whose row intersects the viewport
// spanning [scrollTop, scrollTop+viewportHeight).
func LastVisible(rows []Row, scrollTop, viewportHeight float64) (gallery.Item, bool) {
	bottom := scrollTop + viewportHeight
	// Rows are ordered by Top; find the first row starting at or below the
	// viewport bottom and step back one.
	i := sort.Search(len(rows), func(i int) bool { return rows[i].Top >= bottom })
	for i--; i >= 0; i-- {
		r := rows[i]
		if r.Bottom() > scrollTop && len(r.Cells) > 0 {
			return r.Cells[len(r.Cells)-1].Item, true
		}
		if r.Bottom() <= scrollTop {
			break
		}
	}
	return gallery.Item{}, false
}

// DistanceBelow returns how far the top of the row holding the item with
// the given key lies below the viewport bottom. Negative values mean the
// row is already (partly) visible. ok is false when no row holds the key.
func DistanceBelow(rows []Row, key string, scrollTop, viewportHeight float64) (float64, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		for _, c := range rows[i].Cells {
			if c.Item.Key() == key {
				return rows[i].Top - (scrollTop + viewportHeight), true
			}
		}
	}
	return 0, false
}

// Pixels returns a copy of rows snapped to whole pixels. Every cell edge is
// rounded on its own and sizes are taken between rounded edges, so a row's
// right edge lands on the rounded container width whatever the gap, and
// rows stay separated by the gap rounded to its neighbors.
func Pixels(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		top := math.Round(r.Top)
		h := math.Round(r.Top+r.Height) - top
		nr := Row{Index: r.Index, Top: top, Height: h, Cells: make([]Cell, len(r.Cells))}
		for j, c := range r.Cells {
			x := math.Round(c.X)
			nr.Cells[j] = Cell{Item: c.Item, X: x, Width: math.Round(c.X+c.Width) - x, Height: h}
		}
		out[i] = nr
	}
	return out
}
