package layout

import (
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/justgrid/pkg/gallery"
)

func photos(ratios ...[2]int) []gallery.Item {
	items := make([]gallery.Item, len(ratios))
	for i, r := range ratios {
		items[i] = gallery.Item{
			ID:     string(rune('a' + i)),
			Width:  r[0],
			Height: r[1],
		}
	}
	return items
}

func repeat(n int, w, h int) []gallery.Item {
	items := make([]gallery.Item, n)
	for i := range items {
		items[i] = gallery.Item{ID: string(rune('a' + i)), Width: w, Height: h}
	}
	return items
}

func TestComputeEmpty(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name  string
		items []gallery.Item
		width float64
	}{
		{"no items", nil, 1000},
		{"zero width", repeat(3, 4, 3), 0},
		{"negative width", repeat(3, 4, 3), -10},
		{"nan width", repeat(3, 4, 3), math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.items, tt.width, cfg, Viewport{}); len(got) != 0 {
				t.Errorf("Compute() = %d rows, want 0", len(got))
			}
		})
	}
}

func TestComputeAutoRowsFillWidth(t *testing.T) {
	cfg := Config{GapPx: 6, DefaultItemsPerRow: 3, RowHeightMode: Auto}
	items := photos([2]int{800, 600}, [2]int{600, 900}, [2]int{1920, 1080},
		[2]int{1000, 1000}, [2]int{300, 700}, [2]int{1600, 900})
	const width = 987.0

	rows := Compute(items, width, cfg, Viewport{})
	if len(rows) != 2 {
		t.Fatalf("Compute() = %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if got := row.Width(cfg.GapPx); math.Abs(got-width) > 1 {
			t.Errorf("row %d width = %v, want %v", row.Index, got, width)
		}
		for _, c := range row.Cells {
			if c.Height != row.Height {
				t.Errorf("row %d cell height = %v, want %v", row.Index, c.Height, row.Height)
			}
			if got := c.Width / c.Item.AspectRatio(); math.Abs(got-row.Height) > 1e-9 {
				t.Errorf("row %d: width/ar = %v, want %v", row.Index, got, row.Height)
			}
		}
	}
	if want := rows[0].Height + cfg.GapPx; rows[1].Top != want {
		t.Errorf("rows[1].Top = %v, want %v", rows[1].Top, want)
	}
}

func TestComputeCellOffsets(t *testing.T) {
	cfg := Config{GapPx: 10, DefaultItemsPerRow: 3}
	rows := Compute(repeat(3, 1, 1), 320, cfg, Viewport{})
	want := []float64{0, 110, 220}
	for i, c := range rows[0].Cells {
		if math.Abs(c.X-want[i]) > 1e-9 {
			t.Errorf("cell %d X = %v, want %v", i, c.X, want[i])
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	items := photos([2]int{800, 600}, [2]int{600, 900}, [2]int{1920, 1080},
		[2]int{1000, 1000}, [2]int{0, 0}, [2]int{1600, 900}, [2]int{640, 480})
	vp := Viewport{Width: 1280, Height: 720}

	a := Compute(items, 1280, cfg, vp)
	b := Compute(items, 1280, cfg, vp)
	if !reflect.DeepEqual(a, b) {
		t.Error("Compute() returned different rows for identical input")
	}
}

func TestComputeTrailingSingle(t *testing.T) {
	cfg := Config{GapPx: 4, DefaultItemsPerRow: 4, RowHeightMode: Auto}
	items := repeat(9, 3, 2)

	rows := Compute(items, 1000, cfg, Viewport{})
	var sizes []int
	for _, r := range rows {
		sizes = append(sizes, len(r.Cells))
	}
	if !reflect.DeepEqual(sizes, []int{4, 4, 1}) {
		t.Fatalf("row sizes = %v, want [4 4 1]", sizes)
	}
	last, prev := rows[2], rows[1]
	if last.Height > prev.Height {
		t.Errorf("last row height %v > previous %v", last.Height, prev.Height)
	}
	if last.Height != prev.Height {
		t.Errorf("last row height = %v, want previous height %v", last.Height, prev.Height)
	}
}

func TestComputeTrailingSingleWidthBound(t *testing.T) {
	// A very wide panorama as the last item is bounded by the container.
	cfg := Config{GapPx: 0, DefaultItemsPerRow: 2}
	items := []gallery.Item{
		{ID: "a", Width: 1, Height: 2},
		{ID: "b", Width: 1, Height: 2},
		{ID: "c", Width: 10, Height: 1},
	}
	rows := Compute(items, 100, cfg, Viewport{})
	if len(rows) != 2 {
		t.Fatalf("Compute() = %d rows, want 2", len(rows))
	}
	if got, want := rows[1].Height, 10.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("last row height = %v, want %v", got, want)
	}
	if got := rows[1].Cells[0].Width; got > 100+1e-9 {
		t.Errorf("last cell width = %v, exceeds container", got)
	}
}

func TestComputeMaxViewportHeight(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		vh       float64
		want     float64
	}{
		{"three quarters", 0.75, 400, 300},
		{"floored at half", 0.2, 400, 200},
		{"full", 1, 400, 400},
		{"above one", 1.5, 400, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{DefaultItemsPerRow: 2, MaxViewportHeightFraction: tt.fraction}
			// Two tall portraits would fill 1000px at height 1000.
			rows := Compute(repeat(2, 1, 2), 1000, cfg, Viewport{Height: tt.vh})
			if got := rows[0].Height; math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("row height = %v, want %v", got, tt.want)
			}
			if got := cfg.MaxAllowedHeight(tt.vh); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MaxAllowedHeight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaxAllowedHeightUnknownViewport(t *testing.T) {
	if got := DefaultConfig().MaxAllowedHeight(0); !math.IsInf(got, 1) {
		t.Errorf("MaxAllowedHeight(0) = %v, want +Inf", got)
	}
}

func TestComputeFixed(t *testing.T) {
	cfg := Config{GapPx: 4, DefaultItemsPerRow: 3, RowHeightMode: Fixed, FixedRowHeightPx: 200}
	items := photos([2]int{4, 3}, [2]int{1, 1}, [2]int{16, 9}, [2]int{3, 2}, [2]int{2, 3})

	rows := Compute(items, 2000, cfg, Viewport{})
	for _, row := range rows {
		if row.Height != 200 {
			t.Errorf("row %d height = %v, want 200", row.Index, row.Height)
		}
		for _, c := range row.Cells {
			if want := 200 * c.Item.AspectRatio(); math.Abs(c.Width-want) > 1e-9 {
				t.Errorf("cell width = %v, want %v", c.Width, want)
			}
		}
	}

	clamped := Compute(items[:3], 2000, cfg, Viewport{Height: 300})
	if got := clamped[0].Height; got != 150 {
		t.Errorf("clamped fixed height = %v, want 150", got)
	}
}

func TestComputeSingleItem(t *testing.T) {
	tests := []struct {
		name      string
		item      gallery.Item
		width     float64
		vh        float64
		wantW     float64
		wantH     float64
		fraction  float64
	}{
		{
			name:  "fit to container",
			item:  gallery.Item{ID: "a", Width: 2000, Height: 1000},
			width: 800, wantW: 800, wantH: 400,
		},
		{
			name:  "not upscaled",
			item:  gallery.Item{ID: "a", Width: 400, Height: 300},
			width: 800, wantW: 400, wantH: 300,
		},
		{
			name:  "capped by viewport",
			item:  gallery.Item{ID: "a", Width: 1000, Height: 2000},
			width: 800, vh: 600, fraction: 0.5, wantW: 150, wantH: 300,
		},
		{
			name:  "unknown dimensions",
			item:  gallery.Item{ID: "a"},
			width: 600, wantW: 600, wantH: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.fraction != 0 {
				cfg.MaxViewportHeightFraction = tt.fraction
			}
			rows := Compute([]gallery.Item{tt.item}, tt.width, cfg, Viewport{Height: tt.vh})
			if len(rows) != 1 || len(rows[0].Cells) != 1 {
				t.Fatalf("Compute() = %+v, want one row with one cell", rows)
			}
			c := rows[0].Cells[0]
			if math.Abs(c.Width-tt.wantW) > 1e-9 || math.Abs(c.Height-tt.wantH) > 1e-9 {
				t.Errorf("cell = %vx%v, want %vx%v", c.Width, c.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestComputeRotation(t *testing.T) {
	cfg := Config{DefaultItemsPerRow: 2}
	items := []gallery.Item{
		{ID: "a", Width: 800, Height: 600, RotationDegrees: 90},
		{ID: "b", Width: 800, Height: 600},
	}
	rows := Compute(items, 1000, cfg, Viewport{})
	// ar 0.75 + 1.333.. -> height 480
	if got := rows[0].Height; math.Abs(got-480) > 1e-9 {
		t.Fatalf("row height = %v, want 480", got)
	}
	if got := rows[0].Cells[0].Width; math.Abs(got-360) > 1e-9 {
		t.Errorf("rotated cell width = %v, want 360", got)
	}
}

func TestItemsPerRow(t *testing.T) {
	bps := []Breakpoint{
		{MinWidthPx: 1024, ItemsPerRow: 4},
		{MinWidthPx: 768, ItemsPerRow: 3},
		{MinWidthPx: 0, ItemsPerRow: 1},
	}
	tests := []struct {
		name  string
		cfg   Config
		width float64
		want  int
	}{
		{"middle breakpoint", Config{Breakpoints: bps}, 900, 3},
		{"widest", Config{Breakpoints: bps}, 2000, 4},
		{"exact boundary", Config{Breakpoints: bps}, 768, 3},
		{"narrowest", Config{Breakpoints: bps}, 300, 1},
		{"unsorted table", Config{Breakpoints: []Breakpoint{bps[2], bps[0], bps[1]}}, 900, 3},
		{"no match uses narrowest", Config{Breakpoints: []Breakpoint{{MinWidthPx: 500, ItemsPerRow: 2}, {MinWidthPx: 800, ItemsPerRow: 5}}}, 100, 2},
		{"no breakpoints", Config{DefaultItemsPerRow: 6}, 100, 6},
		{"floor", Config{DefaultItemsPerRow: 0}, 100, 1},
		{"zero in table", Config{Breakpoints: []Breakpoint{{MinWidthPx: 0, ItemsPerRow: 0}}}, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemsPerRow(tt.width, tt.cfg); got != tt.want {
				t.Errorf("ItemsPerRow(%v) = %d, want %d", tt.width, got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"negative gap", Config{GapPx: -1}, true},
		{"bad mode", Config{RowHeightMode: "stretch"}, true},
		{"fixed without height", Config{RowHeightMode: Fixed}, true},
		{"fraction above one", Config{MaxViewportHeightFraction: 1.2}, true},
		{"duplicate breakpoint", Config{Breakpoints: []Breakpoint{{0, 1}, {0, 2}}}, true},
		{"zero items per row", Config{Breakpoints: []Breakpoint{{0, 0}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.DefaultItemsPerRow != DefaultItemsPerRow || cfg.RowHeightMode != Auto ||
		cfg.FixedRowHeightPx != DefaultFixedRowHeightPx || cfg.MaxViewportHeightFraction != DefaultMaxViewportHeightFraction {
		t.Errorf("SetDefaults() = %+v", cfg)
	}
}
