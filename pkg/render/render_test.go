package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/justgrid/pkg/gallery"
	"github.com/matzehuels/justgrid/pkg/layout"
	"github.com/matzehuels/justgrid/pkg/loader"
)

func sampleRows(t *testing.T) []layout.Row {
	t.Helper()
	items := []gallery.Item{
		{ID: "a", ImageURL: "https://img.test/a.jpg", Title: "Beach & sun", Width: 1600, Height: 900},
		{ID: "b", ImageURL: "https://img.test/b.jpg", Width: 900, Height: 1200},
		{ID: "c", ImageURL: "https://img.test/c.jpg", Width: 1200, Height: 800},
		{ID: "d", ImageURL: "https://img.test/d.jpg", Width: 1000, Height: 1000, RotationDegrees: 90},
		{ID: "e", ImageURL: "https://img.test/e.jpg", Width: 1500, Height: 1000},
	}
	cfg := layout.DefaultConfig()
	cfg.Breakpoints = nil
	cfg.DefaultItemsPerRow = 2
	rows := layout.Compute(items, 601, cfg, layout.Viewport{})
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	return rows
}

func TestCards(t *testing.T) {
	rows := sampleRows(t)
	cards := Cards(rows)
	if len(cards) != 5 {
		t.Fatalf("cards = %d, want 5", len(cards))
	}

	// Full rows fill the container exactly after snapping.
	byRow := map[int][]Card{}
	for _, c := range cards {
		byRow[c.Row] = append(byRow[c.Row], c)
	}
	for _, idx := range []int{0, 1} {
		rc := byRow[idx]
		last := rc[len(rc)-1]
		if right := last.X + last.Width; right != 601 {
			t.Errorf("row %d right edge = %d, want 601", idx, right)
		}
		if rc[1].X != rc[0].X+rc[0].Width+4 {
			t.Errorf("row %d gap broken: %+v", idx, rc)
		}
	}
	if byRow[1][0].Y != byRow[0][0].Y+byRow[0][0].Height+4 {
		t.Errorf("rows not stacked with gap")
	}
	if cards[3].Rotation != 90 || cards[0].Title != "Beach & sun" {
		t.Errorf("item fields not carried: %+v %+v", cards[0], cards[3])
	}
}

func TestBannerFor(t *testing.T) {
	tests := []struct {
		ind     loader.Indicator
		ok      bool
		text    string
		spinner bool
	}{
		{loader.Indicator{}, false, "", false},
		{loader.Indicator{Kind: loader.IndicatorLoading}, true, TextLoading, true},
		{loader.Indicator{Kind: loader.IndicatorExhausted}, true, TextExhausted, false},
		{loader.Indicator{Kind: loader.IndicatorRetrying, Message: "busy"}, true, "busy", true},
		{loader.Indicator{Kind: loader.IndicatorFatal, Message: "session expired"}, true, "session expired", false},
		{loader.Indicator{Kind: loader.IndicatorFatal}, true, TextFatal, false},
	}
	for _, tt := range tests {
		b, ok := BannerFor(tt.ind)
		if ok != tt.ok || b.Text != tt.text || b.Spinner != tt.spinner {
			t.Errorf("BannerFor(%+v) = %+v, %v", tt.ind, b, ok)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	rows := sampleRows(t)
	svg := string(RenderSVG(rows,
		WithImages(),
		WithTitles(),
		WithBanner(loader.Indicator{Kind: loader.IndicatorExhausted}),
	))

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`) || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatalf("not an svg document:\n%s", svg)
	}
	if n := strings.Count(svg, `<rect class="card"`); n != 5 {
		t.Errorf("cards drawn = %d, want 5", n)
	}
	if n := strings.Count(svg, "<image "); n != 5 {
		t.Errorf("images = %d, want 5", n)
	}
	if !strings.Contains(svg, "Beach &amp; sun") {
		t.Error("title not escaped")
	}
	if !strings.Contains(svg, TextExhausted) {
		t.Error("banner missing")
	}
	if !strings.Contains(svg, `width="601"`) {
		t.Error("canvas width should match the container")
	}
}

func TestRenderSVGPlaceholdersOnly(t *testing.T) {
	svg := string(RenderSVG(sampleRows(t)))
	if strings.Contains(svg, "<image ") || strings.Contains(svg, `class="banner`) {
		t.Error("images or banner drawn without options")
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	svg := string(RenderSVG(nil))
	if !strings.Contains(svg, `viewBox="0 0 1 1"`) {
		t.Errorf("empty svg = %s", svg)
	}
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(sampleRows(t), 0.5)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w := img.Bounds().Dx(); w != 301 {
		t.Errorf("width = %d, want 301", w)
	}
}

func TestPlaceholderColorStable(t *testing.T) {
	if placeholderColor("a") != placeholderColor("a") {
		t.Error("color not stable")
	}
	if placeholderColor("a") == placeholderColor("b") {
		t.Error("different keys should usually differ")
	}
}
