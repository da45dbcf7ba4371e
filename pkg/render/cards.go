// Package render turns computed rows into output: positioned cards for
// clients, an SVG or PNG preview of the grid, and the gallery status
// banner.
//
// All outputs are snapped to whole pixels with [layout.Pixels], so
// adjacent cards never overlap or leave hairline gaps.
//
//	rows := layout.Compute(items, 1024, cfg, layout.Viewport{Height: 800})
//	cards := render.Cards(rows)
//	svg := render.RenderSVG(rows, render.WithBanner(ctrl.Indicator()))
package render

import (
	"github.com/matzehuels/justgrid/pkg/layout"
	"github.com/matzehuels/justgrid/pkg/loader"
)

// Card is one image placed on the page.
type Card struct {
	Key            string `json:"key"`
	ImageURL       string `json:"image_url"`
	Title          string `json:"title,omitempty"`
	AttributionURL string `json:"attribution_url,omitempty"`
	Row            int    `json:"row"`
	X              int    `json:"x"`
	Y              int    `json:"y"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	// Rotation is applied by the client; Width and Height are already
	// the rotated box.
	Rotation int `json:"rotation,omitempty"`
}

// Cards flattens rows into pixel-snapped cards in display order.
func Cards(rows []layout.Row) []Card {
	px := layout.Pixels(rows)
	cards := make([]Card, 0, layout.ItemCount(px))
	for _, r := range px {
		for _, c := range r.Cells {
			cards = append(cards, Card{
				Key:            c.Item.Key(),
				ImageURL:       c.Item.ImageURL,
				Title:          c.Item.Title,
				AttributionURL: c.Item.AttributionURL,
				Row:            r.Index,
				X:              int(c.X),
				Y:              int(r.Top),
				Width:          int(c.Width),
				Height:         int(c.Height),
				Rotation:       c.Item.RotationDegrees,
			})
		}
	}
	return cards
}

// Banner is the single status line shown under a gallery.
type Banner struct {
	Kind    loader.IndicatorKind `json:"kind"`
	Text    string               `json:"text"`
	Spinner bool                 `json:"spinner,omitempty"`
}

// Banner texts for indicators that carry no message.
const (
	TextLoading   = "Loading more photos..."
	TextExhausted = "You've reached the end."
	TextRetrying  = "Could not load more photos. Retrying."
	TextFatal     = "Loading stopped."
)

// BannerFor returns the banner for an indicator. ok is false when nothing
// should be shown.
func BannerFor(ind loader.Indicator) (b Banner, ok bool) {
	b = Banner{Kind: ind.Kind, Text: ind.Message}
	switch ind.Kind {
	case loader.IndicatorNone:
		return Banner{}, false
	case loader.IndicatorLoading:
		b.Spinner = true
		if b.Text == "" {
			b.Text = TextLoading
		}
	case loader.IndicatorExhausted:
		if b.Text == "" {
			b.Text = TextExhausted
		}
	case loader.IndicatorRetrying:
		b.Spinner = true
		if b.Text == "" {
			b.Text = TextRetrying
		}
	case loader.IndicatorFatal:
		if b.Text == "" {
			b.Text = TextFatal
		}
	}
	return b, true
}
