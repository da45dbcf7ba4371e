package render

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"html"
	"image/color"

	"github.com/matzehuels/justgrid/pkg/layout"
	"github.com/matzehuels/justgrid/pkg/loader"
)

const cardCSS = `
    .card { fill: #e6e6e6; stroke: none; }
    .card-title { font: 12px sans-serif; fill: #fff; paint-order: stroke; stroke: rgba(0,0,0,0.6); stroke-width: 3px; }
    .banner { font: 14px sans-serif; fill: #444; }
    .banner.fatal { fill: #b00020; }`

// bannerHeight is the space reserved below the grid for the status line.
const bannerHeight = 32.0

// RenderOption configures SVG and PNG rendering.
type RenderOption func(*renderer)

type renderer struct {
	width  float64
	images bool
	titles bool
	banner *Banner
}

// WithWidth sets the canvas width; by default the widest row is used.
func WithWidth(w float64) RenderOption { return func(r *renderer) { r.width = w } }

// WithImages embeds the images by URL instead of drawing placeholders only.
func WithImages() RenderOption { return func(r *renderer) { r.images = true } }

// WithTitles draws item titles over the cards.
func WithTitles() RenderOption { return func(r *renderer) { r.titles = true } }

// WithBanner draws the status line for ind below the grid.
func WithBanner(ind loader.Indicator) RenderOption {
	return func(r *renderer) {
		if b, ok := BannerFor(ind); ok {
			r.banner = &b
		}
	}
}

// RenderSVG draws the rows as an SVG document.
func RenderSVG(rows []layout.Row, opts ...RenderOption) []byte {
	r := newRenderer(opts...)
	cards := Cards(rows)
	width, height := r.canvas(cards)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", cardCSS)

	for _, c := range cards {
		renderCard(&buf, r, c)
	}
	if r.banner != nil {
		fmt.Fprintf(&buf, `  <text class="banner %s" x="%.0f" y="%.0f" text-anchor="middle">%s</text>`+"\n",
			r.banner.Kind, width/2, height-bannerHeight/2+5, html.EscapeString(r.banner.Text))
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newRenderer(opts ...RenderOption) renderer {
	var r renderer
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r renderer) canvas(cards []Card) (w, h float64) {
	for _, c := range cards {
		w = max(w, float64(c.X+c.Width))
		h = max(h, float64(c.Y+c.Height))
	}
	if r.width > 0 {
		w = r.width
	}
	if r.banner != nil {
		h += bannerHeight
	}
	return max(w, 1), max(h, 1)
}

func renderCard(buf *bytes.Buffer, r renderer, c Card) {
	id := html.EscapeString(c.Key)
	fill := placeholderColor(c.Key)
	fmt.Fprintf(buf, `  <g id="card-%s">`+"\n", id)
	fmt.Fprintf(buf, `    <rect class="card" x="%d" y="%d" width="%d" height="%d" style="fill:#%02x%02x%02x"/>`+"\n",
		c.X, c.Y, c.Width, c.Height, fill.R, fill.G, fill.B)
	if r.images && c.ImageURL != "" {
		fmt.Fprintf(buf, `    <image href="%s" x="%d" y="%d" width="%d" height="%d" preserveAspectRatio="xMidYMid slice"/>`+"\n",
			html.EscapeString(c.ImageURL), c.X, c.Y, c.Width, c.Height)
	}
	if r.titles && c.Title != "" {
		fmt.Fprintf(buf, `    <text class="card-title" x="%d" y="%d">%s</text>`+"\n",
			c.X+6, c.Y+c.Height-8, html.EscapeString(c.Title))
	}
	buf.WriteString("  </g>\n")
}

// placeholderColor derives a stable muted color from the item key.
func placeholderColor(key string) color.RGBA {
	sum := sha256.Sum256([]byte(key))
	return color.RGBA{R: 96 + sum[0]/2, G: 96 + sum[1]/2, B: 96 + sum[2]/2, A: 255}
}
