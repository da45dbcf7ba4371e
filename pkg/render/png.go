package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/justgrid/pkg/layout"
)

// RenderPNG draws the rows as placeholder blocks, scaled by scale (1 when
// scale <= 0). Images are not downloaded.
func RenderPNG(rows []layout.Row, scale float64, opts ...RenderOption) ([]byte, error) {
	r := newRenderer(opts...)
	r.banner = nil
	if scale <= 0 {
		scale = 1
	}
	cards := Cards(rows)
	w, h := r.canvas(cards)

	canvas := imaging.New(int(w*scale+0.5), int(h*scale+0.5), color.White)
	for _, c := range cards {
		block := imaging.New(max(int(float64(c.Width)*scale+0.5), 1), max(int(float64(c.Height)*scale+0.5), 1), placeholderColor(c.Key))
		canvas = imaging.Paste(canvas, block, image.Pt(int(float64(c.X)*scale+0.5), int(float64(c.Y)*scale+0.5)))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
