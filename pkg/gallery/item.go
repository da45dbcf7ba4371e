package gallery

import (
	"math"
	"sort"
)

// FallbackAspectRatio is used for items whose dimensions are not known yet.
// 3:2 matches the sensor shape of most camera output.
const FallbackAspectRatio = 3.0 / 2.0

// Item is a single image in a gallery.
//
// Width and Height are the native pixel dimensions; zero means unknown.
// Items are treated as immutable once created.
type Item struct {
	ID              string  `json:"id,omitempty" bson:"id,omitempty"`
	ImageURL        string  `json:"image_url" bson:"image_url"`
	Title           string  `json:"title,omitempty" bson:"title,omitempty"`
	Width           int     `json:"width,omitempty" bson:"width,omitempty"`
	Height          int     `json:"height,omitempty" bson:"height,omitempty"`
	RotationDegrees int     `json:"rotation,omitempty" bson:"rotation,omitempty"`
	AttributionURL  string  `json:"attribution_url,omitempty" bson:"attribution_url,omitempty"`
	SortWeight      float64 `json:"sort_weight,omitempty" bson:"sort_weight,omitempty"`
}

// Key returns the identity of the item: ID, or ImageURL when ID is empty.
func (it Item) Key() string {
	if it.ID != "" {
		return it.ID
	}
	return it.ImageURL
}

// HasDimensions reports whether both native dimensions are known.
func (it Item) HasDimensions() bool {
	return it.Width > 0 && it.Height > 0
}

// Rotated reports whether the item is turned a quarter (90 or 270 degrees),
// which swaps its displayed width and height.
func (it Item) Rotated() bool {
	r := ((it.RotationDegrees % 360) + 360) % 360
	return r == 90 || r == 270
}

// DisplaySize returns the width and height as displayed, after rotation.
// ok is false when the dimensions are unknown.
func (it Item) DisplaySize() (w, h float64, ok bool) {
	if !it.HasDimensions() {
		return 0, 0, false
	}
	w, h = float64(it.Width), float64(it.Height)
	if it.Rotated() {
		w, h = h, w
	}
	return w, h, true
}

// AspectRatio returns the effective display aspect ratio (width / height)
// of the item, or [FallbackAspectRatio] when the dimensions are unknown.
func (it Item) AspectRatio() float64 {
	w, h, ok := it.DisplaySize()
	if !ok {
		return FallbackAspectRatio
	}
	ar := w / h
	if math.IsNaN(ar) || math.IsInf(ar, 0) || ar <= 0 {
		return FallbackAspectRatio
	}
	return ar
}

// SortByPopularity returns a copy of items ordered by SortWeight, highest
// first. Items with equal weight keep their input order.
func SortByPopularity(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortWeight > out[j].SortWeight
	})
	return out
}
