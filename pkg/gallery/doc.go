// Package gallery defines the image items shown in a justified gallery.
//
// An [Item] carries the image URL, its native dimensions when known, and a
// rotation in degrees. [Item.AspectRatio] resolves the ratio the layout
// engine packs: quarter-turn rotations swap width and height, and items
// without dimensions fall back to 3:2.
//
//	it := gallery.Item{ID: "p1", Width: 800, Height: 600, RotationDegrees: 90}
//	it.AspectRatio() // 0.75
//
// [SortByPopularity] implements the "most viewed first" ordering used when
// new pages are merged into a gallery.
package gallery
