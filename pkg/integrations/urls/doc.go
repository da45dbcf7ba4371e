// Package urls serves galleries built from direct image URLs.
//
// A [Provider] maps collection ids to URL lists and answers page 1 with all
// of them. Dimensions are resolved by a [Prober], which reads the start of
// each file, sniffs its type and decodes only the header:
//
//	prober := urls.NewProber(urls.ProberOptions{Cache: fc})
//	p := urls.New(urls.Options{Prober: prober})
//	_ = p.Add("trip", []string{"https://example.com/a.jpg", "https://example.com/b.webp"})
//
// JPEG, PNG, GIF, WebP, BMP and TIFF are understood. With
// ProberOptions.Orient the full image is decoded and its EXIF orientation
// applied, so portrait photos stored sideways report displayed dimensions.
package urls
