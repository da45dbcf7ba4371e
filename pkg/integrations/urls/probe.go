package urls

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/justgrid/pkg/cache"
	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/integrations"
)

const (
	// DefaultPrefixBytes is how much of an image is read first. It holds
	// the header of almost every file.
	DefaultPrefixBytes = 64 << 10
	// DefaultMaxBytes bounds the full download used when the prefix is not
	// enough or orientation is requested.
	DefaultMaxBytes = 32 << 20
	// DefaultConcurrency is the number of parallel probes in [Prober.ProbeAll].
	DefaultConcurrency = 4
)

// Dimensions are the probed properties of an image.
type Dimensions struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	MIME   string `json:"mime,omitempty"`
}

// ProberOptions configure a [Prober].
type ProberOptions struct {
	Cache       cache.Cache
	Headers     map[string]string
	PrefixBytes int64
	MaxBytes    int64
	Concurrency int
	// Orient decodes the whole image and applies its EXIF orientation, so
	// that Width and Height are as displayed.
	Orient bool
}

// Prober resolves image dimensions from URLs.
type Prober struct {
	*integrations.Client
	keyer       cache.Keyer
	prefix      int64
	max         int64
	concurrency int
	orient      bool
}

// NewProber creates a prober. Results are cached for [cache.TTLProbe].
func NewProber(opts ProberOptions) *Prober {
	if opts.PrefixBytes <= 0 {
		opts.PrefixBytes = DefaultPrefixBytes
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	keyer := cache.NewDefaultKeyer()
	if opts.Orient {
		keyer = cache.NewScopedKeyer(keyer, "oriented:")
	}
	return &Prober{
		Client:      integrations.NewClient(opts.Cache, "probe:", cache.TTLProbe, opts.Headers),
		keyer:       keyer,
		prefix:      opts.PrefixBytes,
		max:         opts.MaxBytes,
		concurrency: opts.Concurrency,
		orient:      opts.Orient,
	}
}

// Probe returns the dimensions of the image at url.
//
// It reads the first PrefixBytes, and downloads up to MaxBytes only when the
// header did not fit or orientation was requested. Non-image content is
// reported as [errors.ErrCodeUnsupported].
func (p *Prober) Probe(ctx context.Context, url string) (Dimensions, error) {
	if err := errors.ValidateURL(url); err != nil {
		return Dimensions{}, err
	}
	var dims Dimensions
	err := p.Cached(ctx, p.keyer.ProbeKey(url), false, &dims, func() error {
		d, err := p.fetch(ctx, url)
		if err != nil {
			return err
		}
		dims = d
		return nil
	})
	return dims, err
}

func (p *Prober) fetch(ctx context.Context, url string) (Dimensions, error) {
	if !p.orient {
		data, err := p.GetBytes(ctx, url, rangeHeader(p.prefix), p.prefix)
		if err != nil {
			return Dimensions{}, err
		}
		d, err := Decode(data, false)
		if err == nil || errors.Is(err, errors.ErrCodeUnsupported) || int64(len(data)) < p.prefix {
			return d, err
		}
	}
	data, err := p.GetBytes(ctx, url, nil, p.max)
	if err != nil {
		return Dimensions{}, err
	}
	return Decode(data, p.orient)
}

// Result is the outcome of probing one URL.
type Result struct {
	URL  string
	Dims Dimensions
	Err  error
}

// ProbeAll probes urls concurrently and returns the results in input order.
func (p *Prober) ProbeAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			d, err := p.Probe(ctx, u)
			results[i] = Result{URL: u, Dims: d, Err: err}
		}(i, u)
	}
	wg.Wait()
	return results
}

// Decode reads image dimensions from data, which may be a truncated file.
// With orient set the whole image is decoded and EXIF orientation applied.
func Decode(data []byte, orient bool) (Dimensions, error) {
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return Dimensions{}, errors.New(errors.ErrCodeUnsupported, "content is not an image (%s)", describe(kind.MIME.Value))
	}
	d := Dimensions{Format: kind.Extension, MIME: kind.MIME.Value}

	if orient {
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return Dimensions{}, errors.Wrap(errors.ErrCodeMalformed, err, "decode %s", d.Format)
		}
		b := img.Bounds()
		d.Width, d.Height = b.Dx(), b.Dy()
		return d, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, errors.Wrap(errors.ErrCodeMalformed, err, "read %s header", d.Format)
	}
	d.Width, d.Height = cfg.Width, cfg.Height
	return d, nil
}

func rangeHeader(n int64) map[string]string {
	return map[string]string{"Range": fmt.Sprintf("bytes=0-%d", n-1)}
}

func describe(mime string) string {
	if mime == "" {
		return "unknown type"
	}
	return mime
}
