package urls

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/justgrid/pkg/cache"
	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/loader"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x), A: 255})
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type imageServer struct {
	*httptest.Server
	calls  atomic.Int32
	ranged atomic.Int32
}

func newImageServer(t *testing.T, files map[string][]byte) *imageServer {
	t.Helper()
	s := &imageServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		if r.Header.Get("Range") != "" {
			s.ranged.Add(1)
		}
		data, ok := files[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		w, h   int
		format string
	}{
		{"png", encodePNG(t, 40, 30), 40, 30, "png"},
		{"jpeg", encodeJPEG(t, 64, 48), 64, 48, "jpg"},
		{"gif", encodeGIF(t, 10, 20), 10, 20, "gif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, orient := range []bool{false, true} {
				d, err := Decode(tt.data, orient)
				if err != nil {
					t.Fatalf("Decode(orient=%v): %v", orient, err)
				}
				if d.Width != tt.w || d.Height != tt.h || d.Format != tt.format {
					t.Errorf("Decode(orient=%v) = %+v, want %dx%d %s", orient, d, tt.w, tt.h, tt.format)
				}
			}
		})
	}
}

func TestDecodeRejectsNonImage(t *testing.T) {
	_, err := Decode([]byte("<html><body>hello</body></html>"), false)
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Decode(html) error = %v, want UNSUPPORTED", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	data := encodeJPEG(t, 64, 48)
	_, err := Decode(data[:32], false)
	if !errors.Is(err, errors.ErrCodeMalformed) {
		t.Errorf("Decode(truncated) error = %v, want MALFORMED_RESPONSE", err)
	}
}

func TestProbe(t *testing.T) {
	srv := newImageServer(t, map[string][]byte{"/a.png": encodePNG(t, 40, 30)})
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := NewProber(ProberOptions{Cache: fc})
	p.SetHTTPClient(srv.Client())
	p.SetRetryPolicy(cache.RetryPolicy{Attempts: 1})

	for range 2 {
		d, err := p.Probe(context.Background(), srv.URL+"/a.png")
		if err != nil {
			t.Fatalf("Probe: %v", err)
		}
		if d.Width != 40 || d.Height != 30 {
			t.Errorf("Probe = %+v", d)
		}
	}
	if srv.calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1 (second probe cached)", srv.calls.Load())
	}
	if srv.ranged.Load() != 1 {
		t.Errorf("prefix request should send a Range header")
	}
}

func TestProbeFallsBackToFullDownload(t *testing.T) {
	srv := newImageServer(t, map[string][]byte{"/big.jpg": encodeJPEG(t, 64, 48)})
	p := NewProber(ProberOptions{PrefixBytes: 32})
	p.SetHTTPClient(srv.Client())
	p.SetRetryPolicy(cache.RetryPolicy{Attempts: 1})

	d, err := p.Probe(context.Background(), srv.URL+"/big.jpg")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if d.Width != 64 || d.Height != 48 {
		t.Errorf("Probe = %+v", d)
	}
	if srv.calls.Load() != 2 {
		t.Errorf("server calls = %d, want 2", srv.calls.Load())
	}
}

func TestProbeAll(t *testing.T) {
	srv := newImageServer(t, map[string][]byte{
		"/a.png": encodePNG(t, 40, 30),
		"/b.gif": encodeGIF(t, 10, 20),
	})
	p := NewProber(ProberOptions{Concurrency: 2})
	p.SetHTTPClient(srv.Client())
	p.SetRetryPolicy(cache.RetryPolicy{Attempts: 1})

	urls := []string{srv.URL + "/a.png", srv.URL + "/missing.jpg", srv.URL + "/b.gif"}
	results := p.ProbeAll(context.Background(), urls)
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Errorf("result %d out of order: %s", i, r.URL)
		}
	}
	if results[0].Err != nil || results[0].Dims.Width != 40 {
		t.Errorf("a.png: %+v", results[0])
	}
	if !errors.Is(results[1].Err, errors.ErrCodeNotFound) {
		t.Errorf("missing.jpg: %v", results[1].Err)
	}
	if results[2].Err != nil || results[2].Dims.Height != 20 {
		t.Errorf("b.gif: %+v", results[2])
	}
}

func TestProviderFetchPage(t *testing.T) {
	srv := newImageServer(t, map[string][]byte{"/photos/a.png": encodePNG(t, 40, 30)})
	prober := NewProber(ProberOptions{})
	prober.SetHTTPClient(srv.Client())
	prober.SetRetryPolicy(cache.RetryPolicy{Attempts: 1})

	p := New(Options{Prober: prober})
	if err := p.Add("trip", []string{srv.URL + "/photos/a.png", srv.URL + "/photos/gone.jpg"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	page, err := p.FetchPage(context.Background(), loader.PageRequest{CollectionID: "trip", Page: 1})
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.HasMore || page.TotalPages != 1 || len(page.Items) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if it := page.Items[0]; it.Width != 40 || it.Height != 30 || it.Title != "a.png" {
		t.Errorf("probed item = %+v", it)
	}
	if it := page.Items[1]; it.HasDimensions() {
		t.Errorf("failed probe should leave dimensions unknown: %+v", it)
	}

	page, err = p.FetchPage(context.Background(), loader.PageRequest{CollectionID: "trip", Page: 2})
	if err != nil || len(page.Items) != 0 || page.HasMore {
		t.Errorf("page 2 = %+v, %v", page, err)
	}
}

func TestProviderErrors(t *testing.T) {
	p := New(Options{})
	if err := p.Add("trip", []string{"file:///etc/passwd"}); !errors.Is(err, errors.ErrCodeInvalidURL) {
		t.Errorf("Add(file url) = %v", err)
	}
	if err := p.Add("../x", nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Add(bad id) = %v", err)
	}
	_, err := p.FetchPage(context.Background(), loader.PageRequest{CollectionID: "nope", Page: 1})
	if o := loader.Classify(err); o.Kind != loader.SetFatal {
		t.Errorf("unknown collection classified as %v", o.Kind)
	}
}

func TestProviderWithoutProber(t *testing.T) {
	p := New(Options{})
	if err := p.Add("c", []string{"https://img.test/x.jpg"}); err != nil {
		t.Fatal(err)
	}
	page, err := p.FetchPage(context.Background(), loader.PageRequest{CollectionID: "c", Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].Key() != "https://img.test/x.jpg" {
		t.Errorf("items = %+v", page.Items)
	}
}
