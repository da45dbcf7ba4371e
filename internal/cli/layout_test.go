package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/justgrid/pkg/errors"
)

const itemsJSON = `[
  {"id": "a", "image_url": "https://img.example.com/a.jpg", "width": 1200, "height": 800},
  {"id": "b", "image_url": "https://img.example.com/b.jpg", "width": 800, "height": 1200},
  {"id": "c", "image_url": "https://img.example.com/c.jpg", "width": 1600, "height": 900},
  {"image_url": "https://img.example.com/d.jpg"}
]`

func TestReadItems(t *testing.T) {
	plain := writeTemp(t, "items.json", itemsJSON)
	wrapped := writeTemp(t, "doc.json", `{"width": 100, "items": `+itemsJSON+`}`)
	for _, path := range []string{plain, wrapped} {
		items, err := readItems(path, nil)
		if err != nil {
			t.Fatalf("readItems(%s) error = %v", filepath.Base(path), err)
		}
		if len(items) != 4 || items[3].Key() != "https://img.example.com/d.jpg" {
			t.Errorf("readItems(%s) = %+v", filepath.Base(path), items)
		}
	}

	items, err := readItems("-", strings.NewReader(itemsJSON))
	if err != nil || len(items) != 4 {
		t.Errorf("readItems(stdin) = %d items, %v", len(items), err)
	}

	bad := writeTemp(t, "bad.json", `[{"title": "no key"}]`)
	if _, err := readItems(bad, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("item without key: err = %v", err)
	}
	garbage := writeTemp(t, "garbage.json", `{"items": 3}`)
	if _, err := readItems(garbage, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("garbage: err = %v", err)
	}
}

func TestLayoutCommandJSON(t *testing.T) {
	path := writeTemp(t, "items.json", itemsJSON)
	out, _, err := runCLI(t, "layout", path, "-f", "json", "--width", "600")
	if err != nil {
		t.Fatal(err)
	}
	var doc layoutDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(doc.Items) != 4 || len(doc.Rows) != 2 {
		t.Fatalf("items = %d, rows = %d; want 4 and 2", len(doc.Items), len(doc.Rows))
	}
	// Three per row at 600px; the full first row fills the width exactly.
	if w := doc.Rows[0].Width(4); w != 600 {
		t.Errorf("first row width = %v, want 600", w)
	}
	if doc.TotalHeight != doc.Rows[1].Bottom() {
		t.Errorf("total_height = %v, want %v", doc.TotalHeight, doc.Rows[1].Bottom())
	}
}

func TestLayoutCommandTable(t *testing.T) {
	path := writeTemp(t, "items.json", itemsJSON)
	out, msgs, err := runCLI(t, "layout", path, "--width", "600")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Height") || !strings.Contains(msgs, "4 items in 2 rows") {
		t.Errorf("table output = %q, messages = %q", out, msgs)
	}
}

func TestLayoutCommandImages(t *testing.T) {
	path := writeTemp(t, "items.json", itemsJSON)
	dir := t.TempDir()
	for _, format := range []string{"svg", "png"} {
		target := filepath.Join(dir, "grid."+format)
		if _, _, err := runCLI(t, "layout", path, "-f", format, "-o", target, "--width", "300", "--scale", "0.5"); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		data, err := os.ReadFile(target)
		if err != nil || len(data) == 0 {
			t.Fatalf("%s not written: %v", format, err)
		}
		if format == "svg" && !strings.HasPrefix(string(data), "<svg") {
			t.Errorf("svg output starts with %.20q", data)
		}
		if format == "png" && string(data[1:4]) != "PNG" {
			t.Errorf("png output starts with %.8q", data)
		}
	}
}

func TestLayoutCommandErrors(t *testing.T) {
	path := writeTemp(t, "items.json", itemsJSON)
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"layout", path, "-f", "gif"}},
		{"zero width", []string{"layout", path, "--width", "0"}},
		{"missing file", []string{"layout", filepath.Join(t.TempDir(), "nope.json")}},
		{"no args", []string{"layout"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
