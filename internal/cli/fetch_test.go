package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/justgrid/pkg/config"
	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/loader"
	"github.com/matzehuels/justgrid/pkg/snapshot"
)

func newDrainController(t *testing.T, provider loader.PageProvider, delay time.Duration) (*loader.Controller, chan struct{}) {
	t.Helper()
	settled := make(chan struct{}, 1)
	ctrl, err := loader.New(loader.Options{
		ID:          "drain",
		Collections: []string{"c"},
		Provider:    provider,
		Cooldown:    -1,
		BaseDelay:   delay,
		MaxDelay:    2 * delay,
		OnStatus:    func(loader.Status) { notify(settled) },
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ctrl.Destroy() })
	return ctrl, settled
}

func TestDrainUntilExhausted(t *testing.T) {
	ctrl, settled := newDrainController(t, pagedProvider(3, 2), time.Millisecond)
	rounds := 0
	st, err := drain(context.Background(), ctrl, settled, 0, 0, func(loader.Status) { rounds++ })
	if err != nil {
		t.Fatal(err)
	}
	if st.State != loader.Exhausted || st.Items != 6 {
		t.Errorf("status = %s with %d items, want exhausted with 6", st.State, st.Items)
	}
	if rounds != 3 {
		t.Errorf("rounds = %d, want 3", rounds)
	}
}

func TestDrainRetriesAfterBackoff(t *testing.T) {
	var calls atomic.Int32
	pages := pagedProvider(2, 2)
	provider := loader.ProviderFunc(func(ctx context.Context, req loader.PageRequest) (loader.Page, error) {
		if calls.Add(1) == 1 {
			return loader.Page{}, errors.New(errors.ErrCodeServer, "upstream unavailable")
		}
		return pages(ctx, req)
	})
	ctrl, settled := newDrainController(t, provider, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := drain(ctx, ctrl, settled, 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != loader.Exhausted || st.Items != 4 {
		t.Errorf("status = %s with %d items, want exhausted with 4", st.State, st.Items)
	}
	if calls.Load() != 3 {
		t.Errorf("provider calls = %d, want 3", calls.Load())
	}
}

func TestDrainRoundLimit(t *testing.T) {
	ctrl, settled := newDrainController(t, pagedProvider(5, 2), time.Millisecond)
	st, err := drain(context.Background(), ctrl, settled, 0, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != loader.Idle || st.Items != 4 || !st.HasMore {
		t.Errorf("status = %+v, want idle with 4 items and more to load", st)
	}
}

func TestDrainCancelledDuringBackoff(t *testing.T) {
	provider := loader.ProviderFunc(func(context.Context, loader.PageRequest) (loader.Page, error) {
		return loader.Page{}, errors.New(errors.ErrCodeServer, "down")
	})
	ctrl, settled := newDrainController(t, provider, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	st, err := drain(ctx, ctrl, settled, 0, 0, nil)
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if st.State != loader.Backoff {
		t.Errorf("state = %s, want backoff", st.State)
	}
}

func newAlbumServer(t *testing.T, pages, perPage int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/collections/c1/photos" {
			http.NotFound(w, r)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		photos := make([]map[string]any, perPage)
		for i := range photos {
			id := "c1-" + strconv.Itoa(page) + "-" + strconv.Itoa(i)
			photos[i] = map[string]any{"id": id, "url": "https://img.example.com/" + id + ".jpg", "width": 1500, "height": 1000}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"photos": photos, "page": page, "total_pages": pages})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestFetchSaveAndResume(t *testing.T) {
	srv, requests := newAlbumServer(t, 2, 2)
	t.Setenv(config.EnvBaseURL, srv.URL)
	snapDir := filepath.Join(t.TempDir(), "snapshots")
	cfgPath := writeTemp(t, "justgrid.yaml", "loader:\n  cooldown: 1ms\nsnapshot:\n  backend: file\n  dir: "+filepath.ToSlash(snapDir)+"\n")

	out, msgs, err := runCLI(t, "fetch", "c1", "--config", cfgPath, "--no-cache", "-f", "json", "-g", "trip", "--save")
	if err != nil {
		t.Fatalf("fetch: %v\n%s", err, msgs)
	}
	var doc layoutDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(doc.Items) != 4 || doc.Items[0].ID != "c1-1-0" {
		t.Errorf("items = %+v, want the 4 photos in page order", doc.Items)
	}
	if !strings.Contains(msgs, "Saved snapshot trip") {
		t.Errorf("messages = %q", msgs)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}

	store, err := snapshot.NewFileStore(snapDir)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := store.Get(context.Background(), "trip")
	if err != nil || snap == nil || len(snap.Items) != 4 {
		t.Fatalf("saved snapshot = %+v, %v", snap, err)
	}

	out, msgs, err = runCLI(t, "fetch", "c1", "--config", cfgPath, "--no-cache", "-f", "json", "-g", "trip", "--resume")
	if err != nil {
		t.Fatalf("resume: %v\n%s", err, msgs)
	}
	doc = layoutDocument{}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Items) != 4 {
		t.Errorf("resumed items = %d, want 4", len(doc.Items))
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("requests after resume = %d, want no new requests", got)
	}
}

func TestFetchRequiresBaseURL(t *testing.T) {
	t.Setenv(config.EnvBaseURL, "")
	if _, _, err := runCLI(t, "fetch", "c1", "--no-cache"); err == nil {
		t.Error("fetch without a base URL succeeded")
	}
}
