package download

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/handiism/tiledl/internal/config"
	"github.com/handiism/tiledl/internal/enumerate"
	tilehttp "github.com/handiism/tiledl/internal/http"
	"github.com/handiism/tiledl/internal/model"
)

// fakeDownloader writes a fixed body after an optional delay and records how
// many calls run at once.
type fakeDownloader struct {
	delay  time.Duration
	failOn func(url string) error

	active    atomic.Int64
	maxActive atomic.Int64
	calls     atomic.Int64

	mu   sync.Mutex
	done map[string]bool
}

func newFakeDownloader(delay time.Duration) *fakeDownloader {
	return &fakeDownloader{delay: delay, done: make(map[string]bool)}
}

func (f *fakeDownloader) DownloadFile(ctx context.Context, url, destPath string, onProgress func(int64)) (int64, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		cur := f.maxActive.Load()
		if n <= cur || f.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	defer func() {
		f.mu.Lock()
		f.done[url] = true
		f.mu.Unlock()
	}()

	if f.failOn != nil {
		if err := f.failOn(url); err != nil {
			return 0, err
		}
	}

	body := []byte("tile")
	if err := os.WriteFile(destPath, body, 0644); err != nil {
		return 0, err
	}
	if onProgress != nil {
		onProgress(int64(len(body)))
	}
	return int64(len(body)), nil
}

func testSettings(t *testing.T, endZoom, concurrency int) *config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.URL = "http://tiles/{z}/{x}/{y}.png"
	s.OutputDir = t.TempDir()
	s.EndZoom = endZoom
	s.ConcurrentRequests = concurrency
	if err := s.Validate(); err != nil {
		t.Fatalf("invalid test settings: %v", err)
	}
	return s
}

func TestManager_ConcurrencyBound(t *testing.T) {
	for _, limit := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			settings := testSettings(t, 2, limit)
			fake := newFakeDownloader(5 * time.Millisecond)

			m, err := NewManager(settings, nil, WithDownloader(fake))
			if err != nil {
				t.Fatalf("NewManager failed: %v", err)
			}
			stats, err := m.Run(context.Background(), settings.ToRange().Tiles())
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			if got := fake.maxActive.Load(); got > int64(limit) {
				t.Errorf("max concurrent fetches = %d, limit %d", got, limit)
			}
			if limit > 1 && fake.maxActive.Load() < 2 {
				t.Errorf("max concurrent fetches = %d, expected fetches to overlap", fake.maxActive.Load())
			}
			if stats.Completed != 21 || stats.Dispatched != 21 {
				t.Errorf("stats = %+v, want 21 completed", stats)
			}
		})
	}
}

func TestManager_CompletionBarrier(t *testing.T) {
	settings := testSettings(t, 2, 4)
	fake := newFakeDownloader(20 * time.Millisecond)

	m, err := NewManager(settings, nil, WithDownloader(fake))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	stats, err := m.Run(context.Background(), settings.ToRange().Tiles())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := int(settings.ToRange().Count())
	fake.mu.Lock()
	done := len(fake.done)
	fake.mu.Unlock()
	if done != want {
		t.Errorf("%d fetches finished before Run returned, want %d", done, want)
	}
	if stats.InFlight != 0 {
		t.Errorf("InFlight = %d after Run, want 0", stats.InFlight)
	}
	if stats.Completed+stats.Failed != uint64(want) {
		t.Errorf("completed+failed = %d, want %d", stats.Completed+stats.Failed, want)
	}

	// Every tile ends up at outputDir/z/x/y.png.
	for addr := range settings.ToRange().Tiles() {
		path := filepath.Join(settings.OutputDir, fmt.Sprint(addr.Zoom), fmt.Sprint(addr.X), fmt.Sprintf("%d.png", addr.Y))
		if _, err := os.Stat(path); err != nil {
			t.Errorf("tile %v missing: %v", addr, err)
		}
	}
}

func TestManager_FailureIsolation(t *testing.T) {
	settings := testSettings(t, 2, 3)
	fake := newFakeDownloader(time.Millisecond)
	fake.failOn = func(url string) error {
		if strings.HasSuffix(url, "/1/0/1.png") || strings.HasSuffix(url, "/2/3/3.png") {
			return errors.New("connection reset")
		}
		return nil
	}

	var mu sync.Mutex
	var failedURLs []string
	m, err := NewManager(settings, func(e ProgressEvent) {
		if e.Level == LevelError {
			mu.Lock()
			failedURLs = append(failedURLs, e.URL)
			mu.Unlock()
		}
	}, WithDownloader(fake))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	stats, err := m.Run(context.Background(), settings.ToRange().Tiles())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Failed != 2 || stats.Completed != 19 {
		t.Errorf("stats = %+v, want 2 failed and 19 completed", stats)
	}
	if stats.Failures[FailureTransport] != 2 {
		t.Errorf("Failures = %v, want 2 transport", stats.Failures)
	}
	if len(failedURLs) != 2 {
		t.Errorf("reported failures = %v, want 2", failedURLs)
	}
	if fake.calls.Load() != 21 {
		t.Errorf("calls = %d, want every tile attempted", fake.calls.Load())
	}
}

func TestManager_DirectoryFailureIsFatal(t *testing.T) {
	settings := testSettings(t, 1, 2)
	blocker := filepath.Join(settings.OutputDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	settings.OutputDir = blocker

	fake := newFakeDownloader(0)
	m, err := NewManager(settings, nil, WithDownloader(fake))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	stats, err := m.Run(context.Background(), settings.ToRange().Tiles())
	if err == nil || !strings.Contains(err.Error(), "create directory") {
		t.Fatalf("err = %v, want directory error", err)
	}
	if stats.Dispatched != 0 || fake.calls.Load() != 0 {
		t.Errorf("no tile should be dispatched, stats = %+v", stats)
	}
}

func TestManager_Cancelled(t *testing.T) {
	settings := testSettings(t, 3, 2)
	fake := newFakeDownloader(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	var started atomic.Int64
	tiles := func(yield func(model.Address) bool) {
		for addr := range (enumerate.Range{EndZoom: 3}).Tiles() {
			if started.Add(1) == 3 {
				cancel()
			}
			if !yield(addr) {
				return
			}
		}
	}

	m, err := NewManager(settings, nil, WithDownloader(fake))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	done := make(chan struct{})
	var stats Stats
	go func() {
		defer close(done)
		stats, err = m.Run(ctx, iter.Seq[model.Address](tiles))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if stats.Dispatched >= settings.ToRange().Count() {
		t.Errorf("Dispatched = %d, expected dispatch to stop early", stats.Dispatched)
	}
	if stats.InFlight != 0 {
		t.Errorf("InFlight = %d, want 0", stats.InFlight)
	}
}

func TestManager_HTTPEndToEnd(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1/0/0.png":
			http.Error(w, "missing", http.StatusNotFound)
		case "/1/1/1.png":
			w.WriteHeader(http.StatusOK)
		default:
			w.Write([]byte("tile " + r.URL.Path))
		}
	}))
	defer srv.Close()

	settings := testSettings(t, 1, 4)
	settings.URL = srv.URL + "/{z}/{x}/{y}.png"

	m, err := NewManager(settings, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	stats, err := m.Run(context.Background(), settings.ToRange().Tiles())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Completed != 3 || stats.Failed != 2 {
		t.Fatalf("stats = %+v, want 3 completed and 2 failed", stats)
	}
	if stats.Failures[FailureStatus] != 1 || stats.Failures[FailureEmptyBody] != 1 {
		t.Errorf("Failures = %v, want one status and one empty body", stats.Failures)
	}

	data, err := os.ReadFile(filepath.Join(settings.OutputDir, "1", "0", "1.png"))
	if err != nil {
		t.Fatalf("reading tile: %v", err)
	}
	if string(data) != "tile /1/0/1.png" {
		t.Errorf("tile content = %q", data)
	}
	if stats.Bytes == 0 {
		t.Error("Bytes = 0, want bytes counted")
	}
}

func TestManager_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<ServiceExceptionReport/>"))
	}))
	defer srv.Close()

	settings := testSettings(t, 0, 1)
	settings.URL = srv.URL + "/{z}/{x}/{y}"
	settings.Verify = true

	var tileErr *TileError
	m, err := NewManager(settings, func(e ProgressEvent) {
		if e.Level == LevelError {
			errors.As(e.Err, &tileErr)
		}
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	stats, err := m.Run(context.Background(), settings.ToRange().Tiles())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Failures[FailureInvalidImage] != 1 {
		t.Errorf("Failures = %v, want one invalid image", stats.Failures)
	}
	if tileErr == nil || tileErr.Kind != FailureInvalidImage {
		t.Errorf("reported error = %v, want invalid image TileError", tileErr)
	}
	if _, err := os.Stat(filepath.Join(settings.OutputDir, "0", "0", "0.png")); !os.IsNotExist(err) {
		t.Errorf("rejected tile should be removed, stat err = %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"empty body", tilehttp.ErrEmptyBody, FailureEmptyBody},
		{"status", &tilehttp.StatusError{StatusCode: 500, Status: "Internal Server Error"}, FailureStatus},
		{"path", &os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}, FailureFileSystem},
		{"wrapped status", fmt.Errorf("tile: %w", &tilehttp.StatusError{StatusCode: 404}), FailureStatus},
		{"other", errors.New("unexpected EOF"), FailureTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
