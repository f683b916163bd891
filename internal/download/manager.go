package download

import (
	"context"
	"fmt"
	"iter"
	"os"
	"sync/atomic"

	"github.com/handiism/tiledl/internal/config"
	"github.com/handiism/tiledl/internal/http"
	ioutils "github.com/handiism/tiledl/internal/io"
	"github.com/handiism/tiledl/internal/model"
	"golang.org/x/sync/errgroup"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel

	// Tile, URL and Err are set for events about a single tile.
	Tile model.Address
	URL  string
	Err  error
}

// Downloader fetches one URL into one file and returns the bytes written.
// *http.Client implements it.
type Downloader interface {
	DownloadFile(ctx context.Context, url, destPath string, onProgress func(delta int64)) (int64, error)
}

// Option customizes a Manager.
type Option func(*Manager)

// WithDownloader replaces the HTTP client built from the settings.
func WithDownloader(d Downloader) Option {
	return func(m *Manager) {
		m.downloader = d
	}
}

// Stats is a snapshot of a Manager's counters.
type Stats struct {
	// Dispatched counts tiles admitted into the pool.
	Dispatched uint64

	// Completed counts tiles saved successfully.
	Completed uint64

	// Failed counts tiles that failed for any reason.
	Failed uint64

	// InFlight is the number of fetches running right now.
	InFlight int64

	// Bytes is the total written to tile files.
	Bytes int64

	// Failures breaks Failed down by kind. Kinds with no failures are absent.
	Failures map[FailureKind]uint64
}

// Manager coordinates tile downloads.
//
// A Manager is meant for a single Run; its counters are not reset.
type Manager struct {
	renderer    *model.Renderer
	downloader  Downloader
	dirs        *ioutils.DirCache
	inspector   *ioutils.TileInspector
	concurrency int

	dispatched atomic.Uint64
	completed  atomic.Uint64
	failed     atomic.Uint64
	inFlight   atomic.Int64
	bytes      atomic.Int64
	failures   [numFailureKinds]atomic.Uint64

	onProgress func(ProgressEvent)
}

// NewManager creates a new download Manager.
//
// Settings are expected to be validated. onProgress may be nil; it is called
// from worker goroutines and must be safe for concurrent use.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) (*Manager, error) {
	renderer, err := settings.ToRenderer()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		renderer:    renderer,
		dirs:        ioutils.NewDirCache(settings.DirCacheSize),
		concurrency: max(settings.ConcurrentRequests, 1),
		onProgress:  onProgress,
	}
	if settings.Verify {
		m.inspector = ioutils.NewTileInspector(settings.TileWidth, settings.TileHeight)
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.downloader == nil {
		m.downloader = http.NewClient(settings.ToClientOptions())
	}
	return m, nil
}

// Renderer returns the renderer used to build tile requests.
func (m *Manager) Renderer() *model.Renderer {
	return m.renderer
}

// Run downloads every tile yielded by tiles, with at most the configured
// number of requests in flight.
//
// Tiles are dispatched in the order they are yielded; pulling the next tile
// blocks while the pool is full. A failing tile is reported through the
// progress callback and does not stop the run. Run returns once tiles is
// exhausted and every dispatched fetch has finished.
//
// Run stops dispatching early, still waiting for in-flight fetches, when:
//   - ctx is cancelled (in-flight requests are aborted too); the context
//     error is returned
//   - a tile directory cannot be created; that error is returned
func (m *Manager) Run(ctx context.Context, tiles iter.Seq[model.Address]) (Stats, error) {
	var g errgroup.Group
	g.SetLimit(m.concurrency)

	var runErr error
	for addr := range tiles {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		dir := m.renderer.Dir(addr)
		if err := m.dirs.Ensure(dir); err != nil {
			runErr = fmt.Errorf("create directory %s: %w", dir, err)
			m.progress(ProgressEvent{Message: runErr.Error(), Level: LevelError, Tile: addr, Err: runErr})
			break
		}

		req := m.renderer.Render(addr)
		g.Go(func() error {
			m.fetch(ctx, req)
			return nil // Continue with other tiles
		})
		m.dispatched.Add(1)
	}

	_ = g.Wait()
	return m.GetProgress(), runErr
}

// GetProgress returns current download progress.
func (m *Manager) GetProgress() Stats {
	stats := Stats{
		Dispatched: m.dispatched.Load(),
		Completed:  m.completed.Load(),
		Failed:     m.failed.Load(),
		InFlight:   m.inFlight.Load(),
		Bytes:      m.bytes.Load(),
		Failures:   make(map[FailureKind]uint64),
	}
	for kind := range numFailureKinds {
		if n := m.failures[kind].Load(); n > 0 {
			stats.Failures[kind] = n
		}
	}
	return stats
}

func (m *Manager) fetch(ctx context.Context, req model.TileRequest) {
	m.inFlight.Add(1)
	defer m.inFlight.Add(-1)

	n, err := m.downloader.DownloadFile(ctx, req.URL, req.Path, func(delta int64) {
		m.bytes.Add(delta)
	})
	if err == nil && m.inspector != nil {
		if _, err = m.inspector.Inspect(req.Path); err != nil {
			_ = os.Remove(req.Path)
		}
	}
	if err != nil {
		m.fail(req, err)
		return
	}

	m.completed.Add(1)
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Saved %s (%d bytes)", req.Path, n),
		Level:   LevelVerbose,
		Tile:    req.Tile,
		URL:     req.URL,
	})
}

func (m *Manager) fail(req model.TileRequest, err error) {
	tileErr := &TileError{Kind: Classify(err), URL: req.URL, Path: req.Path, Err: err}
	m.failed.Add(1)
	m.failures[tileErr.Kind].Add(1)
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Failed to save %s: %v", req.URL, err),
		Level:   LevelError,
		Tile:    req.Tile,
		URL:     req.URL,
		Err:     tileErr,
	})
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
