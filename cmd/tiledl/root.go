package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/handiism/tiledl/internal/config"
	"github.com/handiism/tiledl/internal/download"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const (
	exitConfig      = 1
	exitFailedTiles = 2
	exitInterrupted = 130
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiledl",
		Short: "Download map tiles into a z/x/y directory tree",
		Long: `tiledl downloads raster map tiles from a templated URL for a range of zoom
levels and saves each one as {output-dir}/{z}/{x}/{y}.png.

The URL template may contain {x}, {y} and {z}, {bounds} for the tile's
(north,south,west,east) box in degrees, and {w}/{h} for the tile size.

Every flag can also be set through a TILEDL_* environment variable
(e.g. TILEDL_END_ZOOM=6) or a config file passed with --config.`,
		Example: `  tiledl -u 'https://tile.example.com/{z}/{x}/{y}.png' -e 4 -o tiles -c 8
  tiledl -u 'https://wms.example.com/map?bbox={bounds}&width={w}&height={h}' -s 2 -e 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().Bool("dry-run", false, "Print the number of tiles and the first request without downloading")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load(cmd.Flags())
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	if err := settings.Validate(); err != nil {
		return &exitError{code: exitConfig, err: fmt.Errorf("invalid settings:\n%w", err)}
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	setDefaultSlog(settings.Verbose)
	logger := slog.Default().With("run", uuid.NewString())

	// Handle interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, err := download.NewManager(settings, func(event download.ProgressEvent) {
		logEvent(logger, event)
	})
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}

	tileRange := settings.ToRange()
	total := tileRange.Count()

	if dryRun {
		printDryRun(manager, settings, total)
		return nil
	}

	logger.Info("Starting download",
		"tiles", total,
		"zoom", fmt.Sprintf("%d-%d", settings.StartZoom, settings.EndZoom),
		"output", manager.Renderer().OutputDir,
		"concurrency", settings.ConcurrentRequests,
	)

	var bar *progressbar.ProgressBar
	if !noProgress {
		bar = newProgressBar(total)
	}
	stopProgress := trackProgress(manager, bar)

	started := time.Now()
	stats, runErr := manager.Run(ctx, tileRange.Tiles())
	stopProgress()

	printSummary(stats, total, time.Since(started))

	switch {
	case runErr != nil && ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "Download cancelled.")
		return &exitError{code: exitInterrupted}
	case runErr != nil:
		return &exitError{code: exitConfig, err: runErr}
	case settings.Strict && stats.Failed > 0:
		return &exitError{code: exitFailedTiles, err: fmt.Errorf("%d tiles failed", stats.Failed)}
	}
	return nil
}

func setDefaultSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func logEvent(logger *slog.Logger, event download.ProgressEvent) {
	switch event.Level {
	case download.LevelError:
		attrs := []any{"url", event.URL, "tile", event.Tile.String()}
		if event.Err != nil {
			attrs = append(attrs, "err", event.Err)
		}
		logger.Error(event.Message, attrs...)
	case download.LevelWarning:
		logger.Warn(event.Message, "url", event.URL)
	case download.LevelVerbose:
		logger.Debug(event.Message, "url", event.URL, "tile", event.Tile.String())
	default:
		logger.Info(event.Message)
	}
}

func newProgressBar(total uint64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(int64(total),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("tiles"),
		progressbar.OptionSetItsString("tiles"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

// trackProgress mirrors the manager's counters into bar until the returned
// function is called.
func trackProgress(manager *download.Manager, bar *progressbar.ProgressBar) func() {
	if bar == nil {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				stats := manager.GetProgress()
				_ = bar.Set64(int64(stats.Completed + stats.Failed))
				_ = bar.Finish()
				return
			case <-ticker.C:
				stats := manager.GetProgress()
				_ = bar.Set64(int64(stats.Completed + stats.Failed))
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func printDryRun(manager *download.Manager, settings *config.Settings, total uint64) {
	fmt.Printf("Tiles to download: %s\n", humanize.Comma(int64(total)))
	for addr := range settings.ToRange().Tiles() {
		req := manager.Renderer().Render(addr)
		fmt.Printf("First tile: %s\n  url:  %s\n  path: %s\n", addr, req.URL, req.Path)
		break
	}
}

func printSummary(stats download.Stats, total uint64, elapsed time.Duration) {
	fmt.Println()
	fmt.Printf("Saved %s/%s tiles (%s) in %s\n",
		humanize.Comma(int64(stats.Completed)),
		humanize.Comma(int64(total)),
		humanize.Bytes(uint64(stats.Bytes)),
		elapsed.Round(time.Millisecond),
	)
	if stats.Failed == 0 {
		return
	}
	fmt.Printf("Failed: %s tiles\n", humanize.Comma(int64(stats.Failed)))
	for kind := download.FailureTransport; kind <= download.FailureInvalidImage; kind++ {
		if n := stats.Failures[kind]; n > 0 {
			fmt.Printf("  %-14s %s\n", kind.String()+":", humanize.Comma(int64(n)))
		}
	}
}
