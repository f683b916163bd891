// Package download provides the bounded concurrent fetch loop that saves map
// tiles to disk.
//
// # Manager
//
// The Manager coordinates a run:
//
//  1. Pull the next address from the enumerator
//  2. Ensure the zoom/x directory exists (once per column)
//  3. Render the tile URL and destination path
//  4. Wait for a free slot, then fetch the tile in its own goroutine
//  5. Optionally verify the saved file is an image of the expected size
//
// # Basic Usage
//
//	manager, err := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stats, err := manager.Run(ctx, settings.ToRange().Tiles())
//	fmt.Printf("%d saved, %d failed\n", stats.Completed, stats.Failed)
//
// # Concurrency
//
// At most settings.ConcurrentRequests fetches run at once. The enumerator is
// only advanced when a slot is free, so memory stays proportional to the
// concurrency limit no matter how many tiles the range holds.
//
// # Failures
//
// A failed tile is reported as a LevelError ProgressEvent whose Err is a
// *TileError, and counted in Stats.Failures by FailureKind. Failed tiles are
// not retried. Only a directory that cannot be created ends the run early.
package download
