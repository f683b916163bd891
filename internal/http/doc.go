// Package http provides the HTTP client used to fetch map tiles.
//
// The Client in this package handles:
//   - Certificate verification policy (off by default, see Options.VerifyTLS)
//   - User-Agent headers and proxies from the environment
//   - Streaming a tile body straight to its destination file
//   - Classifying failures: transport errors, *StatusError, file errors and
//     ErrEmptyBody
//
// # Basic Usage
//
//	client := http.NewClient(http.Options{})
//	n, err := client.DownloadFile(ctx, tileURL, "tiles/3/5/2.png", nil)
//	if errors.Is(err, http.ErrEmptyBody) {
//	    // server answered without content
//	}
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(delta, written int64) { /* update UI */ },
//	}
package http
