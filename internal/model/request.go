package model

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Template placeholders recognized by Renderer.
const (
	PlaceholderX      = "{x}"
	PlaceholderY      = "{y}"
	PlaceholderZ      = "{z}"
	PlaceholderBounds = "{bounds}"
	PlaceholderWidth  = "{w}"
	PlaceholderHeight = "{h}"
)

// TileExtension is appended to every tile file name regardless of what the
// server actually returns.
const TileExtension = ".png"

// TileRequest is a rendered, ready-to-fetch tile.
//
// Example:
//
//	r := &Renderer{URLTemplate: "https://tiles/{z}/{x}/{y}.png", OutputDir: "out"}
//	req := r.Render(Address{Zoom: 3, X: 5, Y: 2})
//	// req.URL  = "https://tiles/3/5/2.png"
//	// req.Path = "out/3/5/2.png"
type TileRequest struct {
	// Tile is the address the request was rendered from.
	Tile Address

	// URL is the concrete request URL.
	URL string

	// Path is the destination file: {outputDir}/{zoom}/{x}/{y}.png.
	Path string
}

// Renderer turns tile addresses into request URLs and destination paths.
//
// URLTemplate may contain any of these placeholders (exact, case-sensitive):
//   - {x}, {y}, {z} - tile column, row and zoom level
//   - {bounds} - "(north,south,west,east)" of the tile, see TileBounds
//   - {w}, {h} - TileWidth and TileHeight
//
// Any other brace text is left untouched. Renderer is a pure function of its
// fields and the address; it performs no I/O and is safe for concurrent use.
type Renderer struct {
	// URLTemplate is the request URL with placeholders.
	URLTemplate string

	// OutputDir is the root of the zoom/x/y tree.
	OutputDir string

	// TileWidth replaces {w}.
	TileWidth int

	// TileHeight replaces {h}.
	TileHeight int
}

// Render produces the request URL and destination path for a tile.
func (r *Renderer) Render(a Address) TileRequest {
	return TileRequest{
		Tile: a,
		URL:  r.URL(a),
		Path: r.Path(a),
	}
}

// URL substitutes the tile's values into the template.
func (r *Renderer) URL(a Address) string {
	url := r.URLTemplate
	url = strings.ReplaceAll(url, PlaceholderX, strconv.FormatUint(uint64(a.X), 10))
	url = strings.ReplaceAll(url, PlaceholderY, strconv.FormatUint(uint64(a.Y), 10))
	url = strings.ReplaceAll(url, PlaceholderZ, strconv.FormatUint(uint64(a.Zoom), 10))

	if strings.Contains(url, PlaceholderBounds) {
		url = strings.ReplaceAll(url, PlaceholderBounds, TileBounds(a).String())
	}

	url = strings.ReplaceAll(url, PlaceholderWidth, strconv.Itoa(r.TileWidth))
	url = strings.ReplaceAll(url, PlaceholderHeight, strconv.Itoa(r.TileHeight))
	return url
}

// Dir returns the directory holding every tile of the address's column:
// {outputDir}/{zoom}/{x}.
func (r *Renderer) Dir(a Address) string {
	return filepath.Join(
		r.OutputDir,
		strconv.FormatUint(uint64(a.Zoom), 10),
		strconv.FormatUint(uint64(a.X), 10),
	)
}

// Path returns the destination file {outputDir}/{zoom}/{x}/{y}.png.
func (r *Renderer) Path(a Address) string {
	return filepath.Join(r.Dir(a), strconv.FormatUint(uint64(a.Y), 10)+TileExtension)
}
