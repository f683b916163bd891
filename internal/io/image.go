package ioutils

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"os"

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// ErrInvalidTile is returned when a downloaded tile is not a decodable image
// of the expected size.
var ErrInvalidTile = errors.New("invalid tile image")

// ImageInfo describes a decoded image header.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// TileInspector checks downloaded tiles.
//
// Tile servers sometimes answer with an HTML error page or an XML exception
// report and a 200 status. TileInspector reads only the image header, so it
// is cheap enough to run on every tile.
//
// Example usage:
//
//	inspector := NewTileInspector(256, 256)
//	info, err := inspector.Inspect("tiles/3/5/2.png")
//	if errors.Is(err, ErrInvalidTile) {
//	    // not an image, or not 256x256
//	}
type TileInspector struct {
	width  int
	height int
}

// NewTileInspector creates a TileInspector expecting width x height images.
// A zero width or height disables the size check for that axis.
func NewTileInspector(width, height int) *TileInspector {
	return &TileInspector{width: width, height: height}
}

// Inspect decodes the header of the image at path.
//
// Supported formats: PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// Returns an error wrapping ErrInvalidTile if the file is not a supported
// image or its dimensions differ from the expected ones; file system errors
// are returned unwrapped.
func (s *TileInspector) Inspect(path string) (ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %s: %v", ErrInvalidTile, path, err)
	}

	info := ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}
	if (s.width > 0 && cfg.Width != s.width) || (s.height > 0 && cfg.Height != s.height) {
		return info, fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrInvalidTile, path, cfg.Width, cfg.Height, s.width, s.height)
	}
	return info, nil
}
