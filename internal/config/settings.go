package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/handiism/tiledl/internal/enumerate"
	"github.com/handiism/tiledl/internal/http"
	"github.com/handiism/tiledl/internal/model"
	"github.com/mitchellh/go-homedir"
)

// Unset marks a required integer setting that was not provided.
const Unset = -1

// Settings holds all configuration options.
type Settings struct {
	// Tile source
	URL        string `mapstructure:"url"`
	TileWidth  int    `mapstructure:"tile-width"`
	TileHeight int    `mapstructure:"tile-height"`

	// Tile range
	StartZoom int `mapstructure:"start-zoom"`
	EndZoom   int `mapstructure:"end-zoom"`
	StartX    int `mapstructure:"x"`
	StartY    int `mapstructure:"y"`

	// Output
	OutputDir    string `mapstructure:"output-dir"`
	DirCacheSize int    `mapstructure:"dir-cache-size"`
	Verify       bool   `mapstructure:"verify"`

	// Download settings
	ConcurrentRequests int           `mapstructure:"concurrent-requests"`
	Timeout            time.Duration `mapstructure:"timeout"`
	UserAgent          string        `mapstructure:"user-agent"`
	VerifyTLS          bool          `mapstructure:"verify-tls"`

	// Run behavior
	Strict  bool `mapstructure:"strict"`
	Verbose bool `mapstructure:"verbose"`
}

// DefaultSettings returns settings with default values.
//
// URL and EndZoom have no usable default and must be provided.
func DefaultSettings() *Settings {
	return &Settings{
		TileWidth:  256,
		TileHeight: 256,

		StartZoom: 0,
		EndZoom:   Unset,

		OutputDir:    ".",
		DirCacheSize: 4096,

		ConcurrentRequests: 1,
		Timeout:            http.DefaultTimeout,
		UserAgent:          http.DefaultUserAgent,
	}
}

// Validate checks that the settings describe a runnable download.
//
// All problems are reported together.
func (s *Settings) Validate() error {
	var errs []error

	if s.URL == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if s.EndZoom == Unset {
		errs = append(errs, errors.New("end zoom is required"))
	} else if s.EndZoom < 0 || s.EndZoom > enumerate.MaxZoom {
		errs = append(errs, fmt.Errorf("end zoom %d out of range [0, %d]", s.EndZoom, enumerate.MaxZoom))
	}
	if s.StartZoom < 0 || s.StartZoom > enumerate.MaxZoom {
		errs = append(errs, fmt.Errorf("start zoom %d out of range [0, %d]", s.StartZoom, enumerate.MaxZoom))
	} else if s.EndZoom != Unset && s.StartZoom > s.EndZoom {
		errs = append(errs, fmt.Errorf("start zoom %d is greater than end zoom %d", s.StartZoom, s.EndZoom))
	}
	if s.StartX < 0 || s.StartY < 0 {
		errs = append(errs, fmt.Errorf("tile offsets must not be negative: x=%d, y=%d", s.StartX, s.StartY))
	} else if uint64(s.StartX) > math.MaxUint32 || uint64(s.StartY) > math.MaxUint32 {
		errs = append(errs, fmt.Errorf("tile offsets must not exceed %d: x=%d, y=%d", uint64(math.MaxUint32), s.StartX, s.StartY))
	}
	if s.ConcurrentRequests < 1 {
		errs = append(errs, fmt.Errorf("concurrent requests must be at least 1, got %d", s.ConcurrentRequests))
	}
	if s.TileWidth < 0 || s.TileHeight < 0 {
		errs = append(errs, fmt.Errorf("tile size must not be negative: %dx%d", s.TileWidth, s.TileHeight))
	}
	if s.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative: %s", s.Timeout))
	}
	if s.OutputDir == "" {
		errs = append(errs, errors.New("output dir must not be empty"))
	}

	return errors.Join(errs...)
}

// ToRange converts settings to the tile range to enumerate.
// Call Validate first; out-of-range values are not checked here.
func (s *Settings) ToRange() enumerate.Range {
	return enumerate.Range{
		StartZoom: uint32(s.StartZoom),
		EndZoom:   uint32(s.EndZoom),
		StartX:    uint32(s.StartX),
		StartY:    uint32(s.StartY),
	}
}

// ToRenderer converts settings to the URL/path renderer.
//
// A leading "~" in OutputDir is expanded to the user's home directory.
func (s *Settings) ToRenderer() (*model.Renderer, error) {
	outputDir, err := homedir.Expand(s.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("expand output dir: %w", err)
	}
	return &model.Renderer{
		URLTemplate: s.URL,
		OutputDir:   outputDir,
		TileWidth:   s.TileWidth,
		TileHeight:  s.TileHeight,
	}, nil
}

// ToClientOptions converts settings to HTTP client options.
func (s *Settings) ToClientOptions() http.Options {
	return http.Options{
		Timeout:         s.Timeout,
		UserAgent:       s.UserAgent,
		VerifyTLS:       s.VerifyTLS,
		MaxConnsPerHost: s.ConcurrentRequests,
	}
}
