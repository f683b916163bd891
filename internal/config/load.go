package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables read by Load, e.g. TILEDL_END_ZOOM.
const EnvPrefix = "TILEDL"

// ConfigFlag names the flag holding the optional config file path.
const ConfigFlag = "config"

// RegisterFlags adds every setting as a flag on fs, with defaults from
// DefaultSettings.
//
// --concurrent-threads is accepted as an alias of --concurrent-requests.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultSettings()

	fs.StringP("url", "u", d.URL, "Tile URL template, e.g. http://maps/{z}/{x}/{y}.png ({bounds}, {w}, {h} also supported)")
	fs.StringP("output-dir", "o", d.OutputDir, "Tiles are saved here in directories z/x/y.png")
	fs.IntP("start-zoom", "s", d.StartZoom, "Start zoom level, inclusive")
	fs.IntP("end-zoom", "e", d.EndZoom, "End zoom level, inclusive (required)")
	fs.IntP("x", "x", d.StartX, "Initial x value")
	fs.IntP("y", "y", d.StartY, "Initial y value")
	fs.Int("tile-width", d.TileWidth, "Tile width, replaces {w}")
	fs.Int("tile-height", d.TileHeight, "Tile height, replaces {h}")
	fs.IntP("concurrent-requests", "c", d.ConcurrentRequests, "Maximum number of tiles downloaded at once")
	fs.Duration("timeout", d.Timeout, "Timeout for a single tile request")
	fs.String("user-agent", d.UserAgent, "User-Agent header sent with tile requests")
	fs.Bool("verify-tls", d.VerifyTLS, "Verify TLS certificates of the tile server")
	fs.Bool("verify", d.Verify, "Check that every tile decodes as an image of tile-width x tile-height")
	fs.Int("dir-cache-size", d.DirCacheSize, "Number of created directories to remember")
	fs.Bool("strict", d.Strict, "Exit with status 2 if any tile failed")
	fs.BoolP("verbose", "v", d.Verbose, "Show verbose output")
	fs.String(ConfigFlag, "", "Path to a config file (json, yaml or toml)")

	fs.SetNormalizeFunc(normalizeFlagName)
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "concurrent-threads", "concurrent_threads":
		name = "concurrent-requests"
	}
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// Load resolves settings from, in order of precedence: flags set on fs,
// TILEDL_* environment variables, the config file named by --config, and
// DefaultSettings.
//
// Load does not validate; call Settings.Validate.
func Load(fs *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	path := v.GetString(ConfigFlag)
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", expanded, err)
		}
	}

	settings := DefaultSettings()
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}
