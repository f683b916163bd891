// Package config provides configuration management for tiledl.
//
// This package handles:
//   - Default configuration values
//   - Registering every setting as a command line flag
//   - Resolving settings from flags, TILEDL_* environment variables and an
//     optional config file
//   - Validation and conversion to the enumerate, model and http types
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// One request at a time, 256x256 tiles, output in the current directory
//
// # Loading
//
//	fs := pflag.NewFlagSet("tiledl", pflag.ContinueOnError)
//	config.RegisterFlags(fs)
//	fs.Parse(os.Args[1:])
//	settings, err := config.Load(fs)
//	if err == nil {
//	    err = settings.Validate()
//	}
//
// A config file uses the flag names as keys:
//
//	url: https://tiles.example.com/{z}/{x}/{y}.png
//	end-zoom: 6
//	concurrent-requests: 8
package config
