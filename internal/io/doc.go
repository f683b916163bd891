// Package ioutils provides file system and image utilities for tile output.
//
// This package contains:
//   - Directory creation that tolerates concurrent callers
//   - DirCache, a bounded record of directories already created
//   - TileInspector, a header-only check that a tile is a real image
//
// # Directories
//
//	dirs := ioutils.NewDirCache(ioutils.DefaultDirCacheSize)
//	err := dirs.Ensure("tiles/12/2200") // MkdirAll runs once
//	err = dirs.Ensure("tiles/12/2200")  // served from the cache
//
// # Tile Inspection
//
//	inspector := ioutils.NewTileInspector(256, 256)
//	info, err := inspector.Inspect("tiles/12/2200/1343.png")
//	fmt.Println(info.Format) // "png"
package ioutils
