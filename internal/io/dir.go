package ioutils

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDirCacheSize is the number of directories a DirCache remembers.
const DefaultDirCacheSize = 4096

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned, so concurrent calls
// for the same path are safe.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// DirCache remembers directories that were already created so EnsureDir runs
// once per directory instead of once per file.
//
// The cache is a bounded LRU: at deep zoom levels there are millions of
// zoom/x columns, and a directory that was evicted is simply ensured again.
//
// Example:
//
//	dirs := NewDirCache(DefaultDirCacheSize)
//	for _, tile := range tiles {
//	    if err := dirs.Ensure(filepath.Dir(tile.Path)); err != nil {
//	        return err
//	    }
//	}
type DirCache struct {
	dirs  *lru.Cache[string, struct{}]
	mkdir func(string) error
}

// NewDirCache creates a DirCache holding up to size directories. A size below
// one falls back to DefaultDirCacheSize.
func NewDirCache(size int) *DirCache {
	if size < 1 {
		size = DefaultDirCacheSize
	}
	dirs, _ := lru.New[string, struct{}](size)
	return &DirCache{dirs: dirs, mkdir: EnsureDir}
}

// Ensure creates dir unless it was ensured before. Failures are not cached.
func (c *DirCache) Ensure(dir string) error {
	if c.dirs.Contains(dir) {
		return nil
	}
	if err := c.mkdir(dir); err != nil {
		return err
	}
	c.dirs.Add(dir, struct{}{})
	return nil
}

// Len returns the number of directories currently remembered.
func (c *DirCache) Len() int {
	return c.dirs.Len()
}
