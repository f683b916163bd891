package model

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Bounds is the geographic rectangle covered by a tile, in degrees.
//
// Bounds uses a plain equirectangular grid: the world spans 360 degrees of
// longitude and 180 degrees of latitude, split evenly into 2^zoom steps along
// each axis. This is what WMS-style {bounds} endpoints expect; it is not the
// Web Mercator extent of the same tile.
type Bounds struct {
	North float64
	South float64
	West  float64
	East  float64
}

// TileBounds computes the bounding box of the tile at the given address.
//
// With n = 2^zoom:
//
//	lonStep = 360 / n, latStep = 180 / n
//	west  = x*lonStep - 180, east  = west + lonStep
//	north = 90 - y*latStep,  south = north - latStep
//
// Example:
//
//	TileBounds(Address{Zoom: 1, X: 0, Y: 0}) // {North: 90, South: 0, West: -180, East: 0}
func TileBounds(a Address) Bounds {
	n := float64(a.TilesPerAxis())
	lonStep := 360.0 / n
	latStep := 180.0 / n

	lon := float64(a.X)*lonStep - 180.0
	lat := 90.0 - float64(a.Y)*latStep

	return Bounds{
		North: lat,
		South: lat - latStep,
		West:  lon,
		East:  lon + lonStep,
	}
}

// String renders the box as "(north,south,west,east)".
//
// Each value uses the shortest decimal that round-trips to the same float64,
// so the output is stable across runs and platforms.
func (b Bounds) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range [4]float64{b.North, b.South, b.West, b.East} {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	sb.WriteByte(')')
	return sb.String()
}

// Orb returns the box as an orb.Bound (lon/lat ordered points).
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}
