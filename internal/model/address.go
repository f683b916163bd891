package model

import (
	"fmt"

	"github.com/paulmach/orb/maptile"
)

// Address identifies a single tile by zoom level and grid position.
//
// X and Y range over [0, 2^Zoom). An Address is a value type and is never
// mutated after creation.
//
// Example:
//
//	addr := model.Address{Zoom: 3, X: 5, Y: 2}
//	fmt.Println(addr) // "3/5/2"
type Address struct {
	// Zoom is the zoom level; the grid at this level is 2^Zoom tiles per axis.
	Zoom uint32

	// X is the column, counted from the west edge.
	X uint32

	// Y is the row, counted from the north edge.
	Y uint32
}

// TilesPerAxis returns 2^Zoom, the number of tiles along one axis at the
// address's zoom level.
func (a Address) TilesPerAxis() uint64 {
	return uint64(1) << a.Zoom
}

// Valid reports whether X and Y lie inside the grid of the address's zoom level.
func (a Address) Valid() bool {
	n := a.TilesPerAxis()
	return uint64(a.X) < n && uint64(a.Y) < n
}

// String formats the address as "z/x/y".
func (a Address) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Zoom, a.X, a.Y)
}

// MapTile converts the address to an orb maptile.
func (a Address) MapTile() maptile.Tile {
	return maptile.New(a.X, a.Y, maptile.Zoom(a.Zoom))
}

// AddressFromMapTile converts an orb maptile to an Address.
func AddressFromMapTile(t maptile.Tile) Address {
	return Address{Zoom: uint32(t.Z), X: t.X, Y: t.Y}
}
