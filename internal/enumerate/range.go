// Package enumerate produces the ordered sequence of tile addresses to fetch.
//
// The address space grows as 4^zoom, so a Range never materializes its tiles:
// Tiles returns a lazy iterator that yields one address at a time.
//
//	r := enumerate.Range{StartZoom: 0, EndZoom: 18}
//	for addr := range r.Tiles() {
//	    fmt.Println(addr)
//	}
package enumerate

import (
	"fmt"
	"iter"

	"github.com/handiism/tiledl/internal/model"
)

// MaxZoom is the deepest zoom level a Range accepts. At zoom 30 tile
// coordinates still fit in uint32 and Count cannot overflow uint64.
const MaxZoom = 30

// Range describes the tiles to enumerate.
//
// StartX and StartY are offsets applied at every zoom level of the range: x
// runs from StartX to 2^zoom-1 and y from StartY to 2^zoom-1. A zoom level
// whose grid is not larger than the offsets contributes no tiles.
type Range struct {
	StartZoom uint32
	EndZoom   uint32
	StartX    uint32
	StartY    uint32
}

// Validate checks the zoom bounds.
func (r Range) Validate() error {
	if r.StartZoom > r.EndZoom {
		return fmt.Errorf("start zoom %d is greater than end zoom %d", r.StartZoom, r.EndZoom)
	}
	if r.EndZoom > MaxZoom {
		return fmt.Errorf("end zoom %d out of range [0, %d]", r.EndZoom, MaxZoom)
	}
	return nil
}

// Tiles returns an iterator over every address in the range, ordered by
// zoom, then x, then y, all ascending.
//
// The iterator holds O(1) state; stopping the range loop early stops
// generation.
func (r Range) Tiles() iter.Seq[model.Address] {
	return func(yield func(model.Address) bool) {
		for z := r.StartZoom; z <= r.EndZoom; z++ {
			n := uint64(1) << z
			for x := uint64(r.StartX); x < n; x++ {
				for y := uint64(r.StartY); y < n; y++ {
					if !yield(model.Address{Zoom: z, X: uint32(x), Y: uint32(y)}) {
						return
					}
				}
			}
			if z == r.EndZoom {
				// z is unsigned; avoid wrapping when EndZoom is the type's max.
				return
			}
		}
	}
}

// Count returns the number of addresses Tiles yields.
func (r Range) Count() uint64 {
	var total uint64
	for z := r.StartZoom; z <= r.EndZoom; z++ {
		n := uint64(1) << z
		total += span(n, r.StartX) * span(n, r.StartY)
		if z == r.EndZoom {
			break
		}
	}
	return total
}

func span(n uint64, start uint32) uint64 {
	if uint64(start) >= n {
		return 0
	}
	return n - uint64(start)
}
