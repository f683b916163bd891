package model

import (
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/maptile"
)

func TestTileBounds(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want Bounds
	}{
		{"zoom 0", Address{Zoom: 0, X: 0, Y: 0}, Bounds{North: 90, South: -90, West: -180, East: 180}},
		{"zoom 1 north-west", Address{Zoom: 1, X: 0, Y: 0}, Bounds{North: 90, South: 0, West: -180, East: 0}},
		{"zoom 1 south-east", Address{Zoom: 1, X: 1, Y: 1}, Bounds{North: 0, South: -90, West: 0, East: 180}},
		{"zoom 2", Address{Zoom: 2, X: 3, Y: 1}, Bounds{North: 45, South: 0, West: 90, East: 180}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TileBounds(tt.addr); got != tt.want {
				t.Errorf("TileBounds(%v) = %+v, want %+v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestBounds_String(t *testing.T) {
	tests := []struct {
		addr Address
		want string
	}{
		{Address{Zoom: 1, X: 0, Y: 0}, "(90,0,-180,0)"},
		{Address{Zoom: 1, X: 1, Y: 1}, "(0,-90,0,180)"},
		{Address{Zoom: 3, X: 1, Y: 1}, "(67.5,45,-135,-90)"},
	}

	for _, tt := range tests {
		t.Run(tt.addr.String(), func(t *testing.T) {
			if got := TileBounds(tt.addr).String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBounds_Orb(t *testing.T) {
	b := TileBounds(Address{Zoom: 1, X: 1, Y: 0}).Orb()
	if b.Min[0] != 0 || b.Min[1] != 0 || b.Max[0] != 180 || b.Max[1] != 90 {
		t.Errorf("Orb() = %v, want [[0 0] [180 90]]", b)
	}
}

func TestAddress_MapTileRoundTrip(t *testing.T) {
	addr := Address{Zoom: 12, X: 2200, Y: 1343}
	mt := addr.MapTile()
	if mt.Z != maptile.Zoom(12) || mt.X != 2200 || mt.Y != 1343 {
		t.Fatalf("MapTile() = %v", mt)
	}
	if got := AddressFromMapTile(mt); got != addr {
		t.Errorf("AddressFromMapTile() = %v, want %v", got, addr)
	}
}

func TestAddress_Valid(t *testing.T) {
	if !(Address{Zoom: 2, X: 3, Y: 3}).Valid() {
		t.Error("3/3 should be valid at zoom 2")
	}
	if (Address{Zoom: 2, X: 4, Y: 0}).Valid() {
		t.Error("x=4 should be invalid at zoom 2")
	}
}

func TestRenderer_Path(t *testing.T) {
	r := &Renderer{URLTemplate: "http://tiles/{z}/{x}/{y}.png", OutputDir: "out"}
	req := r.Render(Address{Zoom: 3, X: 5, Y: 2})

	if want := filepath.FromSlash("out/3/5/2.png"); req.Path != want {
		t.Errorf("Path = %q, want %q", req.Path, want)
	}
	if want := filepath.FromSlash("out/3/5"); r.Dir(req.Tile) != want {
		t.Errorf("Dir = %q, want %q", r.Dir(req.Tile), want)
	}
}

func TestRenderer_URL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		addr     Address
		want     string
	}{
		{
			name:     "xyz",
			template: "http://maps/{z}/{x}/{y}.png",
			addr:     Address{Zoom: 3, X: 5, Y: 2},
			want:     "http://maps/3/5/2.png",
		},
		{
			name:     "repeated tokens",
			template: "http://maps/{z}/{z}-{x}-{x}",
			addr:     Address{Zoom: 4, X: 9, Y: 0},
			want:     "http://maps/4/4-9-9",
		},
		{
			name:     "case sensitive",
			template: "http://maps/{Z}/{X}/{Y}",
			addr:     Address{Zoom: 1, X: 1, Y: 1},
			want:     "http://maps/{Z}/{X}/{Y}",
		},
		{
			name:     "bounds",
			template: "http://wms?bbox={bounds}",
			addr:     Address{Zoom: 1, X: 0, Y: 0},
			want:     "http://wms?bbox=(90,0,-180,0)",
		},
		{
			name:     "tile size",
			template: "http://wms?w={w}&h={h}&z={z}",
			addr:     Address{Zoom: 0},
			want:     "http://wms?w=512&h=256&z=0",
		},
		{
			name:     "unknown brace text untouched",
			template: "http://maps/{s}/{z}/{x}/{y}",
			addr:     Address{Zoom: 2, X: 1, Y: 3},
			want:     "http://maps/{s}/2/1/3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Renderer{URLTemplate: tt.template, TileWidth: 512, TileHeight: 256}
			if got := r.URL(tt.addr); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderer_Deterministic(t *testing.T) {
	r := &Renderer{
		URLTemplate: "http://wms/{z}/{x}/{y}?bbox={bounds}&w={w}",
		OutputDir:   "tiles",
		TileWidth:   256,
		TileHeight:  256,
	}
	addr := Address{Zoom: 7, X: 100, Y: 33}

	first := r.Render(addr)
	for i := 0; i < 10; i++ {
		if got := r.Render(addr); got != first {
			t.Fatalf("Render() call %d = %+v, want %+v", i, got, first)
		}
	}
}
