// Package model defines the tile addressing and request rendering used
// throughout tiledl.
//
// # Address
//
// Address identifies one tile by zoom level and grid position:
//
//	addr := model.Address{Zoom: 3, X: 5, Y: 2}
//	fmt.Println(addr) // "3/5/2"
//
// # Bounds
//
// TileBounds derives the geographic rectangle of a tile on an
// equirectangular grid:
//
//	b := model.TileBounds(model.Address{Zoom: 1, X: 1, Y: 1})
//	fmt.Println(b) // "(0,-90,0,180)"
//
// # Renderer
//
// Renderer expands a URL template and computes the destination file path:
//
//	r := &model.Renderer{
//	    URLTemplate: "https://example.com/wms?bbox={bounds}&width={w}&height={h}",
//	    OutputDir:   "tiles",
//	    TileWidth:   256,
//	    TileHeight:  256,
//	}
//	req := r.Render(addr)
//	fmt.Println(req.Path) // "tiles/3/5/2.png"
//
// Available placeholders: {x}, {y}, {z}, {bounds}, {w}, {h}
package model
