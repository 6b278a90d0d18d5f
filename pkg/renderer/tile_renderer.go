package renderer

import (
	"context"
	"image"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
	"github.com/df07/go-weekend-pathtracer/pkg/geometry"
)

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID      int             // Unique tile identifier
	Bounds  image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	Sampler core.Sampler    // Tile-specific random stream
}

// NewTile creates a new tile whose random stream is derived from seed and id
func NewTile(id int, bounds image.Rectangle, seed int64) *Tile {
	return &Tile{
		ID:      id,
		Bounds:  bounds,
		Sampler: core.NewSeededSampler(seed + int64(id)),
	}
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int, seed int64) []*Tile {
	var tiles []*Tile
	tileID := 0

	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, NewTile(tileID, image.Rect(x0, y0, x1, y1), seed))
			tileID++
		}
	}

	return tiles
}

// renderTile adds samples samples to every pixel of tile in pixelStats.
// Tiles never overlap, so concurrent calls write disjoint pixels.
func (c *Camera) renderTile(ctx context.Context, world geometry.Shape, tile *Tile, pixelStats [][]PixelStats, samples int) error {
	for j := tile.Bounds.Min.Y; j < tile.Bounds.Max.Y; j++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := tile.Bounds.Min.X; i < tile.Bounds.Max.X; i++ {
			ps := &pixelStats[j][i]
			for sample := 0; sample < samples; sample++ {
				r := c.GetRay(i, j, tile.Sampler)
				ps.AddSample(c.rayColor(r, c.MaxDepth, world, tile.Sampler))
			}
		}
	}
	return nil
}
