package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-weekend-pathtracer/pkg/geometry"
	"github.com/df07/go-weekend-pathtracer/pkg/output"
)

// ParallelConfig contains configuration for tile-parallel rendering
type ParallelConfig struct {
	TileSize   int   // Size of each square tile in pixels
	NumWorkers int   // Number of concurrent tiles (0 = use CPU count)
	Seed       int64 // Base seed; tile i uses Seed+i
}

// DefaultParallelConfig returns sensible default values
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		TileSize:   32,
		NumWorkers: 0,
		Seed:       42,
	}
}

// normalized fills in the tile size and worker count when left at zero
func (config ParallelConfig) normalized() ParallelConfig {
	if config.TileSize <= 0 {
		config.TileSize = DefaultParallelConfig().TileSize
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = runtime.NumCPU()
	}
	return config
}

// RenderParallel renders tiles concurrently, then hands pixels to writer in
// raster order once every tile has finished. The image only depends on the
// seed and tile size, not on the number of workers.
func (c *Camera) RenderParallel(ctx context.Context, world geometry.Shape, writer output.ColorWriter, config ParallelConfig) (RenderStats, error) {
	startTime := time.Now()
	c.Initialize()
	config = config.normalized()

	width, height := c.ImageWidth, c.imageHeight
	pixelStats := newPixelGrid(width, height)
	tiles := NewTileGrid(width, height, config.TileSize, config.Seed)
	c.logger.Printf("Rendering %dx%d in %d tiles (using %d workers)...\n", width, height, len(tiles), config.NumWorkers)

	if err := c.renderTiles(ctx, world, tiles, pixelStats, c.SamplesPerPixel, config.NumWorkers); err != nil {
		return RenderStats{}, fmt.Errorf("render aborted: %w", err)
	}
	c.logger.Printf("\rDone.                   \n")

	stats := RenderStats{
		Width:           width,
		Height:          height,
		TotalPixels:     width * height,
		SamplesPerPixel: c.SamplesPerPixel,
		Tiles:           len(tiles),
		Workers:         config.NumWorkers,
	}

	totalSamples, err := emitPixels(writer, pixelStats)
	if err != nil {
		return stats, err
	}

	stats.TotalSamples = totalSamples
	stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	stats.Elapsed = time.Since(startTime)
	return stats, nil
}

// renderTiles adds samples more samples to every pixel, running at most
// numWorkers tiles at once. The first failing tile cancels the rest.
func (c *Camera) renderTiles(ctx context.Context, world geometry.Shape, tiles []*Tile, pixelStats [][]PixelStats, samples, numWorkers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	var completed atomic.Int64
	for _, tile := range tiles {
		tile := tile // per-iteration copy; go.mod targets go1.21 loop semantics
		g.Go(func() error {
			if err := c.renderTile(gctx, world, tile, pixelStats, samples); err != nil {
				return err
			}
			n := completed.Add(1)
			c.logger.Printf("\rTiles completed: %d/%d ", n, len(tiles))
			return nil
		})
	}
	return g.Wait()
}

func newPixelGrid(width, height int) [][]PixelStats {
	pixelStats := make([][]PixelStats, height)
	for y := range pixelStats {
		pixelStats[y] = make([]PixelStats, width)
	}
	return pixelStats
}

// emitPixels writes the averaged pixel colors to writer in raster order and
// returns the number of samples they were averaged from
func emitPixels(writer output.ColorWriter, pixelStats [][]PixelStats) (int, error) {
	height := len(pixelStats)
	width := 0
	if height > 0 {
		width = len(pixelStats[0])
	}

	if err := writer.Begin(width, height); err != nil {
		return 0, fmt.Errorf("failed to start image: %w", err)
	}
	totalSamples := 0
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			ps := &pixelStats[j][i]
			totalSamples += ps.SampleCount
			if err := writer.WriteColor(ps.GetColor()); err != nil {
				return totalSamples, fmt.Errorf("failed to write pixel (%d, %d): %w", i, j, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return totalSamples, fmt.Errorf("failed to finish image: %w", err)
	}
	return totalSamples, nil
}
