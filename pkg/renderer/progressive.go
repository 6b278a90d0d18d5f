package renderer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-weekend-pathtracer/pkg/geometry"
	"github.com/df07/go-weekend-pathtracer/pkg/output"
)

// ProgressiveConfig contains configuration for progressive rendering.
// The camera's SamplesPerPixel is the total reached by the last pass.
type ProgressiveConfig struct {
	ParallelConfig
	InitialSamples int // Samples per pixel in the first pass (1 gives a quick preview)
	MaxPasses      int // Maximum number of passes
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		ParallelConfig: DefaultParallelConfig(),
		InitialSamples: 1,
		MaxPasses:      5,
	}
}

// PassResult contains the image after a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// passPlan spreads a sample budget over a number of passes
type passPlan struct {
	initial, total, passes int
}

func newPassPlan(total, initialSamples, maxPasses int) passPlan {
	initial := min(max(1, initialSamples), total)
	passes := max(1, maxPasses)
	if initial >= total {
		passes = 1
	} else {
		// Every pass after the first adds at least one sample
		passes = min(passes, total-initial+1)
	}
	return passPlan{initial: initial, total: total, passes: passes}
}

// targetSamples returns the cumulative samples per pixel after passNumber
func (p passPlan) targetSamples(passNumber int) int {
	if p.passes == 1 || passNumber >= p.passes {
		return p.total
	}
	if passNumber == 1 {
		return p.initial
	}

	// Divide remaining samples evenly across remaining passes
	samplesPerPass := (p.total - p.initial) / (p.passes - 1)
	return p.initial + (passNumber-1)*samplesPerPass
}

// RenderProgressive renders in passes, each adding samples to the same pixel
// accumulators, and calls onPass with the image after every pass. Tile random
// streams carry over between passes, so the result is reproducible for a given
// seed, tile size and pass plan. An error from onPass stops the render.
func (c *Camera) RenderProgressive(ctx context.Context, world geometry.Shape, config ProgressiveConfig, onPass func(PassResult) error) (RenderStats, error) {
	startTime := time.Now()
	c.Initialize()
	parallel := config.ParallelConfig.normalized()

	width, height := c.ImageWidth, c.imageHeight
	pixelStats := newPixelGrid(width, height)
	tiles := NewTileGrid(width, height, parallel.TileSize, parallel.Seed)
	plan := newPassPlan(c.SamplesPerPixel, config.InitialSamples, config.MaxPasses)

	c.logger.Printf("Starting progressive rendering with %d passes...\n", plan.passes)

	var stats RenderStats
	done := 0
	for pass := 1; pass <= plan.passes; pass++ {
		passStart := time.Now()
		target := plan.targetSamples(pass)
		c.logger.Printf("Pass %d: Target %d samples per pixel (using %d workers)...\n", pass, target, parallel.NumWorkers)

		if err := c.renderTiles(ctx, world, tiles, pixelStats, target-done, parallel.NumWorkers); err != nil {
			return stats, fmt.Errorf("pass %d aborted: %w", pass, err)
		}
		done = target

		writer := output.NewImageWriter()
		totalSamples, err := emitPixels(writer, pixelStats)
		if err != nil {
			return stats, err
		}

		stats = RenderStats{
			Width:           width,
			Height:          height,
			TotalPixels:     width * height,
			TotalSamples:    totalSamples,
			AverageSamples:  float64(totalSamples) / float64(width*height),
			SamplesPerPixel: c.SamplesPerPixel,
			Tiles:           len(tiles),
			Workers:         parallel.NumWorkers,
			Elapsed:         time.Since(startTime),
		}
		c.logger.Printf("\rPass %d completed in %v (%d samples/pixel)\n", pass, time.Since(passStart), target)

		if onPass != nil {
			result := PassResult{
				PassNumber: pass,
				Image:      writer.Image(),
				Stats:      stats,
				IsLast:     pass == plan.passes,
			}
			if err := onPass(result); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}
