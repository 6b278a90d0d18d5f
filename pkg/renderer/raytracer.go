package renderer

import (
	"context"
	"fmt"
	"math"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
	"github.com/df07/go-weekend-pathtracer/pkg/geometry"
	"github.com/df07/go-weekend-pathtracer/pkg/output"
)

// hitWindow excludes hits right at the ray origin to avoid shadow acne
var hitWindow = core.NewInterval(0.001, math.Inf(1))

var (
	skyHorizon = core.NewColor(1.0, 1.0, 1.0)
	skyZenith  = core.NewColor(0.5, 0.7, 1.0)
)

// backgroundGradient blends white to sky blue by the ray's vertical direction
func backgroundGradient(r core.Ray) core.Color {
	unitDirection := r.Direction.Unit()
	a := 0.5 * (unitDirection.Y + 1.0)
	return skyHorizon.Multiply(1.0 - a).Add(skyZenith.Multiply(a))
}

// rayColor returns the radiance carried back along r.
// depth counts the bounces still allowed, including this one: at depth 1 a hit
// scatters once and the scattered ray comes back black.
func (c *Camera) rayColor(r core.Ray, depth int, world geometry.Shape, sampler core.Sampler) core.Color {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Color{}
	}

	hit, isHit := world.Hit(r, hitWindow)
	if !isHit {
		return backgroundGradient(r)
	}

	// Shapes without a material absorb like the default material
	if hit.Material == nil {
		return core.Color{}
	}

	scatter, didScatter := hit.Material.Scatter(r, hit, sampler)
	if !didScatter {
		return core.Color{}
	}

	return scatter.Attenuation.MultiplyVec(c.rayColor(scatter.Scattered, depth-1, world, sampler))
}

// samplePixel averages SamplesPerPixel traced samples for pixel (i, j)
func (c *Camera) samplePixel(i, j int, world geometry.Shape, sampler core.Sampler) core.Color {
	pixelColor := core.Color{}
	for sample := 0; sample < c.SamplesPerPixel; sample++ {
		r := c.GetRay(i, j, sampler)
		pixelColor = pixelColor.Add(c.rayColor(r, c.MaxDepth, world, sampler))
	}
	return pixelColor.Multiply(c.pixelSamplesScale)
}

// Render traces world one pixel at a time in raster order and hands every
// averaged pixel to writer exactly once. Cancellation is checked before each
// scanline; a cancelled render stops without closing writer.
func (c *Camera) Render(ctx context.Context, world geometry.Shape, writer output.ColorWriter, sampler core.Sampler) error {
	c.Initialize()

	if err := writer.Begin(c.ImageWidth, c.imageHeight); err != nil {
		return fmt.Errorf("failed to start image: %w", err)
	}

	for j := 0; j < c.imageHeight; j++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("render aborted at scanline %d: %w", j, err)
		}
		c.logger.Printf("\rScanlines remaining: %d ", c.imageHeight-j)
		for i := 0; i < c.ImageWidth; i++ {
			if err := writer.WriteColor(c.samplePixel(i, j, world, sampler)); err != nil {
				return fmt.Errorf("failed to write pixel (%d, %d): %w", i, j, err)
			}
		}
	}

	c.logger.Printf("\rDone.                   \n")

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish image: %w", err)
	}
	return nil
}
