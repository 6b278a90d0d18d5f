// Package output turns averaged linear colors into image bytes.
package output

import (
	"math"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
)

// ColorWriter receives one averaged linear color per pixel.
// Begin is called once before the first pixel, WriteColor once per pixel in
// raster order (rows top to bottom, columns left to right), Close once at the end.
type ColorWriter interface {
	Begin(width, height int) error
	WriteColor(pixel core.Color) error
	Close() error
}

// intensity is the range a gamma corrected channel is clamped to before quantizing
var intensity = core.NewInterval(0.000, 0.999)

// LinearToGamma applies the gamma 2 transform; non-positive input maps to 0
func LinearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

// ToBytes gamma corrects, clamps and quantizes a linear color to 8-bit channels
func ToBytes(pixel core.Color) (r, g, b uint8) {
	return quantize(pixel.X), quantize(pixel.Y), quantize(pixel.Z)
}

func quantize(linear float64) uint8 {
	return uint8(256 * intensity.Clamp(LinearToGamma(linear)))
}
