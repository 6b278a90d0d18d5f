package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
)

// PPMWriter emits a plain-text P3 image
type PPMWriter struct {
	w *bufio.Writer
}

// NewPPMWriter creates a PPM writer on top of w
func NewPPMWriter(w io.Writer) *PPMWriter {
	return &PPMWriter{w: bufio.NewWriter(w)}
}

// Begin writes the P3 header
func (p *PPMWriter) Begin(width, height int) error {
	if _, err := fmt.Fprintf(p.w, "P3\n%d %d\n255\n", width, height); err != nil {
		return fmt.Errorf("failed to write ppm header: %w", err)
	}
	return nil
}

// WriteColor writes one "r g b" line
func (p *PPMWriter) WriteColor(pixel core.Color) error {
	r, g, b := ToBytes(pixel)
	if _, err := fmt.Fprintf(p.w, "%d %d %d\n", r, g, b); err != nil {
		return fmt.Errorf("failed to write ppm pixel: %w", err)
	}
	return nil
}

// Close flushes buffered output
func (p *PPMWriter) Close() error {
	if err := p.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush ppm output: %w", err)
	}
	return nil
}
