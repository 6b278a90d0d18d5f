package output

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
)

// Format names an image encoding
type Format string

const (
	FormatPPM  Format = "ppm"
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ErrUnknownFormat is returned for unsupported image formats
var ErrUnknownFormat = errors.New("unknown image format")

// ErrTooManyPixels is returned when a writer receives more pixels than Begin announced
var ErrTooManyPixels = errors.New("more pixels written than image holds")

// ParseFormat maps a case-insensitive format name or extension to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "ppm":
		return FormatPPM, nil
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath picks a format from a file extension
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "image/x-portable-pixmap"
	}
}

// ImageWriter collects pixels into an in-memory RGBA image
type ImageWriter struct {
	img    *image.RGBA
	next   int
	width  int
	height int
}

// NewImageWriter creates an empty image writer; Begin allocates the image
func NewImageWriter() *ImageWriter {
	return &ImageWriter{}
}

// Begin allocates a width x height image
func (iw *ImageWriter) Begin(width, height int) error {
	iw.img = image.NewRGBA(image.Rect(0, 0, width, height))
	iw.width = width
	iw.height = height
	iw.next = 0
	return nil
}

// WriteColor stores the next pixel in raster order
func (iw *ImageWriter) WriteColor(pixel core.Color) error {
	if iw.img == nil || iw.next >= iw.width*iw.height {
		return ErrTooManyPixels
	}
	r, g, b := ToBytes(pixel)
	iw.img.SetRGBA(iw.next%iw.width, iw.next/iw.width, color.RGBA{R: r, G: g, B: b, A: 255})
	iw.next++
	return nil
}

// Close is a no-op; the image stays available through Image
func (iw *ImageWriter) Close() error {
	return nil
}

// Image returns the collected image
func (iw *ImageWriter) Image() *image.RGBA {
	return iw.img
}

// PixelsWritten returns how many pixels have been stored
func (iw *ImageWriter) PixelsWritten() int {
	return iw.next
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img image.Image, format Format) error {
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatPPM:
		err = encodePPM(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// encodePPM writes an already quantized image as P3
func encodePPM(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	pw := NewPPMWriter(w)
	if err := pw.Begin(bounds.Dx(), bounds.Dy()); err != nil {
		return err
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if _, err := fmt.Fprintf(pw.w, "%d %d %d\n", c.R, c.G, c.B); err != nil {
				return err
			}
		}
	}
	return pw.Close()
}
