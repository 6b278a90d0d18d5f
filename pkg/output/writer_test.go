package output

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
)

func TestToBytes(t *testing.T) {
	tests := []struct {
		name     string
		linear   float64
		expected uint8
	}{
		{"black", 0, 0},
		{"negative clamps to black", -1, 0},
		{"quarter becomes half after gamma", 0.25, 128},
		{"white", 1, 255},
		{"overexposed clamps", 4, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := ToBytes(core.NewColor(tt.linear, tt.linear, tt.linear))
			if r != tt.expected || g != tt.expected || b != tt.expected {
				t.Errorf("Expected %d for all channels, got (%d, %d, %d)", tt.expected, r, g, b)
			}
		})
	}
}

func TestLinearToGamma(t *testing.T) {
	if g := LinearToGamma(0.25); g != 0.5 {
		t.Errorf("Expected 0.5, got %f", g)
	}
	if g := LinearToGamma(-0.5); g != 0 {
		t.Errorf("Expected 0 for negative input, got %f", g)
	}
}

func TestPPMWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewPPMWriter(&buf)

	if err := w.Begin(2, 1); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := w.WriteColor(core.NewColor(1, 0, 0.25)); err != nil {
		t.Fatalf("WriteColor failed: %v", err)
	}
	if err := w.WriteColor(core.NewColor(0, 1, 0)); err != nil {
		t.Fatalf("WriteColor failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	expected := "P3\n2 1\n255\n255 0 128\n0 255 0\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestPPMWriter_PropagatesErrors(t *testing.T) {
	w := NewPPMWriter(failingWriter{})
	_ = w.Begin(1, 1)
	_ = w.WriteColor(core.NewColor(1, 1, 1))
	if err := w.Close(); err == nil {
		t.Error("Expected flush error from failing writer")
	}
}

func TestImageWriter_RasterOrder(t *testing.T) {
	iw := NewImageWriter()
	if err := iw.Begin(3, 2); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	// Encode the raster index in the red channel
	for i := 0; i < 6; i++ {
		level := float64(i) / 10
		if err := iw.WriteColor(core.NewColor(level*level, 0, 0)); err != nil {
			t.Fatalf("WriteColor %d failed: %v", i, err)
		}
	}
	if err := iw.WriteColor(core.NewColor(0, 0, 0)); !errors.Is(err, ErrTooManyPixels) {
		t.Errorf("Expected ErrTooManyPixels, got %v", err)
	}

	img := iw.Image()
	for i := 0; i < 6; i++ {
		x, y := i%3, i/3
		expected, _, _ := ToBytes(core.NewColor(float64(i)/10*float64(i)/10, 0, 0))
		if got := img.RGBAAt(x, y).R; got != expected {
			t.Errorf("Pixel (%d,%d): expected red %d, got %d", x, y, expected, got)
		}
		if a := img.RGBAAt(x, y).A; a != 255 {
			t.Errorf("Pixel (%d,%d): expected opaque alpha, got %d", x, y, a)
		}
	}
	if iw.PixelsWritten() != 6 {
		t.Errorf("Expected 6 pixels written, got %d", iw.PixelsWritten())
	}
}

func TestImageWriter_WriteBeforeBegin(t *testing.T) {
	iw := NewImageWriter()
	if err := iw.WriteColor(core.NewColor(0, 0, 0)); !errors.Is(err, ErrTooManyPixels) {
		t.Errorf("Expected ErrTooManyPixels before Begin, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"png", FormatPNG, false},
		{".PNG", FormatPNG, false},
		{"bmp", FormatBMP, false},
		{"tif", FormatTIFF, false},
		{"tiff", FormatTIFF, false},
		{"ppm", FormatPPM, false},
		{"jpeg", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("Expected ErrUnknownFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.expected {
				t.Errorf("ParseFormat(%q) = %q, %v; expected %q", tt.input, got, err, tt.expected)
			}
		})
	}

	if f, err := FormatFromPath("out/render_1.tiff"); err != nil || f != FormatTIFF {
		t.Errorf("FormatFromPath: expected tiff, got %q, %v", f, err)
	}
}

func testImage() *image.RGBA {
	iw := NewImageWriter()
	_ = iw.Begin(4, 3)
	for i := 0; i < 12; i++ {
		_ = iw.WriteColor(core.NewColor(float64(i)/12, 0.5, 1-float64(i)/12))
	}
	return iw.Image()
}

func TestEncode_RoundTrip(t *testing.T) {
	src := testImage()

	decoders := map[Format]func(*bytes.Buffer) (image.Image, error){
		FormatPNG:  func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) },
		FormatBMP:  func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) },
		FormatTIFF: func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(b) },
	}

	for format, decode := range decoders {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, src, format); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			decoded, err := decode(&buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if decoded.Bounds() != src.Bounds() {
				t.Fatalf("Expected bounds %v, got %v", src.Bounds(), decoded.Bounds())
			}
			for y := 0; y < 3; y++ {
				for x := 0; x < 4; x++ {
					r1, g1, b1, _ := src.At(x, y).RGBA()
					r2, g2, b2, _ := decoded.At(x, y).RGBA()
					if r1 != r2 || g1 != g2 || b1 != b2 {
						t.Fatalf("Pixel (%d,%d) mismatch after round trip", x, y)
					}
				}
			}
		})
	}
}

func TestEncode_PPMMatchesStreamingWriter(t *testing.T) {
	var streamed bytes.Buffer
	pw := NewPPMWriter(&streamed)
	_ = pw.Begin(4, 3)
	for i := 0; i < 12; i++ {
		_ = pw.WriteColor(core.NewColor(float64(i)/12, 0.5, 1-float64(i)/12))
	}
	_ = pw.Close()

	var encoded bytes.Buffer
	if err := Encode(&encoded, testImage(), FormatPPM); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if encoded.String() != streamed.String() {
		t.Errorf("PPM encodings differ:\n%s\nvs\n%s", encoded.String(), streamed.String())
	}
	if !strings.HasPrefix(encoded.String(), "P3\n4 3\n255\n") {
		t.Errorf("Unexpected header: %q", encoded.String()[:12])
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), Format("gif")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}
