package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-weekend-pathtracer/pkg/output"
	"github.com/df07/go-weekend-pathtracer/pkg/renderer"
	"github.com/df07/go-weekend-pathtracer/pkg/scene"
)

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		expectError bool
	}{
		{"default scene", "default", false},
		{"single sphere scene", "single-sphere", false},
		{"final scene", "final", false},

		// Invalid scenes
		{"unknown scene", "nonexistent", true},
		{"empty scene name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createScene(tt.sceneType, 42, renderer.CameraConfig{ImageWidth: 50})

			if tt.expectError {
				if !errors.Is(err, scene.ErrUnknownScene) {
					t.Errorf("Expected ErrUnknownScene for scene type '%s', got %v", tt.sceneType, err)
				}
				if s != nil {
					t.Errorf("Expected nil scene for invalid scene type '%s'", tt.sceneType)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error for scene type '%s': %v", tt.sceneType, err)
			}
			if s.CameraConfig.ImageWidth != 50 {
				t.Errorf("Expected width override 50, got %d", s.CameraConfig.ImageWidth)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-scene", "final", "-width", "120", "-samples", "4", "-parallel", "-seed", "7"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if opts.sceneType != "final" || opts.width != 120 || opts.samples != 4 || !opts.parallel || opts.seed != 7 {
		t.Errorf("Unexpected options %+v", opts)
	}
	if opts.tileSize != renderer.DefaultParallelConfig().TileSize {
		t.Errorf("Expected default tile size, got %d", opts.tileSize)
	}
}

func TestParseFlagsRejectsBadValues(t *testing.T) {
	tests := [][]string{
		{"-width", "-5"},
		{"-tile", "0"},
		{"-samples", "many"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, err := parseFlags(args, &bytes.Buffer{}); err == nil {
				t.Errorf("Expected error for %v", args)
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags([]string{"-help"}, &stderr)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("Expected flag.ErrHelp, got %v", err)
	}
	for _, name := range scene.Names() {
		if !strings.Contains(stderr.String(), name) {
			t.Errorf("Expected help to list scene %q", name)
		}
	}
}

func TestResolveOutputPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

	tests := []struct {
		name         string
		opts         options
		expectedPath string
		expectedFmt  output.Format
	}{
		{"stdout", options{outputPath: "-"}, "-", output.FormatPPM},
		{"explicit ppm", options{outputPath: "image.ppm"}, "image.ppm", output.FormatPPM},
		{"explicit bmp", options{outputPath: "out/image.BMP"}, "out/image.BMP", output.FormatBMP},
		{"timestamped", options{sceneType: "final"}, filepath.Join("output", "final", "render_20240309_140506.png"), output.FormatPNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, format, err := resolveOutputPath(tt.opts, now)
			if err != nil {
				t.Fatalf("resolveOutputPath failed: %v", err)
			}
			if path != tt.expectedPath || format != tt.expectedFmt {
				t.Errorf("Expected %s (%s), got %s (%s)", tt.expectedPath, tt.expectedFmt, path, format)
			}
		})
	}

	if _, _, err := resolveOutputPath(options{outputPath: "image.jpg"}, now); !errors.Is(err, output.ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat for .jpg, got %v", err)
	}
}

func TestRunStreamsPPMToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"-scene", "single-sphere", "-width", "8", "-o", "-"}

	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3+8*8 {
		t.Fatalf("Expected header plus 64 pixel lines, got %d lines", len(lines))
	}
	if lines[0] != "P3" || lines[1] != "8 8" || lines[2] != "255" {
		t.Errorf("Unexpected PPM header %q", lines[:3])
	}
	if !strings.Contains(stderr.String(), "Done.") {
		t.Errorf("Expected progress on stderr, got %q", stderr.String())
	}
}

func TestRunParallelWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.png")
	var stdout, stderr bytes.Buffer
	args := []string{"-scene", "default", "-width", "32", "-samples", "2", "-depth", "4", "-parallel", "-workers", "2", "-tile", "8", "-o", path}

	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected nothing on stdout, got %d bytes", stdout.Len())
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 18 {
		t.Errorf("Expected 32x18 image, got %v", img.Bounds())
	}
	if !strings.Contains(stderr.String(), "Tiles: 12 on 2 workers") {
		t.Errorf("Expected tile summary on stderr, got %q", stderr.String())
	}
}

func TestRunUnknownScene(t *testing.T) {
	err := run(context.Background(), []string{"-scene", "nope", "-o", "-"}, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestRunCancelledRemovesOutput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		file string
	}{
		{"sequential ppm", []string{"-scene", "single-sphere", "-width", "16"}, "render.ppm"},
		{"parallel png", []string{"-scene", "default", "-width", "32", "-parallel", "-workers", "2"}, "render.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			path := filepath.Join(t.TempDir(), tt.file)
			args := append(tt.args, "-o", path)
			err := run(ctx, args, &bytes.Buffer{}, &bytes.Buffer{})
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("Expected context.Canceled, got %v", err)
			}
			if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
				t.Errorf("Expected %s to be removed after a cancelled render, stat returned %v", path, statErr)
			}
		})
	}
}

func TestRunSequentialWritesPPMFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.ppm")
	args := []string{"-scene", "single-sphere", "-width", "8", "-o", path}

	if err := run(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	if !strings.HasPrefix(string(data), "P3\n8 8\n255\n") {
		t.Errorf("Expected complete PPM header, got %q", string(data[:min(len(data), 20)]))
	}
	if lines := strings.Count(string(data), "\n"); lines != 3+64 {
		t.Errorf("Expected %d lines, got %d", 3+64, lines)
	}
}
