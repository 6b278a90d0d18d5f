package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
	"github.com/df07/go-weekend-pathtracer/pkg/output"
	"github.com/df07/go-weekend-pathtracer/pkg/renderer"
	"github.com/df07/go-weekend-pathtracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	sceneType  string
	width      int
	samples    int
	depth      int
	outputPath string
	parallel   bool
	workers    int
	tileSize   int
	seed       int64
	help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses args into options; usage goes to stderr
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.sceneType, "scene", "default", "Scene type: "+strings.Join(scene.Names(), ", "))
	fs.IntVar(&opts.width, "width", 0, "Image width in pixels (0 = scene default)")
	fs.IntVar(&opts.samples, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.depth, "depth", 0, "Maximum ray bounce depth (0 = scene default)")
	fs.StringVar(&opts.outputPath, "o", "", "Output file; extension picks ppm, png, bmp or tiff. '-' writes PPM to stdout")
	fs.BoolVar(&opts.parallel, "parallel", false, "Render tiles concurrently")
	fs.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	fs.IntVar(&opts.tileSize, "tile", renderer.DefaultParallelConfig().TileSize, "Tile size for parallel rendering")
	fs.Int64Var(&opts.seed, "seed", 42, "Random seed for sampling and scene layout")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.help {
		fmt.Fprintln(stderr, "Weekend Path Tracer")
		fmt.Fprintln(stderr, "Usage: pathtracer [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Available scenes:")
		for _, info := range scene.ListScenes() {
			fmt.Fprintf(stderr, "  %-14s - %s\n", info.ID, info.Description)
		}
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Without -o, output is saved to output/<scene_type>/render_<timestamp>.png")
		return opts, flag.ErrHelp
	}

	if opts.width < 0 || opts.samples < 0 || opts.depth < 0 || opts.workers < 0 {
		return opts, fmt.Errorf("width, samples, depth and workers must not be negative")
	}
	if opts.tileSize <= 0 {
		return opts, fmt.Errorf("tile size must be positive, got %d", opts.tileSize)
	}
	return opts, nil
}

// createScene creates a scene based on the scene type
func createScene(sceneType string, seed int64, cameraOverrides renderer.CameraConfig) (*scene.Scene, error) {
	return scene.Create(sceneType, seed, cameraOverrides)
}

// resolveOutputPath returns the destination path and its format
func resolveOutputPath(opts options, now time.Time) (string, output.Format, error) {
	if opts.outputPath == "-" {
		return "-", output.FormatPPM, nil
	}
	if opts.outputPath != "" {
		format, err := output.FormatFromPath(opts.outputPath)
		if err != nil {
			return "", "", err
		}
		return opts.outputPath, format, nil
	}

	// Create timestamped filename
	timestamp := now.Format("20060102_150405")
	filename := filepath.Join("output", opts.sceneType, fmt.Sprintf("render_%s.png", timestamp))
	return filename, output.FormatPNG, nil
}

// run renders according to args. A file output is removed again if the render fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	selectedScene, err := createScene(opts.sceneType, opts.seed, renderer.CameraConfig{
		ImageWidth:      opts.width,
		SamplesPerPixel: opts.samples,
		MaxDepth:        opts.depth,
	})
	if err != nil {
		return err
	}

	path, format, err := resolveOutputPath(opts, time.Now())
	if err != nil {
		return err
	}

	// Progress goes to stderr so stdout can carry image data
	logger := renderer.NewWriterLogger(stderr)
	camera := selectedScene.NewCamera()
	camera.SetLogger(logger)

	logger.Printf("Rendering scene %q (%d primitives) at %dx%d, %d samples, depth %d\n",
		selectedScene.Name, selectedScene.GetPrimitiveCount(),
		camera.ImageWidth, camera.ImageHeight(), camera.SamplesPerPixel, camera.MaxDepth)

	var dst io.Writer = stdout
	if path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
		file, createErr := os.Create(path)
		if createErr != nil {
			return fmt.Errorf("error creating file: %w", createErr)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("error closing file: %w", closeErr)
			}
			if err != nil {
				os.Remove(path)
			}
		}()
		dst = file
	}

	// PPM streams pixel by pixel; other formats collect an image first
	var writer output.ColorWriter
	var imageWriter *output.ImageWriter
	if format == output.FormatPPM {
		writer = output.NewPPMWriter(dst)
	} else {
		imageWriter = output.NewImageWriter()
		writer = imageWriter
	}

	stats, err := render(ctx, camera, selectedScene, writer, opts)
	if err != nil {
		return err
	}

	if imageWriter != nil {
		if err := output.Encode(dst, imageWriter.Image(), format); err != nil {
			return fmt.Errorf("error saving %s: %w", format, err)
		}
	}

	printStats(logger, stats)
	if path != "-" {
		logger.Printf("Render saved as %s\n", path)
	}
	return nil
}

// render runs the sequential or tile-parallel renderer and reports stats for either
func render(ctx context.Context, camera *renderer.Camera, s *scene.Scene, writer output.ColorWriter, opts options) (renderer.RenderStats, error) {
	if opts.parallel {
		return camera.RenderParallel(ctx, s.World, writer, renderer.ParallelConfig{
			TileSize:   opts.tileSize,
			NumWorkers: opts.workers,
			Seed:       opts.seed,
		})
	}

	startTime := time.Now()
	if err := camera.Render(ctx, s.World, writer, core.NewSeededSampler(opts.seed)); err != nil {
		return renderer.RenderStats{}, err
	}

	width, height := camera.ImageWidth, camera.ImageHeight()
	return renderer.RenderStats{
		Width:           width,
		Height:          height,
		TotalPixels:     width * height,
		TotalSamples:    width * height * camera.SamplesPerPixel,
		AverageSamples:  float64(camera.SamplesPerPixel),
		SamplesPerPixel: camera.SamplesPerPixel,
		Tiles:           1,
		Workers:         1,
		Elapsed:         time.Since(startTime),
	}, nil
}

// printStats writes a human readable summary with grouped digits
func printStats(logger core.Logger, stats renderer.RenderStats) {
	p := message.NewPrinter(language.English)
	logger.Printf("%s", p.Sprintf("Render completed in %v\n", stats.Elapsed.Round(time.Millisecond)))
	logger.Printf("%s", p.Sprintf("Pixels: %d, samples: %d (%.1f per pixel)\n",
		stats.TotalPixels, stats.TotalSamples, stats.AverageSamples))
	if stats.Tiles > 1 {
		logger.Printf("%s", p.Sprintf("Tiles: %d on %d workers\n", stats.Tiles, stats.Workers))
	}
}
