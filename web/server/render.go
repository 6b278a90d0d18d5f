package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
	"github.com/df07/go-weekend-pathtracer/pkg/output"
	"github.com/df07/go-weekend-pathtracer/pkg/renderer"
	"github.com/df07/go-weekend-pathtracer/pkg/scene"
)

// Stats represents render statistics
type Stats struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int64   `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	Tiles          int     `json:"tiles"`
	Workers        int     `json:"workers"`
}

// RenderResult is the final event of a streamed render
type RenderResult struct {
	Scene     string `json:"scene"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
	ElapsedMs int64  `json:"elapsedMs"`
}

func newStats(rs renderer.RenderStats) Stats {
	return Stats{
		Width:          rs.Width,
		Height:         rs.Height,
		TotalPixels:    rs.TotalPixels,
		TotalSamples:   int64(rs.TotalSamples),
		AverageSamples: rs.AverageSamples,
		Tiles:          rs.Tiles,
		Workers:        rs.Workers,
	}
}

// renderImage renders the requested scene into an RGBA image using the tile renderer
func (s *Server) renderImage(ctx context.Context, req *RenderRequest, logger core.Logger) (*image.RGBA, renderer.RenderStats, error) {
	sceneObj, err := s.createScene(req)
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}

	camera := sceneObj.NewCamera()
	camera.SetLogger(logger)

	writer := output.NewImageWriter()
	stats, err := camera.RenderParallel(ctx, sceneObj.World, writer, renderer.ParallelConfig{
		TileSize:   renderer.DefaultParallelConfig().TileSize,
		NumWorkers: req.Workers,
		Seed:       req.Seed,
	})
	if err != nil {
		return nil, stats, err
	}

	img := writer.Image()
	if req.Thumbnail > 0 && req.Thumbnail < img.Bounds().Dx() {
		img = thumbnail(img, req.Thumbnail)
	}
	return img, stats, nil
}

// thumbnail scales img down to width, keeping the aspect ratio
func thumbnail(img *image.RGBA, width int) *image.RGBA {
	bounds := img.Bounds()
	height := max(1, bounds.Dy()*width/bounds.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// handleRender renders a scene and responds with the encoded image
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	startTime := time.Now()
	img, stats, err := s.renderImage(r.Context(), req, renderer.NopLogger{})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, scene.ErrUnknownScene):
			status = http.StatusBadRequest
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := output.Encode(&buf, img, req.Format); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode image: %v", err))
		return
	}

	log.Printf("Rendered %s at %dx%d (%d samples) in %v",
		req.Scene, stats.Width, stats.Height, stats.TotalSamples, time.Since(startTime))

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	w.Header().Set("X-Render-Elapsed-Ms", strconv.FormatInt(stats.Elapsed.Milliseconds(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing image: %v", err)
	}
}

// PassEvent is streamed after every progressive pass
type PassEvent struct {
	PassNumber int    `json:"passNumber"`
	IsLast     bool   `json:"isLast"`
	ImageData  string `json:"imageData"` // Base64 encoded PNG
	Stats      Stats  `json:"stats"`
}

// handleRenderStream renders a scene progressively, streaming console output
// and a preview image per pass via SSE, then sends a "complete" event
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	stream := &sseStream{w: w}

	req, err := s.parseRenderRequest(r)
	if err != nil {
		stream.sendError(fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		stream.sendError(fmt.Sprintf("Render error: %v", err))
		return
	}

	// Setup console logging and streaming
	consoleChan, webLogger := s.setupConsoleLogging()
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		s.streamConsoleMessages(stream, consoleChan)
	}()

	camera := sceneObj.NewCamera()
	camera.SetLogger(webLogger)

	startTime := time.Now()
	var final *image.RGBA
	stats, err := camera.RenderProgressive(r.Context(), sceneObj.World, renderer.ProgressiveConfig{
		ParallelConfig: renderer.ParallelConfig{
			TileSize:   renderer.DefaultParallelConfig().TileSize,
			NumWorkers: req.Workers,
			Seed:       req.Seed,
		},
		InitialSamples: 1,
		MaxPasses:      req.Passes,
	}, func(pass renderer.PassResult) error {
		img := pass.Image
		if req.Thumbnail > 0 && req.Thumbnail < img.Bounds().Dx() {
			img = thumbnail(img, req.Thumbnail)
		}
		final = img

		imageData, err := s.imageToBase64PNG(img)
		if err != nil {
			return fmt.Errorf("failed to encode pass %d: %w", pass.PassNumber, err)
		}
		data, err := json.Marshal(PassEvent{
			PassNumber: pass.PassNumber,
			IsLast:     pass.IsLast,
			ImageData:  imageData,
			Stats:      newStats(pass.Stats),
		})
		if err != nil {
			return err
		}
		// A failed write means the client is gone
		return stream.send("pass", string(data))
	})

	// The renderer has returned, so nothing logs to the channel any more
	close(consoleChan)
	<-streamDone

	if err != nil {
		stream.sendError(fmt.Sprintf("Render error: %v", err))
		return
	}

	imageData, err := s.imageToBase64PNG(final)
	if err != nil {
		stream.sendError(fmt.Sprintf("failed to encode image: %v", err))
		return
	}

	data, err := json.Marshal(RenderResult{
		Scene:     req.Scene,
		ImageData: imageData,
		Stats:     newStats(stats),
		ElapsedMs: time.Since(startTime).Milliseconds(),
	})
	if err != nil {
		stream.sendError(fmt.Sprintf("failed to encode result: %v", err))
		return
	}
	stream.send("complete", string(data))
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// streamConsoleMessages forwards console messages as SSE events until the channel closes
func (s *Server) streamConsoleMessages(stream *sseStream, consoleChan <-chan ConsoleMessage) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			continue
		}
		// Write errors mean the client went away; keep draining the channel
		stream.send("console", string(data))
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := output.Encode(&buf, img, output.FormatPNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// sseStream writes Server-Sent Events; the console drain and the render
// callback share it, so writes are serialized
type sseStream struct {
	mu sync.Mutex
	w  http.ResponseWriter
}

// sendError sends an error via SSE
func (st *sseStream) sendError(message string) error {
	return st.send("error", message)
}

// send sends a generic SSE event
func (st *sseStream) send(event, data string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, err := fmt.Fprintf(st.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	if flusher, ok := st.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
