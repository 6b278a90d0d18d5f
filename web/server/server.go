package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/df07/go-weekend-pathtracer/pkg/output"
	"github.com/df07/go-weekend-pathtracer/pkg/renderer"
	"github.com/df07/go-weekend-pathtracer/pkg/scene"
)

// Request limits shared by validation and /api/scene-config
const (
	minWidth, maxWidth     = 8, 2000
	minSamples, maxSamples = 1, 10000
	minDepth, maxDepth     = 1, 500
	minVFov, maxVFov       = 1.0, 179.0
	minPasses, maxPasses   = 1, 100
	maxWorkers             = 256
	maxSeed                = 1<<31 - 1
)

// Server handles web requests for the path tracer
type Server struct {
	port int
	mux  *http.ServeMux
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	s := &Server{port: port, mux: http.NewServeMux()}

	// API endpoints
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/render-stream", s.handleRenderStream)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)

	return s
}

// Handler returns the HTTP handler serving every endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
// In-flight renders see their request context cancelled.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Starting web server on http://localhost%s", httpServer.Addr)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene     string        `json:"scene"`     // Scene name (e.g., "final")
	Width     int           `json:"width"`     // Image width (0 = scene default)
	Samples   int           `json:"samples"`   // Samples per pixel (0 = scene default)
	Depth     int           `json:"depth"`     // Maximum bounce depth (0 = scene default)
	VFov      float64       `json:"vfov"`      // Vertical field of view in degrees (0 = scene default)
	Format    output.Format `json:"format"`    // Response image encoding
	Thumbnail int           `json:"thumbnail"` // Downscaled width (0 = full size)
	Seed      int64         `json:"seed"`      // Base seed for sampling and scene layout
	Workers   int           `json:"workers"`   // Parallel workers (0 = CPU count)
	Passes    int           `json:"passes"`    // Progressive passes for streamed renders
}

// CameraOverrides returns the camera fields the request overrides
func (req *RenderRequest) CameraOverrides() renderer.CameraConfig {
	return renderer.CameraConfig{
		ImageWidth:      req.Width,
		SamplesPerPixel: req.Samples,
		MaxDepth:        req.Depth,
		VFov:            req.VFov,
	}
}

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"scenes": scene.ListScenes()})
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = "default"
	}

	sceneObj, err := scene.Create(sceneName, 42)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	config := sceneObj.CameraConfig
	response := map[string]interface{}{
		"scene": sceneObj.Name,
		"defaults": map[string]interface{}{
			"width":           config.ImageWidth,
			"aspectRatio":     config.AspectRatio,
			"samplesPerPixel": config.SamplesPerPixel,
			"maxDepth":        config.MaxDepth,
			"vfov":            config.VFov,
			"defocusAngle":    config.DefocusAngle,
			"focusDist":       config.FocusDist,
			"primitives":      sceneObj.GetPrimitiveCount(),
		},
		"limits": map[string]interface{}{
			"width":   map[string]int{"min": minWidth, "max": maxWidth},
			"samples": map[string]int{"min": minSamples, "max": maxSamples},
			"depth":   map[string]int{"min": minDepth, "max": maxDepth},
			"vfov":    map[string]float64{"min": minVFov, "max": maxVFov},
			"workers": map[string]int{"min": 0, "max": maxWorkers},
			"passes":  map[string]int{"min": minPasses, "max": maxPasses},
		},
	}

	writeJSON(w, http.StatusOK, response)
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: "default", Format: output.FormatPNG}

	// Parse scene name (string parameter, validated when the scene is created)
	if sceneName := query.Get("scene"); sceneName != "" {
		req.Scene = sceneName
	}

	if format := query.Get("format"); format != "" {
		parsed, err := output.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		req.Format = parsed
	}

	// Parse and validate all parameters using helper functions
	var err error
	if req.Width, err = parseIntParam(query, "width", 0, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", 0, minSamples, maxSamples); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(query, "depth", 0, minDepth, maxDepth); err != nil {
		return nil, err
	}
	if req.VFov, err = parseFloatParam(query, "vfov", 0, minVFov, maxVFov); err != nil {
		return nil, err
	}
	if req.Thumbnail, err = parseIntParam(query, "thumbnail", 0, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.Workers, err = parseIntParam(query, "workers", 0, 0, maxWorkers); err != nil {
		return nil, err
	}
	if req.Passes, err = parseIntParam(query, "passes", renderer.DefaultProgressiveConfig().MaxPasses, minPasses, maxPasses); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(query, "seed", 42, 0, maxSeed)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)

	// Performance warning
	if req.Width > 800 && req.Samples > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %f and %f, got: %f", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene creates the requested scene with the request's camera overrides
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	return scene.Create(req.Scene, req.Seed, req.CameraOverrides())
}
