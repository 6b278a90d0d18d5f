package scene

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/df07/go-weekend-pathtracer/pkg/renderer"
)

// ErrUnknownScene is returned when a scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo describes a built-in scene
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
}

type builtinScene struct {
	description string
	create      func(seed int64, cameraOverrides ...renderer.CameraConfig) *Scene
}

// builtinOrder is the listing order; builtins holds the constructors
var builtinOrder = []string{"single-sphere", "default", "final"}

var builtins = map[string]builtinScene{
	"single-sphere": {
		description: "One diffuse sphere, one sample, one bounce",
		create: func(_ int64, overrides ...renderer.CameraConfig) *Scene {
			return NewSingleSphereScene(overrides...)
		},
	},
	"default": {
		description: "Diffuse, hollow glass and fuzzed gold spheres on a ground sphere",
		create: func(_ int64, overrides ...renderer.CameraConfig) *Scene {
			return NewDefaultScene(overrides...)
		},
	},
	"final": {
		description: "Random field of small spheres around three large ones",
		create:      NewFinalScene,
	},
}

// ListScenes returns the built-in scenes in a stable order
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtinOrder))
	for _, id := range builtinOrder {
		scenes = append(scenes, SceneInfo{
			ID:          id,
			DisplayName: titleCase(id),
			Description: builtins[id].description,
		})
	}
	return scenes
}

// Names returns the registered scene names
func Names() []string {
	return append([]string(nil), builtinOrder...)
}

// Create builds the named scene. seed only affects scenes with a random layout.
func Create(name string, seed int64, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	builtin, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownScene, name, strings.Join(builtinOrder, ", "))
	}
	return builtin.create(seed, cameraOverrides...), nil
}

// titleCase converts a scene id like "single-sphere" into "Single Sphere"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
