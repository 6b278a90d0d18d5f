package scene

import (
	"github.com/df07/go-weekend-pathtracer/pkg/geometry"
	"github.com/df07/go-weekend-pathtracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name         string                 // Registry name of the scene
	World        *geometry.HittableList // Objects in the scene
	CameraConfig renderer.CameraConfig  // Camera and sampling settings tuned for this scene
}

// NewCamera creates a camera for the scene with any non-zero override fields applied
func (s *Scene) NewCamera(cameraOverrides ...renderer.CameraConfig) *renderer.Camera {
	cameraConfig := s.CameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}
	return renderer.NewCamera(cameraConfig)
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	if s.World == nil {
		return 0
	}
	return countPrimitivesInShape(s.World)
}

// countPrimitivesInShape counts primitives in a single shape, descending into nested lists
func countPrimitivesInShape(shape geometry.Shape) int {
	switch obj := shape.(type) {
	case *geometry.HittableList:
		count := 0
		for _, child := range obj.Shapes {
			count += countPrimitivesInShape(child)
		}
		return count
	default:
		// Regular shapes count as 1 primitive each
		return 1
	}
}
