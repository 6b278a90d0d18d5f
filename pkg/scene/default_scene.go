package scene

import (
	"github.com/df07/go-weekend-pathtracer/pkg/core"
	"github.com/df07/go-weekend-pathtracer/pkg/geometry"
	"github.com/df07/go-weekend-pathtracer/pkg/material"
	"github.com/df07/go-weekend-pathtracer/pkg/renderer"
)

// NewSingleSphereScene creates one diffuse sphere in front of the stock camera.
// With one sample and one bounce every pixel that hits the sphere comes out black.
func NewSingleSphereScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	defaultCameraConfig := renderer.DefaultCameraConfig()
	defaultCameraConfig.SamplesPerPixel = 1
	defaultCameraConfig.MaxDepth = 1

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	gray := material.NewLambertian(core.NewColor(0.5, 0.5, 0.5))

	return &Scene{
		Name:         "single-sphere",
		World:        geometry.NewHittableList(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, gray)),
		CameraConfig: cameraConfig,
	}
}

// NewDefaultScene creates a default scene with spheres, ground, and camera
func NewDefaultScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	// Default camera configuration
	defaultCameraConfig := renderer.CameraConfig{
		AspectRatio:     16.0 / 9.0,
		ImageWidth:      400,
		SamplesPerPixel: 100,
		MaxDepth:        50,
		VFov:            20,
		LookFrom:        core.NewVec3(-2, 2, 1),
		LookAt:          core.NewVec3(0, 0, -1),
		VUp:             core.NewVec3(0, 1, 0),
		DefocusAngle:    10.0, // Strong depth of field blur
		FocusDist:       3.4,
	}

	// Apply any overrides using the reusable merge function
	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	// Create materials
	materialGround := material.NewLambertian(core.NewColor(0.8, 0.8, 0.0))
	materialCenter := material.NewLambertian(core.NewColor(0.1, 0.2, 0.5))
	materialGlass := material.NewDielectric(1.50)
	materialBubble := material.NewDielectric(1.00 / 1.50) // Air inside glass
	materialGold := material.NewMetal(core.NewColor(0.8, 0.6, 0.2), 1.0)

	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0.0, -100.5, -1.0), 100.0, materialGround),
		geometry.NewSphere(core.NewVec3(0.0, 0.0, -1.2), 0.5, materialCenter),
		// Hollow glass sphere
		geometry.NewSphere(core.NewVec3(-1.0, 0.0, -1.0), 0.5, materialGlass),
		geometry.NewSphere(core.NewVec3(-1.0, 0.0, -1.0), 0.4, materialBubble),
		geometry.NewSphere(core.NewVec3(1.0, 0.0, -1.0), 0.5, materialGold),
	)

	return &Scene{
		Name:         "default",
		World:        world,
		CameraConfig: cameraConfig,
	}
}
