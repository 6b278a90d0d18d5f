package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-weekend-pathtracer/pkg/core"
)

// CameraConfig contains the user-facing camera and sampling settings
type CameraConfig struct {
	AspectRatio     float64     // Ratio of image width over height
	ImageWidth      int         // Rendered image width in pixels
	SamplesPerPixel int         // Count of random samples for each pixel
	MaxDepth        int         // Maximum number of ray bounces into the scene
	VFov            float64     // Vertical field of view in degrees
	LookFrom        core.Point3 // Point the camera is looking from
	LookAt          core.Point3 // Point the camera is looking at
	VUp             core.Vec3   // Camera-relative "up" direction
	DefocusAngle    float64     // Variation angle of rays through each pixel, in degrees
	FocusDist       float64     // Distance from LookFrom to the plane of perfect focus
}

// DefaultCameraConfig returns the stock camera: square 100px image looking down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		AspectRatio:     1.0,
		ImageWidth:      100,
		SamplesPerPixel: 10,
		MaxDepth:        10,
		VFov:            90,
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		VUp:             core.NewVec3(0, 1, 0),
		DefocusAngle:    0,
		FocusDist:       10,
	}
}

// MergeCameraConfig returns base with every non-zero field of override applied.
// A zero field means "not set", so an override cannot switch a value to zero:
// DefocusAngle 0 keeps the base blur and a LookFrom at the origin keeps the base
// position. Build the CameraConfig directly when those values are needed.
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.ImageWidth != 0 {
		result.ImageWidth = override.ImageWidth
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.LookFrom != (core.Vec3{}) {
		result.LookFrom = override.LookFrom
	}
	if override.LookAt != (core.Vec3{}) {
		result.LookAt = override.LookAt
	}
	if override.VUp != (core.Vec3{}) {
		result.VUp = override.VUp
	}
	if override.DefocusAngle != 0 {
		result.DefocusAngle = override.DefocusAngle
	}
	if override.FocusDist != 0 {
		result.FocusDist = override.FocusDist
	}
	return result
}

// Camera generates rays for rendering and drives the path tracer.
// The derived fields are recomputed by Initialize at the start of every render.
type Camera struct {
	CameraConfig

	imageHeight       int         // Rendered image height
	pixelSamplesScale float64     // Color scale factor for a sum of pixel samples
	center            core.Point3 // Camera center
	pixel00Loc        core.Point3 // Location of pixel 0, 0
	pixelDeltaU       core.Vec3   // Offset to pixel to the right
	pixelDeltaV       core.Vec3   // Offset to pixel below
	u, v, w           core.Vec3   // Camera frame basis vectors
	defocusDiskU      core.Vec3   // Defocus disk horizontal radius
	defocusDiskV      core.Vec3   // Defocus disk vertical radius

	logger core.Logger
}

// NewCamera creates a camera from config and initializes its derived state
func NewCamera(config CameraConfig) *Camera {
	c := &Camera{CameraConfig: config, logger: NopLogger{}}
	c.Initialize()
	return c
}

// SetLogger sets the logger used for render progress; nil silences it
func (c *Camera) SetLogger(logger core.Logger) {
	if logger == nil {
		logger = NopLogger{}
	}
	c.logger = logger
}

// ImageHeight returns the derived image height
func (c *Camera) ImageHeight() int {
	return c.imageHeight
}

// Center returns the derived camera center
func (c *Camera) Center() core.Point3 {
	return c.center
}

// Initialize derives the viewport geometry from the configuration
func (c *Camera) Initialize() {
	if c.logger == nil {
		c.logger = NopLogger{}
	}

	c.imageHeight = max(1, int(float64(c.ImageWidth)/c.AspectRatio))
	c.pixelSamplesScale = 1.0 / float64(c.SamplesPerPixel)
	c.center = c.LookFrom

	// Viewport dimensions
	theta := mgl64.DegToRad(c.VFov)
	h := math.Tan(theta / 2)
	viewportHeight := 2 * h * c.FocusDist
	viewportWidth := viewportHeight * (float64(c.ImageWidth) / float64(c.imageHeight))

	// Orthonormal basis: w points backwards, u right, v up
	c.w = c.LookFrom.Subtract(c.LookAt).Unit()
	c.u = c.VUp.Cross(c.w).Unit()
	c.v = c.w.Cross(c.u)

	// Vectors across the horizontal and down the vertical viewport edges
	viewportU := c.u.Multiply(viewportWidth)
	viewportV := c.v.Negate().Multiply(viewportHeight)

	c.pixelDeltaU = viewportU.Divide(float64(c.ImageWidth))
	c.pixelDeltaV = viewportV.Divide(float64(c.imageHeight))

	viewportUpperLeft := c.center.
		Subtract(c.w.Multiply(c.FocusDist)).
		Subtract(viewportU.Divide(2)).
		Subtract(viewportV.Divide(2))
	c.pixel00Loc = viewportUpperLeft.Add(c.pixelDeltaU.Add(c.pixelDeltaV).Multiply(0.5))

	// Defocus disk basis
	defocusRadius := c.FocusDist * math.Tan(mgl64.DegToRad(c.DefocusAngle/2))
	c.defocusDiskU = c.u.Multiply(defocusRadius)
	c.defocusDiskV = c.v.Multiply(defocusRadius)
}

// GetRay builds a ray from the defocus disk toward a random point inside pixel (i, j)
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	offset := sampleSquare(sampler)
	pixelSample := c.pixel00Loc.
		Add(c.pixelDeltaU.Multiply(float64(i) + offset.X)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offset.Y))

	rayOrigin := c.center
	if c.DefocusAngle > 0 {
		rayOrigin = c.defocusDiskSample(sampler)
	}

	return core.NewRay(rayOrigin, pixelSample.Subtract(rayOrigin))
}

// sampleSquare returns a random offset in the [-0.5, 0.5) unit square
func sampleSquare(sampler core.Sampler) core.Vec2 {
	return core.NewVec2(sampler.Get1D()-0.5, sampler.Get1D()-0.5)
}

// defocusDiskSample returns a random point on the camera defocus disk
func (c *Camera) defocusDiskSample(sampler core.Sampler) core.Point3 {
	p := core.RandomInUnitDisk(sampler)
	return c.center.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
}

// GetCenterRay returns the pinhole ray through the middle of pixel (i, j), without jitter or blur
func (c *Camera) GetCenterRay(i, j int) core.Ray {
	pixelCenter := c.pixel00Loc.
		Add(c.pixelDeltaU.Multiply(float64(i))).
		Add(c.pixelDeltaV.Multiply(float64(j)))
	return core.NewRay(c.center, pixelCenter.Subtract(c.center))
}
