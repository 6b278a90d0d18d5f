package core

import (
	"math"
	"math/rand"
)

// Vec2 holds a pair of sample values
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded with seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// RandomDouble returns a value in [min, max)
func RandomDouble(s Sampler, min, max float64) float64 {
	return min + (max-min)*s.Get1D()
}

// RandomVec3 returns a vector with each component in [0, 1)
func RandomVec3(s Sampler) Vec3 {
	return s.Get3D()
}

// RandomVec3Range returns a vector with each component in [min, max)
func RandomVec3Range(s Sampler, min, max float64) Vec3 {
	u := s.Get3D()
	return NewVec3(
		min+(max-min)*u.X,
		min+(max-min)*u.Y,
		min+(max-min)*u.Z,
	)
}

// RandomInUnitDisk generates a random point in the unit disk (for depth of field)
func RandomInUnitDisk(s Sampler) Vec3 {
	for {
		u := s.Get2D()
		p := NewVec3(2*u.X-1, 2*u.Y-1, 0)
		if p.LengthSquared() < 1 {
			return p
		}
	}
}

// RandomUnitVector generates a uniformly distributed direction on the unit sphere.
// Candidates from the [-1,1)³ cube are kept only when 1e-160 < |p|² <= 1, which
// rejects points outside the ball and ones too small to normalize.
func RandomUnitVector(s Sampler) Vec3 {
	for {
		p := RandomVec3Range(s, -1, 1)
		lenSq := p.LengthSquared()
		if 1e-160 < lenSq && lenSq <= 1 {
			return p.Divide(math.Sqrt(lenSq))
		}
	}
}

// RandomOnHemisphere returns a random unit vector on the same side as normal
func RandomOnHemisphere(s Sampler, normal Vec3) Vec3 {
	onUnitSphere := RandomUnitVector(s)
	if onUnitSphere.Dot(normal) > 0.0 {
		return onUnitSphere
	}
	return onUnitSphere.Negate()
}
