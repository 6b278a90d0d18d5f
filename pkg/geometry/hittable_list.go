package geometry

import (
	"github.com/df07/go-weekend-pathtracer/pkg/core"
	"github.com/df07/go-weekend-pathtracer/pkg/material"
)

// HittableList is a scene made of shapes tested one after another
type HittableList struct {
	Shapes []Shape
}

// NewHittableList creates a list holding the given shapes
func NewHittableList(shapes ...Shape) *HittableList {
	return &HittableList{Shapes: shapes}
}

// Add appends a shape to the list
func (l *HittableList) Add(shape Shape) {
	l.Shapes = append(l.Shapes, shape)
}

// Clear removes every shape
func (l *HittableList) Clear() {
	l.Shapes = nil
}

// Len returns the number of shapes in the list
func (l *HittableList) Len() int {
	return len(l.Shapes)
}

// Hit returns the nearest intersection across all shapes
func (l *HittableList) Hit(ray core.Ray, rayT core.Interval) (material.HitRecord, bool) {
	var closestHit material.HitRecord
	hitAnything := false
	closestSoFar := rayT.Max

	for _, shape := range l.Shapes {
		if hit, isHit := shape.Hit(ray, core.NewInterval(rayT.Min, closestSoFar)); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, hitAnything
}
