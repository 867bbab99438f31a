package geometry

import (
	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/material"
)

// Box represents a rectangular box made up of 6 outward-facing quads
type Box struct {
	Center   core.Vec3 // Center point of the box
	Size     core.Vec3 // Half-extents along each local axis
	Rotation core.Vec3 // Rotation angles in radians (X, Y, Z, applied in that order)
	faces    [6]*Quad
	bbox     core.AABB
}

// unit cube faces as (corner, u, v) with u × v pointing outward
var boxFaces = [6][3]core.Vec3{
	{{X: 1, Y: -1, Z: -1}, {X: 0, Y: 2, Z: 0}, {X: 0, Y: 0, Z: 2}},  // +X
	{{X: -1, Y: -1, Z: -1}, {X: 0, Y: 0, Z: 2}, {X: 0, Y: 2, Z: 0}}, // -X
	{{X: -1, Y: 1, Z: -1}, {X: 0, Y: 0, Z: 2}, {X: 2, Y: 0, Z: 0}},  // +Y
	{{X: -1, Y: -1, Z: -1}, {X: 2, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 2}}, // -Y
	{{X: -1, Y: -1, Z: 1}, {X: 2, Y: 0, Z: 0}, {X: 0, Y: 2, Z: 0}},  // +Z
	{{X: -1, Y: -1, Z: -1}, {X: 0, Y: 2, Z: 0}, {X: 2, Y: 0, Z: 0}}, // -Z
}

// NewBox creates a box with the given center, half-extents, rotation and material
func NewBox(center, size, rotation core.Vec3, mat material.Material) *Box {
	b := &Box{Center: center, Size: size, Rotation: rotation}

	transform := func(p core.Vec3) core.Vec3 {
		return p.MultiplyVec(size).Rotate(rotation)
	}

	for i, f := range boxFaces {
		corner := center.Add(transform(f[0]))
		b.faces[i] = NewQuad(corner, transform(f[1]), transform(f[2]), mat)
		if i == 0 {
			b.bbox = b.faces[i].BoundingBox()
		} else {
			b.bbox = b.bbox.Union(b.faces[i].BoundingBox())
		}
	}
	return b
}

// Hit returns the closest face intersection
func (b *Box) Hit(ray core.Ray, tMin, tMax float64) (*SurfaceInteraction, bool) {
	var closest *SurfaceInteraction
	for _, face := range b.faces {
		if si, ok := face.Hit(ray, tMin, tMax); ok {
			closest = si
			tMax = si.T
		}
	}
	return closest, closest != nil
}

// BoundingBox returns the box around all six faces
func (b *Box) BoundingBox() core.AABB {
	return b.bbox
}

// Faces returns the six quads of the box
func (b *Box) Faces() [6]*Quad {
	return b.faces
}
