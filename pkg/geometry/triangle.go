package geometry

import (
	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/material"
)

// Triangle represents a single triangle, optionally with per-vertex shading normals
type Triangle struct {
	V0, V1, V2 core.Vec3
	Material   material.Material
	normals    *[3]core.Vec3 // Optional per-vertex normals for shading
	normal     core.Vec3
	bbox       core.AABB
}

// NewTriangle creates a new flat-shaded triangle
func NewTriangle(v0, v1, v2 core.Vec3, mat material.Material) *Triangle {
	return &Triangle{
		V0:       v0,
		V1:       v1,
		V2:       v2,
		Material: mat,
		normal:   v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize(),
		bbox:     core.NewAABBFromPoints(v0, v1, v2).Expand(1e-6),
	}
}

// NewSmoothTriangle creates a triangle whose shading normal interpolates n0, n1 and n2
func NewSmoothTriangle(v0, v1, v2, n0, n1, n2 core.Vec3, mat material.Material) *Triangle {
	t := NewTriangle(v0, v1, v2, mat)
	t.normals = &[3]core.Vec3{n0.Normalize(), n1.Normalize(), n2.Normalize()}
	return t
}

// Hit tests if a ray intersects the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64) (*SurfaceInteraction, bool) {
	const epsilon = 1e-12

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return nil, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return nil, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return nil, false
	}

	dist := f * edge2.Dot(q)
	if dist < tMin || dist > tMax {
		return nil, false
	}

	shading := t.normal
	if t.normals != nil {
		n := t.normals[0].Multiply(1 - u - v).Add(t.normals[1].Multiply(u)).Add(t.normals[2].Multiply(v)).Normalize()
		// keep the shading normal on the outward side of the face
		if n.Dot(t.normal) < 0 {
			n = n.Negate()
		}
		if !n.IsZero() {
			shading = n
		}
	}

	si := &SurfaceInteraction{T: dist, Point: ray.At(dist), Material: t.Material, Shape: t}
	si.setFaceNormals(ray, t.normal, shading)
	return si, true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Normal returns the triangle's outward geometric normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}
