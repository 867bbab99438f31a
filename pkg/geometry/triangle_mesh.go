package geometry

import (
	"fmt"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/material"
)

// TriangleMesh is a collection of triangles behind its own BVH.
// Hits report the individual triangle as their Shape.
type TriangleMesh struct {
	triangles []Shape
	bvh       *BVH
}

// NewTriangleMesh builds a mesh from vertex positions and triangle indices.
// normals is optional; when given it must hold one normal per vertex.
func NewTriangleMesh(vertices []core.Vec3, indices []int, normals []core.Vec3, mat material.Material) (*TriangleMesh, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("mesh index count %d is not a positive multiple of 3", len(indices))
	}
	if normals != nil && len(normals) != len(vertices) {
		return nil, fmt.Errorf("mesh has %d normals for %d vertices", len(normals), len(vertices))
	}

	triangles := make([]Shape, 0, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		for _, idx := range []int{i0, i1, i2} {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("mesh index %d out of range for %d vertices", idx, len(vertices))
			}
		}

		var tri *Triangle
		if normals != nil {
			tri = NewSmoothTriangle(vertices[i0], vertices[i1], vertices[i2], normals[i0], normals[i1], normals[i2], mat)
		} else {
			tri = NewTriangle(vertices[i0], vertices[i1], vertices[i2], mat)
		}
		// skip degenerate faces, they can never be hit
		if tri.Normal().IsZero() {
			continue
		}
		triangles = append(triangles, tri)
	}
	if len(triangles) == 0 {
		return nil, fmt.Errorf("mesh has no non-degenerate triangles")
	}

	return &TriangleMesh{triangles: triangles, bvh: NewBVH(triangles)}, nil
}

// Hit tests the ray against the mesh's internal BVH
func (m *TriangleMesh) Hit(ray core.Ray, tMin, tMax float64) (*SurfaceInteraction, bool) {
	return m.bvh.Hit(ray, tMin, tMax)
}

// BoundingBox returns the bounds of the whole mesh
func (m *TriangleMesh) BoundingBox() core.AABB {
	return m.bvh.BoundingBox()
}

// TriangleCount returns the number of triangles in the mesh
func (m *TriangleMesh) TriangleCount() int {
	return len(m.triangles)
}
