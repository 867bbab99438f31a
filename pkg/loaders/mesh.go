package loaders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/material"
)

var (
	// ErrUnsupportedPrimitive is returned for mesh primitives that are not triangle lists
	ErrUnsupportedPrimitive = errors.New("unsupported mesh primitive")
	// ErrUnsupportedFormat is returned for files the loaders cannot read
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
)

// MeshData is triangle geometry read from a file, before it is placed in a scene
type MeshData struct {
	Positions []core.Vec3
	Indices   []int       // 3 per triangle
	Normals   []core.Vec3 // Per-vertex normals, empty if the file has none
}

// TriangleCount returns the number of triangles in the index list
func (m *MeshData) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds returns the box around every position
func (m *MeshData) Bounds() core.AABB {
	return core.NewAABBFromPoints(m.Positions...)
}

// append adds another primitive, rebasing its indices
func (m *MeshData) append(positions []core.Vec3, indices []int, normals []core.Vec3) {
	base := len(m.Positions)
	// keep normals aligned with positions, or drop them for the whole mesh
	switch {
	case len(normals) == len(positions) && len(m.Normals) == len(m.Positions):
		m.Normals = append(m.Normals, normals...)
	default:
		m.Normals = nil
	}
	m.Positions = append(m.Positions, positions...)
	for _, idx := range indices {
		m.Indices = append(m.Indices, base+idx)
	}
}

// Transform places mesh-space geometry in the world: scale, then rotate, then translate
type Transform struct {
	Scale       float64
	Rotation    core.Vec3 // Radians around X, Y, Z, applied in that order
	Translation core.Vec3
}

// IdentityTransform leaves geometry where the file put it
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// FitTransform scales and moves bounds so that the longest side is size and
// the bottom center sits at base
func FitTransform(bounds core.AABB, size float64, base core.Vec3, rotation core.Vec3) Transform {
	extent := bounds.Max.Subtract(bounds.Min)
	longest := max(extent.X, extent.Y, extent.Z)
	scale := 1.0
	if longest > 0 {
		scale = size / longest
	}

	bottom := core.NewVec3(bounds.Center().X, bounds.Min.Y, bounds.Center().Z)
	offset := base.Subtract(bottom.Multiply(scale).Rotate(rotation))
	return Transform{Scale: scale, Rotation: rotation, Translation: offset}
}

// Point maps a mesh-space position into the world
func (t Transform) Point(p core.Vec3) core.Vec3 {
	return p.Multiply(t.Scale).Rotate(t.Rotation).Add(t.Translation)
}

// Normal maps a mesh-space normal into the world
func (t Transform) Normal(n core.Vec3) core.Vec3 {
	return n.Rotate(t.Rotation).Normalize()
}

// Build transforms the data and creates a triangle mesh shape
func (m *MeshData) Build(mat material.Material, t Transform) (*geometry.TriangleMesh, error) {
	positions := make([]core.Vec3, len(m.Positions))
	for i, p := range m.Positions {
		positions[i] = t.Point(p)
	}

	var normals []core.Vec3
	if len(m.Normals) > 0 {
		normals = make([]core.Vec3, len(m.Normals))
		for i, n := range m.Normals {
			normals[i] = t.Normal(n)
		}
	}

	mesh, err := geometry.NewTriangleMesh(positions, m.Indices, normals, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to build mesh: %w", err)
	}
	return mesh, nil
}

// ReadMesh reads triangle data from a .gltf, .glb or .ply file
func ReadMesh(path string) (*MeshData, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return ReadGLTF(path)
	case ".ply":
		return ReadPLY(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
