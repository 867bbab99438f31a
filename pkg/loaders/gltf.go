package loaders

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/geometry"
	"github.com/df07/go-bdpt/pkg/material"
)

// LoadGLTF reads every triangle primitive of a .gltf or .glb file into one mesh.
// Node transforms are ignored; t places the mesh-space geometry.
func LoadGLTF(path string, mat material.Material, t Transform) (*geometry.TriangleMesh, error) {
	data, err := ReadGLTF(path)
	if err != nil {
		return nil, err
	}
	return data.Build(mat, t)
}

// ReadGLTF reads positions, normals and indices of every mesh in the document
func ReadGLTF(path string) (*MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	data := &MeshData{}
	for _, m := range doc.Meshes {
		for i, prim := range m.Primitives {
			if err := readPrimitive(doc, prim, data); err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", m.Name, i, err)
			}
		}
	}
	if data.TriangleCount() == 0 {
		return nil, fmt.Errorf("%s: no triangles", path)
	}
	return data, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, data *MeshData) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		return fmt.Errorf("%w: mode %v", ErrUnsupportedPrimitive, prim.Mode)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("%w: no POSITION attribute", ErrUnsupportedPrimitive)
	}
	rawPositions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}
	positions := toVec3s(rawPositions)

	var normals []core.Vec3
	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		rawNormals, err := modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
		if err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
		normals = toVec3s(rawNormals)
	}

	var indices []int
	if prim.Indices != nil {
		rawIndices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
		indices = make([]int, len(rawIndices))
		for i, idx := range rawIndices {
			indices[i] = int(idx)
		}
	} else {
		// unindexed primitives are sequential triangles
		indices = make([]int, len(positions)-len(positions)%3)
		for i := range indices {
			indices[i] = i
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices do not form triangles", ErrUnsupportedPrimitive, len(indices))
	}

	data.append(positions, indices, normals)
	return nil
}

func toVec3s(raw [][3]float32) []core.Vec3 {
	out := make([]core.Vec3, len(raw))
	for i, p := range raw {
		out[i] = core.NewVec3(float64(p[0]), float64(p[1]), float64(p[2]))
	}
	return out
}
