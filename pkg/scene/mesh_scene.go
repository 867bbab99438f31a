package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-bdpt/pkg/core"
	"github.com/df07/go-bdpt/pkg/loaders"
	"github.com/df07/go-bdpt/pkg/material"
)

// ErrMeshRequired is returned when the mesh scene is built without a mesh file
var ErrMeshRequired = errors.New("mesh scene needs a mesh file")

// meshFitSize is the longest side of a mesh placed in the Cornell box
const meshFitSize = 300.0

// NewMeshScene places the mesh from a .gltf, .glb or .ply file on the floor
// of the Cornell box, scaled so its longest side fits the room
func NewMeshScene(path string) (*Scene, error) {
	if path == "" {
		return nil, ErrMeshRequired
	}

	data, err := loaders.ReadMesh(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load mesh: %w", err)
	}

	transform := loaders.FitTransform(
		data.Bounds(),
		meshFitSize,
		core.NewVec3(cornellSize/2, 0, cornellSize/2),
		core.NewVec3(0, degrees(180), 0), // face the camera
	)
	gold := material.NewLambertian(core.NewVec3(0.8, 0.6, 0.2))
	mesh, err := data.Build(gold, transform)
	if err != nil {
		return nil, err
	}

	s := cornellBox("mesh")
	s.AddShapes(mesh)
	return s, nil
}
