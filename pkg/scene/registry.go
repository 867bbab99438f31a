package scene

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScene is returned when a scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// Options carries the inputs some scenes need
type Options struct {
	MeshPath string // Mesh file for the "mesh" scene
}

// SceneInfo describes a registered scene
type SceneInfo struct {
	Name        string
	Description string
	NeedsMesh   bool
}

type entry struct {
	info  SceneInfo
	build func(Options) (*Scene, error)
}

var registry = map[string]entry{
	"cornell": {
		info: SceneInfo{Name: "cornell", Description: "Cornell box with two diffuse boxes"},
		build: func(Options) (*Scene, error) {
			return NewCornellScene(), nil
		},
	},
	"cornell-specular": {
		info: SceneInfo{Name: "cornell-specular", Description: "Cornell box with a mirror sphere and a glass sphere"},
		build: func(Options) (*Scene, error) {
			return NewCornellSpecularScene(), nil
		},
	},
	"parallel-planes": {
		info: SceneInfo{Name: "parallel-planes", Description: "Square emitter over a diffuse plane with a closed-form answer"},
		build: func(Options) (*Scene, error) {
			return NewParallelPlanesScene(DefaultParallelPlanes()), nil
		},
	},
	"mesh": {
		info: SceneInfo{Name: "mesh", Description: "A glTF or PLY mesh in the Cornell box", NeedsMesh: true},
		build: func(opts Options) (*Scene, error) {
			return NewMeshScene(opts.MeshPath)
		},
	},
}

// List returns every registered scene sorted by name
func List() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(registry))
	for _, e := range registry {
		scenes = append(scenes, e.info)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes
}

// Build creates the named scene. The scene is not preprocessed.
func Build(name string, opts Options) (*Scene, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	s, err := e.build(opts)
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", name, err)
	}
	return s, nil
}
