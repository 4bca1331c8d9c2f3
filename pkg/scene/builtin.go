package scene

import (
	"fmt"
	"sort"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/geometry"
	"github.com/df07/go-hitshade/pkg/material"
)

// builtinScenes maps scene ids to constructors
var builtinScenes = map[string]func() (*Scene, error){
	"cube":       NewCubeScene,
	"shadow-box": NewShadowBoxScene,
	"triangle":   NewTriangleScene,
}

// BuiltinNames returns the ids of all built-in scenes, sorted
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinScenes))
	for name := range builtinScenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBuiltin creates a built-in scene by id
func NewBuiltin(name string) (*Scene, error) {
	build, ok := builtinScenes[name]
	if !ok {
		return nil, fmt.Errorf("scene: unknown built-in scene %q", name)
	}
	return build()
}

// NewCubeScene creates a tilted cube in front of the default camera, with a
// different Phong material on each pair of faces
func NewCubeScene() (*Scene, error) {
	var mesh geometry.Mesh
	mesh.AddBox(core.NewVec3(0, 0, 0), core.NewVec3(1.5, 1.5, 1.5), core.NewVec3(0.5, 0.7, 0), 0)

	// Faces are added front, back, right, left, top, bottom with two triangles each
	for tri := range mesh.TriangleMaterials {
		slot := int32(tri / 4)
		mesh.TriangleMaterials[tri] = slot
		for k := 0; k < 3; k++ {
			mesh.Vertices[mesh.Indices[3*tri+k]].MaterialIndex = slot
		}
	}

	colors := []core.Vec3{
		core.NewVec3(0.8, 0.3, 0.2),
		core.NewVec3(0.2, 0.6, 0.3),
		core.NewVec3(0.2, 0.3, 0.8),
	}
	var phong []material.Phong
	for _, c := range colors {
		m := material.DefaultPhong()
		m.Diffuse = c
		phong = append(phong, m)
	}

	return New("cube", buffers.VariantPhong, &mesh, Materials{Phong: phong}, nil)
}

// NewShadowBoxScene creates a box floating above a ground quad so the box
// casts a shadow along the light direction
func NewShadowBoxScene() (*Scene, error) {
	var mesh geometry.Mesh
	mesh.AddQuad(core.NewVec3(-10, -2, 10), core.NewVec3(20, 0, 0), core.NewVec3(0, 0, -20), 0)
	mesh.AddBox(core.NewVec3(0, 0.5, 0), core.NewVec3(1, 1, 1), core.NewVec3(0, 0.4, 0), 1)

	metallic := []material.MetallicRoughness{
		material.DefaultMetallicRoughness(),
		{BaseColorFactor: [4]float32{0.8, 0.35, 0.2, 1}, Metallic: 0.1, Roughness: 0.6},
	}

	s, err := New("shadow-box", buffers.VariantMetallicRoughness, &mesh, Materials{Metallic: metallic}, nil)
	if err != nil {
		return nil, err
	}
	s.CameraConfig = geometry.LookAt(core.NewVec3(4, 5, 12), core.NewVec3(0, -0.5, 0))
	return s, nil
}

// NewTriangleScene creates a single triangle facing the camera
func NewTriangleScene() (*Scene, error) {
	var mesh geometry.Mesh
	mesh.AddTriangle(core.NewVec3(-3, -2, 0), core.NewVec3(3, -2, 0), core.NewVec3(0, 3, 0), 0)

	return New("triangle", buffers.VariantPhong, &mesh, Materials{Phong: []material.Phong{material.DefaultPhong()}}, nil)
}
