package scene

import (
	"fmt"

	"github.com/df07/go-hitshade/pkg/accel"
	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/geometry"
	"github.com/df07/go-hitshade/pkg/material"
	"github.com/df07/go-hitshade/pkg/shader"
)

// DefaultClearColor is the miss color when a scene does not set one
var DefaultClearColor = [4]float32{1, 1, 1, 1}

// Scene contains everything a render needs: packed buffers, the acceleration
// structure built over them, textures, camera and clear color
type Scene struct {
	Name              string
	Variant           buffers.Variant
	Vertices          *buffers.VertexBuffer
	Indices           *buffers.IndexBuffer
	Materials         *buffers.MaterialBuffer
	Textures          []material.ColorSource
	TriangleMaterials []int32
	Structure         *accel.Structure
	CameraConfig      geometry.CameraConfig
	ClearColor        [4]float32
}

// Materials holds the material records of one variant
type Materials struct {
	Phong    []material.Phong
	Metallic []material.MetallicRoughness
}

// New packs mesh and materials for variant, validates them and builds the
// acceleration structure
func New(name string, variant buffers.Variant, mesh *geometry.Mesh, materials Materials, textures []material.ColorSource) (*Scene, error) {
	layout := buffers.LayoutFor(variant)

	vb, ib, err := mesh.Pack(layout)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}

	var mb *buffers.MaterialBuffer
	if variant == buffers.VariantPhong {
		mb, err = buffers.NewPhongMaterialBuffer(materials.Phong)
	} else {
		mb, err = buffers.NewMetallicRoughnessMaterialBuffer(materials.Metallic)
	}
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}

	if err := buffers.CheckCompatible(vb, mb); err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	for prim, slot := range mesh.TriangleMaterials {
		if slot < 0 || int(slot) >= mb.Len() {
			return nil, fmt.Errorf("scene %s: triangle %d material %d: %w", name, prim, slot, buffers.ErrMaterialIndex)
		}
	}

	return &Scene{
		Name:              name,
		Variant:           variant,
		Vertices:          vb,
		Indices:           ib,
		Materials:         mb,
		Textures:          textures,
		TriangleMaterials: mesh.TriangleMaterials,
		Structure:         accel.Build(vb, ib),
		CameraConfig:      geometry.DefaultCameraConfig(),
		ClearColor:        DefaultClearColor,
	}, nil
}

// Bindings returns the shader resources of the scene
func (s *Scene) Bindings() shader.Bindings {
	return shader.Bindings{
		Scene:             s.Structure,
		Vertices:          s.Vertices,
		Indices:           s.Indices,
		Materials:         s.Materials,
		Textures:          s.Textures,
		TriangleMaterials: s.TriangleMaterials,
	}
}

// ConvertMaterials maps materials to the other variant: Phong diffuse and
// dissolve become base color and alpha, and back
func ConvertMaterials(from buffers.Variant, m Materials) Materials {
	var out Materials
	if from == buffers.VariantPhong {
		for _, p := range m.Phong {
			mr := material.DefaultMetallicRoughness()
			mr.BaseColorFactor = [4]float32{p.Diffuse.X, p.Diffuse.Y, p.Diffuse.Z, p.Dissolve}
			out.Metallic = append(out.Metallic, mr)
		}
		return out
	}

	for _, mr := range m.Metallic {
		p := material.DefaultPhong()
		p.Diffuse = mr.BaseColor()
		p.Dissolve = mr.BaseColorFactor[3]
		out.Phong = append(out.Phong, p)
	}
	return out
}
