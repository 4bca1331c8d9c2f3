package buffers

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/material"
)

// MaterialBuffer is a flat Vec4 array with a fixed per-material stride
type MaterialBuffer struct {
	layout Layout
	data   []mgl32.Vec4
}

// NewPhongMaterialBuffer packs MTL style materials
func NewPhongMaterialBuffer(materials []material.Phong) (*MaterialBuffer, error) {
	if len(materials) == 0 {
		return nil, fmt.Errorf("buffers: new phong material buffer: %w", ErrNoMaterials)
	}

	stride := PhongMaterialStride
	data := make([]mgl32.Vec4, len(materials)*stride)
	for i, m := range materials {
		base := i * stride
		data[base] = mgl32.Vec4{m.Ambient.X, m.Ambient.Y, m.Ambient.Z, m.Diffuse.X}
		data[base+1] = mgl32.Vec4{m.Diffuse.Y, m.Diffuse.Z, m.Specular.X, m.Specular.Y}
		data[base+2] = mgl32.Vec4{m.Specular.Z, m.Transmittance.X, m.Transmittance.Y, m.Transmittance.Z}
		data[base+3] = mgl32.Vec4{m.Emission.X, m.Emission.Y, m.Emission.Z, m.Shininess}
		data[base+4] = mgl32.Vec4{m.IOR, m.Dissolve, intBits(m.Illum), intBits(m.TextureID)}
	}
	return &MaterialBuffer{layout: PhongLayout, data: data}, nil
}

// NewMetallicRoughnessMaterialBuffer packs glTF factor sets
func NewMetallicRoughnessMaterialBuffer(materials []material.MetallicRoughness) (*MaterialBuffer, error) {
	if len(materials) == 0 {
		return nil, fmt.Errorf("buffers: new metallic-roughness material buffer: %w", ErrNoMaterials)
	}

	stride := MetallicRoughnessMaterialStride
	data := make([]mgl32.Vec4, len(materials)*stride)
	for i, m := range materials {
		base := i * stride
		data[base] = mgl32.Vec4(m.BaseColorFactor)
		data[base+1] = mgl32.Vec4{m.Metallic, m.Roughness, 0, 0}
	}
	return &MaterialBuffer{layout: MetallicRoughnessLayout, data: data}, nil
}

// WrapMaterialBuffer adopts already packed storage after checking its stride
func WrapMaterialBuffer(layout Layout, data []mgl32.Vec4) (*MaterialBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("buffers: wrap material buffer: %w", ErrNoMaterials)
	}
	if len(data)%layout.MaterialStride != 0 {
		return nil, fmt.Errorf("buffers: wrap material buffer: %d slots, stride %d: %w",
			len(data), layout.MaterialStride, ErrStride)
	}
	return &MaterialBuffer{layout: layout, data: data}, nil
}

// Layout returns the buffer's layout
func (b *MaterialBuffer) Layout() Layout { return b.layout }

// Len returns the number of materials
func (b *MaterialBuffer) Len() int { return len(b.data) / b.layout.MaterialStride }

// Data exposes the packed storage
func (b *MaterialBuffer) Data() []mgl32.Vec4 { return b.data }

// Phong unpacks material i of a Phong layout buffer
func (b *MaterialBuffer) Phong(i int) material.Phong {
	base := i * b.layout.MaterialStride
	d0, d1, d2, d3, d4 := b.data[base], b.data[base+1], b.data[base+2], b.data[base+3], b.data[base+4]

	return material.Phong{
		Ambient:       core.NewVec3(d0[0], d0[1], d0[2]),
		Diffuse:       core.NewVec3(d0[3], d1[0], d1[1]),
		Specular:      core.NewVec3(d1[2], d1[3], d2[0]),
		Transmittance: core.NewVec3(d2[1], d2[2], d2[3]),
		Emission:      core.NewVec3(d3[0], d3[1], d3[2]),
		Shininess:     d3[3],
		IOR:           d4[0],
		Dissolve:      d4[1],
		Illum:         bitsInt(d4[2]),
		TextureID:     bitsInt(d4[3]),
	}
}

// MetallicRoughness unpacks material i of a metallic-roughness layout buffer
func (b *MaterialBuffer) MetallicRoughness(i int) material.MetallicRoughness {
	base := i * b.layout.MaterialStride
	d0, d1 := b.data[base], b.data[base+1]

	return material.MetallicRoughness{
		BaseColorFactor: [4]float32(d0),
		Metallic:        d1[0],
		Roughness:       d1[1],
	}
}

// CheckCompatible verifies that vertex and material storage share a layout
// and, for the Phong layout, that every per-vertex material index resolves.
func CheckCompatible(vertices *VertexBuffer, materials *MaterialBuffer) error {
	if vertices.layout != materials.layout {
		return fmt.Errorf("buffers: vertices %s, materials %s: %w",
			vertices.layout.Variant, materials.layout.Variant, ErrLayoutMismatch)
	}
	if vertices.layout.Variant != VariantPhong {
		return nil
	}

	count := int32(materials.Len())
	for i := 0; i < vertices.Len(); i++ {
		idx := vertices.Vertex(uint32(i)).MaterialIndex
		if idx < 0 || idx >= count {
			return fmt.Errorf("buffers: vertex %d material %d, %d materials: %w", i, idx, count, ErrMaterialIndex)
		}
	}
	return nil
}
