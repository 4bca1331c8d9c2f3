package buffers

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-hitshade/pkg/core"
)

// Vertex is the unpacked form of one vertex record
type Vertex struct {
	Position      core.Vec3
	Normal        core.Vec3
	TexCoord      core.Vec2
	MaterialIndex int32 // Phong layout only
}

// VertexBuffer is a flat Vec4 array with a fixed per-vertex stride
type VertexBuffer struct {
	layout Layout
	data   []mgl32.Vec4
}

// NewVertexBuffer packs vertices with the given layout
func NewVertexBuffer(layout Layout, vertices []Vertex) (*VertexBuffer, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("buffers: new vertex buffer: %w", ErrEmptyVertexInput)
	}

	data := make([]mgl32.Vec4, len(vertices)*layout.VertexStride)
	for i, v := range vertices {
		base := i * layout.VertexStride
		data[base] = mgl32.Vec4{v.Position.X, v.Position.Y, v.Position.Z, v.Normal.X}
		data[base+1] = mgl32.Vec4{v.Normal.Y, v.Normal.Z, v.TexCoord.X, v.TexCoord.Y}
		if layout.Variant == VariantPhong {
			data[base+2] = mgl32.Vec4{intBits(v.MaterialIndex), 0, 0, 0}
		}
	}

	return &VertexBuffer{layout: layout, data: data}, nil
}

// WrapVertexBuffer adopts already packed storage after checking its stride
func WrapVertexBuffer(layout Layout, data []mgl32.Vec4) (*VertexBuffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("buffers: wrap vertex buffer: %w", ErrEmptyVertexInput)
	}
	if len(data)%layout.VertexStride != 0 {
		return nil, fmt.Errorf("buffers: wrap vertex buffer: %d slots, stride %d: %w",
			len(data), layout.VertexStride, ErrStride)
	}
	return &VertexBuffer{layout: layout, data: data}, nil
}

// Layout returns the buffer's layout
func (b *VertexBuffer) Layout() Layout { return b.layout }

// Len returns the number of vertices
func (b *VertexBuffer) Len() int { return len(b.data) / b.layout.VertexStride }

// Data exposes the packed storage
func (b *VertexBuffer) Data() []mgl32.Vec4 { return b.data }

// Position unpacks only the position of vertex i
func (b *VertexBuffer) Position(i uint32) core.Vec3 {
	d0 := b.data[int(i)*b.layout.VertexStride]
	return core.NewVec3(d0[0], d0[1], d0[2])
}

// Vertex unpacks vertex i
func (b *VertexBuffer) Vertex(i uint32) Vertex {
	base := int(i) * b.layout.VertexStride
	d0 := b.data[base]
	d1 := b.data[base+1]

	v := Vertex{
		Position: core.NewVec3(d0[0], d0[1], d0[2]),
		Normal:   core.NewVec3(d0[3], d1[0], d1[1]),
		TexCoord: core.NewVec2(d1[2], d1[3]),
	}
	if b.layout.Variant == VariantPhong {
		v.MaterialIndex = bitsInt(b.data[base+2][0])
	}
	return v
}
