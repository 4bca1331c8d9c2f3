package buffers

import "fmt"

// IndexBuffer holds three vertex indices per triangle
type IndexBuffer struct {
	indices []uint32
}

// NewIndexBuffer validates indices against a vertex count
func NewIndexBuffer(indices []uint32, vertexCount int) (*IndexBuffer, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("buffers: new index buffer: %d indices: %w", len(indices), ErrIndexCount)
	}
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return nil, fmt.Errorf("buffers: new index buffer: indices[%d]=%d, %d vertices: %w",
				i, idx, vertexCount, ErrIndexRange)
		}
	}
	return &IndexBuffer{indices: indices}, nil
}

// TriangleCount returns the number of triangles
func (b *IndexBuffer) TriangleCount() int { return len(b.indices) / 3 }

// Indices exposes the flat index storage
func (b *IndexBuffer) Indices() []uint32 { return b.indices }

// Triangle returns the vertex indices at 3*primitiveID .. +2
func (b *IndexBuffer) Triangle(primitiveID int) [3]uint32 {
	base := 3 * primitiveID
	return [3]uint32{b.indices[base], b.indices[base+1], b.indices[base+2]}
}
