// Package geometry builds triangle meshes and cameras for scenes.
package geometry

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
)

// Mesh accumulates vertices and triangles before they are packed into buffers.
// Every vertex carries the material index of the triangle that created it,
// and TriangleMaterials records the same index per triangle.
type Mesh struct {
	Vertices          []buffers.Vertex
	Indices           []uint32
	TriangleMaterials []int32
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// AddTriangle adds a flat-shaded triangle with counter-clockwise winding
func (m *Mesh) AddTriangle(p0, p1, p2 core.Vec3, materialIndex int32) {
	normal := p1.Subtract(p0).Cross(p2.Subtract(p0)).Normalize()
	base := uint32(len(m.Vertices))

	m.Vertices = append(m.Vertices,
		buffers.Vertex{Position: p0, Normal: normal, TexCoord: core.NewVec2(0, 0), MaterialIndex: materialIndex},
		buffers.Vertex{Position: p1, Normal: normal, TexCoord: core.NewVec2(1, 0), MaterialIndex: materialIndex},
		buffers.Vertex{Position: p2, Normal: normal, TexCoord: core.NewVec2(0, 1), MaterialIndex: materialIndex},
	)
	m.Indices = append(m.Indices, base, base+1, base+2)
	m.TriangleMaterials = append(m.TriangleMaterials, materialIndex)
}

// AddQuad adds the parallelogram corner, corner+u, corner+u+v, corner+v as two
// triangles facing along u x v
func (m *Mesh) AddQuad(corner, u, v core.Vec3, materialIndex int32) {
	normal := u.Cross(v).Normalize()
	base := uint32(len(m.Vertices))

	corners := [4]core.Vec3{corner, corner.Add(u), corner.Add(u).Add(v), corner.Add(v)}
	uvs := [4]core.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for i := range corners {
		m.Vertices = append(m.Vertices, buffers.Vertex{
			Position:      corners[i],
			Normal:        normal,
			TexCoord:      uvs[i],
			MaterialIndex: materialIndex,
		})
	}

	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	m.TriangleMaterials = append(m.TriangleMaterials, materialIndex, materialIndex)
}

// AddBox adds a box of half-extents size, rotated by rotation (radians around
// X, Y then Z) and moved to center. Faces point outward.
func (m *Mesh) AddBox(center, size, rotation core.Vec3, materialIndex int32) {
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}
	for i := range corners {
		corners[i] = RotateVertex(corners[i].MultiplyVec(size), rotation).Add(center)
	}

	faces := [6][3]int{
		{4, 5, 7}, // front (Z+)
		{1, 0, 2}, // back (Z-)
		{5, 1, 6}, // right (X+)
		{0, 4, 3}, // left (X-)
		{3, 7, 2}, // top (Y+)
		{4, 0, 5}, // bottom (Y-)
	}
	for _, f := range faces {
		origin := corners[f[0]]
		m.AddQuad(origin, corners[f[1]].Subtract(origin), corners[f[2]].Subtract(origin), materialIndex)
	}
}

// Append merges other into m, offsetting its indices
func (m *Mesh) Append(other *Mesh) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, other.Vertices...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, idx+base)
	}
	m.TriangleMaterials = append(m.TriangleMaterials, other.TriangleMaterials...)
}

// Bounds returns the bounding box of all vertices
func (m *Mesh) Bounds() core.AABB {
	points := make([]core.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		points[i] = v.Position
	}
	return core.NewAABBFromPoints(points...)
}

// Pack validates the mesh and packs it into buffers with the given layout
func (m *Mesh) Pack(layout buffers.Layout) (*buffers.VertexBuffer, *buffers.IndexBuffer, error) {
	if m.TriangleCount() == 0 {
		return nil, nil, fmt.Errorf("geometry: pack mesh: no triangles")
	}

	vb, err := buffers.NewVertexBuffer(layout, m.Vertices)
	if err != nil {
		return nil, nil, fmt.Errorf("geometry: pack mesh: %w", err)
	}
	ib, err := buffers.NewIndexBuffer(m.Indices, len(m.Vertices))
	if err != nil {
		return nil, nil, fmt.Errorf("geometry: pack mesh: %w", err)
	}
	return vb, ib, nil
}

// RotateVertex rotates a point around the X, Y and Z axes, in that order
func RotateVertex(vertex, rotation core.Vec3) core.Vec3 {
	if rotation.X != 0 {
		cos, sin := math32.Cos(rotation.X), math32.Sin(rotation.X)
		vertex = core.NewVec3(vertex.X, vertex.Y*cos-vertex.Z*sin, vertex.Y*sin+vertex.Z*cos)
	}
	if rotation.Y != 0 {
		cos, sin := math32.Cos(rotation.Y), math32.Sin(rotation.Y)
		vertex = core.NewVec3(vertex.X*cos+vertex.Z*sin, vertex.Y, -vertex.X*sin+vertex.Z*cos)
	}
	if rotation.Z != 0 {
		cos, sin := math32.Cos(rotation.Z), math32.Sin(rotation.Z)
		vertex = core.NewVec3(vertex.X*cos-vertex.Y*sin, vertex.X*sin+vertex.Y*cos, vertex.Z)
	}
	return vertex
}
