package buffers

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/material"
)

func sampleVertices() []Vertex {
	return []Vertex{
		{Position: core.NewVec3(0, 0, 0), Normal: core.NewVec3(0, 0, 1), TexCoord: core.NewVec2(0, 0), MaterialIndex: 1},
		{Position: core.NewVec3(1, 0, 0), Normal: core.NewVec3(0, 1, 0), TexCoord: core.NewVec2(1, 0)},
		{Position: core.NewVec3(0, 1, 0), Normal: core.NewVec3(1, 0, 0), TexCoord: core.NewVec2(0, 1)},
	}
}

func TestVertexBuffer_RoundTripsEachLayout(t *testing.T) {
	tests := []struct {
		name        string
		layout      Layout
		slots       int
		keepMatIndx bool
	}{
		{"phong", PhongLayout, 9, true},
		{"metallic-roughness", MetallicRoughnessLayout, 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vertices := sampleVertices()
			vb, err := NewVertexBuffer(tt.layout, vertices)
			require.NoError(t, err)

			assert.Equal(t, 3, vb.Len())
			assert.Len(t, vb.Data(), tt.slots)

			for i, want := range vertices {
				got := vb.Vertex(uint32(i))
				assert.Equal(t, want.Position, got.Position)
				assert.Equal(t, want.Normal, got.Normal)
				assert.Equal(t, want.TexCoord, got.TexCoord)
				assert.Equal(t, want.Position, vb.Position(uint32(i)))
				if tt.keepMatIndx {
					assert.Equal(t, want.MaterialIndex, got.MaterialIndex)
				} else {
					assert.Zero(t, got.MaterialIndex)
				}
			}
		})
	}
}

func TestVertexBuffer_PackingOrder(t *testing.T) {
	vb, err := NewVertexBuffer(MetallicRoughnessLayout, []Vertex{{
		Position: core.NewVec3(1, 2, 3),
		Normal:   core.NewVec3(4, 5, 6),
		TexCoord: core.NewVec2(7, 8),
	}})
	require.NoError(t, err)

	assert.Equal(t, []mgl32.Vec4{{1, 2, 3, 4}, {5, 6, 7, 8}}, vb.Data())
}

func TestWrapVertexBuffer_RejectsBadStride(t *testing.T) {
	_, err := WrapVertexBuffer(PhongLayout, make([]mgl32.Vec4, 4))
	assert.ErrorIs(t, err, ErrStride)

	_, err = WrapVertexBuffer(MetallicRoughnessLayout, make([]mgl32.Vec4, 4))
	assert.NoError(t, err)

	_, err = WrapVertexBuffer(PhongLayout, nil)
	assert.ErrorIs(t, err, ErrEmptyVertexInput)
}

func TestIndexBuffer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		wantErr error
	}{
		{"valid", []uint32{0, 1, 2, 2, 1, 0}, nil},
		{"not a multiple of three", []uint32{0, 1}, ErrIndexCount},
		{"out of range", []uint32{0, 1, 3}, ErrIndexRange},
		{"empty is allowed", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ib, err := NewIndexBuffer(tt.indices, 3)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.indices)/3, ib.TriangleCount())
		})
	}
}

func TestIndexBuffer_Triangle(t *testing.T) {
	ib, err := NewIndexBuffer([]uint32{0, 1, 2, 3, 4, 5}, 6)
	require.NoError(t, err)

	assert.Equal(t, [3]uint32{3, 4, 5}, ib.Triangle(1))
}

func TestMaterialBuffer_Phong(t *testing.T) {
	custom := material.DefaultPhong()
	custom.Diffuse = core.NewVec3(0.2, 0.4, 0.6)
	custom.Illum = 2
	custom.TextureID = 3
	custom.Shininess = 32

	mb, err := NewPhongMaterialBuffer([]material.Phong{material.DefaultPhong(), custom})
	require.NoError(t, err)

	assert.Equal(t, 2, mb.Len())
	assert.Len(t, mb.Data(), 2*PhongMaterialStride)
	assert.Equal(t, material.DefaultPhong(), mb.Phong(0))
	assert.Equal(t, custom, mb.Phong(1))
	assert.Equal(t, material.NoTexture, mb.Phong(0).TextureID, "negative ids survive bit packing")
}

func TestMaterialBuffer_MetallicRoughness(t *testing.T) {
	m := material.MetallicRoughness{BaseColorFactor: [4]float32{1, 0.5, 0.25, 1}, Metallic: 0.8, Roughness: 0.3}

	mb, err := NewMetallicRoughnessMaterialBuffer([]material.MetallicRoughness{m})
	require.NoError(t, err)

	assert.Equal(t, m, mb.MetallicRoughness(0))
	assert.Equal(t, []mgl32.Vec4{{1, 0.5, 0.25, 1}, {0.8, 0.3, 0, 0}}, mb.Data())
}

func TestMaterialBuffer_Validation(t *testing.T) {
	_, err := NewPhongMaterialBuffer(nil)
	assert.ErrorIs(t, err, ErrNoMaterials)

	_, err = WrapMaterialBuffer(PhongLayout, make([]mgl32.Vec4, 7))
	assert.ErrorIs(t, err, ErrStride)

	mb, err := WrapMaterialBuffer(MetallicRoughnessLayout, make([]mgl32.Vec4, 4))
	require.NoError(t, err)
	assert.Equal(t, 2, mb.Len())
}

func TestCheckCompatible(t *testing.T) {
	phongVerts, err := NewVertexBuffer(PhongLayout, sampleVertices())
	require.NoError(t, err)
	mrVerts, err := NewVertexBuffer(MetallicRoughnessLayout, sampleVertices())
	require.NoError(t, err)

	oneMat, err := NewPhongMaterialBuffer([]material.Phong{material.DefaultPhong()})
	require.NoError(t, err)
	twoMats, err := NewPhongMaterialBuffer([]material.Phong{material.DefaultPhong(), material.DefaultPhong()})
	require.NoError(t, err)

	assert.ErrorIs(t, CheckCompatible(phongVerts, oneMat), ErrMaterialIndex)
	assert.NoError(t, CheckCompatible(phongVerts, twoMats))
	assert.ErrorIs(t, CheckCompatible(mrVerts, twoMats), ErrLayoutMismatch)
}

func TestParseVariant(t *testing.T) {
	for _, v := range []Variant{VariantPhong, VariantMetallicRoughness} {
		parsed, err := ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}

	_, err := ParseVariant("lambert")
	assert.Error(t, err)
}
