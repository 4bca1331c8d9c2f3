package material

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/df07/go-hitshade/pkg/core"
)

func checkerboard() *ImageTexture {
	// white black
	// black white
	pixels := []core.Vec3{
		core.NewVec3(1, 1, 1), core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1),
	}
	return NewImageTexture(2, 2, pixels)
}

func TestImageTexture_NearestTopLeftOrigin(t *testing.T) {
	texture := checkerboard()
	texture.Filter = FilterNearest

	white := core.NewVec3(1, 1, 1)
	black := core.NewVec3(0, 0, 0)

	tests := []struct {
		name     string
		uv       core.Vec2
		expected core.Vec3
	}{
		{"top-left", core.NewVec2(0.1, 0.1), white},
		{"top-right", core.NewVec2(0.9, 0.1), black},
		{"bottom-left", core.NewVec2(0.1, 0.9), black},
		{"bottom-right", core.NewVec2(0.9, 0.9), white},
		{"wraps positive", core.NewVec2(1.1, 1.1), white},
		{"wraps negative", core.NewVec2(-0.1, 0.1), black},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, texture.Evaluate(tt.uv))
		})
	}
}

func TestImageTexture_BilinearTexelCenters(t *testing.T) {
	texture := checkerboard()

	// Exactly on texel centers bilinear filtering returns the texel
	assert.Equal(t, core.NewVec3(1, 1, 1), texture.Evaluate(core.NewVec2(0.25, 0.25)))
	assert.Equal(t, core.NewVec3(0, 0, 0), texture.Evaluate(core.NewVec2(0.75, 0.25)))

	// Halfway between all four texels blends evenly
	mid := texture.Evaluate(core.NewVec2(0.5, 0.5))
	assert.InDelta(t, 0.5, mid.X, 1e-6)
	assert.InDelta(t, 0.5, mid.Y, 1e-6)
	assert.InDelta(t, 0.5, mid.Z, 1e-6)
}

func TestImageTexture_BilinearRepeatsAcrossEdge(t *testing.T) {
	pixels := []core.Vec3{core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1)}
	texture := NewImageTexture(2, 1, pixels)

	// u=0 is halfway between the last and first texel when repeating
	edge := texture.Evaluate(core.NewVec2(0, 0.5))
	assert.InDelta(t, 0.5, edge.X, 1e-6)
	assert.InDelta(t, 0.5, edge.Z, 1e-6)
}

func TestImageTexture_Empty(t *testing.T) {
	texture := NewImageTexture(0, 0, nil)
	assert.Equal(t, core.Vec3{}, texture.Evaluate(core.NewVec2(0.5, 0.5)))
}

func TestDefaults(t *testing.T) {
	p := DefaultPhong()
	assert.Equal(t, core.NewVec3(0.7, 0.7, 0.7), p.Diffuse)
	assert.Equal(t, NoTexture, p.TextureID)
	assert.False(t, p.HasTexture())

	m := DefaultMetallicRoughness()
	assert.Equal(t, core.NewVec3(0.7, 0.7, 0.7), m.BaseColor())
	assert.Equal(t, float32(1), m.BaseColorFactor[3])
}
