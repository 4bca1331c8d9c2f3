package renderer

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/scene"
	"github.com/df07/go-hitshade/pkg/shader"
)

func newTriangleRaytracer(t *testing.T) *Raytracer {
	t.Helper()
	s, err := scene.NewTriangleScene()
	require.NoError(t, err)
	s.ClearColor = [4]float32{0.1, 0.2, 0.3, 1}
	return NewRaytracer(s, shader.DefaultOptions(s.Variant, shader.ModeDelivered))
}

func TestRaytracer_HitUsesClosestHitProgram(t *testing.T) {
	rt := newTriangleRaytracer(t)

	ray := core.NewRay(core.NewVec3(0, 0, 10), core.NewVec3(0, 0, -1))
	got := rt.RayColor(ray)

	// Flat gray at the (0,0,1) normal's diffuse term, unshadowed
	assert.InDelta(t, 0.29698485, got.X, 1e-5)
	assert.Equal(t, got.X, got.Y)
	assert.Equal(t, got.X, got.Z)

	inspection := rt.Inspect(ray)
	assert.True(t, inspection.Hit)
	assert.InDelta(t, 10, inspection.HitT, 1e-4)
	assert.False(t, inspection.Sample.Shadowed)
	assert.Equal(t, got, inspection.Color)
}

func TestRaytracer_MissUsesClearColor(t *testing.T) {
	rt := newTriangleRaytracer(t)

	ray := core.NewRay(core.NewVec3(0, 0, 10), core.NewVec3(0, 0, 1))
	assert.Equal(t, core.NewVec3(0.1, 0.2, 0.3), rt.RayColor(ray))

	inspection := rt.Inspect(ray)
	assert.False(t, inspection.Hit)
	assert.Equal(t, core.NewVec3(0.1, 0.2, 0.3), inspection.Color)
}

func TestRaytracer_ShadowBoxGroundIsShadowed(t *testing.T) {
	s, err := scene.NewShadowBoxScene()
	require.NoError(t, err)
	rt := NewRaytracer(s, shader.DefaultOptions(s.Variant, shader.ModeDelivered))

	// Straight down onto the ground right below the box: the box blocks the light
	below := rt.Inspect(core.NewRay(core.NewVec3(0, 10, 0), core.NewVec3(0, -1, 0)))
	require.True(t, below.Hit)
	assert.Equal(t, int32(1), s.TriangleMaterials[below.Sample.PrimitiveID], "the box top is hit first")

	// Ground point on the far side of the box from the light
	ground := core.NewVec3(-1.5, -2, -1)
	inspection := rt.Inspect(core.NewRay(ground.Add(core.NewVec3(0, 5, 0)), core.NewVec3(0, -1, 0)))
	require.True(t, inspection.Hit)
	assert.Equal(t, int32(0), s.TriangleMaterials[inspection.Sample.PrimitiveID])
	assert.True(t, inspection.Sample.Shadowed)
	assert.Equal(t, inspection.Sample.BaseColor.Multiply(0.3), inspection.Color)

	// Open ground toward the light is lit
	lit := rt.Inspect(core.NewRay(core.NewVec3(6, 3, 6), core.NewVec3(0, -1, 0)))
	require.True(t, lit.Hit)
	assert.False(t, lit.Sample.Shadowed)
	assert.Equal(t, buffers.VariantMetallicRoughness, s.Variant)
}

func TestVec3ToColor(t *testing.T) {
	tests := []struct {
		name  string
		in    core.Vec3
		gamma float32
		want  color.RGBA
	}{
		{"unmodified at gamma 1", core.NewVec3(0.29698485, 0.5, 1), 1, color.RGBA{75, 127, 255, 255}},
		{"clamped", core.NewVec3(-1, 2, 0), 1, color.RGBA{0, 255, 0, 255}},
		{"gamma 2", core.NewVec3(0.25, 0, 1), 2, color.RGBA{127, 0, 255, 255}},
		{"zero gamma skips correction", core.NewVec3(0.25, 0.25, 0.25), 0, color.RGBA{63, 63, 63, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vec3ToColor(tt.in, tt.gamma))
		})
	}
}
