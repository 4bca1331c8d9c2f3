package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/df07/go-hitshade/pkg/core"
)

func assertVecNear(t *testing.T, expected, actual core.Vec3, delta float64) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, delta, "x of %v", actual)
	assert.InDelta(t, expected.Y, actual.Y, delta, "y of %v", actual)
	assert.InDelta(t, expected.Z, actual.Z, delta, "z of %v", actual)
}

func TestCameraConfig_Front(t *testing.T) {
	tests := []struct {
		name     string
		yaw      float32
		pitch    float32
		expected core.Vec3
	}{
		{"default looks down -Z", -90, 0, core.NewVec3(0, 0, -1)},
		{"yaw 0 looks down +X", 0, 0, core.NewVec3(1, 0, 0)},
		{"positive pitch looks down", -90, 45, core.NewVec3(0, -0.70710677, -0.70710677)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCameraConfig()
			cfg.Yaw, cfg.Pitch = tt.yaw, tt.pitch
			assertVecNear(t, tt.expected, cfg.Front(), 1e-5)
		})
	}
}

func TestCamera_CenterRayFollowsFront(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig(), 200, 100)

	ray := camera.GetRay(100, 50)
	assertVecNear(t, core.NewVec3(0, 0, 10), ray.Origin, 1e-4)
	assertVecNear(t, core.NewVec3(0, 0, -1), ray.Direction, 1e-5)
}

func TestCamera_ImageOrientation(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig(), 100, 100)

	topLeft := camera.GetRay(0.5, 0.5).Direction
	bottomRight := camera.GetRay(99.5, 99.5).Direction

	assert.Less(t, topLeft.X, float32(0), "left column looks left")
	assert.Greater(t, topLeft.Y, float32(0), "top row looks up")
	assert.Greater(t, bottomRight.X, float32(0))
	assert.Less(t, bottomRight.Y, float32(0))
	assert.InDelta(t, 1.0, topLeft.Length(), 1e-5)
}

func TestCamera_VerticalFieldOfView(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig(), 100, 100)

	// The top edge of the image is half the field of view above the axis
	top := camera.GetRay(50, 0).Direction
	assert.InDelta(t, 0.5372996, top.Y, 1e-4, "sin(32.5 degrees)")
}

func TestLookAt(t *testing.T) {
	cfg := LookAt(core.NewVec3(5, 5, 5), core.NewVec3(0, 0, 0))
	assertVecNear(t, core.NewVec3(-1, -1, -1).Normalize(), cfg.Front(), 1e-5)

	same := LookAt(core.NewVec3(1, 1, 1), core.NewVec3(1, 1, 1))
	assert.Equal(t, DefaultCameraConfig().Yaw, same.Yaw)
}
