package geometry

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-hitshade/pkg/core"
)

// CameraConfig describes a perspective camera by position and yaw/pitch angles
type CameraConfig struct {
	Position core.Vec3 `yaml:"position"`
	Yaw      float32   `yaml:"yaw"`   // degrees, -90 looks down -Z
	Pitch    float32   `yaml:"pitch"` // degrees, positive looks down
	VFov     float32   `yaml:"vfov"`  // vertical field of view in degrees
	Near     float32   `yaml:"near"`
	Far      float32   `yaml:"far"`
}

// DefaultCameraConfig returns a camera ten units back on +Z looking at the origin
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Position: core.NewVec3(0, 0, 10),
		Yaw:      -90,
		Pitch:    0,
		VFov:     65,
		Near:     0.1,
		Far:      1000,
	}
}

// LookAt returns the default camera moved to position and turned toward target
func LookAt(position, target core.Vec3) CameraConfig {
	cfg := DefaultCameraConfig()
	cfg.Position = position

	dir := target.Subtract(position).Normalize()
	if dir.IsZero() {
		return cfg
	}
	cfg.Pitch = mgl32.RadToDeg(-math32.Asin(dir.Y))
	cfg.Yaw = mgl32.RadToDeg(math32.Atan2(dir.Z, dir.X))
	return cfg
}

// Front returns the unit view direction
func (c CameraConfig) Front() core.Vec3 {
	pitch := mgl32.DegToRad(max(-89, min(89, c.Pitch)))
	yaw := mgl32.DegToRad(c.Yaw)
	return core.NewVec3(
		math32.Cos(pitch)*math32.Cos(yaw),
		-math32.Sin(pitch),
		math32.Cos(pitch)*math32.Sin(yaw),
	).Normalize()
}

// Camera generates primary rays from inverse view and projection matrices
type Camera struct {
	config      CameraConfig
	width       int
	height      int
	viewInverse mgl32.Mat4
	projInverse mgl32.Mat4
	origin      core.Vec3
}

// NewCamera creates a camera for an image of width x height pixels
func NewCamera(config CameraConfig, width, height int) *Camera {
	eye := toMgl(config.Position)
	front := toMgl(config.Front())
	view := mgl32.LookAtV(eye, eye.Add(front), mgl32.Vec3{0, 1, 0})

	aspect := float32(width) / float32(height)
	proj := mgl32.Perspective(mgl32.DegToRad(config.VFov), aspect, config.Near, config.Far)
	// Image rows grow downward
	proj.Set(1, 1, -proj.At(1, 1))

	viewInverse := view.Inv()
	origin := viewInverse.Mul4x1(mgl32.Vec4{0, 0, 0, 1})

	return &Camera{
		config:      config,
		width:       width,
		height:      height,
		viewInverse: viewInverse,
		projInverse: proj.Inv(),
		origin:      core.NewVec3(origin[0], origin[1], origin[2]),
	}
}

// Config returns the camera's configuration
func (c *Camera) Config() CameraConfig { return c.config }

// GetRay returns the ray through image position (x, y) in pixels, where
// (i+0.5, j+0.5) is the center of pixel (i, j) and row 0 is the top
func (c *Camera) GetRay(x, y float32) core.Ray {
	dx := x/float32(c.width)*2 - 1
	dy := y/float32(c.height)*2 - 1

	target := c.projInverse.Mul4x1(mgl32.Vec4{dx, dy, 1, 1})
	dir := c.viewInverse.Mul4x1(target.Vec3().Normalize().Vec4(0))

	return core.NewRay(c.origin, core.NewVec3(dir[0], dir[1], dir[2]).Normalize())
}

func toMgl(v core.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}
