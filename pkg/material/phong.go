package material

import (
	"github.com/df07/go-hitshade/pkg/core"
)

// NoTexture marks a Phong material without a diffuse map
const NoTexture int32 = -1

// Phong is the Wavefront MTL style material record
type Phong struct {
	Ambient       core.Vec3
	Diffuse       core.Vec3
	Specular      core.Vec3
	Transmittance core.Vec3
	Emission      core.Vec3
	Shininess     float32
	IOR           float32
	Dissolve      float32 // 1 == opaque, 0 == fully transparent
	Illum         int32   // MTL illumination model
	TextureID     int32   // index into the bound textures, NoTexture if unset
}

// DefaultPhong returns the material used when a model carries none
func DefaultPhong() Phong {
	return Phong{
		Ambient:       core.NewVec3(0.1, 0.1, 0.1),
		Diffuse:       core.NewVec3(0.7, 0.7, 0.7),
		Specular:      core.NewVec3(1, 1, 1),
		Transmittance: core.NewVec3(0, 0, 0),
		Emission:      core.NewVec3(0, 0, 0.1),
		Shininess:     0,
		IOR:           1,
		Dissolve:      1,
		Illum:         0,
		TextureID:     NoTexture,
	}
}

// HasTexture reports whether the material references a diffuse map
func (p Phong) HasTexture() bool {
	return p.TextureID >= 0
}
