package material

import (
	"github.com/df07/go-hitshade/pkg/core"
)

// MetallicRoughness is the glTF 2.0 pbrMetallicRoughness factor set
type MetallicRoughness struct {
	BaseColorFactor [4]float32 // linear RGBA
	Metallic        float32
	Roughness       float32
}

// DefaultMetallicRoughness returns the material used when a model carries none
func DefaultMetallicRoughness() MetallicRoughness {
	return MetallicRoughness{
		BaseColorFactor: [4]float32{0.7, 0.7, 0.7, 1.0},
		Metallic:        0,
		Roughness:       0,
	}
}

// BaseColor returns the RGB part of the base color factor
func (m MetallicRoughness) BaseColor() core.Vec3 {
	return core.NewVec3(m.BaseColorFactor[0], m.BaseColorFactor[1], m.BaseColorFactor[2])
}
