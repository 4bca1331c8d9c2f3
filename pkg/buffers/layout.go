// Package buffers holds the flat float-vector storage the shaders read from.
// Records are packed into mgl32.Vec4 slots with a fixed stride per variant,
// validated once when a buffer is built. Accessors do no checking.
package buffers

import (
	"errors"
	"fmt"
	"math"
)

// Variant selects the vertex and material packing
type Variant int

const (
	// VariantPhong packs position, normal, uv and a material index per vertex
	// and the full MTL material record
	VariantPhong Variant = iota
	// VariantMetallicRoughness packs position, normal and uv per vertex
	// and the glTF base color / metallic / roughness factors
	VariantMetallicRoughness
)

func (v Variant) String() string {
	switch v {
	case VariantPhong:
		return "phong"
	case VariantMetallicRoughness:
		return "metallic-roughness"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant parses the names produced by Variant.String
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "phong":
		return VariantPhong, nil
	case "metallic-roughness", "metallic", "pbr":
		return VariantMetallicRoughness, nil
	default:
		return 0, fmt.Errorf("buffers: unknown variant %q", s)
	}
}

// Layout fixes the number of Vec4 slots per vertex and per material
type Layout struct {
	Variant        Variant
	VertexStride   int
	MaterialStride int
}

// Stride constants, in Vec4 slots
const (
	PhongVertexStride               = 3
	PhongMaterialStride             = 5
	MetallicRoughnessVertexStride   = 2
	MetallicRoughnessMaterialStride = 2
)

var (
	PhongLayout = Layout{
		Variant:        VariantPhong,
		VertexStride:   PhongVertexStride,
		MaterialStride: PhongMaterialStride,
	}
	MetallicRoughnessLayout = Layout{
		Variant:        VariantMetallicRoughness,
		VertexStride:   MetallicRoughnessVertexStride,
		MaterialStride: MetallicRoughnessMaterialStride,
	}
)

// LayoutFor returns the layout of a variant
func LayoutFor(v Variant) Layout {
	if v == VariantMetallicRoughness {
		return MetallicRoughnessLayout
	}
	return PhongLayout
}

// Validation errors returned by the buffer constructors
var (
	ErrStride           = errors.New("buffer length is not a multiple of the record stride")
	ErrIndexCount       = errors.New("index count is not a multiple of 3")
	ErrIndexRange       = errors.New("index out of range")
	ErrNoMaterials      = errors.New("material buffer is empty")
	ErrMaterialIndex    = errors.New("material index out of range")
	ErrLayoutMismatch   = errors.New("buffer layouts do not match")
	ErrEmptyVertexInput = errors.New("vertex buffer is empty")
)

// intBits stores an integer in a float slot, bit for bit
func intBits(i int32) float32 {
	return math.Float32frombits(uint32(i))
}

// bitsInt reads an integer stored with intBits
func bitsInt(f float32) int32 {
	return int32(math.Float32bits(f))
}
