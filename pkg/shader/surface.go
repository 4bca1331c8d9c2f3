package shader

import (
	"fmt"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
)

// Surface decides the unlit color of a hit
type Surface interface {
	Albedo(b *Bindings, slot int, uv core.Vec2) core.Vec3
}

// FlatSurface ignores materials and returns one color
type FlatSurface struct {
	Color core.Vec3
}

// DefaultFlatColor is the gray used when no material drives the surface
var DefaultFlatColor = core.NewVec3(0.7, 0.7, 0.7)

// Albedo returns the flat color
func (s FlatSurface) Albedo(*Bindings, int, core.Vec2) core.Vec3 {
	return s.Color
}

// PhongMaterialSurface uses the selected Phong material's diffuse color,
// modulated by its diffuse map when one is bound
type PhongMaterialSurface struct{}

// Albedo returns diffuse * texture(uv)
func (PhongMaterialSurface) Albedo(b *Bindings, slot int, uv core.Vec2) core.Vec3 {
	mat := b.Materials.Phong(slot)
	albedo := mat.Diffuse
	if mat.HasTexture() && int(mat.TextureID) < len(b.Textures) {
		albedo = albedo.MultiplyVec(b.Textures[mat.TextureID].Evaluate(uv))
	}
	return albedo
}

// BaseColorSurface uses the selected metallic-roughness material's base color
type BaseColorSurface struct{}

// Albedo returns baseColorFactor.rgb
func (BaseColorSurface) Albedo(b *Bindings, slot int, _ core.Vec2) core.Vec3 {
	return b.Materials.MetallicRoughness(slot).BaseColor()
}

// MaterialSelector picks the material slot for a triangle
type MaterialSelector interface {
	Select(b *Bindings, primitiveID int, tri [3]uint32) int
}

// FixedSlot always selects the same slot
type FixedSlot int

// Select returns the fixed slot
func (s FixedSlot) Select(*Bindings, int, [3]uint32) int {
	return int(s)
}

// PerVertexMaterial reads the material index stored on the triangle's first vertex
type PerVertexMaterial struct{}

// Select returns the first vertex's material index
func (PerVertexMaterial) Select(b *Bindings, _ int, tri [3]uint32) int {
	return int(b.Vertices.Vertex(tri[0]).MaterialIndex)
}

// PerTriangleMaterial reads Bindings.TriangleMaterials, falling back to slot 0
// when the table does not cover the primitive
type PerTriangleMaterial struct{}

// Select returns the primitive's material slot
func (PerTriangleMaterial) Select(b *Bindings, primitiveID int, _ [3]uint32) int {
	if primitiveID < len(b.TriangleMaterials) {
		return int(b.TriangleMaterials[primitiveID])
	}
	return 0
}

// Mode names a surface/selector pairing
type Mode string

const (
	// ModeDelivered is the flat gray (Phong) or slot 0 base color (metallic-roughness)
	ModeDelivered Mode = "delivered"
	// ModeMaterial drives color from the per-vertex or per-triangle material
	ModeMaterial Mode = "material"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDelivered, ModeMaterial:
		return Mode(s), nil
	case "":
		return ModeDelivered, nil
	default:
		return "", fmt.Errorf("shader: unknown mode %q", s)
	}
}

// strategies returns the surface and selector for a variant and mode
func strategies(variant buffers.Variant, mode Mode) (Surface, MaterialSelector) {
	switch {
	case variant == buffers.VariantPhong && mode == ModeMaterial:
		return PhongMaterialSurface{}, PerVertexMaterial{}
	case variant == buffers.VariantPhong:
		return FlatSurface{Color: DefaultFlatColor}, FixedSlot(0)
	case mode == ModeMaterial:
		return BaseColorSurface{}, PerTriangleMaterial{}
	default:
		return BaseColorSurface{}, FixedSlot(0)
	}
}
