package shader

import (
	"github.com/df07/go-hitshade/pkg/accel"
	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
)

// Options tune the closest-hit program
type Options struct {
	LightDirection    core.Vec3 // toward the light, normalized on use
	AmbientFloor      float32   // lower bound of the diffuse term
	ShadowAttenuation float32   // multiplier applied to shadowed hits
	ShadowTMin        float32
	ShadowTMax        float32
	Surface           Surface
	Selector          MaterialSelector
}

// DefaultOptions returns the fixed light setup with the given variant's strategies
func DefaultOptions(variant buffers.Variant, mode Mode) Options {
	surface, selector := strategies(variant, mode)
	return Options{
		LightDirection:    core.NewVec3(5, 4, 3),
		AmbientFloor:      0.2,
		ShadowAttenuation: 0.3,
		ShadowTMin:        0.001,
		ShadowTMax:        100.0,
		Surface:           surface,
		Selector:          selector,
	}
}

// Sample holds the intermediate terms of one shading invocation
type Sample struct {
	PrimitiveID   int
	Normal        core.Vec3
	TexCoord      core.Vec2
	DiffuseTerm   float32
	MaterialIndex int
	Albedo        core.Vec3
	BaseColor     core.Vec3
	Shadowed      bool
	Color         core.Vec3
}

// ClosestHit shades primary ray hits. It holds no mutable state and may be
// invoked from any number of goroutines.
type ClosestHit struct {
	bindings Bindings
	opts     Options
	lightDir core.Vec3
}

// NewClosestHit binds resources and options. Missing strategies fall back to
// the flat surface and slot 0.
func NewClosestHit(bindings Bindings, opts Options) *ClosestHit {
	if opts.Surface == nil {
		opts.Surface = FlatSurface{Color: DefaultFlatColor}
	}
	if opts.Selector == nil {
		opts.Selector = FixedSlot(0)
	}
	if opts.LightDirection.IsZero() {
		opts.LightDirection = core.NewVec3(5, 4, 3)
	}
	return &ClosestHit{
		bindings: bindings,
		opts:     opts,
		lightDir: opts.LightDirection.Normalize(),
	}
}

// LightDirection returns the normalized direction toward the light
func (c *ClosestHit) LightDirection() core.Vec3 {
	return c.lightDir
}

// Shade returns the color of a hit. It has no failure path: out of range
// primitive ids or material slots are the caller's precondition.
func (c *ClosestHit) Shade(ctx HitContext) core.Vec3 {
	return c.Inspect(ctx).Color
}

// Inspect runs the closest-hit program and reports every intermediate term
func (c *ClosestHit) Inspect(ctx HitContext) Sample {
	b := &c.bindings

	tri := b.Indices.Triangle(ctx.PrimitiveID)
	v0 := b.Vertices.Vertex(tri[0])
	v1 := b.Vertices.Vertex(tri[1])
	v2 := b.Vertices.Vertex(tri[2])

	w0, w1, w2 := ctx.Weights()
	normal := v0.Normal.Multiply(w0).
		Add(v1.Normal.Multiply(w1)).
		Add(v2.Normal.Multiply(w2)).
		Normalize()
	uv := v0.TexCoord.Multiply(w0).
		Add(v1.TexCoord.Multiply(w1)).
		Add(v2.TexCoord.Multiply(w2))

	diffuse := max(c.lightDir.Dot(normal), c.opts.AmbientFloor)

	slot := c.opts.Selector.Select(b, ctx.PrimitiveID, tri)
	albedo := c.opts.Surface.Albedo(b, slot, uv)
	base := albedo.Multiply(diffuse)

	shadowed := c.traceShadow(ctx.HitPoint())

	color := base
	if shadowed {
		color = base.Multiply(c.opts.ShadowAttenuation)
	}

	return Sample{
		PrimitiveID:   ctx.PrimitiveID,
		Normal:        normal,
		TexCoord:      uv,
		DiffuseTerm:   diffuse,
		MaterialIndex: slot,
		Albedo:        albedo,
		BaseColor:     base,
		Shadowed:      shadowed,
		Color:         color,
	}
}

// traceShadow casts one ray toward the light. The payload starts shadowed and
// only the shadow miss program clears it.
func (c *ClosestHit) traceShadow(origin core.Vec3) bool {
	payload := ShadowPayload{Shadowed: true}

	ray := core.NewRay(origin, c.lightDir)
	if !c.bindings.Scene.Occluded(ray, c.opts.ShadowTMin, c.opts.ShadowTMax, accel.ShadowRayFlags) {
		ShadowMiss(&payload)
	}
	return payload.Shadowed
}
