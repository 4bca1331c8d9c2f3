package renderer

import (
	"image/color"

	"github.com/df07/go-hitshade/pkg/accel"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/scene"
	"github.com/df07/go-hitshade/pkg/shader"
)

// Primary rays are traced over this distance range
const (
	PrimaryTMin float32 = 0.001
	PrimaryTMax float32 = 10000
)

// RayColorer returns the color a primary ray carries back
type RayColorer interface {
	RayColor(ray core.Ray) core.Vec3
}

// Raytracer dispatches primary rays: a closest-hit query against the scene,
// then the closest-hit program on a hit or the miss program otherwise
type Raytracer struct {
	structure  *accel.Structure
	closestHit *shader.ClosestHit
	miss       shader.Miss
}

// NewRaytracer binds the scene's resources to the hit and miss programs
func NewRaytracer(s *scene.Scene, opts shader.Options) *Raytracer {
	return &Raytracer{
		structure:  s.Structure,
		closestHit: shader.NewClosestHit(s.Bindings(), opts),
		miss:       shader.NewMiss(s.ClearColor),
	}
}

// ClosestHit returns the bound closest-hit program
func (rt *Raytracer) ClosestHit() *shader.ClosestHit {
	return rt.closestHit
}

// trace runs the closest-hit query and builds the hit context for it
func (rt *Raytracer) trace(ray core.Ray) (shader.HitContext, bool) {
	ctx := shader.HitContext{RayOrigin: ray.Origin, RayDirection: ray.Direction}

	hit, ok := rt.structure.ClosestHit(ray, PrimaryTMin, PrimaryTMax)
	if !ok {
		return ctx, false
	}
	ctx.PrimitiveID = hit.PrimitiveID
	ctx.Barycentrics = core.NewVec2(hit.U, hit.V)
	ctx.HitT = hit.T
	return ctx, true
}

// RayColor implements RayColorer
func (rt *Raytracer) RayColor(ray core.Ray) core.Vec3 {
	ctx, ok := rt.trace(ray)
	if !ok {
		return rt.miss.Shade(ctx)
	}
	return rt.closestHit.Shade(ctx)
}

// Inspection describes what a single primary ray saw
type Inspection struct {
	Hit     bool
	HitT    float32
	Sample  shader.Sample // zero on a miss
	Color   core.Vec3
	Context shader.HitContext
}

// Inspect traces ray and returns the intermediate shading terms
func (rt *Raytracer) Inspect(ray core.Ray) Inspection {
	ctx, ok := rt.trace(ray)
	if !ok {
		return Inspection{Color: rt.miss.Shade(ctx), Context: ctx}
	}

	sample := rt.closestHit.Inspect(ctx)
	return Inspection{
		Hit:     true,
		HitT:    ctx.HitT,
		Sample:  sample,
		Color:   sample.Color,
		Context: ctx,
	}
}

// vec3ToColor converts a linear color to RGBA, clamping to [0,1] after the
// optional gamma correction. Gamma 1 writes the payload unmodified.
func vec3ToColor(colorVec core.Vec3, gamma float32) color.RGBA {
	if gamma > 0 {
		colorVec = colorVec.GammaCorrect(gamma)
	}
	colorVec = colorVec.Clamp(0, 1)

	return color.RGBA{
		R: uint8(255 * colorVec.X),
		G: uint8(255 * colorVec.Y),
		B: uint8(255 * colorVec.Z),
		A: 255,
	}
}
