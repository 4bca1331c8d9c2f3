// Package shader implements the closest-hit and miss programs that turn a
// ray/triangle intersection into a color.
package shader

import (
	"github.com/df07/go-hitshade/pkg/accel"
	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/material"
)

// Tracer answers shadow queries against the scene
type Tracer interface {
	Occluded(ray core.Ray, tMin, tMax float32, flags accel.RayFlags) bool
}

// Bindings are the read-only resources shared by every invocation
type Bindings struct {
	Scene     Tracer
	Vertices  *buffers.VertexBuffer
	Indices   *buffers.IndexBuffer
	Materials *buffers.MaterialBuffer
	Textures  []material.ColorSource

	// TriangleMaterials maps primitive id to material slot, used by
	// PerTriangleMaterial. Loaders that know per-primitive materials fill it.
	TriangleMaterials []int32
}

// HitContext is what the traversal stage hands to a closest-hit invocation
type HitContext struct {
	PrimitiveID  int
	Barycentrics core.Vec2 // (u, v); the first corner's weight is 1-u-v
	RayOrigin    core.Vec3
	RayDirection core.Vec3
	HitT         float32
}

// HitPoint returns origin + direction * t
func (h HitContext) HitPoint() core.Vec3 {
	return h.RayOrigin.Add(h.RayDirection.Multiply(h.HitT))
}

// Weights returns the barycentric weights of the three corners
func (h HitContext) Weights() (w0, w1, w2 float32) {
	return 1 - h.Barycentrics.X - h.Barycentrics.Y, h.Barycentrics.X, h.Barycentrics.Y
}

// ShadowPayload is the per-invocation state of a shadow ray
type ShadowPayload struct {
	Shadowed bool
}

// ShadowMiss is the miss program of the shadow ray; it is the only writer that
// clears the flag
func ShadowMiss(payload *ShadowPayload) {
	payload.Shadowed = false
}

// Miss returns the clear color for rays that hit nothing
type Miss struct {
	ClearColor [4]float32
}

// NewMiss creates a miss program for the given RGBA clear color
func NewMiss(clearColor [4]float32) Miss {
	return Miss{ClearColor: clearColor}
}

// Shade returns the clear color's RGB and ignores the hit context
func (m Miss) Shade(HitContext) core.Vec3 {
	return core.NewVec3(m.ClearColor[0], m.ClearColor[1], m.ClearColor[2])
}
