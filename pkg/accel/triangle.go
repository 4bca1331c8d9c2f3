package accel

import (
	"github.com/df07/go-hitshade/pkg/core"
)

// triangle caches one primitive's corner positions for traversal
type triangle struct {
	id         int
	v0, v1, v2 core.Vec3
	bbox       core.AABB
}

// intersect tests a ray against the triangle using the Möller-Trumbore algorithm.
// u weights v1 and v the v2 corner, matching the hit attributes a closest-hit
// shader receives.
func (tri *triangle) intersect(ray core.Ray, tMin, tMax float32) (Hit, bool) {
	const epsilon = 1e-8

	edge1 := tri.v1.Subtract(tri.v0)
	edge2 := tri.v2.Subtract(tri.v0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the plane of the triangle
	if a > -epsilon && a < epsilon {
		return Hit{}, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(tri.v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return Hit{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return Hit{}, false
	}

	t := f * edge2.Dot(q)
	if t < tMin || t > tMax {
		return Hit{}, false
	}

	return Hit{PrimitiveID: tri.id, U: u, V: v, T: t}, true
}
