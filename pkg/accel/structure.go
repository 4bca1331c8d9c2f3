// Package accel builds and traverses the bounding volume hierarchy that
// primary and shadow rays are traced against.
package accel

import (
	"sort"

	"github.com/df07/go-hitshade/pkg/buffers"
	"github.com/df07/go-hitshade/pkg/core"
)

// RayFlags modify how a trace walks the hierarchy and what it reports
type RayFlags uint32

const (
	RayFlagsNone RayFlags = 0
	// RayFlagOpaque treats every primitive as opaque. All geometry built by
	// this package is opaque, so the flag is accepted for parity with shadow
	// ray call sites.
	RayFlagOpaque RayFlags = 1 << iota
	// RayFlagTerminateOnFirstHit stops at the first accepted intersection
	// instead of searching for the closest one
	RayFlagTerminateOnFirstHit
	// RayFlagSkipClosestHit tells the dispatcher not to run the closest-hit
	// shader for the reported hit; traversal ignores it
	RayFlagSkipClosestHit
)

// ShadowRayFlags are the flags used for occlusion queries toward a light
const ShadowRayFlags = RayFlagTerminateOnFirstHit | RayFlagOpaque | RayFlagSkipClosestHit

// Has reports whether all bits of flag are set
func (f RayFlags) Has(flag RayFlags) bool {
	return f&flag == flag
}

// Hit is what a trace reports about an intersection
type Hit struct {
	PrimitiveID int
	U, V        float32 // barycentrics of the second and third corner
	T           float32 // distance along the ray
}

// Leaf threshold: if we have this many or fewer triangles, store them in a leaf node
const leafThreshold = 8

type node struct {
	bbox        core.AABB
	left, right *node
	triangles   []triangle // non-nil only for leaves
}

// Structure is an immutable BVH over the triangles of an index buffer.
// It is safe for concurrent traversal.
type Structure struct {
	root          *node
	triangleCount int
}

// Build constructs the hierarchy from the positions referenced by indices
func Build(vertices *buffers.VertexBuffer, indices *buffers.IndexBuffer) *Structure {
	count := indices.TriangleCount()
	if count == 0 {
		return &Structure{}
	}

	triangles := make([]triangle, count)
	for prim := 0; prim < count; prim++ {
		idx := indices.Triangle(prim)
		v0 := vertices.Position(idx[0])
		v1 := vertices.Position(idx[1])
		v2 := vertices.Position(idx[2])
		triangles[prim] = triangle{
			id:   prim,
			v0:   v0,
			v1:   v1,
			v2:   v2,
			bbox: core.NewAABBFromPoints(v0, v1, v2),
		}
	}

	return &Structure{root: build(triangles), triangleCount: count}
}

// build recursively splits at the median along the longest axis
func build(triangles []triangle) *node {
	bbox := triangles[0].bbox
	for i := 1; i < len(triangles); i++ {
		bbox = bbox.Union(triangles[i].bbox)
	}

	if len(triangles) <= leafThreshold {
		return &node{bbox: bbox, triangles: triangles}
	}

	axis := bbox.LongestAxis()
	sort.Slice(triangles, func(i, j int) bool {
		return triangles[i].bbox.Center().Axis(axis) < triangles[j].bbox.Center().Axis(axis)
	})

	mid := len(triangles) / 2
	return &node{
		bbox:  bbox,
		left:  build(triangles[:mid]),
		right: build(triangles[mid:]),
	}
}

// TriangleCount returns the number of primitives in the hierarchy
func (s *Structure) TriangleCount() int { return s.triangleCount }

// Bounds returns the bounding box of all primitives
func (s *Structure) Bounds() core.AABB {
	if s.root == nil {
		return core.AABB{}
	}
	return s.root.bbox
}

// ClosestHit finds the nearest intersection in [tMin, tMax]
func (s *Structure) ClosestHit(ray core.Ray, tMin, tMax float32) (Hit, bool) {
	return s.Trace(ray, tMin, tMax, RayFlagsNone)
}

// Trace walks the hierarchy honoring flags
func (s *Structure) Trace(ray core.Ray, tMin, tMax float32, flags RayFlags) (Hit, bool) {
	if s.root == nil {
		return Hit{}, false
	}
	return s.hitNode(s.root, ray, tMin, tMax, flags.Has(RayFlagTerminateOnFirstHit))
}

// Occluded reports whether anything lies along the ray within [tMin, tMax]
func (s *Structure) Occluded(ray core.Ray, tMin, tMax float32, flags RayFlags) bool {
	_, hit := s.Trace(ray, tMin, tMax, flags|RayFlagTerminateOnFirstHit)
	return hit
}

func (s *Structure) hitNode(n *node, ray core.Ray, tMin, tMax float32, firstHit bool) (Hit, bool) {
	if !n.bbox.Hit(ray, tMin, tMax) {
		return Hit{}, false
	}

	var closest Hit
	hitAnything := false
	closestSoFar := tMax

	if n.triangles != nil {
		for i := range n.triangles {
			if hit, ok := n.triangles[i].intersect(ray, tMin, closestSoFar); ok {
				if firstHit {
					return hit, true
				}
				hitAnything = true
				closestSoFar = hit.T
				closest = hit
			}
		}
		return closest, hitAnything
	}

	for _, child := range [2]*node{n.left, n.right} {
		if hit, ok := s.hitNode(child, ray, tMin, closestSoFar, firstHit); ok {
			if firstHit {
				return hit, true
			}
			hitAnything = true
			closestSoFar = hit.T
			closest = hit
		}
	}

	return closest, hitAnything
}

// Stats describes the shape of the hierarchy
type Stats struct {
	TotalNodes int
	LeafNodes  int
	MaxDepth   int
	AvgDepth   float64
	Triangles  int
}

// Stats walks the hierarchy and collects its statistics
func (s *Structure) Stats() Stats {
	var stats Stats
	if s.root == nil {
		return stats
	}

	collectStats(s.root, 0, &stats)
	if stats.LeafNodes > 0 {
		stats.AvgDepth /= float64(stats.LeafNodes)
	}
	return stats
}

func collectStats(n *node, depth int, stats *Stats) {
	stats.TotalNodes++
	stats.MaxDepth = max(stats.MaxDepth, depth)

	if n.triangles != nil {
		stats.LeafNodes++
		stats.Triangles += len(n.triangles)
		stats.AvgDepth += float64(depth)
		return
	}
	collectStats(n.left, depth+1, stats)
	collectStats(n.right, depth+1, stats)
}
