package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAABB_Hit(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name     string
		ray      Ray
		expected bool
	}{
		{"straight through", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), true},
		{"pointing away", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, 1)), false},
		{"parallel outside slab", NewRay(NewVec3(2, 0, 5), NewVec3(0, 0, -1)), false},
		{"diagonal", NewRay(NewVec3(-5, -5, -5), NewVec3(1, 1, 1).Normalize()), true},
		{"origin inside", NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, box.Hit(tt.ray, 0.001, 1000))
		})
	}
}

func TestAABB_HitRespectsRange(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))
	ray := NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1))

	assert.False(t, box.Hit(ray, 0.001, 3), "box starts at t=4")
	assert.True(t, box.Hit(ray, 0.001, 4.5))
}

func TestAABB_FromPointsAndUnion(t *testing.T) {
	a := NewAABBFromPoints(NewVec3(1, 0, 0), NewVec3(-1, 2, 3), NewVec3(0, -4, 1))
	assert.Equal(t, NewVec3(-1, -4, 0), a.Min)
	assert.Equal(t, NewVec3(1, 2, 3), a.Max)
	assert.Equal(t, 1, a.LongestAxis())

	b := NewAABB(NewVec3(5, 5, 5), NewVec3(6, 6, 6))
	u := a.Union(b)
	assert.Equal(t, NewVec3(-1, -4, 0), u.Min)
	assert.Equal(t, NewVec3(6, 6, 6), u.Max)
	assert.True(t, u.IsValid())
}
