package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeading(t *testing.T) {
	h := Heading(90)
	assert.InDelta(t, 0, h.X, 1e-12)
	assert.InDelta(t, 1, h.Y, 1e-12)
	assert.InDelta(t, 1, Heading(37).Len(), 1e-12)
}

func TestSegmentDistance(t *testing.T) {
	s := Segment{A: Vec2{0, 0}, B: Vec2{10, 0}}
	tests := []struct {
		name string
		p    Vec2
		want float64
	}{
		{"above middle", Vec2{5, 3}, 3},
		{"past end", Vec2{13, 4}, 5},
		{"before start", Vec2{-3, 0}, 3},
		{"on segment", Vec2{2, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.DistanceTo(tt.p), 1e-12)
		})
	}

	point := Segment{A: Vec2{1, 1}, B: Vec2{1, 1}}
	assert.InDelta(t, math.Sqrt2, point.DistanceTo(Vec2{2, 2}), 1e-12)
}

func TestSegmentIntersect(t *testing.T) {
	wall := Segment{A: Vec2{5, -1}, B: Vec2{5, 1}}

	d, ok := wall.Intersect(Vec2{0, 0}, Vec2{1, 0})
	require.True(t, ok)
	assert.InDelta(t, 5, d, 1e-12)

	_, ok = wall.Intersect(Vec2{0, 0}, Vec2{-1, 0})
	assert.False(t, ok, "wall behind the ray")

	_, ok = wall.Intersect(Vec2{0, 0}, Vec2{0, 1})
	assert.False(t, ok, "parallel ray")

	_, ok = wall.Intersect(Vec2{0, 3}, Vec2{1, 0})
	assert.False(t, ok, "ray passes beyond the wall's end")
}

func TestCastRayNearest(t *testing.T) {
	walls := []Segment{
		{A: Vec2{8, -1}, B: Vec2{8, 1}},
		{A: Vec2{3, -1}, B: Vec2{3, 1}},
	}
	d, ok := CastRay(walls, Vec2{0, 0}, Vec2{1, 0}, 6)
	require.True(t, ok)
	assert.InDelta(t, 3, d, 1e-12)

	_, ok = CastRay(walls[:1], Vec2{0, 0}, Vec2{1, 0}, 6)
	assert.False(t, ok, "hit beyond max distance")
}
