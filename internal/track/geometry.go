package track

import "math"

// Vec2 is a point or direction on the track plane.
type Vec2 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }

// Heading returns the unit vector for an angle in degrees, 0 pointing along +X.
func Heading(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	return Vec2{math.Cos(rad), math.Sin(rad)}
}

// Segment is a wall between two points.
type Segment struct {
	A, B Vec2
}

// DistanceTo returns the shortest distance from p to the segment.
func (s Segment) DistanceTo(p Vec2) float64 {
	ab := s.B.Sub(s.A)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Dist(s.A)
	}
	t := p.Sub(s.A).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Dist(s.A.Add(ab.Scale(t)))
}

// Intersect returns the distance along a unit ray from origin to the segment.
func (s Segment) Intersect(origin, dir Vec2) (float64, bool) {
	edge := s.B.Sub(s.A)
	denom := dir.Cross(edge)
	if denom == 0 {
		return 0, false
	}
	diff := s.A.Sub(origin)
	t := diff.Cross(edge) / denom
	u := diff.Cross(dir) / denom
	if t < 0 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

// CastRay returns the distance to the nearest wall along dir, capped at maxDist.
func CastRay(walls []Segment, origin, dir Vec2, maxDist float64) (float64, bool) {
	best := maxDist
	hit := false
	for _, w := range walls {
		if d, ok := w.Intersect(origin, dir); ok && d < best {
			best = d
			hit = true
		}
	}
	return best, hit
}
