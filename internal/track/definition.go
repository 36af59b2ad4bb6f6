package track

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the on-disk form of a course.
type Definition struct {
	Name        string          `yaml:"name"`
	Start       StartDef        `yaml:"start"`
	Walls       []Polyline      `yaml:"walls"`
	Checkpoints []CheckpointDef `yaml:"checkpoints"`
}

// StartDef is the car's spawn pose.
type StartDef struct {
	Pos     Vec2    `yaml:"pos"`
	Heading float64 `yaml:"heading"`
}

// Polyline is a chain of wall segments, optionally closed back to its first point.
type Polyline struct {
	Points []Vec2 `yaml:"points"`
	Closed bool   `yaml:"closed"`
}

// CheckpointDef is a checkpoint position with an optional capture radius.
type CheckpointDef struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius,omitempty"`
}

// Segments expands the polyline into wall segments.
func (p Polyline) Segments() []Segment {
	if len(p.Points) < 2 {
		return nil
	}
	out := make([]Segment, 0, len(p.Points))
	for i := 1; i < len(p.Points); i++ {
		out = append(out, Segment{A: p.Points[i-1], B: p.Points[i]})
	}
	if p.Closed && len(p.Points) > 2 {
		out = append(out, Segment{A: p.Points[len(p.Points)-1], B: p.Points[0]})
	}
	return out
}

// Build converts the definition into a Course.
func (d *Definition) Build() (*Course, error) {
	var walls []Segment
	for _, p := range d.Walls {
		walls = append(walls, p.Segments()...)
	}
	cps := make([]Checkpoint, len(d.Checkpoints))
	for i, cp := range d.Checkpoints {
		cps[i] = Checkpoint{Pos: Vec2{cp.X, cp.Y}, Radius: cp.Radius}
	}
	return NewCourse(d.Name, walls, cps, Pose{Pos: d.Start.Pos, Heading: d.Start.Heading})
}

// Load reads a YAML track definition from path.
func Load(path string) (*Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading track: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML track definition.
func Parse(data []byte) (*Course, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing track: %w", err)
	}
	return d.Build()
}

// DefaultDefinition is a rectangular loop, 10 units wide, driven counter-clockwise.
func DefaultDefinition() Definition {
	return Definition{
		Name:  "loop",
		Start: StartDef{Pos: Vec2{-10, -20}, Heading: 0},
		Walls: []Polyline{
			{Points: []Vec2{{-40, -25}, {40, -25}, {40, 25}, {-40, 25}}, Closed: true},
			{Points: []Vec2{{-30, -15}, {30, -15}, {30, 15}, {-30, 15}}, Closed: true},
		},
		Checkpoints: []CheckpointDef{
			{X: -10, Y: -20}, {X: 5, Y: -20}, {X: 20, Y: -20}, {X: 35, Y: -20},
			{X: 35, Y: 0}, {X: 35, Y: 20}, {X: 15, Y: 20}, {X: -5, Y: 20},
			{X: -20, Y: 20}, {X: -35, Y: 20}, {X: -35, Y: 0}, {X: -35, Y: -20},
			{X: -25, Y: -20},
		},
	}
}

// Default returns the built-in loop course.
func Default() *Course {
	d := DefaultDefinition()
	c, err := d.Build()
	if err != nil {
		panic(err)
	}
	return c
}
