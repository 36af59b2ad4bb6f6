package track

import (
	"errors"
	"fmt"
)

// DefaultCaptureRadius is used for checkpoints that do not set a radius.
const DefaultCaptureRadius = 3

var errCourse = errors.New("track: invalid course")

// Checkpoint is a point on the racing line that cars capture by passing within Radius.
type Checkpoint struct {
	Pos    Vec2
	Radius float64

	distanceToPrevious  float64
	accumulatedDistance float64
	rewardValue         float64
	accumulatedReward   float64
}

// rewardFor returns the share of this checkpoint's reward earned at distance d from it.
func (c *Checkpoint) rewardFor(d float64) float64 {
	if c.distanceToPrevious == 0 {
		return 0
	}
	complete := (c.distanceToPrevious - d) / c.distanceToPrevious
	if complete < 0 {
		return 0
	}
	return complete * c.rewardValue
}

// Pose is a position plus heading in degrees.
type Pose struct {
	Pos     Vec2
	Heading float64
}

// Course is a static track: walls, an ordered list of checkpoints, and a start pose.
// Checkpoint 0 is the start line; completion runs from 0 to 1.
type Course struct {
	Name        string
	Walls       []Segment
	Checkpoints []Checkpoint
	Start       Pose
	length      float64
}

// NewCourse validates the checkpoints and precomputes their rewards.
func NewCourse(name string, walls []Segment, checkpoints []Checkpoint, start Pose) (*Course, error) {
	if len(checkpoints) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 checkpoints, got %d", errCourse, len(checkpoints))
	}

	c := &Course{
		Name:        name,
		Walls:       append([]Segment(nil), walls...),
		Checkpoints: append([]Checkpoint(nil), checkpoints...),
		Start:       start,
	}
	for i := range c.Checkpoints {
		if c.Checkpoints[i].Radius <= 0 {
			c.Checkpoints[i].Radius = DefaultCaptureRadius
		}
	}

	cps := c.Checkpoints
	cps[0].accumulatedDistance = 0
	for i := 1; i < len(cps); i++ {
		cps[i].distanceToPrevious = cps[i].Pos.Dist(cps[i-1].Pos)
		cps[i].accumulatedDistance = cps[i-1].accumulatedDistance + cps[i].distanceToPrevious
	}
	c.length = cps[len(cps)-1].accumulatedDistance
	if c.length == 0 {
		return nil, fmt.Errorf("%w: checkpoints span no distance", errCourse)
	}

	for i := 1; i < len(cps); i++ {
		cps[i].rewardValue = cps[i].accumulatedDistance/c.length - cps[i-1].accumulatedReward
		cps[i].accumulatedReward = cps[i-1].accumulatedReward + cps[i].rewardValue
	}
	return c, nil
}

// Length returns the distance along the checkpoints from start to finish.
func (c *Course) Length() float64 {
	return c.length
}

// Progress returns the completion share for a car at pos whose next checkpoint
// is *next, capturing every checkpoint within reach and advancing *next past it.
// Coincident checkpoints are captured in the same call. It returns 1 once the
// last checkpoint has been captured.
func (c *Course) Progress(pos Vec2, next *int) (float64, int) {
	if *next < 1 {
		*next = 1
	}
	captured := 0
	for *next < len(c.Checkpoints) {
		cp := &c.Checkpoints[*next]
		d := pos.Dist(cp.Pos)
		if d <= cp.Radius {
			*next++
			captured++
			continue
		}
		return c.Checkpoints[*next-1].accumulatedReward + cp.rewardFor(d), captured
	}
	return 1, captured
}

// HitsWall reports whether a circle of radius r at pos touches any wall.
func (c *Course) HitsWall(pos Vec2, r float64) bool {
	for _, w := range c.Walls {
		if w.DistanceTo(pos) < r {
			return true
		}
	}
	return false
}
