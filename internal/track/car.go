package track

// Car movement constants.
const (
	MaxVelocity  = 20.0
	Acceleration = 8.0
	Friction     = 2.0
	TurnSpeed    = 100.0 // degrees per second at full input
)

// Car is a point-mass car steered by a turn input and an engine input, both in [-1, 1].
type Car struct {
	Pos      Vec2
	Heading  float64
	Velocity float64

	turn   float64
	engine float64
}

// NewCar places a car at pose, stationary.
func NewCar(p Pose) *Car {
	return &Car{Pos: p.Pos, Heading: p.Heading}
}

// SetInputs takes controller outputs in [turn, engine] order.
func (c *Car) SetInputs(turn, engine float64) {
	c.turn = clamp(turn)
	c.engine = clamp(engine)
}

// Inputs returns the clamped [turn, engine] inputs.
func (c *Car) Inputs() (float64, float64) {
	return c.turn, c.engine
}

// Step advances the car by dt seconds.
func (c *Car) Step(dt float64) {
	// Accelerate only while below the speed the engine input asks for.
	canAccelerate := false
	switch {
	case c.engine < 0:
		canAccelerate = c.Velocity > c.engine*MaxVelocity
	case c.engine > 0:
		canAccelerate = c.Velocity < c.engine*MaxVelocity
	}
	if canAccelerate {
		c.Velocity += c.engine * Acceleration * dt
		if c.Velocity > MaxVelocity {
			c.Velocity = MaxVelocity
		} else if c.Velocity < -MaxVelocity {
			c.Velocity = -MaxVelocity
		}
	}

	c.Heading -= c.turn * TurnSpeed * dt
	c.Pos = c.Pos.Add(Heading(c.Heading).Scale(c.Velocity * dt))

	if c.engine != 0 {
		return
	}
	if c.Velocity > 0 {
		c.Velocity -= Friction * dt
		if c.Velocity < 0 {
			c.Velocity = 0
		}
	} else if c.Velocity < 0 {
		c.Velocity += Friction * dt
		if c.Velocity > 0 {
			c.Velocity = 0
		}
	}
}

// Stop zeroes velocity.
func (c *Car) Stop() {
	c.Velocity = 0
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
