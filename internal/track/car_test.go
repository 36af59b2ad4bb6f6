package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCarAcceleratesTowardRequestedSpeed(t *testing.T) {
	c := NewCar(Pose{})
	c.SetInputs(0, 0.5)
	for i := 0; i < 1000; i++ {
		c.Step(0.02)
	}
	assert.InDelta(t, 0.5*MaxVelocity, c.Velocity, Acceleration*0.5*0.02+1e-9)
	assert.Greater(t, c.Pos.X, 0.0)
	assert.InDelta(t, 0, c.Pos.Y, 1e-9)
}

func TestCarClampsInputs(t *testing.T) {
	c := NewCar(Pose{})
	c.SetInputs(-3, 7)
	turn, engine := c.Inputs()
	assert.Equal(t, -1.0, turn)
	assert.Equal(t, 1.0, engine)

	for i := 0; i < 5000; i++ {
		c.Step(0.02)
	}
	assert.LessOrEqual(t, c.Velocity, MaxVelocity)
}

func TestCarFrictionStopsWithoutEngine(t *testing.T) {
	c := NewCar(Pose{})
	c.Velocity = 1
	c.SetInputs(0, 0)
	for i := 0; i < 100; i++ {
		c.Step(0.02)
	}
	assert.Zero(t, c.Velocity)

	c.Velocity = -1
	for i := 0; i < 100; i++ {
		c.Step(0.02)
	}
	assert.Zero(t, c.Velocity)
}

func TestCarTurns(t *testing.T) {
	c := NewCar(Pose{Heading: 90})
	c.SetInputs(1, 0)
	c.Step(0.5)
	assert.InDelta(t, 90-TurnSpeed*0.5, c.Heading, 1e-9)
}
