package track

import (
	"context"
	"errors"
	"fmt"

	"neurocars/internal/agent"
)

// Simulation defaults.
const (
	DefaultTimeStep           = 0.02
	DefaultCarRadius          = 0.5
	DefaultMaxCheckpointDelay = 7.0 // seconds
	DefaultMaxTicks           = 6000
)

// ErrOutputSize is returned when a controller produces fewer than two outputs.
var ErrOutputSize = errors.New("track: controller must produce [turn, engine] outputs")

// TickObserver sees the car after every tick of a run.
type TickObserver func(tick int, car *Car, completion float64)

// Simulation drives agents around a course. It holds no per-run state and can
// run many agents concurrently.
type Simulation struct {
	course             *Course
	sensorAngles       []float64
	dt                 float64
	carRadius          float64
	maxCheckpointDelay float64
	maxTicks           int
}

// SimOption configures a Simulation.
type SimOption func(*Simulation)

// WithTimeStep sets the tick length in seconds.
func WithTimeStep(dt float64) SimOption {
	return func(s *Simulation) { s.dt = dt }
}

// WithMaxTicks caps the length of a run.
func WithMaxTicks(n int) SimOption {
	return func(s *Simulation) { s.maxTicks = n }
}

// WithMaxCheckpointDelay sets how long a car may go without capturing a checkpoint.
func WithMaxCheckpointDelay(seconds float64) SimOption {
	return func(s *Simulation) { s.maxCheckpointDelay = seconds }
}

// WithSensorAngles overrides the sensor directions.
func WithSensorAngles(angles []float64) SimOption {
	return func(s *Simulation) { s.sensorAngles = append([]float64(nil), angles...) }
}

// WithCarRadius sets the car's collision radius.
func WithCarRadius(r float64) SimOption {
	return func(s *Simulation) { s.carRadius = r }
}

// NewSimulation creates a simulation on course.
func NewSimulation(course *Course, opts ...SimOption) *Simulation {
	s := &Simulation{
		course:             course,
		sensorAngles:       DefaultSensorAngles,
		dt:                 DefaultTimeStep,
		carRadius:          DefaultCarRadius,
		maxCheckpointDelay: DefaultMaxCheckpointDelay,
		maxTicks:           DefaultMaxTicks,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dt <= 0 {
		s.dt = DefaultTimeStep
	}
	if s.maxTicks <= 0 {
		s.maxTicks = DefaultMaxTicks
	}
	if s.maxCheckpointDelay <= 0 {
		s.maxCheckpointDelay = DefaultMaxCheckpointDelay
	}
	return s
}

// Course returns the simulated course.
func (s *Simulation) Course() *Course {
	return s.course
}

// SensorCount returns the number of controller inputs the simulation provides.
func (s *Simulation) SensorCount() int {
	return len(s.sensorAngles)
}

// Run resets a, then drives it until it dies. The course completion reached is
// written to the genotype's evaluation every tick; a wall hit freezes it at the
// last value. The agent is always dead when Run returns.
func (s *Simulation) Run(ctx context.Context, a *agent.Agent, observers ...TickObserver) (RunStats, error) {
	a.Reset()
	defer a.Kill()

	car := NewCar(s.course.Start)
	sensors := NewSensors(s.sensorAngles)
	next := 1
	var (
		stats        RunStats
		sinceCapture float64
		completion   float64
	)

	for a.IsAlive() {
		if stats.Ticks%100 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		out, err := a.Process(sensors.Read(s.course, car))
		if err != nil {
			return stats, fmt.Errorf("processing sensors: %w", err)
		}
		if len(out) < 2 {
			return stats, fmt.Errorf("%w: got %d", ErrOutputSize, len(out))
		}
		car.SetInputs(out[0], out[1])

		prev := car.Pos
		car.Step(s.dt)
		stats.Ticks++
		stats.Distance += car.Pos.Dist(prev)

		for _, obs := range observers {
			obs(stats.Ticks, car, completion)
		}

		if s.course.HitsWall(car.Pos, s.carRadius) {
			car.Stop()
			stats.Death = DeathWall
			break
		}

		var captured int
		completion, captured = s.course.Progress(car.Pos, &next)
		a.Genotype().Evaluation = float32(completion)
		stats.Completion = completion
		stats.Checkpoints += captured

		switch {
		case completion >= 1:
			stats.Death = DeathFinish
		case captured > 0:
			sinceCapture = 0
		default:
			sinceCapture += s.dt
			if sinceCapture > s.maxCheckpointDelay {
				stats.Death = DeathStall
			}
		}
		if stats.Death == DeathNone && stats.Ticks >= s.maxTicks {
			stats.Death = DeathTimeout
		}
		if stats.Death != DeathNone {
			break
		}
	}
	return stats, nil
}
