package track

// Sensor ranges in track units.
const (
	SensorMaxDist = 6.0
	SensorMinDist = 0.01
)

// DefaultSensorAngles are the five forward-facing sensor directions, relative to heading.
var DefaultSensorAngles = []float64{-60, -30, 0, 30, 60}

// Sensors reads distances to the nearest wall in fixed directions relative to a car.
type Sensors struct {
	angles []float64
	buffer []float64
}

// NewSensors creates one sensor per angle.
func NewSensors(angles []float64) *Sensors {
	if len(angles) == 0 {
		angles = DefaultSensorAngles
	}
	return &Sensors{
		angles: append([]float64(nil), angles...),
		buffer: make([]float64, len(angles)),
	}
}

// Count returns the number of sensors, which is the controller input size.
func (s *Sensors) Count() int {
	return len(s.angles)
}

// Read fills and returns the sensor buffer with each reading as a share of
// SensorMaxDist. The returned slice is reused by the next call.
func (s *Sensors) Read(c *Course, car *Car) []float64 {
	for i, a := range s.angles {
		d, hit := CastRay(c.Walls, car.Pos, Heading(car.Heading+a), SensorMaxDist)
		if !hit {
			d = SensorMaxDist
		} else if d < SensorMinDist {
			d = SensorMinDist
		}
		s.buffer[i] = d / SensorMaxDist
	}
	return s.buffer
}
