package track

import (
	"encoding/json"
	"os"
)

// Trace records a sampled path of one run for later inspection.
type Trace struct {
	Course string   `json:"course"`
	Every  int      `json:"every"`
	Points []Sample `json:"points"`
	Final  RunStats `json:"final"`
}

// Sample is one recorded car state.
type Sample struct {
	Tick       int     `json:"tick"`
	Pos        Vec2    `json:"pos"`
	Heading    float64 `json:"heading"`
	Velocity   float64 `json:"velocity"`
	Completion float64 `json:"completion"`
}

// NewTrace creates a trace that samples every n ticks.
func NewTrace(course string, every int) *Trace {
	if every <= 0 {
		every = 1
	}
	return &Trace{Course: course, Every: every, Points: make([]Sample, 0, 256)}
}

// Observe is a TickObserver that records every Every-th tick.
func (t *Trace) Observe(tick int, car *Car, completion float64) {
	if tick%t.Every != 0 {
		return
	}
	t.Points = append(t.Points, Sample{
		Tick:       tick,
		Pos:        car.Pos,
		Heading:    car.Heading,
		Velocity:   car.Velocity,
		Completion: completion,
	})
}

// SetFinalStats sets the final run statistics.
func (t *Trace) SetFinalStats(stats RunStats) {
	t.Final = stats
}

// Save writes the trace to a file.
func (t *Trace) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadTrace loads a trace from a file.
func LoadTrace(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
