package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"neurocars/internal/ga"
	"neurocars/internal/genotype"
	"neurocars/internal/nn"
	"neurocars/internal/track"
)

// Logger handles per-generation training output and artifact saving
type Logger struct {
	csvPath   string
	jsonPath  string
	console   io.Writer
	csvFile   *os.File
	csvWriter *csv.Writer
	jsonFile  *os.File
}

// NewLogger creates a new logger writing console lines to console. Nil console is silent.
func NewLogger(csvPath, jsonPath string, console io.Writer) (*Logger, error) {
	if console == nil {
		console = io.Discard
	}
	l := &Logger{
		csvPath:  csvPath,
		jsonPath: jsonPath,
		console:  console,
	}

	// Ensure directories exist
	if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return nil, err
	}

	return l, nil
}

// Init opens the log files, truncating previous content
func (l *Logger) Init() error {
	var err error

	l.csvFile, err = os.Create(l.csvPath)
	if err != nil {
		return err
	}
	l.csvWriter = csv.NewWriter(l.csvFile)

	header := []string{
		"run_id", "generation", "best_fitness", "best_evaluation", "mean_evaluation",
		"completed", "mean_ticks", "deaths_wall", "deaths_stall", "deaths_timeout", "deaths_finish",
	}
	if err := l.csvWriter.Write(header); err != nil {
		return err
	}
	l.csvWriter.Flush()

	l.jsonFile, err = os.OpenFile(l.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	return nil
}

// Close flushes and closes all log files
func (l *Logger) Close() error {
	var firstErr error
	if l.csvWriter != nil {
		l.csvWriter.Flush()
		firstErr = l.csvWriter.Error()
	}
	for _, f := range []*os.File{l.csvFile, l.jsonFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.csvFile, l.csvWriter, l.jsonFile = nil, nil, nil
	return firstErr
}

// GenerationSummary holds per-generation statistics
type GenerationSummary struct {
	RunID          string         `json:"run_id"`
	Generation     uint           `json:"generation"`
	BestFitness    float64        `json:"best_fitness"`
	BestEvaluation float64        `json:"best_evaluation"`
	MeanEvaluation float64        `json:"mean_evaluation"`
	Completed      int            `json:"completed"`
	MeanTicks      float64        `json:"mean_ticks"`
	DeathCounts    map[string]int `json:"death_counts"`
}

// Summarize builds the summary of a scored generation.
func Summarize(runID string, gen uint, pop []*genotype.Genotype, runs track.AggregatedStats) GenerationSummary {
	s := ga.Summarize(pop)
	summary := GenerationSummary{
		RunID:          runID,
		Generation:     gen,
		BestFitness:    float64(s.BestFitness),
		BestEvaluation: float64(s.BestEvaluation),
		MeanEvaluation: float64(s.MeanEvaluation),
		Completed:      runs.DeathCounts[track.DeathFinish],
		MeanTicks:      runs.TicksMean,
		DeathCounts:    make(map[string]int, len(runs.DeathCounts)),
	}
	for reason, count := range runs.DeathCounts {
		summary.DeathCounts[reason.String()] = count
	}
	return summary
}

// LogGeneration writes a summary to the CSV and JSONL files and the console
func (l *Logger) LogGeneration(summary GenerationSummary) error {
	if l.csvWriter != nil {
		row := []string{
			summary.RunID,
			strconv.FormatUint(uint64(summary.Generation), 10),
			fmt.Sprintf("%.4f", summary.BestFitness),
			fmt.Sprintf("%.4f", summary.BestEvaluation),
			fmt.Sprintf("%.4f", summary.MeanEvaluation),
			strconv.Itoa(summary.Completed),
			fmt.Sprintf("%.1f", summary.MeanTicks),
			strconv.Itoa(summary.DeathCounts[track.DeathWall.String()]),
			strconv.Itoa(summary.DeathCounts[track.DeathStall.String()]),
			strconv.Itoa(summary.DeathCounts[track.DeathTimeout.String()]),
			strconv.Itoa(summary.DeathCounts[track.DeathFinish.String()]),
		}
		if err := l.csvWriter.Write(row); err != nil {
			return err
		}
		l.csvWriter.Flush()
		if err := l.csvWriter.Error(); err != nil {
			return err
		}
	}

	if l.jsonFile != nil {
		line, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		if _, err := l.jsonFile.Write(append(line, '\n')); err != nil {
			return err
		}
	}

	fmt.Fprintf(l.console, "Gen %4d | Best: %6.3f | Mean: %6.3f | Fitness: %6.3f | Done: %d | Deaths: W=%d St=%d T=%d\n",
		summary.Generation, summary.BestEvaluation, summary.MeanEvaluation, summary.BestFitness, summary.Completed,
		summary.DeathCounts[track.DeathWall.String()], summary.DeathCounts[track.DeathStall.String()],
		summary.DeathCounts[track.DeathTimeout.String()])
	return nil
}

// Champion is a saved best genotype together with the topology it drives.
type Champion struct {
	RunID      string    `json:"run_id"`
	Generation uint      `json:"generation"`
	Fitness    float32   `json:"fitness"`
	Evaluation float32   `json:"evaluation"`
	Topology   string    `json:"topology"`
	Genome     []float64 `json:"genome"`
}

// Genotype rebuilds the champion's genotype with its scores.
func (c *Champion) Genotype() *genotype.Genotype {
	g := genotype.New(c.Genome)
	g.Fitness = c.Fitness
	g.Evaluation = c.Evaluation
	return g
}

// NetworkTopology parses the saved topology.
func (c *Champion) NetworkTopology() (nn.Topology, error) {
	return nn.ParseTopology(c.Topology)
}

// SaveChampion saves the champion genotype to a file
func SaveChampion(path string, g *genotype.Genotype, topology nn.Topology, runID string, gen uint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data := Champion{
		RunID:      runID,
		Generation: gen,
		Fitness:    g.Fitness,
		Evaluation: g.Evaluation,
		Topology:   topology.String(),
		Genome:     g.ParameterCopy(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, jsonData, 0644)
}

// LoadChampion loads a champion from a file
func LoadChampion(path string) (*Champion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Champion
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
