package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"neurocars/internal/agent"
	"neurocars/internal/config"
	"neurocars/internal/ga"
	"neurocars/internal/genotype"
	"neurocars/internal/logging"
	"neurocars/internal/models"
	"neurocars/internal/nn"
	"neurocars/internal/track"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or INI config file (defaults when empty)")
	modelName := flag.String("model", "Alpha", "saved model to drive")
	championPath := flag.String("champion", "", "drive a champion JSON instead of a saved model")
	every := flag.Int("every", 5, "render every N ticks")
	delay := flag.Int("delay", 50, "delay between frames in milliseconds")
	width := flag.Int("width", 80, "display width in columns")
	noDisplay := flag.Bool("no-display", false, "run without display (just print stats)")
	tracePath := flag.String("trace", "", "write the drive to this JSON file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, topology, label, err := loadDriver(ctx, cfg, *modelName, *championPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading driver: %v\n", err)
		os.Exit(1)
	}

	activation, err := nn.ActivationByName(cfg.NN.Activation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	a, err := agent.New(g, topology, agent.WithActivation(activation))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building controller: %v\n", err)
		os.Exit(1)
	}

	course := track.Default()
	if cfg.Track.Path != "" {
		if course, err = track.Load(cfg.Track.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading track: %v\n", err)
			os.Exit(1)
		}
	}
	sim := track.NewSimulation(course,
		track.WithMaxTicks(cfg.Track.MaxTicks),
		track.WithTimeStep(cfg.Track.TimeStep),
		track.WithMaxCheckpointDelay(cfg.Track.MaxCheckpointDelay),
		track.WithSensorAngles(cfg.Track.SensorAngles),
	)

	fmt.Printf("Driving %s (topology %s) on %s\n", label, topology, course.Name)
	fmt.Println("Press Ctrl+C to exit")
	fmt.Println()

	var observers []track.TickObserver
	if !*noDisplay {
		display := NewDisplay(course, *width)
		frames := rate.NewLimiter(rate.Every(time.Duration(*delay)*time.Millisecond), 1)
		n := *every
		if n <= 0 {
			n = 1
		}
		observers = append(observers, func(tick int, car *track.Car, completion float64) {
			if tick%n != 0 {
				return
			}
			if err := frames.Wait(ctx); err != nil {
				return
			}
			display.Render(car, tick, completion)
		})
	}
	var trace *track.Trace
	if *tracePath != "" {
		trace = track.NewTrace(course.Name, 1)
		observers = append(observers, trace.Observe)
	}

	stats, err := sim.Run(ctx, a, observers...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if trace != nil {
		trace.SetFinalStats(stats)
		if err := trace.Save(*tracePath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save trace: %v\n", err)
		}
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════")
	fmt.Printf("  Run over! Death: %s\n", stats.Death)
	fmt.Printf("  Completion: %.1f%%, Checkpoints: %d\n", stats.Completion*100, stats.Checkpoints)
	fmt.Printf("  Ticks: %s, Distance: %.1f\n", humanize.Comma(int64(stats.Ticks)), stats.Distance)
	fmt.Println("═══════════════════════════════════")
}

// loadDriver returns the genotype to drive, the topology it fits and a label.
func loadDriver(ctx context.Context, cfg *config.Config, modelName, championPath string) (*genotype.Genotype, nn.Topology, string, error) {
	if championPath != "" {
		champion, err := logging.LoadChampion(championPath)
		if err != nil {
			return nil, nil, "", err
		}
		topology, err := champion.NetworkTopology()
		if err != nil {
			return nil, nil, "", err
		}
		label := fmt.Sprintf("champion of the %s generation (run %s)",
			humanize.Ordinal(int(champion.Generation)), champion.RunID)
		return champion.Genotype(), topology, label, nil
	}

	store, err := models.NewStore(cfg.Models.Store, cfg.Models.Path)
	if err != nil {
		return nil, nil, "", err
	}
	if err := store.Init(ctx); err != nil {
		return nil, nil, "", err
	}
	defer models.CloseIfSupported(store)

	topology, err := cfg.Topology()
	if err != nil {
		return nil, nil, "", err
	}
	manager := models.NewManager(store, ga.NewRand(cfg.Seed),
		models.WithNames(cfg.Models.Names...),
		models.WithDefaultTopology(topology),
		models.WithManagerLogger(logging.Discard()),
	)
	if err := manager.Load(ctx); err != nil {
		return nil, nil, "", err
	}
	for _, m := range manager.Models() {
		if m.Name == modelName {
			return m.Genotype, manager.Topology(), "model " + m.Name, nil
		}
	}
	return nil, nil, "", fmt.Errorf("no model named %q", modelName)
}

// Display handles terminal rendering of a course
type Display struct {
	course        *track.Course
	minX, minY    float64
	scale         float64
	width, height int
	background    [][]rune
}

// NewDisplay rasterizes the course walls and checkpoints once
func NewDisplay(course *track.Course, width int) *Display {
	if width < 20 {
		width = 20
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(p track.Vec2) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for _, w := range course.Walls {
		grow(w.A)
		grow(w.B)
	}
	for _, cp := range course.Checkpoints {
		grow(cp.Pos)
	}

	spanX := math.Max(maxX-minX, 1)
	d := &Display{
		course: course,
		minX:   minX,
		minY:   minY,
		scale:  float64(width-1) / spanX,
		width:  width,
	}
	// Terminal cells are about twice as tall as they are wide.
	d.height = int((maxY-minY)*d.scale/2) + 1

	d.background = make([][]rune, d.height)
	for y := range d.background {
		d.background[y] = []rune(strings.Repeat(" ", d.width))
	}
	for _, w := range course.Walls {
		steps := int(w.A.Dist(w.B)*d.scale) + 1
		for i := 0; i <= steps; i++ {
			p := w.A.Add(w.B.Sub(w.A).Scale(float64(i) / float64(steps)))
			d.set(d.background, p, '#')
		}
	}
	for _, cp := range course.Checkpoints {
		d.set(d.background, cp.Pos, '+')
	}
	return d
}

func (d *Display) cell(p track.Vec2) (int, int, bool) {
	x := int(math.Round((p.X - d.minX) * d.scale))
	// Screen rows grow downward.
	y := d.height - 1 - int(math.Round((p.Y-d.minY)*d.scale/2))
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return 0, 0, false
	}
	return x, y, true
}

func (d *Display) set(grid [][]rune, p track.Vec2, r rune) {
	if x, y, ok := d.cell(p); ok {
		grid[y][x] = r
	}
}

// Render draws the course with the car on it
func (d *Display) Render(car *track.Car, tick int, completion float64) {
	clearScreen()

	grid := make([][]rune, d.height)
	for y := range grid {
		grid[y] = append([]rune(nil), d.background[y]...)
	}
	d.set(grid, car.Pos, carGlyph(car.Heading))

	var b strings.Builder
	for _, row := range grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	fmt.Print(b.String())

	turn, engine := car.Inputs()
	fmt.Printf("  Tick: %5d | Completion: %5.1f%% | Speed: %5.2f | Turn: %+.2f | Engine: %+.2f\n",
		tick, completion*100, car.Velocity, turn, engine)
}

func carGlyph(heading float64) rune {
	h := math.Mod(heading, 360)
	if h < 0 {
		h += 360
	}
	switch {
	case h < 45 || h >= 315:
		return '>'
	case h < 135:
		return '^'
	case h < 225:
		return '<'
	default:
		return 'v'
	}
}

func clearScreen() {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "cls")
	} else {
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	cmd.Run()
}
