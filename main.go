package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/scene"
	"github.com/pthm-cable/drape/telemetry"
	"github.com/pthm-cable/drape/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Use config stats window if not overridden by CLI
	statsWindowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		statsWindowSec = *statsWindow
	}

	topo := scene.BuildGrid(cfg.Cloth)
	solver, err := cloth.NewSolver(topo, scene.SolverParams(cfg))
	if err != nil {
		slog.Error("failed to build solver", "error", err)
		os.Exit(1)
	}
	defer solver.Close()

	scn := scene.New(cfg)

	if *headless {
		runHeadless(cfg, solver, scn, runOptions{
			logStats:       *logStats,
			statsWindowSec: statsWindowSec,
			outputDir:      *outputDir,
			maxFrames:      *maxFrames,
		})
		return
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Drape")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	rebuild := func(bendCompliance float64) (*cloth.Solver, cloth.Topology, error) {
		cc := cfg.Cloth
		cc.BendCompliance = bendCompliance
		t := scene.BuildGrid(cc)
		s, err := cloth.NewSolver(t, scene.SolverParams(cfg))
		return s, t, err
	}

	v := viewer.New(cfg, solver, scn, topo, rebuild)
	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()
	}
}

type runOptions struct {
	logStats       bool
	statsWindowSec float64
	outputDir      string
	maxFrames      int
}

// runHeadless steps the solver at full speed, feeding telemetry instead of
// a window.
func runHeadless(cfg *config.Config, solver *cloth.Solver, scn *scene.Scene, opts runOptions) {
	var out *telemetry.OutputManager
	if opts.outputDir != "" {
		var err error
		out, err = telemetry.NewOutputManager(opts.outputDir)
		if err != nil {
			slog.Error("failed to create output dir", "error", err)
			os.Exit(1)
		}
		defer out.Close()
		if err := out.WriteConfig(cfg); err != nil {
			slog.Error("failed to snapshot config", "error", err)
		}
	}

	windowFrames := int(opts.statsWindowSec / cfg.Solver.DT)
	stats := telemetry.NewCollector(windowFrames)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	params := scene.SolverParams(cfg)
	dt := cfg.Derived.DT32

	slog.Info("starting headless simulation",
		"particles", cfg.Derived.ParticleCount,
		"substeps", params.Substeps,
		"iterations", params.Iterations,
		"stats_window_frames", windowFrames,
		"max_frames", opts.maxFrames,
	)

	var colliders []cloth.Collider
	var positions []cloth.Vec3
	var frame int64

	for {
		perf.StartFrame()

		scn.Advance(dt)
		colliders = scn.Colliders(colliders[:0])
		if err := solver.SetColliders(colliders); err != nil {
			slog.Error("collider update rejected", "error", err)
			os.Exit(1)
		}
		params.Wind = scn.Wind()
		if err := solver.Configure(params); err != nil {
			slog.Error("reconfigure rejected", "error", err)
			os.Exit(1)
		}

		res, err := solver.Step()
		if err != nil {
			slog.Error("step failed", "frame", frame, "error", err, "state", solver.State().String())
			os.Exit(1)
		}
		perf.RecordStage(telemetry.StageIntegrate, res.Stages.Integrate)
		perf.RecordStage(telemetry.StageProject, res.Stages.Project)
		perf.RecordStage(telemetry.StageCollide, res.Stages.Collide)
		perf.RecordStage(telemetry.StageReconstruct, res.Stages.Reconstruct)

		perf.StartStage(telemetry.StageReadback)
		positions, _ = solver.ReadPositions(positions)
		perf.EndFrame()

		frame++
		sample := telemetry.FrameSample{
			Frame:         frame,
			StretchMean:   float64(res.StretchMean),
			StretchMax:    float64(res.StretchMax),
			KineticEnergy: float64(res.KineticEnergy),
			Clamped:       res.NonFiniteClamped,
		}
		if w, closed := stats.Record(sample); closed {
			report(w, perf, out, frame, opts.logStats)
		}

		if opts.maxFrames > 0 && frame >= int64(opts.maxFrames) {
			slog.Info("max frames reached", "frame", frame)
			break
		}
	}

	if w, ok := stats.Flush(); ok {
		report(w, perf, out, frame, opts.logStats)
	}
}

func report(w telemetry.WindowStats, perf *telemetry.PerfCollector, out *telemetry.OutputManager, frame int64, log bool) {
	ps := perf.Stats()
	if log {
		w.LogStats()
		ps.LogStats()
	}
	if err := out.WriteStats(w); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
	if err := out.WritePerf(ps, frame); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
