// Package telemetry collects solver timings and residual statistics and
// writes them to structured logs and CSV files.
package telemetry

import (
	"log/slog"
	"time"
)

// Stage names for the solver pipeline.
const (
	StageIntegrate   = "integrate"
	StageProject     = "project"
	StageCollide     = "collide"
	StageReconstruct = "reconstruct"
	StageReadback    = "readback"
	StageRender      = "render"
)

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Stages        map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentStages map[string]time.Duration
	frameStart    time.Time
	stageStart    time.Time
	lastStage     string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g., 120 for 2 seconds
// at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentStages: make(map[string]time.Duration),
	}
}

// StartFrame begins timing a new simulation frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.currentStages = make(map[string]time.Duration)
	p.lastStage = ""
}

// StartStage begins timing a specific stage, ending the previous one.
func (p *PerfCollector) StartStage(stage string) {
	now := time.Now()
	if p.lastStage != "" {
		p.currentStages[p.lastStage] += now.Sub(p.stageStart)
	}
	p.stageStart = now
	p.lastStage = stage
}

// RecordStage folds an externally measured stage duration into the current
// frame, for stages timed inside the solver rather than by StartStage.
func (p *PerfCollector) RecordStage(stage string, d time.Duration) {
	p.currentStages[stage] += d
}

// EndFrame finishes timing the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	if p.lastStage != "" {
		p.currentStages[p.lastStage] += now.Sub(p.stageStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Stages:        p.currentStages,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration

	// Stage breakdown (average durations)
	StageAvg map[string]time.Duration

	// Stage percentages of total frame time
	StagePct map[string]float64

	FramesPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			StageAvg: make(map[string]time.Duration),
			StagePct: make(map[string]float64),
		}
	}

	var totalFrame time.Duration
	var minFrame, maxFrame time.Duration
	stageSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalFrame += s.FrameDuration
		if i == 0 || s.FrameDuration < minFrame {
			minFrame = s.FrameDuration
		}
		if s.FrameDuration > maxFrame {
			maxFrame = s.FrameDuration
		}
		for stage, dur := range s.Stages {
			stageSum[stage] += dur
		}
	}

	avgFrame := totalFrame / time.Duration(p.sampleCount)

	stageAvg := make(map[string]time.Duration)
	stagePct := make(map[string]float64)
	for stage, sum := range stageSum {
		stageAvg[stage] = sum / time.Duration(p.sampleCount)
		if avgFrame > 0 {
			stagePct[stage] = float64(stageAvg[stage]) / float64(avgFrame) * 100
		}
	}

	var framesPerSec float64
	if avgFrame > 0 {
		framesPerSec = float64(time.Second) / float64(avgFrame)
	}

	return PerfStats{
		AvgFrameDuration: avgFrame,
		MinFrameDuration: minFrame,
		MaxFrameDuration: maxFrame,
		StageAvg:         stageAvg,
		StagePct:         stagePct,
		FramesPerSecond:  framesPerSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrameDuration.Microseconds(),
		"min_frame_us", s.MinFrameDuration.Microseconds(),
		"max_frame_us", s.MaxFrameDuration.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
	}
	for stage, avg := range s.StageAvg {
		attrs = append(attrs, "stage_"+stage+"_us", avg.Microseconds())
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is the flattened CSV form of PerfStats.
type PerfStatsCSV struct {
	WindowEnd     int64   `csv:"window_end_frame"`
	AvgFrameUs    int64   `csv:"avg_frame_us"`
	MinFrameUs    int64   `csv:"min_frame_us"`
	MaxFrameUs    int64   `csv:"max_frame_us"`
	FramesPerSec  float64 `csv:"frames_per_sec"`
	IntegrateUs   int64   `csv:"integrate_us"`
	ProjectUs     int64   `csv:"project_us"`
	CollideUs     int64   `csv:"collide_us"`
	ReconstructUs int64   `csv:"reconstruct_us"`
	ReadbackUs    int64   `csv:"readback_us"`
	RenderUs      int64   `csv:"render_us"`
}

// ToCSV flattens the stats into fixed stage columns.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	us := func(stage string) int64 { return s.StageAvg[stage].Microseconds() }
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgFrameUs:    s.AvgFrameDuration.Microseconds(),
		MinFrameUs:    s.MinFrameDuration.Microseconds(),
		MaxFrameUs:    s.MaxFrameDuration.Microseconds(),
		FramesPerSec:  s.FramesPerSecond,
		IntegrateUs:   us(StageIntegrate),
		ProjectUs:     us(StageProject),
		CollideUs:     us(StageCollide),
		ReconstructUs: us(StageReconstruct),
		ReadbackUs:    us(StageReadback),
		RenderUs:      us(StageRender),
	}
}
