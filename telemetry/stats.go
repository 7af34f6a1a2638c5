package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FrameSample is the per-frame solver record fed by the host loop.
type FrameSample struct {
	Frame         int64
	StretchMean   float64
	StretchMax    float64
	KineticEnergy float64
	Clamped       int
}

// WindowStats summarizes one stats window.
type WindowStats struct {
	WindowEnd      int64   `csv:"window_end_frame"`
	Frames         int     `csv:"frames"`
	StretchMeanAvg float64 `csv:"stretch_mean_avg"`
	StretchMeanStd float64 `csv:"stretch_mean_std"`
	StretchMaxPeak float64 `csv:"stretch_max_peak"`
	KineticAvg     float64 `csv:"kinetic_avg"`
	KineticStd     float64 `csv:"kinetic_std"`
	Clamped        int     `csv:"nonfinite_clamped"`
}

// LogStats logs the window summary.
func (w WindowStats) LogStats() {
	slog.Info("stats",
		"frame", w.WindowEnd,
		"stretch_mean_avg", w.StretchMeanAvg,
		"stretch_mean_std", w.StretchMeanStd,
		"stretch_max_peak", w.StretchMaxPeak,
		"kinetic_avg", w.KineticAvg,
		"kinetic_std", w.KineticStd,
		"nonfinite_clamped", w.Clamped,
	)
}

// Collector aggregates frame samples into fixed-size windows of residual
// and energy statistics.
type Collector struct {
	windowFrames int
	lastFrame    int64
	stretchMean  []float64
	stretchMax   []float64
	kinetic      []float64
	clamped      int
}

// NewCollector creates a collector that closes a window every windowFrames
// frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 60
	}
	return &Collector{
		windowFrames: windowFrames,
		stretchMean:  make([]float64, 0, windowFrames),
		stretchMax:   make([]float64, 0, windowFrames),
		kinetic:      make([]float64, 0, windowFrames),
	}
}

// Record adds one frame sample. When the window fills it returns the
// closed window's stats and true, and starts a fresh window.
func (c *Collector) Record(s FrameSample) (WindowStats, bool) {
	c.lastFrame = s.Frame
	c.stretchMean = append(c.stretchMean, s.StretchMean)
	c.stretchMax = append(c.stretchMax, s.StretchMax)
	c.kinetic = append(c.kinetic, s.KineticEnergy)
	c.clamped += s.Clamped

	if len(c.stretchMean) < c.windowFrames {
		return WindowStats{}, false
	}
	w := c.close()
	return w, true
}

// Flush closes the current partial window, if any samples are pending.
func (c *Collector) Flush() (WindowStats, bool) {
	if len(c.stretchMean) == 0 {
		return WindowStats{}, false
	}
	return c.close(), true
}

func (c *Collector) close() WindowStats {
	w := WindowStats{
		WindowEnd:      c.lastFrame,
		Frames:         len(c.stretchMean),
		StretchMeanAvg: stat.Mean(c.stretchMean, nil),
		StretchMeanStd: stat.StdDev(c.stretchMean, nil),
		StretchMaxPeak: floats.Max(c.stretchMax),
		KineticAvg:     stat.Mean(c.kinetic, nil),
		KineticStd:     stat.StdDev(c.kinetic, nil),
		Clamped:        c.clamped,
	}
	c.stretchMean = c.stretchMean[:0]
	c.stretchMax = c.stretchMax[:0]
	c.kinetic = c.kinetic[:0]
	c.clamped = 0
	return w
}
