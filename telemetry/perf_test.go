package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorBasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartStage(StageReadback)
		time.Sleep(100 * time.Microsecond)
		pc.StartStage(StageRender)
		time.Sleep(200 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration")
	}
	if len(stats.StageAvg) == 0 {
		t.Error("expected stage averages to be populated")
	}
	if _, ok := stats.StageAvg[StageReadback]; !ok {
		t.Error("expected readback stage to be tracked")
	}
	if _, ok := stats.StageAvg[StageRender]; !ok {
		t.Error("expected render stage to be tracked")
	}
}

func TestPerfCollectorRecordStage(t *testing.T) {
	pc := NewPerfCollector(10)

	// Solver-internal stages arrive as measured durations, not via
	// StartStage.
	pc.StartFrame()
	pc.RecordStage(StageIntegrate, 2*time.Millisecond)
	pc.RecordStage(StageProject, 5*time.Millisecond)
	pc.RecordStage(StageProject, 5*time.Millisecond)
	pc.EndFrame()

	stats := pc.Stats()
	if got := stats.StageAvg[StageProject]; got != 10*time.Millisecond {
		t.Errorf("project stage avg = %v, want 10ms (two substep records summed)", got)
	}
	if got := stats.StageAvg[StageIntegrate]; got != 2*time.Millisecond {
		t.Errorf("integrate stage avg = %v, want 2ms", got)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartStage(StageRender)
		pc.EndFrame()
	}

	stats := pc.Stats()
	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration after window filled")
	}
	if stats.FramesPerSecond <= 0 {
		t.Error("expected positive frames per second")
	}
}

func TestPerfStatsToCSVFlattensStages(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.StartFrame()
	pc.RecordStage(StageCollide, 3*time.Millisecond)
	pc.EndFrame()

	rec := pc.Stats().ToCSV(42)
	if rec.WindowEnd != 42 {
		t.Errorf("window end = %d, want 42", rec.WindowEnd)
	}
	if rec.CollideUs != 3000 {
		t.Errorf("collide us = %d, want 3000", rec.CollideUs)
	}
}
