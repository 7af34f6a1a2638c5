package telemetry

import (
	"math"
	"testing"
)

func TestCollectorClosesWindowWhenFull(t *testing.T) {
	c := NewCollector(3)

	for i := 0; i < 2; i++ {
		if _, done := c.Record(FrameSample{Frame: int64(i), StretchMean: 0.1}); done {
			t.Fatalf("window closed early at frame %d", i)
		}
	}
	w, done := c.Record(FrameSample{Frame: 2, StretchMean: 0.4, StretchMax: 1.5, Clamped: 2})
	if !done {
		t.Fatal("window did not close after 3 frames")
	}

	if w.WindowEnd != 2 {
		t.Errorf("window end = %d, want 2", w.WindowEnd)
	}
	if w.Frames != 3 {
		t.Errorf("frames = %d, want 3", w.Frames)
	}
	if math.Abs(w.StretchMeanAvg-0.2) > 1e-12 {
		t.Errorf("stretch mean avg = %v, want 0.2", w.StretchMeanAvg)
	}
	if w.StretchMaxPeak != 1.5 {
		t.Errorf("stretch max peak = %v, want 1.5", w.StretchMaxPeak)
	}
	if w.Clamped != 2 {
		t.Errorf("clamped = %d, want 2", w.Clamped)
	}
}

func TestCollectorResetsBetweenWindows(t *testing.T) {
	c := NewCollector(2)

	c.Record(FrameSample{Frame: 0, StretchMax: 9, Clamped: 1})
	c.Record(FrameSample{Frame: 1, StretchMax: 9, Clamped: 1})

	c.Record(FrameSample{Frame: 2, StretchMax: 1})
	w, done := c.Record(FrameSample{Frame: 3, StretchMax: 1})
	if !done {
		t.Fatal("second window did not close")
	}
	if w.StretchMaxPeak != 1 {
		t.Errorf("peak leaked from previous window: %v", w.StretchMaxPeak)
	}
	if w.Clamped != 0 {
		t.Errorf("clamp count leaked from previous window: %d", w.Clamped)
	}
}

func TestCollectorFlushPartialWindow(t *testing.T) {
	c := NewCollector(100)

	if _, ok := c.Flush(); ok {
		t.Error("flush of empty collector reported a window")
	}

	c.Record(FrameSample{Frame: 7, KineticEnergy: 2})
	w, ok := c.Flush()
	if !ok {
		t.Fatal("flush dropped a pending sample")
	}
	if w.Frames != 1 || w.KineticAvg != 2 {
		t.Errorf("flushed window = %+v, want 1 frame with kinetic 2", w)
	}

	if _, ok := c.Flush(); ok {
		t.Error("second flush reported a stale window")
	}
}
