package cloth

import (
	"errors"
	"testing"
)

func TestDispatchCoversRangeExactlyOnce(t *testing.T) {
	d := newDispatcher()
	defer d.stopWorkers()

	n := parallelThreshold * 4
	touched := make([]int32, n)
	err := d.dispatch(n, func(start, end int) {
		for i := start; i < end; i++ {
			touched[i]++
		}
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	for i, c := range touched {
		if c != 1 {
			t.Fatalf("element %d touched %d times, want 1", i, c)
		}
	}
}

func TestDispatchSmallRangeRunsInline(t *testing.T) {
	d := newDispatcher()
	defer d.stopWorkers()

	touched := make([]int32, parallelThreshold-1)
	if err := d.dispatch(len(touched), func(start, end int) {
		for i := start; i < end; i++ {
			touched[i]++
		}
	}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if d.running {
		t.Error("worker pool started for a sub-threshold dispatch")
	}
	for i, c := range touched {
		if c != 1 {
			t.Fatalf("element %d touched %d times, want 1", i, c)
		}
	}
}

func TestDispatchPanicBecomesDeviceFailure(t *testing.T) {
	d := newDispatcher()
	defer d.stopWorkers()

	err := d.dispatch(parallelThreshold*2, func(start, end int) {
		panic("boom")
	})
	if !errors.Is(err, ErrDeviceFailure) {
		t.Fatalf("err = %v, want ErrDeviceFailure", err)
	}

	// The pool survives a failed stage; it is the solver that goes
	// terminal, not the workers.
	if err := d.dispatch(parallelThreshold*2, func(start, end int) {}); err != nil {
		t.Errorf("dispatch after panic: %v", err)
	}
}

func TestDispatchZeroElements(t *testing.T) {
	d := newDispatcher()
	defer d.stopWorkers()
	if err := d.dispatch(0, func(start, end int) {
		t.Error("kernel invoked for empty range")
	}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
}
