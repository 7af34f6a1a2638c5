package cloth

import (
	"fmt"
	"runtime"
	"sync"
)

// parallelThreshold is the minimum element count to use the worker pool.
// Below this, single-threaded is faster than channel overhead.
const parallelThreshold = 256

// kernel processes the half-open element range [start, end). A kernel may
// read any committed buffer but must only write state owned by its range.
type kernel func(start, end int)

// workChunk is one element range handed to a worker.
type workChunk struct {
	start, end int
	run        kernel
}

// dispatcher owns the persistent worker pool that stands in for the compute
// device. One dispatch over a range is one stage; blocking until every
// chunk has completed is the inter-stage barrier, so all writes of stage N
// are visible before any worker of stage N+1 starts.
type dispatcher struct {
	numWorkers int

	workChan chan workChunk
	doneChan chan error
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newDispatcher() *dispatcher {
	return &dispatcher{numWorkers: runtime.GOMAXPROCS(0)}
}

// startWorkers launches the persistent worker goroutines.
func (d *dispatcher) startWorkers() {
	if d.running {
		return
	}
	d.workChan = make(chan workChunk, d.numWorkers)
	d.doneChan = make(chan error, d.numWorkers)
	d.stopChan = make(chan struct{})
	d.running = true

	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (d *dispatcher) stopWorkers() {
	if !d.running {
		return
	}
	close(d.stopChan)
	d.wg.Wait()
	close(d.workChan)
	close(d.doneChan)
	d.running = false
}

func (d *dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopChan:
			return
		case chunk, ok := <-d.workChan:
			if !ok {
				return
			}
			d.doneChan <- runChunk(chunk.run, chunk.start, chunk.end)
		}
	}
}

// runChunk executes a kernel over one range, converting panics into the
// device-failure condition instead of tearing down the process.
func runChunk(k kernel, start, end int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: stage kernel panicked: %v", ErrDeviceFailure, r)
		}
	}()
	k(start, end)
	return nil
}

// dispatch runs k over [0, n) and blocks until every chunk has committed.
// Returns the first kernel failure, if any.
func (d *dispatcher) dispatch(n int, k kernel) error {
	if n <= 0 {
		return nil
	}
	if n < parallelThreshold {
		return runChunk(k, 0, n)
	}
	if !d.running {
		d.startWorkers()
	}

	chunkSize := (n + d.numWorkers - 1) / d.numWorkers
	dispatched := 0
	for w := 0; w < d.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		d.workChan <- workChunk{start: start, end: end, run: k}
		dispatched++
	}

	var first error
	for i := 0; i < dispatched; i++ {
		if err := <-d.doneChan; err != nil && first == nil {
			first = err
		}
	}
	return first
}
