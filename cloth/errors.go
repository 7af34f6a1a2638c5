package cloth

import "errors"

// Error taxonomy for the solver.
//
// Construction errors (ErrInvalidTopology, ErrDegenerateGeometry) are fatal
// to initialization: NewSolver returns nil and nothing was allocated on the
// caller's behalf.
//
// Usage errors (ErrIndexOutOfRange, ErrConcurrentStep, ErrNotReady) are
// local and non-fatal; simulation state is unchanged.
//
// ErrDeviceFailure is fatal to the solver instance: the solver enters a
// terminal failed state and every subsequent call fails until the caller
// rebuilds it from a known-good topology.
var (
	// ErrInvalidTopology indicates a constraint references an out-of-range
	// particle index, or the topology arrays disagree on particle count.
	ErrInvalidTopology = errors.New("cloth: invalid topology")

	// ErrDegenerateGeometry indicates a rest length or bend reference was
	// computed from coincident particles.
	ErrDegenerateGeometry = errors.New("cloth: degenerate rest geometry")

	// ErrIndexOutOfRange indicates a particle index outside the store.
	ErrIndexOutOfRange = errors.New("cloth: particle index out of range")

	// ErrConcurrentStep indicates Step or Configure was called while a step
	// was already in flight.
	ErrConcurrentStep = errors.New("cloth: concurrent step violation")

	// ErrNotReady indicates a call that requires a ready solver (e.g. after
	// Close, or on a zero Solver).
	ErrNotReady = errors.New("cloth: solver not ready")

	// ErrDeviceFailure indicates a stage kernel failed; the solver is in a
	// terminal failed state.
	ErrDeviceFailure = errors.New("cloth: device failure")

	// ErrBadParams indicates Configure was given out-of-domain parameters.
	ErrBadParams = errors.New("cloth: invalid parameters")
)
