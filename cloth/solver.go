// Package cloth implements a real-time XPBD cloth solver.
//
// The whole simulation state lives in contiguous particle and constraint
// arrays; every stage of a substep is a data-parallel dispatch over those
// arrays with a hard barrier between stages. Constraint projection uses
// Jacobi sweeps (evaluate into per-constraint impulses, then gather per
// particle) so that constraints sharing a particle never race, at the cost
// of some convergence rate that the iteration count buys back.
package cloth

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"
)

// State is the controller lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateStepping
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateStepping:
		return "stepping"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Params are the runtime-tunable simulation parameters. They are immutable
// within a step; Configure swaps them between steps. Compliances are not
// here: they are per-constraint build-time state (see Topology).
type Params struct {
	// DT is the frame timestep in seconds. Each step runs Substeps full
	// integrate-project-collide-reconstruct cycles of length DT/Substeps.
	DT       float32
	Substeps int

	// Iterations is the solver iteration count per substep. Each iteration
	// projects every family once, in fixed order Stretch, Bend, Attachment.
	Iterations int

	Gravity Vec3
	Wind    Vec3

	// Damping is the global velocity damping coefficient in [0, 1).
	Damping float32

	// Relaxation scales Jacobi corrections, in (0, 1]. Sweeps over
	// constraints that share particles can overshoot at high stiffness;
	// values below 1 trade convergence speed for smoothness.
	Relaxation float32

	// Thickness is the particle contact radius used by collision.
	Thickness float32
}

// DefaultParams returns the parameter set the config defaults mirror.
func DefaultParams() Params {
	return Params{
		DT:         1.0 / 60.0,
		Substeps:   4,
		Iterations: 8,
		Gravity:    Vec3{Y: -9.81},
		Damping:    0.01,
		Relaxation: 1.0,
		Thickness:  0.01,
	}
}

func (p Params) validate() error {
	switch {
	case !(p.DT > 0):
		return fmt.Errorf("%w: dt must be positive", ErrBadParams)
	case p.Substeps < 1:
		return fmt.Errorf("%w: substeps must be at least 1", ErrBadParams)
	case p.Iterations < 1:
		return fmt.Errorf("%w: iterations must be at least 1", ErrBadParams)
	case p.Damping < 0 || p.Damping >= 1:
		return fmt.Errorf("%w: damping must be in [0, 1)", ErrBadParams)
	case !(p.Relaxation > 0) || p.Relaxation > 1:
		return fmt.Errorf("%w: relaxation must be in (0, 1]", ErrBadParams)
	case p.Thickness < 0:
		return fmt.Errorf("%w: thickness must be non-negative", ErrBadParams)
	case !p.Gravity.Finite() || !p.Wind.Finite():
		return fmt.Errorf("%w: non-finite gravity or wind", ErrBadParams)
	}
	return nil
}

// StageDurations is the frame-accumulated wall time spent in each pipeline
// stage, summed over substeps.
type StageDurations struct {
	Integrate   time.Duration
	Project     time.Duration
	Collide     time.Duration
	Reconstruct time.Duration
}

// StepResult summarizes one completed frame.
type StepResult struct {
	Substeps   int
	Iterations int

	// StretchMean and StretchMax are the absolute stretch constraint
	// errors after the last substep, in world units.
	StretchMean float32
	StretchMax  float32

	// KineticEnergy is Σ ½m|v|² over movable particles.
	KineticEnergy float32

	// NonFiniteClamped counts particles whose prediction went NaN/Inf and
	// was discarded this frame.
	NonFiniteClamped int

	Stages  StageDurations
	Elapsed time.Duration
}

// Solver owns the particle and constraint stores and sequences the
// per-substep stage pipeline. A Solver is built by NewSolver, driven by
// Step, and torn down by Close. Exactly one step may be in flight at a
// time; a second Step while stepping fails with ErrConcurrentStep.
type Solver struct {
	state atomic.Int32

	params    Params
	particles *particleStore

	stretch stretchStore
	bend    bendStore
	anchors anchorStore

	stretchMap gatherMap
	bendMap    gatherMap
	anchorMap  gatherMap

	// colliders is the per-frame collider set supplied by the scene layer.
	colliders []Collider

	disp    *dispatcher
	clamped atomic.Int32
}

// NewSolver validates the topology, measures rest lengths from the initial
// pose, and allocates every buffer the pipeline needs. On failure nothing
// is retained and the returned error wraps ErrInvalidTopology,
// ErrDegenerateGeometry or ErrBadParams.
func NewSolver(t Topology, p Params) (*Solver, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	stretch, err := buildStretch(&t)
	if err != nil {
		return nil, err
	}
	bend, err := buildBend(&t)
	if err != nil {
		return nil, err
	}

	s := &Solver{
		params:    p,
		particles: newParticleStore(&t),
		stretch:   stretch,
		bend:      bend,
		anchors:   buildAnchors(&t),
		disp:      newDispatcher(),
	}
	n := s.particles.n
	s.stretchMap = stretchGather(n, &s.stretch)
	s.bendMap = bendGather(n, &s.bend)
	s.anchorMap = anchorGather(n, &s.anchors)
	s.state.Store(int32(StateReady))
	return s, nil
}

// State returns the current controller state.
func (s *Solver) State() State {
	return State(s.state.Load())
}

// ParticleCount returns the number of particles in the store.
func (s *Solver) ParticleCount() int {
	return s.particles.n
}

// Params returns the active parameter set.
func (s *Solver) Params() Params {
	return s.params
}

// require fails unless the solver is in the wanted state, mapping the
// actual state to the matching usage error.
func (s *Solver) require(want State) error {
	cur := State(s.state.Load())
	if cur == want {
		return nil
	}
	switch cur {
	case StateStepping:
		return ErrConcurrentStep
	case StateFailed:
		return fmt.Errorf("%w: solver previously failed", ErrDeviceFailure)
	default:
		return ErrNotReady
	}
}

// Configure swaps the parameter set. Valid only between steps.
func (s *Solver) Configure(p Params) error {
	if err := s.require(StateReady); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	s.params = p
	return nil
}

// SetColliders replaces the active collider set for subsequent steps. The
// scene layer calls this every frame with current collider geometry.
func (s *Solver) SetColliders(cs []Collider) error {
	if err := s.require(StateReady); err != nil {
		return err
	}
	s.colliders = append(s.colliders[:0], cs...)
	return nil
}

// Step runs one full frame: Substeps cycles of integrate, project
// (Iterations Jacobi sweeps over Stretch, Bend, Attachment), collide and
// reconstruct. It blocks until the frame is complete. A kernel failure is
// terminal: the solver enters StateFailed and must be rebuilt.
func (s *Solver) Step() (StepResult, error) {
	if !s.state.CompareAndSwap(int32(StateReady), int32(StateStepping)) {
		switch State(s.state.Load()) {
		case StateStepping:
			return StepResult{}, ErrConcurrentStep
		case StateFailed:
			return StepResult{}, fmt.Errorf("%w: solver previously failed", ErrDeviceFailure)
		default:
			return StepResult{}, ErrNotReady
		}
	}

	start := time.Now()
	s.clamped.Store(0)
	p := s.params
	h := p.DT / float32(p.Substeps)
	var stages StageDurations
	for sub := 0; sub < p.Substeps; sub++ {
		if err := s.substep(h, p.Iterations, &stages); err != nil {
			s.state.Store(int32(StateFailed))
			return StepResult{}, err
		}
	}
	s.particles.clearForces()

	res := s.summarize(p)
	res.Stages = stages
	res.Elapsed = time.Since(start)
	s.state.Store(int32(StateReady))
	return res, nil
}

func (s *Solver) substep(h float32, iterations int, stages *StageDurations) error {
	s.resetLambdas()

	mark := time.Now()
	if err := s.integrate(h); err != nil {
		return err
	}
	stages.Integrate += time.Since(mark)

	mark = time.Now()
	for it := 0; it < iterations; it++ {
		if err := s.projectStretch(h); err != nil {
			return err
		}
		if err := s.projectBend(h); err != nil {
			return err
		}
		if err := s.projectAnchors(h); err != nil {
			return err
		}
	}
	stages.Project += time.Since(mark)

	mark = time.Now()
	if err := s.collide(h); err != nil {
		return err
	}
	stages.Collide += time.Since(mark)

	mark = time.Now()
	if err := s.reconstruct(h); err != nil {
		return err
	}
	stages.Reconstruct += time.Since(mark)
	return nil
}

func (s *Solver) summarize(p Params) StepResult {
	res := StepResult{
		Substeps:         p.Substeps,
		Iterations:       p.Iterations,
		NonFiniteClamped: int(s.clamped.Load()),
	}
	st := &s.stretch
	ps := s.particles
	var sum, max float32
	for i := range st.a {
		e := math32.Abs(ps.pos[st.a[i]].Distance(ps.pos[st.b[i]]) - st.rest[i])
		sum += e
		if e > max {
			max = e
		}
	}
	if n := st.count(); n > 0 {
		res.StretchMean = sum / float32(n)
	}
	res.StretchMax = max

	var ke float32
	for i := 0; i < ps.n; i++ {
		w := ps.invMass[i]
		if w == 0 {
			continue
		}
		ke += 0.5 * ps.vel[i].LengthSq() / w
	}
	res.KineticEnergy = ke
	return res
}

// ReadPositions copies the current positions into dst (grown if needed)
// and returns it. The copy is a read-only snapshot for rendering; it
// never aliases solver state.
func (s *Solver) ReadPositions(dst []Vec3) ([]Vec3, error) {
	if err := s.require(StateReady); err != nil {
		return nil, err
	}
	return s.particles.snapshot(dst), nil
}

// SetPin pins or releases a particle. Pinning zeroes the inverse mass and
// optionally teleports the particle to target; releasing restores the
// construction-time mass. Both directions rewrite previousPosition and
// zero the velocity so the next reconstruction does not manufacture a
// spike from the jump.
func (s *Solver) SetPin(i int, pinned bool, target *Vec3) error {
	if err := s.require(StateReady); err != nil {
		return err
	}
	p := s.particles
	if i < 0 || i >= p.n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, p.n)
	}
	if pinned {
		p.invMass[i] = 0
		if target != nil {
			p.pos[i] = *target
		}
	} else {
		w := p.baseInvMass[i]
		if w == 0 {
			w = 1
		}
		p.invMass[i] = w
	}
	p.prev[i] = p.pos[i]
	p.vel[i] = Vec3{}
	return nil
}

// ApplyForce accumulates a user force on one particle for the next step.
// Forces are cleared after every completed step.
func (s *Solver) ApplyForce(i int, f Vec3) error {
	if err := s.require(StateReady); err != nil {
		return err
	}
	p := s.particles
	if i < 0 || i >= p.n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, p.n)
	}
	p.extForce[i] = p.extForce[i].Add(f)
	return nil
}

// Close stops the worker pool. The solver is unusable afterwards.
func (s *Solver) Close() {
	s.disp.stopWorkers()
	s.state.Store(int32(StateUninitialized))
}
