package cloth

import (
	"errors"
	"testing"
)

func validPair() Topology {
	return Topology{
		Positions: []Vec3{{}, {X: 1}},
		InvMass:   []float32{1, 1},
		Edges:     [][2]int32{{0, 1}},
	}
}

func TestNewSolverValidPair(t *testing.T) {
	s, err := NewSolver(validPair(), DefaultParams())
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	if s.State() != StateReady {
		t.Errorf("state = %v, want ready", s.State())
	}
	if s.ParticleCount() != 2 {
		t.Errorf("particle count = %d, want 2", s.ParticleCount())
	}
	if got := s.stretch.rest[0]; got != 1 {
		t.Errorf("rest length = %v, want 1 (measured from initial pose)", got)
	}
}

func TestNewSolverRejectsOutOfRangeEdge(t *testing.T) {
	topo := validPair()
	topo.Edges = [][2]int32{{0, 2}}
	if _, err := NewSolver(topo, DefaultParams()); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("err = %v, want ErrInvalidTopology", err)
	}
}

func TestNewSolverRejectsSelfEdge(t *testing.T) {
	topo := validPair()
	topo.Edges = [][2]int32{{1, 1}}
	if _, err := NewSolver(topo, DefaultParams()); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("err = %v, want ErrInvalidTopology", err)
	}
}

func TestNewSolverRejectsZeroLengthEdge(t *testing.T) {
	topo := Topology{
		Positions: []Vec3{{}, {}},
		InvMass:   []float32{1, 1},
		Edges:     [][2]int32{{0, 1}},
	}
	if _, err := NewSolver(topo, DefaultParams()); !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("err = %v, want ErrDegenerateGeometry", err)
	}
}

func TestNewSolverRejectsCoincidentWings(t *testing.T) {
	topo := Topology{
		Positions: []Vec3{{}, {X: 1}, {Y: 1}, {Y: 1}},
		InvMass:   []float32{1, 1, 1, 1},
		BendQuads: [][4]int32{{0, 1, 2, 3}},
	}
	if _, err := NewSolver(topo, DefaultParams()); !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("err = %v, want ErrDegenerateGeometry", err)
	}
}

func TestNewSolverRejectsMismatchedInvMass(t *testing.T) {
	topo := validPair()
	topo.InvMass = []float32{1}
	if _, err := NewSolver(topo, DefaultParams()); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("err = %v, want ErrInvalidTopology", err)
	}
}

func TestNewSolverRejectsBadAnchor(t *testing.T) {
	topo := validPair()
	topo.Anchors = []Anchor{{Particle: 7}}
	if _, err := NewSolver(topo, DefaultParams()); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("err = %v, want ErrInvalidTopology", err)
	}
}

func TestNewSolverRejectsBadParams(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero dt", func(p *Params) { p.DT = 0 }},
		{"zero substeps", func(p *Params) { p.Substeps = 0 }},
		{"zero iterations", func(p *Params) { p.Iterations = 0 }},
		{"damping one", func(p *Params) { p.Damping = 1 }},
		{"zero relaxation", func(p *Params) { p.Relaxation = 0 }},
		{"negative thickness", func(p *Params) { p.Thickness = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.mutate(&p)
			if _, err := NewSolver(validPair(), p); !errors.Is(err, ErrBadParams) {
				t.Errorf("err = %v, want ErrBadParams", err)
			}
		})
	}
}

func TestGatherMapCoversEveryConstraintSide(t *testing.T) {
	topo := Topology{
		Positions: []Vec3{{}, {X: 1}, {X: 2}, {X: 3}},
		InvMass:   []float32{1, 1, 1, 1},
		Edges:     [][2]int32{{0, 1}, {1, 2}, {2, 3}},
	}
	s, err := NewSolver(topo, DefaultParams())
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	g := &s.stretchMap
	if got := len(g.cons); got != 6 {
		t.Fatalf("gather entries = %d, want 6 (two sides per edge)", got)
	}
	// Middle particles appear in two edges each.
	for i, want := range []int32{1, 2, 2, 1} {
		if got := g.offsets[i+1] - g.offsets[i]; got != want {
			t.Errorf("particle %d touches %d constraints, want %d", i, got, want)
		}
	}
}
