package cloth

import (
	"testing"

	"github.com/chewxy/math32"
)

func groundPlane() Collider {
	return Collider{Kind: ColliderPlane, Normal: Vec3{Y: 1}, Offset: 0}
}

func freeParticleAt(p Vec3) Topology {
	return Topology{
		Positions: []Vec3{p},
		InvMass:   []float32{1},
	}
}

func TestCollisionIdempotentOnSurface(t *testing.T) {
	p := driftParams()
	p.Thickness = 0
	s, err := NewSolver(freeParticleAt(Vec3{}), p)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	s.colliders = []Collider{groundPlane()}
	before := s.particles.pos[0]
	if err := s.collide(p.DT); err != nil {
		t.Fatalf("collide: %v", err)
	}
	// Resting exactly on the surface with zero inward velocity: untouched.
	if s.particles.pos[0] != before {
		t.Errorf("surface-resting particle moved: %+v -> %+v", before, s.particles.pos[0])
	}
}

func TestCollisionProjectsOutOfPlane(t *testing.T) {
	p := driftParams()
	p.Thickness = 0.05
	s, err := NewSolver(freeParticleAt(Vec3{Y: -0.2}), p)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	s.colliders = []Collider{groundPlane()}
	if err := s.collide(p.DT); err != nil {
		t.Fatalf("collide: %v", err)
	}
	if got := s.particles.pos[0].Y; math32.Abs(got-0.05) > 1e-6 {
		t.Errorf("projected Y = %v, want thickness 0.05", got)
	}
}

func TestCollisionSumsMultipleColliders(t *testing.T) {
	p := driftParams()
	p.Thickness = 0
	s, err := NewSolver(freeParticleAt(Vec3{X: -0.1, Y: -0.2}), p)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	// A corner of two planes: both corrections must apply, not one
	// overwriting the other.
	s.colliders = []Collider{
		groundPlane(),
		{Kind: ColliderPlane, Normal: Vec3{X: 1}, Offset: 0},
	}
	if err := s.collide(p.DT); err != nil {
		t.Fatalf("collide: %v", err)
	}
	got := s.particles.pos[0]
	if math32.Abs(got.X) > 1e-6 || math32.Abs(got.Y) > 1e-6 {
		t.Errorf("corner projection = %+v, want origin", got)
	}
}

func TestCollisionSphere(t *testing.T) {
	p := driftParams()
	p.Thickness = 0
	s, err := NewSolver(freeParticleAt(Vec3{Y: 0.5}), p)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	s.colliders = []Collider{{Kind: ColliderSphere, Center: Vec3{}, Radius: 1}}
	if err := s.collide(p.DT); err != nil {
		t.Fatalf("collide: %v", err)
	}
	if got := s.particles.pos[0].Y; math32.Abs(got-1) > 1e-5 {
		t.Errorf("pushed to Y = %v, want sphere surface at 1", got)
	}
}

func TestCollisionSDF(t *testing.T) {
	p := driftParams()
	p.Thickness = 0
	s, err := NewSolver(freeParticleAt(Vec3{Y: 0.25}), p)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	// Sphere of radius 1 expressed as an SDF.
	s.colliders = []Collider{{
		Kind:  ColliderSDF,
		Field: func(q Vec3) float32 { return q.Length() - 1 },
	}}
	if err := s.collide(p.DT); err != nil {
		t.Fatalf("collide: %v", err)
	}
	if got := s.particles.pos[0].Y; math32.Abs(got-1) > 1e-3 {
		t.Errorf("pushed to Y = %v, want SDF surface at 1", got)
	}
}

func TestCollisionFrictionDampsTangentialVelocity(t *testing.T) {
	p := driftParams()
	p.Thickness = 0
	s, err := NewSolver(freeParticleAt(Vec3{Y: -0.01}), p)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	// Sliding along X while penetrating: prev behind in X and above in Y.
	h := p.DT
	s.particles.prev[0] = Vec3{X: -1 * h, Y: 0.01}
	c := groundPlane()
	c.Friction = 0.5
	s.colliders = []Collider{c}

	if err := s.collide(h); err != nil {
		t.Fatalf("collide: %v", err)
	}
	if err := s.reconstruct(h); err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	// The convention is prev-position adjustment: reconstruction must see
	// the tangential velocity halved.
	if got := s.particles.vel[0].X; math32.Abs(got-0.5) > 1e-3 {
		t.Errorf("tangential velocity after friction = %v, want 0.5", got)
	}
}

func TestCollisionRestitutionReflectsNormalVelocity(t *testing.T) {
	p := driftParams()
	p.Thickness = 0
	s, err := NewSolver(freeParticleAt(Vec3{Y: -0.1}), p)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	h := p.DT
	inward := float32(-2.0) // units/s into the plane
	s.particles.prev[0] = Vec3{Y: -0.1 - inward*h}
	c := groundPlane()
	c.Restitution = 0.5
	s.colliders = []Collider{c}

	if err := s.collide(h); err != nil {
		t.Fatalf("collide: %v", err)
	}
	if err := s.reconstruct(h); err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if got := s.particles.vel[0].Y; math32.Abs(got-1.0) > 1e-3 {
		t.Errorf("normal velocity after restitution = %v, want +1.0", got)
	}
}

func TestGroundPlaneRestScenario(t *testing.T) {
	// Single particle 1 unit above an infinite ground plane under gravity:
	// it must come to rest on the plane and never sink below it.
	p := DefaultParams()
	p.Substeps = 1
	p.Iterations = 10
	p.Damping = 0
	p.Thickness = 0
	s, err := NewSolver(freeParticleAt(Vec3{Y: 1}), p)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()

	const eps = 1e-4
	for frame := 0; frame < 600; frame++ {
		if err := s.SetColliders([]Collider{groundPlane()}); err != nil {
			t.Fatalf("SetColliders: %v", err)
		}
		if _, err := s.Step(); err != nil {
			t.Fatalf("Step at frame %d: %v", frame, err)
		}
		if y := s.particles.pos[0].Y; y < -eps {
			t.Fatalf("frame %d: particle penetrated plane, Y = %v", frame, y)
		}
	}
	if y := s.particles.pos[0].Y; math32.Abs(y) > eps {
		t.Errorf("resting Y = %v, want 0 ± %v", y, eps)
	}
}
