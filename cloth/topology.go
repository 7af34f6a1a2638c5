package cloth

import "fmt"

// Topology is the rest-pose description handed to NewSolver by the mesh
// builder. The solver copies everything it needs; the caller may reuse or
// discard the slices afterwards.
//
// Rest lengths are not part of the descriptor: they are measured from
// Positions at build time, so the initial pose is by definition the rest
// pose.
type Topology struct {
	// Positions is the rest pose, one entry per particle.
	Positions []Vec3

	// InvMass holds per-particle inverse masses. Zero pins a particle in
	// place; every stage skips it. Must have len(Positions) entries.
	InvMass []float32

	// Edges lists stretch constraints as particle index pairs.
	Edges [][2]int32

	// BendQuads lists bend references as (edgeA, edgeB, wingC, wingD): the
	// two particles of a shared edge followed by the opposite vertices of
	// the two triangles meeting at it. The solver constrains the wing
	// distance; the edge indices are kept for diagnostics.
	BendQuads [][4]int32

	// Anchors lists soft attachment constraints for movable particles.
	Anchors []Anchor

	// StretchCompliance and BendCompliance are the inverse stiffnesses
	// applied to the respective families. Zero means rigid.
	StretchCompliance float32
	BendCompliance    float32
}

// Anchor ties a movable particle to a fixed world-space target.
type Anchor struct {
	Particle   int32
	Target     Vec3
	Compliance float32
}

func (t *Topology) validate() error {
	n := int32(len(t.Positions))
	if n == 0 {
		return fmt.Errorf("%w: no particles", ErrInvalidTopology)
	}
	if len(t.InvMass) != int(n) {
		return fmt.Errorf("%w: %d particles but %d inverse masses",
			ErrInvalidTopology, n, len(t.InvMass))
	}
	for i, w := range t.InvMass {
		if w < 0 {
			return fmt.Errorf("%w: negative inverse mass at particle %d",
				ErrInvalidTopology, i)
		}
	}
	if t.StretchCompliance < 0 || t.BendCompliance < 0 {
		return fmt.Errorf("%w: negative compliance", ErrInvalidTopology)
	}
	for i, e := range t.Edges {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n {
			return fmt.Errorf("%w: edge %d references particle outside [0,%d)",
				ErrInvalidTopology, i, n)
		}
		if e[0] == e[1] {
			return fmt.Errorf("%w: edge %d connects particle %d to itself",
				ErrInvalidTopology, i, e[0])
		}
	}
	for i, q := range t.BendQuads {
		for _, p := range q {
			if p < 0 || p >= n {
				return fmt.Errorf("%w: bend quad %d references particle outside [0,%d)",
					ErrInvalidTopology, i, n)
			}
		}
		if q[2] == q[3] {
			return fmt.Errorf("%w: bend quad %d has identical wings", ErrInvalidTopology, i)
		}
	}
	for i, a := range t.Anchors {
		if a.Particle < 0 || a.Particle >= n {
			return fmt.Errorf("%w: anchor %d references particle outside [0,%d)",
				ErrInvalidTopology, i, n)
		}
		if a.Compliance < 0 {
			return fmt.Errorf("%w: anchor %d has negative compliance",
				ErrInvalidTopology, i)
		}
	}
	return nil
}
