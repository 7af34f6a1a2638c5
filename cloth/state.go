package cloth

// particleStore holds the particle state arrays in SoA layout. The arrays
// are contiguous and index-addressable by constraint participant fields;
// they are the single shared mutable resource of the pipeline.
type particleStore struct {
	n       int
	pos     []Vec3
	prev    []Vec3
	vel     []Vec3
	invMass []float32

	// baseInvMass remembers the construction-time inverse mass so an
	// unpinned particle regains its original mass.
	baseInvMass []float32

	// extForce accumulates user forces for the next step. Cleared after
	// every completed step.
	extForce []Vec3
}

func newParticleStore(t *Topology) *particleStore {
	n := len(t.Positions)
	p := &particleStore{
		n:           n,
		pos:         make([]Vec3, n),
		prev:        make([]Vec3, n),
		vel:         make([]Vec3, n),
		invMass:     make([]float32, n),
		baseInvMass: make([]float32, n),
		extForce:    make([]Vec3, n),
	}
	copy(p.pos, t.Positions)
	copy(p.prev, t.Positions)
	copy(p.invMass, t.InvMass)
	copy(p.baseInvMass, t.InvMass)
	return p
}

// snapshot copies current positions into dst, growing it if needed.
func (p *particleStore) snapshot(dst []Vec3) []Vec3 {
	if cap(dst) < p.n {
		dst = make([]Vec3, p.n)
	}
	dst = dst[:p.n]
	copy(dst, p.pos)
	return dst
}

// clearForces zeroes the per-frame user force buffer.
func (p *particleStore) clearForces() {
	for i := range p.extForce {
		p.extForce[i] = Vec3{}
	}
}
