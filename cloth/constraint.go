package cloth

import "fmt"

// minRestLength is the shortest edge or wing span accepted at build time.
// Anything shorter cannot yield a usable constraint gradient.
const minRestLength = 1e-6

// stretchStore holds the distance constraint family in SoA layout. The
// lambda accumulators are substep-scoped; impulse holds the per-constraint
// Jacobi correction (Δλ·∇C) written by the evaluate kernel and consumed by
// the gather kernel.
type stretchStore struct {
	a, b       []int32
	rest       []float32
	compliance []float32
	lambda     []float32
	impulse    []Vec3
}

func (s *stretchStore) count() int { return len(s.a) }

func buildStretch(t *Topology) (stretchStore, error) {
	n := len(t.Edges)
	s := stretchStore{
		a:          make([]int32, n),
		b:          make([]int32, n),
		rest:       make([]float32, n),
		compliance: make([]float32, n),
		lambda:     make([]float32, n),
		impulse:    make([]Vec3, n),
	}
	for i, e := range t.Edges {
		rest := t.Positions[e[0]].Distance(t.Positions[e[1]])
		if rest < minRestLength {
			return stretchStore{}, fmt.Errorf(
				"%w: zero-length edge %d (particles %d, %d)",
				ErrDegenerateGeometry, i, e[0], e[1])
		}
		s.a[i] = e[0]
		s.b[i] = e[1]
		s.rest[i] = rest
		s.compliance[i] = t.StretchCompliance
	}
	return s, nil
}

// bendStore holds the bending family. Bending uses the distance-based proxy
// over the two triangles sharing an edge: the constrained pair is the wing
// vertices (c, d); the shared edge (ea, eb) is retained for diagnostics.
type bendStore struct {
	ea, eb     []int32
	c, d       []int32
	rest       []float32
	compliance []float32
	lambda     []float32
	impulse    []Vec3
}

func (s *bendStore) count() int { return len(s.c) }

func buildBend(t *Topology) (bendStore, error) {
	n := len(t.BendQuads)
	s := bendStore{
		ea:         make([]int32, n),
		eb:         make([]int32, n),
		c:          make([]int32, n),
		d:          make([]int32, n),
		rest:       make([]float32, n),
		compliance: make([]float32, n),
		lambda:     make([]float32, n),
		impulse:    make([]Vec3, n),
	}
	for i, q := range t.BendQuads {
		rest := t.Positions[q[2]].Distance(t.Positions[q[3]])
		if rest < minRestLength {
			return bendStore{}, fmt.Errorf(
				"%w: bend quad %d has coincident wings (particles %d, %d)",
				ErrDegenerateGeometry, i, q[2], q[3])
		}
		s.ea[i] = q[0]
		s.eb[i] = q[1]
		s.c[i] = q[2]
		s.d[i] = q[3]
		s.rest[i] = rest
		s.compliance[i] = t.BendCompliance
	}
	return s, nil
}

// anchorStore holds soft attachment constraints. The anchor side is
// immovable (w = 0), so the whole correction lands on the particle.
type anchorStore struct {
	p          []int32
	target     []Vec3
	compliance []float32
	lambda     []float32
	impulse    []Vec3
}

func (s *anchorStore) count() int { return len(s.p) }

func buildAnchors(t *Topology) anchorStore {
	n := len(t.Anchors)
	s := anchorStore{
		p:          make([]int32, n),
		target:     make([]Vec3, n),
		compliance: make([]float32, n),
		lambda:     make([]float32, n),
		impulse:    make([]Vec3, n),
	}
	for i, a := range t.Anchors {
		s.p[i] = a.Particle
		s.target[i] = a.Target
		s.compliance[i] = a.Compliance
	}
	return s
}

// gatherMap maps each particle to the constraints touching it, in CSR form.
// The apply kernel walks a particle's entries and sums signed impulses, so
// two constraints sharing a particle never race: each particle is written
// by exactly one worker.
type gatherMap struct {
	offsets []int32 // len = particleCount+1
	cons    []int32 // constraint index per entry
	sign    []float32
}

type gatherEntry struct {
	particle int32
	con      int32
	sign     float32
}

func buildGather(particleCount int, entries []gatherEntry) gatherMap {
	g := gatherMap{
		offsets: make([]int32, particleCount+1),
		cons:    make([]int32, len(entries)),
		sign:    make([]float32, len(entries)),
	}
	for _, e := range entries {
		g.offsets[e.particle+1]++
	}
	for i := 1; i <= particleCount; i++ {
		g.offsets[i] += g.offsets[i-1]
	}
	cursor := make([]int32, particleCount)
	for _, e := range entries {
		at := g.offsets[e.particle] + cursor[e.particle]
		g.cons[at] = e.con
		g.sign[at] = e.sign
		cursor[e.particle]++
	}
	return g
}

func stretchGather(n int, s *stretchStore) gatherMap {
	entries := make([]gatherEntry, 0, 2*s.count())
	for i := range s.a {
		entries = append(entries,
			gatherEntry{particle: s.a[i], con: int32(i), sign: +1},
			gatherEntry{particle: s.b[i], con: int32(i), sign: -1},
		)
	}
	return buildGather(n, entries)
}

func bendGather(n int, s *bendStore) gatherMap {
	entries := make([]gatherEntry, 0, 2*s.count())
	for i := range s.c {
		entries = append(entries,
			gatherEntry{particle: s.c[i], con: int32(i), sign: +1},
			gatherEntry{particle: s.d[i], con: int32(i), sign: -1},
		)
	}
	return buildGather(n, entries)
}

func anchorGather(n int, s *anchorStore) gatherMap {
	entries := make([]gatherEntry, 0, s.count())
	for i := range s.p {
		entries = append(entries, gatherEntry{particle: s.p[i], con: int32(i), sign: +1})
	}
	return buildGather(n, entries)
}
