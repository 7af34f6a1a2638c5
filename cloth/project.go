package cloth

// Constraint projection: one Jacobi iteration per family is an evaluate
// dispatch over constraints followed by a gather dispatch over particles.
// Evaluate reads the positions committed at the start of the iteration and
// writes only its own constraint's λ and impulse; gather sums the signed
// impulses touching each particle, so constraints sharing a particle never
// race. The dispatch barrier between the two passes is what commits the
// corrections "after the whole family has been evaluated".
//
// The XPBD increment per constraint is
//
//	Δλ = (−C − α̃·λ) / (Σw + α̃),   α̃ = compliance / h²
//
// which reduces to the rigid form −C/Σw at zero compliance.

// projectStretch runs one iteration of the distance family.
func (s *Solver) projectStretch(h float32) error {
	st := &s.stretch
	p := s.particles
	h2 := h * h
	if err := s.disp.dispatch(st.count(), func(start, end int) {
		for i := start; i < end; i++ {
			a, b := st.a[i], st.b[i]
			wsum := p.invMass[a] + p.invMass[b]
			if wsum == 0 {
				st.impulse[i] = Vec3{}
				continue
			}
			d := p.pos[a].Sub(p.pos[b])
			l := d.Length()
			if l < minRestLength {
				// Collapsed edge has no usable gradient this iteration.
				st.impulse[i] = Vec3{}
				continue
			}
			c := l - st.rest[i]
			alpha := st.compliance[i] / h2
			dl := (-c - alpha*st.lambda[i]) / (wsum + alpha)
			st.lambda[i] += dl
			st.impulse[i] = d.Scale(dl / l)
		}
	}); err != nil {
		return err
	}
	return s.applyGather(&s.stretchMap, st.impulse)
}

// projectBend runs one iteration of the bending family. The error is the
// deviation of the wing-vertex distance from its rest value, the
// distance-based proxy for the dihedral angle of the two triangles
// that share the edge.
func (s *Solver) projectBend(h float32) error {
	bd := &s.bend
	p := s.particles
	h2 := h * h
	if err := s.disp.dispatch(bd.count(), func(start, end int) {
		for i := start; i < end; i++ {
			a, b := bd.c[i], bd.d[i]
			wsum := p.invMass[a] + p.invMass[b]
			if wsum == 0 {
				bd.impulse[i] = Vec3{}
				continue
			}
			d := p.pos[a].Sub(p.pos[b])
			l := d.Length()
			if l < minRestLength {
				bd.impulse[i] = Vec3{}
				continue
			}
			c := l - bd.rest[i]
			alpha := bd.compliance[i] / h2
			dl := (-c - alpha*bd.lambda[i]) / (wsum + alpha)
			bd.lambda[i] += dl
			bd.impulse[i] = d.Scale(dl / l)
		}
	}); err != nil {
		return err
	}
	return s.applyGather(&s.bendMap, bd.impulse)
}

// projectAnchors runs one iteration of the attachment family. The anchor
// side is immovable, so at zero compliance the particle is pulled fully
// back to its target in a single increment.
func (s *Solver) projectAnchors(h float32) error {
	an := &s.anchors
	p := s.particles
	h2 := h * h
	if err := s.disp.dispatch(an.count(), func(start, end int) {
		for i := start; i < end; i++ {
			pi := an.p[i]
			w := p.invMass[pi]
			if w == 0 {
				an.impulse[i] = Vec3{}
				continue
			}
			d := p.pos[pi].Sub(an.target[i])
			c := d.Length()
			if c < minRestLength {
				an.impulse[i] = Vec3{}
				continue
			}
			alpha := an.compliance[i] / h2
			dl := (-c - alpha*an.lambda[i]) / (w + alpha)
			an.lambda[i] += dl
			an.impulse[i] = d.Scale(dl / c)
		}
	}); err != nil {
		return err
	}
	return s.applyGather(&s.anchorMap, an.impulse)
}

// applyGather commits a family's corrections. Each particle is owned by
// exactly one worker and sums the signed impulses of the constraints that
// touch it, scaled by its inverse mass and the relaxation factor.
func (s *Solver) applyGather(g *gatherMap, impulse []Vec3) error {
	p := s.particles
	relax := s.params.Relaxation
	return s.disp.dispatch(p.n, func(start, end int) {
		for i := start; i < end; i++ {
			w := p.invMass[i]
			if w == 0 {
				continue
			}
			lo, hi := g.offsets[i], g.offsets[i+1]
			if lo == hi {
				continue
			}
			var sum Vec3
			for e := lo; e < hi; e++ {
				sum = sum.Add(impulse[g.cons[e]].Scale(g.sign[e]))
			}
			p.pos[i] = p.pos[i].Add(sum.Scale(w * relax))
		}
	})
}

// resetLambdas zeroes every family's multiplier accumulators. Called at
// the start of each substep; λ is substep-scoped state.
func (s *Solver) resetLambdas() {
	clear(s.stretch.lambda)
	clear(s.bend.lambda)
	clear(s.anchors.lambda)
}
