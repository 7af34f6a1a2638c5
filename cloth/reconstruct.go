package cloth

// reconstruct derives velocity from the position delta over the substep.
// After this stage the velocity buffer is the sole source of truth; any
// velocity the integration stage wrote is overwritten.
//
// The non-finite guard lives here because this is the last stage of the
// substep: a particle whose prediction went NaN/Inf is restored to its
// previous position with zero velocity before the next substep can smear
// the corruption across every constraint touching it. Clamps are counted
// and reported through StepResult.
func (s *Solver) reconstruct(h float32) error {
	p := s.particles
	invH := 1 / h
	return s.disp.dispatch(p.n, func(start, end int) {
		for i := start; i < end; i++ {
			if p.invMass[i] == 0 {
				continue
			}
			if !p.pos[i].Finite() {
				p.pos[i] = p.prev[i]
				p.vel[i] = Vec3{}
				s.clamped.Add(1)
				continue
			}
			p.vel[i] = p.pos[i].Sub(p.prev[i]).Scale(invH)
		}
	})
}
