package cloth

import "github.com/chewxy/math32"

// integrate is the force/integration stage for one substep of length h.
// For every movable particle it saves the previous position, applies
// gravity, wind and accumulated user force, decays velocity by the global
// damping coefficient, and predicts the new position. Pinned particles
// (inverse mass zero) are skipped entirely.
func (s *Solver) integrate(h float32) error {
	p := s.particles
	g := s.params.Gravity
	wind := s.params.Wind
	decay := float32(1)
	if s.params.Damping > 0 {
		// Multiplicative decay keeps damping stable across any h.
		decay = math32.Pow(1-s.params.Damping, h)
	}
	return s.disp.dispatch(p.n, func(start, end int) {
		for i := start; i < end; i++ {
			w := p.invMass[i]
			if w == 0 {
				continue
			}
			p.prev[i] = p.pos[i]
			f := g.Add(wind).Add(p.extForce[i])
			v := p.vel[i].Add(f.Scale(w * h))
			v = v.Scale(decay)
			p.vel[i] = v
			p.pos[i] = p.pos[i].Add(v.Scale(h))
		}
	})
}
