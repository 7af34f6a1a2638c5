package cloth

// collide projects penetrating particles out of every active collider.
// Corrections from multiple simultaneous colliders are summed against the
// position committed by the projection stage (Jacobi within the pass), not
// applied one over the other.
//
// Friction and restitution are written through previousPosition: the stage
// rewrites prev so that the following velocity-reconstruction stage derives
// the damped tangential / reflected normal velocity. This is the single
// convention used everywhere; the stage never touches the velocity buffer.
func (s *Solver) collide(h float32) error {
	colliders := s.colliders
	if len(colliders) == 0 {
		return nil
	}
	p := s.particles
	thickness := s.params.Thickness
	invH := 1 / h
	return s.disp.dispatch(p.n, func(start, end int) {
		for i := start; i < end; i++ {
			if p.invMass[i] == 0 {
				continue
			}
			pos := p.pos[i]
			if !pos.Finite() {
				// Leave the particle to the reconstruct guard: prev must
				// keep its last finite value or the restore has nothing
				// finite to restore to.
				continue
			}
			v := pos.Sub(p.prev[i]).Scale(invH)
			var push Vec3
			hit := false
			for ci := range colliders {
				c := &colliders[ci]
				dist, n := c.signedDistance(pos)
				pen := thickness - dist
				// NaN-safe: a field returning NaN must not count as contact.
				if !(pen > 0) {
					continue
				}
				push = push.Add(n.Scale(pen))
				hit = true

				// Split velocity at the contact: damp tangential part by
				// friction, reflect the approaching normal part by
				// restitution, kill it otherwise.
				vn := v.Dot(n)
				vt := v.Sub(n.Scale(vn))
				vt = vt.Scale(1 - clamp01(c.Friction))
				if vn < 0 {
					vn = -vn * clamp01(c.Restitution)
				}
				v = vt.Add(n.Scale(vn))
			}
			if !hit {
				continue
			}
			pos = pos.Add(push)
			p.pos[i] = pos
			p.prev[i] = pos.Sub(v.Scale(h))
		}
	})
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
