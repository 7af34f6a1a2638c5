package cloth

// ColliderKind tags the Collider variant.
type ColliderKind uint8

const (
	ColliderPlane ColliderKind = iota
	ColliderSphere
	ColliderSDF
)

// SDF samples a signed distance field: negative inside, positive outside,
// in world units. Implementations must be safe for concurrent calls.
type SDF func(p Vec3) float32

// sdfGradEps is the half-width of the central-difference stencil used to
// derive SDF surface normals.
const sdfGradEps = 1e-3

// Collider is one static or dynamic collision primitive. The solver never
// owns colliders; the scene layer supplies the current set each frame and
// may re-parameterize them freely between steps.
type Collider struct {
	Kind ColliderKind

	// Plane: points p with Normal·p - Offset >= 0 are outside. Normal must
	// be unit length.
	Normal Vec3
	Offset float32

	// Sphere.
	Center Vec3
	Radius float32

	// SDF volume.
	Field SDF

	// Contact response.
	Friction    float32
	Restitution float32
}

// signedDistance returns the signed distance from p to the collider surface
// and the outward surface normal at the closest point.
func (c *Collider) signedDistance(p Vec3) (float32, Vec3) {
	switch c.Kind {
	case ColliderPlane:
		return c.Normal.Dot(p) - c.Offset, c.Normal
	case ColliderSphere:
		d := p.Sub(c.Center)
		l := d.Length()
		if l < 1e-9 {
			// Dead center: push up, any direction is as good as another.
			return -c.Radius, Vec3{Y: 1}
		}
		return l - c.Radius, d.Scale(1 / l)
	case ColliderSDF:
		dist := c.Field(p)
		n := Vec3{
			X: c.Field(Vec3{p.X + sdfGradEps, p.Y, p.Z}) - c.Field(Vec3{p.X - sdfGradEps, p.Y, p.Z}),
			Y: c.Field(Vec3{p.X, p.Y + sdfGradEps, p.Z}) - c.Field(Vec3{p.X, p.Y - sdfGradEps, p.Z}),
			Z: c.Field(Vec3{p.X, p.Y, p.Z + sdfGradEps}) - c.Field(Vec3{p.X, p.Y, p.Z - sdfGradEps}),
		}.Normalized()
		if n == (Vec3{}) {
			n = Vec3{Y: 1}
		}
		return dist, n
	}
	return 0, Vec3{Y: 1}
}
