package scene

import "github.com/pthm-cable/drape/cloth"

// Shape is the collider geometry component. For SDF shapes, Field samples
// the volume in local space around Center.
type Shape struct {
	Kind   cloth.ColliderKind
	Normal cloth.Vec3
	Offset float32
	Center cloth.Vec3
	Radius float32
	Field  cloth.SDF
}

// Motion animates a collider around its spawn position. Zero values mean
// static.
type Motion struct {
	Origin       cloth.Vec3
	OrbitRadius  float32 // circle in the XZ plane around Origin
	OrbitSpeed   float32 // radians per second
	BobAmplitude float32 // vertical oscillation
	BobSpeed     float32 // radians per second
	Phase        float32
}

// Surface holds the contact response of a collider.
type Surface struct {
	Friction    float32
	Restitution float32
}
