// Package scene owns everything around the solver: collider entities with
// optional motion, the gusting wind source, and cloth grid construction.
// Colliders live in an ECS world so motion systems can re-parameterize them
// every frame without the solver knowing anything about animation.
package scene

import (
	"github.com/chewxy/math32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/config"
)

// Scene holds the collider world and the wind clock.
type Scene struct {
	world  *ecs.World
	mapper *ecs.Map3[Shape, Motion, Surface]
	filter *ecs.Filter3[Shape, Motion, Surface]

	wind config.WindConfig
	time float32
}

// New builds a scene from the configured collider list.
func New(cfg *config.Config) *Scene {
	world := ecs.NewWorld()
	s := &Scene{
		world:  world,
		mapper: ecs.NewMap3[Shape, Motion, Surface](world),
		filter: ecs.NewFilter3[Shape, Motion, Surface](world),
		wind:   cfg.Wind,
	}
	for _, cc := range cfg.Colliders {
		s.spawn(cc)
	}
	return s
}

func (s *Scene) spawn(cc config.ColliderConfig) ecs.Entity {
	center := vec3(cc.Center)
	shape := Shape{Center: center}
	switch cc.Type {
	case "sphere":
		shape.Kind = cloth.ColliderSphere
		shape.Radius = float32(cc.Radius)
	case "torus":
		shape.Kind = cloth.ColliderSDF
		shape.Field = torusField(float32(cc.MajorRadius), float32(cc.MinorRadius))
	default: // plane
		shape.Kind = cloth.ColliderPlane
		n := vec3(cc.Normal)
		if n.LengthSq() == 0 {
			n = cloth.Vec3{Y: 1}
		}
		shape.Normal = n.Normalized()
		shape.Offset = float32(cc.Offset)
	}
	motion := Motion{
		Origin:       center,
		OrbitRadius:  float32(cc.OrbitRadius),
		OrbitSpeed:   float32(cc.OrbitSpeed),
		BobAmplitude: float32(cc.BobAmplitude),
		BobSpeed:     float32(cc.BobSpeed),
	}
	surface := Surface{
		Friction:    float32(cc.Friction),
		Restitution: float32(cc.Restitution),
	}
	return s.mapper.NewEntity(&shape, &motion, &surface)
}

// Advance moves the scene clock forward and updates animated colliders.
func (s *Scene) Advance(dt float32) {
	s.time += dt

	query := s.filter.Query()
	for query.Next() {
		shape, motion, _ := query.Get()
		if motion.OrbitRadius == 0 && motion.BobAmplitude == 0 {
			continue
		}
		c := motion.Origin
		if motion.OrbitRadius != 0 {
			a := s.time*motion.OrbitSpeed + motion.Phase
			c.X += motion.OrbitRadius * math32.Cos(a)
			c.Z += motion.OrbitRadius * math32.Sin(a)
		}
		if motion.BobAmplitude != 0 {
			c.Y += motion.BobAmplitude * math32.Sin(s.time*motion.BobSpeed+motion.Phase)
		}
		shape.Center = c
	}
}

// Colliders appends the current collider set to dst and returns it. Call
// once per frame after Advance; the solver takes a snapshot via
// SetColliders.
func (s *Scene) Colliders(dst []cloth.Collider) []cloth.Collider {
	query := s.filter.Query()
	for query.Next() {
		shape, _, surface := query.Get()
		col := cloth.Collider{
			Kind:        shape.Kind,
			Normal:      shape.Normal,
			Offset:      shape.Offset,
			Center:      shape.Center,
			Radius:      shape.Radius,
			Friction:    surface.Friction,
			Restitution: surface.Restitution,
		}
		if shape.Kind == cloth.ColliderSDF {
			center := shape.Center
			field := shape.Field
			col.Field = func(p cloth.Vec3) float32 {
				return field(p.Sub(center))
			}
		}
		dst = append(dst, col)
	}
	return dst
}

// Wind evaluates the wind force at the current scene time. Gusts oscillate
// on X and Z with offset phases so the cloth sways instead of pulsing.
func (s *Scene) Wind() cloth.Vec3 {
	w := vec3(s.wind.Base)
	if s.wind.GustAmplitude == 0 {
		return w
	}
	g := float32(s.wind.GustAmplitude)
	t := s.time * 2 * math32.Pi * float32(s.wind.GustFrequency)
	w.X += g * math32.Sin(t)
	w.Z += g * 0.35 * math32.Sin(t*0.7+1.3)
	return w
}

// SetGust retunes the gust component of the wind source.
func (s *Scene) SetGust(amplitude, frequency float64) {
	s.wind.GustAmplitude = amplitude
	s.wind.GustFrequency = frequency
}

// Time returns the scene clock in seconds.
func (s *Scene) Time() float32 {
	return s.time
}

// torusField builds a local-space signed distance field for a torus lying
// in the XZ plane.
func torusField(major, minor float32) cloth.SDF {
	return func(p cloth.Vec3) float32 {
		q := math32.Hypot(p.X, p.Z) - major
		return math32.Hypot(q, p.Y) - minor
	}
}

func vec3(v [3]float64) cloth.Vec3 {
	return cloth.Vec3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}
