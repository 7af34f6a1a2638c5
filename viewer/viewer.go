// Package viewer renders the cloth as a 3D wireframe with an orbital camera
// and a tuning panel. It drives the solver only through its public API:
// colliders and parameters are pushed before each Step, positions are read
// back after.
package viewer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/scene"
)

// RebuildFunc constructs a fresh solver and topology, with the bend
// compliance overridden. Compliance lives in the constraint stores, so
// changing it means rebuilding rather than reconfiguring.
type RebuildFunc func(bendCompliance float64) (*cloth.Solver, cloth.Topology, error)

// Viewer owns the render loop state for graphical mode.
type Viewer struct {
	cfg     *config.Config
	solver  *cloth.Solver
	scn     *scene.Scene
	rebuild RebuildFunc
	edges   [][2]int32
	pinned  []bool

	camera    rl.Camera3D
	positions []cloth.Vec3
	colliders []cloth.Collider

	params cloth.Params
	panel  panel

	paused     bool
	stepQueued bool
	windOn     bool
	stepErr    error
	last       cloth.StepResult
	frame      int64
}

// New wires the viewer to a solver and scene. The topology supplies the
// wireframe edges; it is not used for simulation.
func New(cfg *config.Config, solver *cloth.Solver, scn *scene.Scene, topo cloth.Topology, rebuild RebuildFunc) *Viewer {
	pinned := make([]bool, len(topo.InvMass))
	for i, w := range topo.InvMass {
		pinned[i] = w == 0
	}
	v := &Viewer{
		cfg:     cfg,
		solver:  solver,
		scn:     scn,
		rebuild: rebuild,
		edges:   topo.Edges,
		pinned:  pinned,
		params:  solver.Params(),
		windOn:  true,
		camera: rl.Camera3D{
			Position:   rl.Vector3{X: 3.5, Y: 2.2, Z: 3.5},
			Target:     rl.Vector3{Y: 1.2},
			Up:         rl.Vector3{Y: 1},
			Fovy:       45,
			Projection: rl.CameraPerspective,
		},
	}
	v.panel = newPanel(cfg)
	return v
}

// Update advances the scene and steps the solver once, unless paused.
func (v *Viewer) Update() {
	v.handleInput()

	if v.stepErr != nil {
		return
	}
	if v.paused {
		if !v.stepQueued {
			return
		}
		v.stepQueued = false
	}

	dt := v.cfg.Derived.DT32
	v.scn.Advance(dt)
	v.colliders = v.scn.Colliders(v.colliders[:0])
	if err := v.solver.SetColliders(v.colliders); err != nil {
		v.stepErr = err
		return
	}

	if v.windOn {
		v.params.Wind = v.scn.Wind()
	} else {
		v.params.Wind = cloth.Vec3{}
	}
	if err := v.solver.Configure(v.params); err != nil {
		v.stepErr = err
		return
	}

	res, err := v.solver.Step()
	if err != nil {
		v.stepErr = err
		return
	}
	v.last = res
	v.frame++

	v.positions, _ = v.solver.ReadPositions(v.positions)
}

func (v *Viewer) handleInput() {
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		v.paused = !v.paused
	case rl.IsKeyPressed(rl.KeyN):
		v.stepQueued = true
	case rl.IsKeyPressed(rl.KeyR):
		v.reset(v.panel.bendCompliance)
	case rl.IsKeyPressed(rl.KeyTab):
		v.panel.visible = !v.panel.visible
	case rl.IsKeyPressed(rl.KeyW):
		v.windOn = !v.windOn
	}
	rl.UpdateCamera(&v.camera, rl.CameraOrbital)
}

// reset rebuilds the solver from the initial grid, keeping the scene clock
// and camera where they are.
func (v *Viewer) reset(bendCompliance float64) {
	solver, topo, err := v.rebuild(bendCompliance)
	if err != nil {
		v.stepErr = err
		return
	}
	v.solver.Close()
	v.solver = solver
	v.edges = topo.Edges
	for i, w := range topo.InvMass {
		v.pinned[i] = w == 0
	}
	v.positions = v.positions[:0]
	v.stepErr = nil
	v.frame = 0
	v.last = cloth.StepResult{}
}

// Draw renders the current frame.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 18, G: 18, B: 24, A: 255})

	rl.BeginMode3D(v.camera)
	rl.DrawGrid(20, 0.5)
	v.drawCloth()
	v.drawColliders()
	rl.EndMode3D()

	v.drawHUD()
	gustChanged, bendChanged := v.panel.draw(&v.params)
	if gustChanged {
		v.scn.SetGust(v.panel.gustAmplitude, v.cfg.Wind.GustFrequency)
	}
	if bendChanged {
		v.reset(v.panel.bendCompliance)
	}

	rl.EndDrawing()
}

func (v *Viewer) drawCloth() {
	if len(v.positions) == 0 {
		return
	}
	wire := rl.Color{R: 120, G: 190, B: 255, A: 255}
	for _, e := range v.edges {
		rl.DrawLine3D(rlVec(v.positions[e[0]]), rlVec(v.positions[e[1]]), wire)
	}
	for i, p := range v.pinned {
		if p {
			rl.DrawSphere(rlVec(v.positions[i]), 0.015, rl.Red)
		}
	}
}

func (v *Viewer) drawColliders() {
	solid := rl.Color{R: 200, G: 160, B: 60, A: 255}
	for _, c := range v.colliders {
		switch c.Kind {
		case cloth.ColliderSphere:
			rl.DrawSphereWires(rlVec(c.Center), c.Radius, 12, 12, solid)
		case cloth.ColliderSDF:
			// Volumes have no analytic wireframe; mark the center.
			rl.DrawSphereWires(rlVec(c.Center), 0.05, 6, 6, solid)
		}
	}
}

func (v *Viewer) drawHUD() {
	if v.stepErr != nil {
		rl.DrawText(fmt.Sprintf("solver failed: %v", v.stepErr), 10, 10, 20, rl.Red)
		return
	}

	text := fmt.Sprintf(
		"frame %d  %d fps\nstretch mean %.4f  max %.4f\nkinetic %.3f  clamped %d\nstep %.2fms",
		v.frame, rl.GetFPS(),
		v.last.StretchMean, v.last.StretchMax,
		v.last.KineticEnergy, v.last.NonFiniteClamped,
		float64(v.last.Elapsed.Microseconds())/1000,
	)
	rl.DrawText(text, 10, 10, 16, rl.RayWhite)

	if v.paused {
		rl.DrawText("PAUSED", 10, 90, 20, rl.Yellow)
	}
	rl.DrawText("[space] pause  [n] step  [r] reset  [tab] panel  [w] wind", 10, int32(v.cfg.Screen.Height)-26, 14, rl.Gray)
}

func rlVec(p cloth.Vec3) rl.Vector3 {
	return rl.Vector3{X: p.X, Y: p.Y, Z: p.Z}
}
