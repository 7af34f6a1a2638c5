package scene

import (
	"testing"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/config"
)

func gridConfig() config.ClothConfig {
	return config.ClothConfig{
		Cols:    4,
		Rows:    3,
		Spacing: 0.1,
		Mass:    0.05,
		Origin:  [3]float64{-0.15, 1, 0},
	}
}

func TestBuildGridLayout(t *testing.T) {
	topo := BuildGrid(gridConfig())

	if got := len(topo.Positions); got != 12 {
		t.Fatalf("particles = %d, want 12", got)
	}
	// Row-major: particle 5 is column 1 of row 1.
	p := topo.Positions[5]
	want := cloth.Vec3{X: -0.05, Y: 0.9, Z: 0}
	if p.Distance(want) > 1e-6 {
		t.Errorf("particle 5 at %v, want %v", p, want)
	}
	for i, w := range topo.InvMass {
		if w != 20 {
			t.Errorf("invMass[%d] = %v, want 20", i, w)
		}
	}

	// 4x3 grid: 3*3 horizontal + 4*2 vertical edges, no shear.
	if got := len(topo.Edges); got != 17 {
		t.Errorf("edges = %d, want 17", got)
	}
}

func TestBuildGridShearEdges(t *testing.T) {
	cc := gridConfig()
	cc.Shear = true
	topo := BuildGrid(cc)

	// 17 structural + 2 diagonals per cell, 6 cells.
	if got := len(topo.Edges); got != 29 {
		t.Errorf("edges = %d, want 29", got)
	}
}

func TestBuildGridPins(t *testing.T) {
	cc := gridConfig()
	cc.PinTopEdge = true
	topo := BuildGrid(cc)
	for c := 0; c < cc.Cols; c++ {
		if topo.InvMass[c] != 0 {
			t.Errorf("top-edge particle %d not pinned", c)
		}
	}
	if topo.InvMass[cc.Cols] == 0 {
		t.Error("second row should not be pinned")
	}

	cc.PinTopEdge = false
	cc.PinCorners = true
	topo = BuildGrid(cc)
	if topo.InvMass[0] != 0 || topo.InvMass[cc.Cols-1] != 0 {
		t.Error("top corners not pinned")
	}
	if topo.InvMass[1] == 0 {
		t.Error("interior top-edge particle should stay movable")
	}
}

func TestBuildGridBendQuads(t *testing.T) {
	topo := BuildGrid(gridConfig())

	// 6 cells: one diagonal quad each, plus 2 shared vertical edges per
	// row pair and 3 shared horizontal edges per column pair.
	if got := len(topo.BendQuads); got != 13 {
		t.Fatalf("bend quads = %d, want 13", got)
	}
	for i, q := range topo.BendQuads {
		if q[2] == q[3] {
			t.Errorf("quad %d has identical wings", i)
		}
	}
}

func TestBuildGridFeedsSolver(t *testing.T) {
	cc := gridConfig()
	cc.Shear = true
	cc.PinTopEdge = true

	solver, err := cloth.NewSolver(BuildGrid(cc), cloth.DefaultParams())
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer solver.Close()

	if _, err := solver.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
}
