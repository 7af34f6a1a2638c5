package scene

import (
	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/config"
)

// BuildGrid lays out a rectangular cloth mesh from the config. Particles go
// row-major from the origin, columns along +X and rows hanging down -Y.
// Each cell is split into two triangles along the anti-diagonal; bending
// quads cover the cell diagonals and the shared edges between neighboring
// cells.
func BuildGrid(cc config.ClothConfig) cloth.Topology {
	cols, rows := cc.Cols, cc.Rows
	spacing := float32(cc.Spacing)
	origin := vec3(cc.Origin)
	invMass := float32(1.0 / cc.Mass)

	idx := func(c, r int) int32 { return int32(r*cols + c) }

	n := cols * rows
	positions := make([]cloth.Vec3, n)
	invMasses := make([]float32, n)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			positions[idx(c, r)] = cloth.Vec3{
				X: origin.X + float32(c)*spacing,
				Y: origin.Y - float32(r)*spacing,
				Z: origin.Z,
			}
			invMasses[idx(c, r)] = invMass
		}
	}

	if cc.PinTopEdge {
		for c := 0; c < cols; c++ {
			invMasses[idx(c, 0)] = 0
		}
	} else if cc.PinCorners {
		invMasses[idx(0, 0)] = 0
		invMasses[idx(cols-1, 0)] = 0
	}

	var edges [][2]int32
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				edges = append(edges, [2]int32{idx(c, r), idx(c+1, r)})
			}
			if r+1 < rows {
				edges = append(edges, [2]int32{idx(c, r), idx(c, r+1)})
			}
			if cc.Shear && c+1 < cols && r+1 < rows {
				edges = append(edges, [2]int32{idx(c, r), idx(c+1, r+1)})
				edges = append(edges, [2]int32{idx(c+1, r), idx(c, r+1)})
			}
		}
	}

	var quads [][4]int32
	for r := 0; r+1 < rows; r++ {
		for c := 0; c+1 < cols; c++ {
			// diagonal shared by the cell's two triangles
			quads = append(quads, [4]int32{idx(c+1, r), idx(c, r+1), idx(c, r), idx(c+1, r+1)})
			// vertical edge shared with the cell to the right
			if c+2 < cols {
				quads = append(quads, [4]int32{idx(c+1, r), idx(c+1, r+1), idx(c, r+1), idx(c+2, r)})
			}
			// horizontal edge shared with the cell below
			if r+2 < rows {
				quads = append(quads, [4]int32{idx(c, r+1), idx(c+1, r+1), idx(c+1, r), idx(c, r+2)})
			}
		}
	}

	return cloth.Topology{
		Positions:         positions,
		InvMass:           invMasses,
		Edges:             edges,
		BendQuads:         quads,
		StretchCompliance: float32(cc.StretchCompliance),
		BendCompliance:    float32(cc.BendCompliance),
	}
}
