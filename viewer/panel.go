package viewer

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/config"
)

const (
	panelWidth = 260
	rowStep    = 46
)

// panel is the raygui tuning sidebar. Slider changes land in the Params
// struct that Update pushes through Configure before the next step; the
// bend compliance slider instead triggers a solver rebuild.
type panel struct {
	x, y    float32
	visible bool

	gustAmplitude  float64
	bendCompliance float64
}

func newPanel(cfg *config.Config) panel {
	return panel{
		x:              float32(cfg.Screen.Width - panelWidth - 10),
		y:              10,
		visible:        true,
		gustAmplitude:  cfg.Wind.GustAmplitude,
		bendCompliance: cfg.Cloth.BendCompliance,
	}
}

// draw renders the sliders and mutates p in place. It reports which of the
// non-Params settings changed: the wind gust (forwarded to the scene) and
// the bend compliance (needs a rebuild).
func (pn *panel) draw(p *cloth.Params) (gustChanged, bendChanged bool) {
	if !pn.visible {
		return false, false
	}

	x, y := pn.x, pn.y
	rl.DrawRectangle(int32(x)-8, int32(y)-8, panelWidth+16, rowStep*6+40, rl.Color{R: 0, G: 0, B: 0, A: 170})
	rl.DrawText("Solver", int32(x), int32(y), 18, rl.RayWhite)
	y += 28

	substeps := pn.slider(x, &y, "Substeps", float32(p.Substeps), 1, 8, "%.0f")
	p.Substeps = int(substeps + 0.5)

	iters := pn.slider(x, &y, "Iterations", float32(p.Iterations), 1, 30, "%.0f")
	p.Iterations = int(iters + 0.5)

	p.Damping = pn.slider(x, &y, "Damping", p.Damping, 0, 0.2, "%.3f")
	p.Relaxation = pn.slider(x, &y, "Relaxation", p.Relaxation, 0.2, 1, "%.2f")

	gust := float64(pn.slider(x, &y, "Gust", float32(pn.gustAmplitude), 0, 5, "%.1f"))
	if gust != pn.gustAmplitude {
		pn.gustAmplitude = gust
		gustChanged = true
	}

	// Slider release check keeps the rebuild from firing every drag frame.
	bend := float64(pn.slider(x, &y, "Bend compl", float32(pn.bendCompliance), 0, 0.01, "%.4f"))
	if bend != pn.bendCompliance && rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		pn.bendCompliance = bend
		bendChanged = true
	}
	return gustChanged, bendChanged
}

func (pn *panel) slider(x float32, y *float32, label string, value, min, max float32, format string) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	got := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: panelWidth - 60, Height: 20},
		"", "",
		value, min, max,
	)
	rl.DrawText(fmt.Sprintf(format, got), int32(x+panelWidth-50), int32(*y+2), 16, rl.RayWhite)
	*y += rowStep - 18
	return got
}
