package scene

import (
	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/config"
)

// SolverParams maps the solver section of the config onto cloth.Params.
// Wind starts at the base wind; the host loop overwrites it each frame
// from Scene.Wind.
func SolverParams(cfg *config.Config) cloth.Params {
	return cloth.Params{
		DT:         cfg.Derived.DT32,
		Substeps:   cfg.Solver.Substeps,
		Iterations: cfg.Solver.Iterations,
		Gravity:    vec3(cfg.Solver.Gravity),
		Wind:       vec3(cfg.Wind.Base),
		Damping:    float32(cfg.Solver.Damping),
		Relaxation: float32(cfg.Solver.Relaxation),
		Thickness:  float32(cfg.Solver.Thickness),
	}
}
