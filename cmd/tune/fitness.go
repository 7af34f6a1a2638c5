package main

import (
	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/config"
	"github.com/pthm-cable/drape/scene"
)

// failedRunFitness is returned when a run diverges or the solver errors.
const failedRunFitness = 1e9

// FitnessEvaluator scores a parameter vector by running the cloth to rest
// and measuring how cleanly it settles.
type FitnessEvaluator struct {
	params       *ParamVector
	configPath   string
	frames       int
	settleFrames int

	lastResidual float64
	lastKinetic  float64
}

// NewFitnessEvaluator creates an evaluator. frames is the total run length;
// the score is averaged over the final settleFrames once transients die out.
func NewFitnessEvaluator(params *ParamVector, configPath string, frames, settleFrames int) *FitnessEvaluator {
	if settleFrames > frames {
		settleFrames = frames
	}
	return &FitnessEvaluator{
		params:       params,
		configPath:   configPath,
		frames:       frames,
		settleFrames: settleFrames,
	}
}

// Evaluate runs one headless simulation with the given raw parameter values
// and returns the fitness (lower is better).
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return failedRunFitness
	}
	fe.params.ApplyToConfig(cfg, raw)

	solver, err := cloth.NewSolver(scene.BuildGrid(cfg.Cloth), scene.SolverParams(cfg))
	if err != nil {
		return failedRunFitness
	}
	defer solver.Close()

	scn := scene.New(cfg)
	params := scene.SolverParams(cfg)
	dt := cfg.Derived.DT32

	var colliders []cloth.Collider
	var residualSum, kineticSum float64
	var clamped int
	scored := 0

	for frame := 0; frame < fe.frames; frame++ {
		scn.Advance(dt)
		colliders = scn.Colliders(colliders[:0])
		if err := solver.SetColliders(colliders); err != nil {
			return failedRunFitness
		}
		params.Wind = scn.Wind()
		if err := solver.Configure(params); err != nil {
			return failedRunFitness
		}

		res, err := solver.Step()
		if err != nil {
			return failedRunFitness
		}
		clamped += res.NonFiniteClamped

		if frame >= fe.frames-fe.settleFrames {
			residualSum += float64(res.StretchMean)
			kineticSum += float64(res.KineticEnergy)
			scored++
		}
	}

	fe.lastResidual = residualSum / float64(scored)
	fe.lastKinetic = kineticSum / float64(scored)

	// Residual dominates; lingering kinetic energy marks a cloth that never
	// comes to rest, and any non-finite clamp disqualifies the run.
	fitness := fe.lastResidual + 0.1*fe.lastKinetic
	if clamped > 0 {
		fitness += failedRunFitness
	}
	return fitness
}

// LastResidual returns the settle-window stretch residual of the most
// recent evaluation.
func (fe *FitnessEvaluator) LastResidual() float64 {
	return fe.lastResidual
}

// LastKinetic returns the settle-window kinetic energy of the most recent
// evaluation.
func (fe *FitnessEvaluator) LastKinetic() float64 {
	return fe.lastKinetic
}
