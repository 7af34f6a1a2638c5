// Package config provides configuration loading and access for the solver
// and its surrounding layers.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig     `yaml:"screen"`
	Solver    SolverConfig     `yaml:"solver"`
	Cloth     ClothConfig      `yaml:"cloth"`
	Wind      WindConfig       `yaml:"wind"`
	Colliders []ColliderConfig `yaml:"colliders"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds viewer display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SolverConfig holds the per-step simulation parameters.
type SolverConfig struct {
	DT         float64    `yaml:"dt"`         // Frame timestep in seconds
	Substeps   int        `yaml:"substeps"`   // Full pipeline cycles per frame
	Iterations int        `yaml:"iterations"` // Jacobi sweeps per substep
	Gravity    [3]float64 `yaml:"gravity"`
	Damping    float64    `yaml:"damping"`    // Global velocity damping in [0, 1)
	Relaxation float64    `yaml:"relaxation"` // Jacobi correction scale in (0, 1]
	Thickness  float64    `yaml:"thickness"`  // Particle contact radius
}

// ClothConfig describes the cloth grid built at startup.
type ClothConfig struct {
	Cols              int        `yaml:"cols"`
	Rows              int        `yaml:"rows"`
	Spacing           float64    `yaml:"spacing"`            // Rest distance between neighbors
	Mass              float64    `yaml:"mass"`               // Per-particle mass
	StretchCompliance float64    `yaml:"stretch_compliance"` // 0 = rigid
	BendCompliance    float64    `yaml:"bend_compliance"`
	Shear             bool       `yaml:"shear"`        // Include diagonal stretch edges
	PinTopEdge        bool       `yaml:"pin_top_edge"` // Pin the whole top row
	PinCorners        bool       `yaml:"pin_corners"`  // Pin only the two top corners
	Origin            [3]float64 `yaml:"origin"`       // World position of the top-left particle
}

// WindConfig holds the gusting wind source parameters.
type WindConfig struct {
	Base          [3]float64 `yaml:"base"`           // Constant wind force
	GustAmplitude float64    `yaml:"gust_amplitude"` // Peak gust strength added to base
	GustFrequency float64    `yaml:"gust_frequency"` // Gust cycles per second
}

// ColliderConfig describes one scene collider.
type ColliderConfig struct {
	Type string `yaml:"type"` // plane, sphere or torus

	// Plane
	Normal [3]float64 `yaml:"normal"`
	Offset float64    `yaml:"offset"`

	// Sphere and torus
	Center [3]float64 `yaml:"center"`
	Radius float64    `yaml:"radius"`

	// Torus (sampled as an SDF volume)
	MajorRadius float64 `yaml:"major_radius"`
	MinorRadius float64 `yaml:"minor_radius"`

	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`

	// Optional motion; zero values mean static.
	OrbitRadius float64 `yaml:"orbit_radius"` // Circle around the start center, XZ plane
	OrbitSpeed  float64 `yaml:"orbit_speed"`  // Radians per second
	BobAmplitude float64 `yaml:"bob_amplitude"` // Vertical oscillation
	BobSpeed     float64 `yaml:"bob_speed"`     // Radians per second
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds per stats report
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32          float32 // Solver.DT as float32
	SubstepDT32   float32 // DT32 / Substeps
	ParticleCount int     // Cloth.Cols * Cloth.Rows
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in
		// the file. A colliders list in the file replaces the default list
		// wholesale.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from loaded config and fills
// gaps a sparse user file may leave.
func (c *Config) computeDerived() {
	if c.Cloth.Cols < 2 {
		c.Cloth.Cols = 2
	}
	if c.Cloth.Rows < 2 {
		c.Cloth.Rows = 2
	}
	if c.Cloth.Spacing <= 0 {
		c.Cloth.Spacing = 0.05
	}
	if c.Cloth.Mass <= 0 {
		c.Cloth.Mass = 0.05
	}
	if c.Solver.DT <= 0 {
		c.Solver.DT = 1.0 / 60.0
	}
	if c.Solver.Substeps < 1 {
		c.Solver.Substeps = 1
	}
	if c.Solver.Iterations < 1 {
		c.Solver.Iterations = 1
	}
	if c.Solver.Relaxation <= 0 || c.Solver.Relaxation > 1 {
		c.Solver.Relaxation = 1
	}

	c.Derived.DT32 = float32(c.Solver.DT)
	c.Derived.SubstepDT32 = c.Derived.DT32 / float32(c.Solver.Substeps)
	c.Derived.ParticleCount = c.Cloth.Cols * c.Cloth.Rows
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
