// Package config loads the ASA parameter surface (spec.md §6) from
// the environment, the way sysu's backend config loads its own
// nested parameter surface.
package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

// Config is the full tunable surface of the ASA driver and its
// sub-components. Every field carries the spec.md §6 default via
// envDefault, so a zero-valued environment still produces a valid
// solver.
type Config struct {
	ASA struct {
		MaxRuntimeMillis           int     `env:"MAX_RUNTIME_MILLIS" envDefault:"600000"`
		MaxNoImprovementIterations int     `env:"MAX_NO_IMPROVEMENT_ITERATIONS" envDefault:"1000"`
		IntensificationFrequency   int     `env:"INTENSIFICATION_FREQUENCY" envDefault:"175"`
		PathRelinkingFrequency     int     `env:"PATH_RELINKING_FREQUENCY" envDefault:"450"`
		EliteUpdateFrequency       int     `env:"ELITE_UPDATE_FREQUENCY" envDefault:"40"`
		TemperatureScaleFactor     float64 `env:"TEMPERATURE_SCALE_FACTOR" envDefault:"0.12"`
		DriftCorrectionInterval    int     `env:"DRIFT_CORRECTION_INTERVAL" envDefault:"500"`
		Seed                       int64   `env:"SEED" envDefault:"1"`
	} `envPrefix:"ASA_"`

	Bandit struct {
		Strategy        string  `env:"STRATEGY" envDefault:"ucb1"`
		UCBC            float64 `env:"UCB_C" envDefault:"1.4142135623730951"`
		Epsilon         float64 `env:"EPSILON" envDefault:"0.1"`
		UpdateFrequency int     `env:"UPDATE_FREQUENCY" envDefault:"100"`
		Decay           float64 `env:"DECAY" envDefault:"0.95"`
	} `envPrefix:"BANDIT_"`

	FLS struct {
		Mode             string  `env:"MODE" envDefault:"best"`
		MaxIterations    int     `env:"MAX_ITERATIONS" envDefault:"500"`
		ImprovementEps   float64 `env:"IMPROVEMENT_EPS" envDefault:"1e-9"`
		MaxNoImprovement int     `env:"MAX_NO_IMPROVEMENT" envDefault:"40"`
		PatienceFactor   float64 `env:"PATIENCE_FACTOR" envDefault:"0.5"`
		AllowRestart     bool    `env:"ALLOW_RESTART" envDefault:"true"`
	} `envPrefix:"FLS_"`

	PathRelink struct {
		TopRankedFraction float64 `env:"TOP_RANKED_FRACTION" envDefault:"0.25"`
		Refine            bool    `env:"REFINE" envDefault:"true"`
		RefineMode        string  `env:"REFINE_MODE" envDefault:"first"`
	} `envPrefix:"PATH_RELINK_"`

	Elite struct {
		Size            int     `env:"SIZE" envDefault:"5"`
		DiversityWeight float64 `env:"DIVERSITY_WEIGHT" envDefault:"0.3"`
		MinDistance     float64 `env:"MIN_DISTANCE" envDefault:"0.2"`
	} `envPrefix:"ELITE_"`

	Tabu struct {
		Tenure        int `env:"TENURE" envDefault:"10"`
		MaxIterations int `env:"MAX_ITERATIONS" envDefault:"100"`
	} `envPrefix:"TABU_"`

	Weights struct {
		PMissing float64 `env:"P_MISSING" envDefault:"1000"`
		CAisle   float64 `env:"C_AISLE" envDefault:"10"`
		WRatio   float64 `env:"W_RATIO" envDefault:"50"`
	} `envPrefix:"WEIGHTS_"`
}

// Load parses Config from the process environment, falling back to
// the spec.md §6 defaults for every unset variable.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}
