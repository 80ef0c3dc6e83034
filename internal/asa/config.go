package asa

import (
	"fmt"

	"github.com/r3b0rn/wavepick/internal/bandit"
	"github.com/r3b0rn/wavepick/internal/evaluator"
	"github.com/r3b0rn/wavepick/internal/intensify"
)

// Config holds the ASA driver's own tunables plus the sub-component
// configs it wires together (spec.md §5, §6).
type Config struct {
	MaxRuntimeMillis           int
	MaxNoImprovementIterations int
	IntensificationFrequency   int
	PathRelinkingFrequency     int
	EliteUpdateFrequency       int
	TemperatureScaleFactor     float64
	DriftCorrectionInterval    int

	Bandit     bandit.Config
	Weights    evaluator.Weights
	FLS        intensify.FLSConfig
	PathRelink intensify.PathRelinkConfig
	Elite      intensify.EliteConfig
	Tabu       intensify.TabuConfig
}

// DefaultConfig returns the spec.md §6 ASA defaults.
func DefaultConfig() Config {
	return Config{
		MaxRuntimeMillis:           600000,
		MaxNoImprovementIterations: 1000,
		IntensificationFrequency:   175,
		PathRelinkingFrequency:     450,
		EliteUpdateFrequency:       40,
		TemperatureScaleFactor:     0.12,
		DriftCorrectionInterval:    500,

		Bandit:     bandit.DefaultConfig(),
		Weights:    evaluator.DefaultWeights(),
		FLS:        intensify.DefaultFLSConfig(),
		PathRelink: intensify.DefaultPathRelinkConfig(),
		Elite:      intensify.DefaultEliteConfig(),
		Tabu:       intensify.DefaultTabuConfig(),
	}
}

// Validate checks every field is in its allowed range, the way the
// teacher's per-algorithm Config.Validate methods do.
func (c Config) Validate() error {
	if c.MaxRuntimeMillis <= 0 {
		return fmt.Errorf("MaxRuntimeMillis must be > 0 (got %d)", c.MaxRuntimeMillis)
	}
	if c.MaxNoImprovementIterations <= 0 {
		return fmt.Errorf("MaxNoImprovementIterations must be > 0 (got %d)", c.MaxNoImprovementIterations)
	}
	if c.IntensificationFrequency <= 0 {
		return fmt.Errorf("IntensificationFrequency must be > 0 (got %d)", c.IntensificationFrequency)
	}
	if c.PathRelinkingFrequency <= 0 {
		return fmt.Errorf("PathRelinkingFrequency must be > 0 (got %d)", c.PathRelinkingFrequency)
	}
	if c.EliteUpdateFrequency <= 0 {
		return fmt.Errorf("EliteUpdateFrequency must be > 0 (got %d)", c.EliteUpdateFrequency)
	}
	if c.TemperatureScaleFactor <= 0 {
		return fmt.Errorf("TemperatureScaleFactor must be > 0 (got %f)", c.TemperatureScaleFactor)
	}
	if c.DriftCorrectionInterval <= 0 {
		return fmt.Errorf("DriftCorrectionInterval must be > 0 (got %d)", c.DriftCorrectionInterval)
	}
	if c.Elite.Capacity <= 0 {
		return fmt.Errorf("Elite.Capacity must be > 0 (got %d)", c.Elite.Capacity)
	}
	return nil
}
