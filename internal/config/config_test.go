package config_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/r3b0rn/wavepick/internal/config"
)

type ConfigSuite struct {
	suite.Suite
}

func (s *ConfigSuite) TestLoadAppliesDefaultsWithEmptyEnvironment() {
	cfg, err := config.Load()
	s.Require().NoError(err)

	s.Equal(600000, cfg.ASA.MaxRuntimeMillis)
	s.Equal(175, cfg.ASA.IntensificationFrequency)
	s.Equal("ucb1", cfg.Bandit.Strategy)
	s.Equal(5, cfg.Elite.Size)
	s.Equal(1000.0, cfg.Weights.PMissing)
	s.Equal(10.0, cfg.Weights.CAisle)
	s.Equal(50.0, cfg.Weights.WRatio)
	s.True(cfg.FLS.AllowRestart)
	s.Equal("best", cfg.FLS.Mode)
}

func (s *ConfigSuite) TestLoadHonorsEnvOverrides() {
	s.T().Setenv("ASA_MAX_RUNTIME_MILLIS", "1234")
	s.T().Setenv("BANDIT_STRATEGY", "roulette")
	s.T().Setenv("ELITE_SIZE", "9")

	cfg, err := config.Load()
	s.Require().NoError(err)

	s.Equal(1234, cfg.ASA.MaxRuntimeMillis)
	s.Equal("roulette", cfg.Bandit.Strategy)
	s.Equal(9, cfg.Elite.Size)
}

func (s *ConfigSuite) TestLoadReturnsFirstAggregateErrorOnMalformedValue() {
	s.T().Setenv("ASA_MAX_RUNTIME_MILLIS", "not-an-int")

	_, err := config.Load()
	s.Error(err)
}

func (s *ConfigSuite) TestEnvPrefixesDoNotCollideAcrossSections() {
	s.T().Setenv("TABU_MAX_ITERATIONS", "7")
	s.T().Setenv("FLS_MAX_ITERATIONS", "42")

	cfg, err := config.Load()
	s.Require().NoError(err)

	s.Equal(7, cfg.Tabu.MaxIterations)
	s.Equal(42, cfg.FLS.MaxIterations)
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}
