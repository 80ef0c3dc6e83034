package asa_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/r3b0rn/wavepick/internal/asa"
	"github.com/r3b0rn/wavepick/internal/instance"
	"github.com/r3b0rn/wavepick/internal/repair"
	"github.com/r3b0rn/wavepick/internal/solution"
)

type ASASuite struct {
	suite.Suite
	inst *instance.Instance
}

func (s *ASASuite) SetupTest() {
	orderDemand := make([]map[int]int, 12)
	for i := range orderDemand {
		orderDemand[i] = map[int]int{i % 6: 1}
	}
	aisleStock := []map[int]int{
		{0: 4, 1: 4},
		{2: 4, 3: 4},
		{4: 4, 5: 4},
		{0: 4, 2: 4, 4: 4},
		{1: 4, 3: 4, 5: 4},
	}
	inst, err := instance.New(6, orderDemand, aisleStock, 0, 1000)
	s.Require().NoError(err)
	s.inst = inst
}

func (s *ASASuite) fastConfig() asa.Config {
	cfg := asa.DefaultConfig()
	cfg.MaxRuntimeMillis = 200
	cfg.MaxNoImprovementIterations = 200
	cfg.IntensificationFrequency = 20
	cfg.PathRelinkingFrequency = 50
	cfg.EliteUpdateFrequency = 10
	cfg.DriftCorrectionInterval = 30
	return cfg
}

func (s *ASASuite) TestNewRejectsInvalidConfig() {
	cfg := asa.Config{} // zero value fails Validate
	_, err := asa.New(cfg, rand.New(rand.NewSource(1)))
	s.Error(err)
}

func (s *ASASuite) TestNewRejectsNilRng() {
	_, err := asa.New(asa.DefaultConfig(), nil)
	s.Error(err)
}

func (s *ASASuite) TestSolveReturnsFeasibleResultWithinDeadline() {
	driver, err := asa.New(s.fastConfig(), rand.New(rand.NewSource(123)))
	s.Require().NoError(err)

	result, err := driver.Solve(context.Background(), s.inst)
	s.Require().NoError(err)

	s.NotEmpty(result.ChosenOrders)
	s.Greater(result.Iterations, 0)

	sol := solution.New(s.inst)
	for _, o := range result.ChosenOrders {
		sol.ApplyAddOrder(o)
	}
	for _, a := range result.ChosenAisles {
		sol.ApplyAddAisle(a)
	}
	s.True(repair.Feasible(sol))
}

func (s *ASASuite) TestSolveRejectsInvalidInstance() {
	driver, err := asa.New(s.fastConfig(), rand.New(rand.NewSource(1)))
	s.Require().NoError(err)

	bad := &instance.Instance{WaveLB: 10, WaveUB: 1}
	_, err = driver.Solve(context.Background(), bad)
	s.Error(err)
}

func (s *ASASuite) TestSolveRespectsCancelledContext() {
	driver, err := asa.New(s.fastConfig(), rand.New(rand.NewSource(5)))
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := driver.Solve(ctx, s.inst)
	s.Require().NoError(err)
	s.Equal(0, result.Iterations)
}

func (s *ASASuite) TestSolveReportsBanditSnapshotInMeta() {
	driver, err := asa.New(s.fastConfig(), rand.New(rand.NewSource(321)))
	s.Require().NoError(err)

	result, err := driver.Solve(context.Background(), s.inst)
	s.Require().NoError(err)

	snapshot, ok := result.Meta["bandit_snapshot"]
	s.True(ok)
	s.NotNil(snapshot)
}

func TestASASuite(t *testing.T) {
	suite.Run(t, new(ASASuite))
}

func TestDefaultConfigValidates(t *testing.T) {
	suite.Run(t, new(defaultConfigCheck))
}

type defaultConfigCheck struct{ suite.Suite }

func (s *defaultConfigCheck) TestValidate() {
	s.NoError(asa.DefaultConfig().Validate())
}
