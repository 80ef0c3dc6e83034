package bench_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/r3b0rn/wavepick/internal/bench"
	"github.com/r3b0rn/wavepick/internal/instance"
	"github.com/r3b0rn/wavepick/internal/opt"
)

// fakeOptimizer returns the fixed objective it was built with, so
// RunCase's statistics can be checked against hand-computed values
// without running the real ASA driver.
type fakeOptimizer struct {
	objective float64
}

func (f fakeOptimizer) Solve(ctx context.Context, inst *instance.Instance) (opt.Result, error) {
	return opt.Result{Objective: f.objective, ChosenOrders: []int{0}, ChosenAisles: []int{0}}, nil
}

type BenchSuite struct {
	suite.Suite
	inst *instance.Instance
}

func (s *BenchSuite) SetupTest() {
	inst, err := instance.New(1, []map[int]int{{0: 1}}, []map[int]int{{0: 1}}, 0, 10)
	s.Require().NoError(err)
	s.inst = inst
}

func (s *BenchSuite) TestCalcFloatStatsEmpty() {
	stats := bench.CalcFloatStats(nil)
	s.Equal(0, stats.N)
	s.Equal(0.0, stats.Best)
}

func (s *BenchSuite) TestCalcFloatStatsSingleValueHasZeroStd() {
	stats := bench.CalcFloatStats([]float64{42})
	s.Equal(1, stats.N)
	s.Equal(42.0, stats.Best)
	s.Equal(42.0, stats.Mean)
	s.Equal(0.0, stats.Std)
}

func (s *BenchSuite) TestCalcFloatStatsBestIsMinimum() {
	stats := bench.CalcFloatStats([]float64{5, 1, 3})
	s.Equal(1.0, stats.Best)
	s.InDelta(3.0, stats.Mean, 1e-9)
}

func (s *BenchSuite) TestRunCaseSummarizesFixedObjectives() {
	seeds := []float64{10, 10, 10}
	i := 0
	algo := bench.Algorithm{
		Name: "fake",
		Factory: func(seed int64) opt.Optimizer {
			v := seeds[i%len(seeds)]
			i++
			return fakeOptimizer{objective: v}
		},
	}
	runner := bench.Runner{Runs: 3, BaseSeed: 1}
	rec, err := runner.RunCase(context.Background(), bench.Case{Name: "tiny", Inst: s.inst}, algo)
	s.Require().NoError(err)

	s.Equal("fake", rec.Algo)
	s.Equal("tiny", rec.Case)
	s.Equal(1, rec.Orders)
	s.Equal(1, rec.Aisles)
	s.Equal(3, rec.Runs)
	s.Equal(10.0, rec.ObjectiveBest)
	s.Equal(10.0, rec.ObjectiveMean)
	s.Equal(0.0, rec.ObjectiveStd)
}

func (s *BenchSuite) TestWriteCSVProducesHeaderAndRows() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "out", "results.csv")

	records := []bench.Record{
		{Algo: "UCB1", Case: "tiny", Orders: 1, Aisles: 1, Runs: 1, ObjectiveBest: 5},
	}
	err := bench.WriteCSV(path, records)
	s.Require().NoError(err)

	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	s.Require().Len(lines, 2)
	s.Contains(lines[0], "algo")
	s.Contains(lines[1], "UCB1")
}

func TestBenchSuite(t *testing.T) {
	suite.Run(t, new(BenchSuite))
}
