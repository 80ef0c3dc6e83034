package repair_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/r3b0rn/wavepick/internal/instance"
	"github.com/r3b0rn/wavepick/internal/repair"
	"github.com/r3b0rn/wavepick/internal/solution"
)

type RepairSuite struct {
	suite.Suite
	inst *instance.Instance
}

func (s *RepairSuite) SetupTest() {
	orderDemand := []map[int]int{
		{0: 1, 1: 1},
		{1: 1},
	}
	aisleStock := []map[int]int{
		{0: 1},
		{1: 1},
		{0: 1, 1: 1},
	}
	inst, err := instance.New(2, orderDemand, aisleStock, 0, 100)
	s.Require().NoError(err)
	s.inst = inst
}

func (s *RepairSuite) TestFeasibleTrueWithNoOrdersChosen() {
	sol := solution.New(s.inst)
	s.True(repair.Feasible(sol))
}

func (s *RepairSuite) TestFeasibleFalseWhenOrderUncovered() {
	sol := solution.New(s.inst)
	sol.ApplyAddOrder(0)
	s.False(repair.Feasible(sol))
}

func (s *RepairSuite) TestRepairCoversEveryChosenOrder() {
	sol := solution.New(s.inst)
	sol.ApplyAddOrder(0)
	sol.ApplyAddOrder(1)

	ok := repair.Repair(sol)
	s.True(ok)
	s.True(repair.Feasible(sol))
}

func (s *RepairSuite) TestRepairPrunesRedundantAisles() {
	sol := solution.New(s.inst)
	sol.ApplyAddOrder(0)
	// Aisle 2 alone covers both items order 0 needs; aisles 0 and 1
	// become redundant once it is present.
	sol.ApplyAddAisle(0)
	sol.ApplyAddAisle(1)
	sol.ApplyAddAisle(2)

	ok := repair.Repair(sol)
	s.True(ok)
	s.True(sol.ContainsAisle(2))
	s.False(sol.ContainsAisle(0))
	s.False(sol.ContainsAisle(1))
}

func (s *RepairSuite) TestRepairReturnsFalseWhenUncoverableItemExists() {
	orderDemand := []map[int]int{{5: 1}}
	aisleStock := []map[int]int{{0: 1}}
	inst, err := instance.New(6, orderDemand, aisleStock, 0, 100)
	s.Require().NoError(err)

	sol := solution.New(inst)
	sol.ApplyAddOrder(0)
	ok := repair.Repair(sol)
	s.False(ok)
}

func (s *RepairSuite) TestUnitFeasibleRejectsInsufficientStock() {
	orderDemand := []map[int]int{{0: 3}}
	aisleStock := []map[int]int{{0: 1}}
	inst, err := instance.New(1, orderDemand, aisleStock, 0, 100)
	s.Require().NoError(err)

	sol := solution.New(inst)
	sol.ApplyAddOrder(0)
	sol.ApplyAddAisle(0)
	s.True(repair.Feasible(sol)) // presence-based: covered
	s.False(repair.UnitFeasible(sol)) // but only 1 unit in stock, 3 demanded
}

func (s *RepairSuite) TestRemoveInfeasibleOrdersEvictsUnderstockedOrder() {
	orderDemand := []map[int]int{{0: 3}}
	aisleStock := []map[int]int{{0: 1}}
	inst, err := instance.New(1, orderDemand, aisleStock, 0, 100)
	s.Require().NoError(err)

	sol := solution.New(inst)
	sol.ApplyAddOrder(0)
	sol.ApplyAddAisle(0)

	removed := repair.RemoveInfeasibleOrders(sol)
	s.Equal(1, removed)
	s.False(sol.ContainsOrder(0))
}

func (s *RepairSuite) TestRemoveInfeasibleOrdersKeepsSufficientlyStockedOrder() {
	sol := solution.New(s.inst)
	sol.ApplyAddOrder(1)
	sol.ApplyAddAisle(1)

	removed := repair.RemoveInfeasibleOrders(sol)
	s.Equal(0, removed)
	s.True(sol.ContainsOrder(1))
}

func (s *RepairSuite) TestWaveBoundsSatisfied() {
	sol := solution.New(s.inst)
	sol.ApplyAddOrder(0)
	s.True(repair.WaveBoundsSatisfied(sol))

	tight, err := instance.New(2, []map[int]int{{0: 1, 1: 1}}, []map[int]int{{0: 1}, {1: 1}}, 10, 20)
	s.Require().NoError(err)
	tightSol := solution.New(tight)
	tightSol.ApplyAddOrder(0)
	s.False(repair.WaveBoundsSatisfied(tightSol))
}

func (s *RepairSuite) TestCoverageQualityVacuouslyOneWithNoOrders() {
	sol := solution.New(s.inst)
	s.Equal(1.0, repair.CoverageQuality(sol))
}

func (s *RepairSuite) TestCoverageQualityReflectsPartialCoverage() {
	sol := solution.New(s.inst)
	sol.ApplyAddOrder(0)
	sol.ApplyAddOrder(1)
	sol.ApplyAddAisle(1) // covers item 1, so order 1 is covered but order 0 is not

	s.Equal(0.5, repair.CoverageQuality(sol))
}

func TestRepairSuite(t *testing.T) {
	suite.Run(t, new(RepairSuite))
}
