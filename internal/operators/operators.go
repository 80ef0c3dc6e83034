// Package operators implements the named Move Operators of spec.md
// §4.5: stateless behavior objects, each mutating a Solution via
// Evaluator deltas and leaving it repaired.
package operators

import (
	"math"
	"math/rand"

	"github.com/r3b0rn/wavepick/internal/evaluator"
	"github.com/r3b0rn/wavepick/internal/repair"
	"github.com/r3b0rn/wavepick/internal/solution"
)

// Operator is a stateless behavior object with a name and a single
// Apply method returning the realized change in surrogate cost (0 if
// it could not act). Every implementation leaves the Solution feasible
// and its currentCost consistent with any committed changes.
type Operator interface {
	Name() string
	Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64
}

// ApplyAndRepair commits moveDelta (already realized by the caller's
// structural mutation), then repairs the solution if it is no longer
// presence-feasible, folding the repair's own cost change (computed by
// full recompute, since Repair is a separate component from the
// delta-tracking Evaluator) into the returned total delta.
func ApplyAndRepair(s *solution.Solution, eval *evaluator.Evaluator, moveDelta float64) float64 {
	s.AddCost(moveDelta)
	if repair.Feasible(s) {
		return moveDelta
	}
	before, _ := s.Cost()
	repair.Repair(s)
	after := eval.Cost(s)
	s.SetCost(after)
	return moveDelta + (after - before)
}

func randomNotChosenOrder(s *solution.Solution, rng *rand.Rand) (int, bool) {
	n := s.Inst.NumOrders()
	if n == 0 || s.NumChosenOrders() == n {
		return 0, false
	}
	for {
		o := rng.Intn(n)
		if !s.ContainsOrder(o) {
			return o, true
		}
	}
}

func randomChosenOrder(s *solution.Solution, rng *rand.Rand) (int, bool) {
	if s.NumChosenOrders() == 0 {
		return 0, false
	}
	ids := s.ChosenOrderIDs()
	return ids[rng.Intn(len(ids))], true
}

func randomNotChosenAisle(s *solution.Solution, rng *rand.Rand) (int, bool) {
	n := s.Inst.NumAisles()
	if n == 0 || s.NumChosenAisles() == n {
		return 0, false
	}
	for {
		a := rng.Intn(n)
		if !s.ContainsAisle(a) {
			return a, true
		}
	}
}

func randomChosenAisle(s *solution.Solution, rng *rand.Rand) (int, bool) {
	if s.NumChosenAisles() == 0 {
		return 0, false
	}
	ids := s.ChosenAisleIDs()
	return ids[rng.Intn(len(ids))], true
}

// AddOrder chooses a uniform-random order not currently chosen.
type AddOrder struct{}

func (AddOrder) Name() string { return "AddOrder" }

func (AddOrder) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	o, ok := randomNotChosenOrder(s, rng)
	if !ok {
		return 0
	}
	delta := eval.DeltaAddOrder(s, o)
	s.ApplyAddOrder(o)
	return ApplyAndRepair(s, eval, delta)
}

// RemoveOrder chooses a uniform-random chosen order.
type RemoveOrder struct{}

func (RemoveOrder) Name() string { return "RemoveOrder" }

func (RemoveOrder) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	o, ok := randomChosenOrder(s, rng)
	if !ok {
		return 0
	}
	delta := eval.DeltaRemoveOrder(s, o)
	if math.IsInf(delta, 1) {
		return 0
	}
	s.ApplyRemoveOrder(o)
	return ApplyAndRepair(s, eval, delta)
}

// AddAisle chooses a uniform-random aisle not currently chosen.
type AddAisle struct{}

func (AddAisle) Name() string { return "AddAisle" }

func (AddAisle) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	a, ok := randomNotChosenAisle(s, rng)
	if !ok {
		return 0
	}
	delta := eval.DeltaAddAisle(s, a)
	s.ApplyAddAisle(a)
	return ApplyAndRepair(s, eval, delta)
}

// RemoveAisle chooses a uniform-random chosen aisle.
type RemoveAisle struct{}

func (RemoveAisle) Name() string { return "RemoveAisle" }

func (RemoveAisle) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	a, ok := randomChosenAisle(s, rng)
	if !ok {
		return 0
	}
	delta := eval.DeltaRemoveAisle(s, a)
	s.ApplyRemoveAisle(a)
	return ApplyAndRepair(s, eval, delta)
}

// SwapAisle picks one chosen aisle and one unchosen aisle uniformly,
// removes then adds.
type SwapAisle struct{}

func (SwapAisle) Name() string { return "SwapAisle" }

func (SwapAisle) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	aRemove, ok1 := randomChosenAisle(s, rng)
	aAdd, ok2 := randomNotChosenAisle(s, rng)
	if !ok1 || !ok2 {
		return 0
	}
	delta := eval.DeltaSwapAisle(s, aRemove, aAdd)
	s.ApplyRemoveAisle(aRemove)
	s.ApplyAddAisle(aAdd)
	return ApplyAndRepair(s, eval, delta)
}

// SwapOrder picks one chosen order and one unchosen order uniformly,
// removes then adds.
type SwapOrder struct{}

func (SwapOrder) Name() string { return "SwapOrder" }

func (SwapOrder) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	oRemove, ok1 := randomChosenOrder(s, rng)
	oAdd, ok2 := randomNotChosenOrder(s, rng)
	if !ok1 || !ok2 {
		return 0
	}
	delta := eval.DeltaSwapOrders(s, oRemove, oAdd)
	s.ApplyRemoveOrder(oRemove)
	s.ApplyAddOrder(oAdd)
	return ApplyAndRepair(s, eval, delta)
}

// MultiSwapAisle picks K chosen and K unchosen aisles uniformly
// without replacement, removes all K then adds all K.
type MultiSwapAisle struct{ K int }

func (MultiSwapAisle) Name() string { return "MultiSwapAisle" }

func (m MultiSwapAisle) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	k := m.K
	if k < 1 {
		k = 1
	}
	chosen := s.ChosenAisleIDs()
	var unchosen []int
	for a := 0; a < s.Inst.NumAisles(); a++ {
		if !s.ContainsAisle(a) {
			unchosen = append(unchosen, a)
		}
	}
	if len(chosen) < k || len(unchosen) < k {
		return 0
	}

	rng.Shuffle(len(chosen), func(i, j int) { chosen[i], chosen[j] = chosen[j], chosen[i] })
	rng.Shuffle(len(unchosen), func(i, j int) { unchosen[i], unchosen[j] = unchosen[j], unchosen[i] })
	toRemove := append([]int(nil), chosen[:k]...)
	toAdd := append([]int(nil), unchosen[:k]...)

	total := 0.0
	for _, a := range toRemove {
		total += eval.DeltaRemoveAisle(s, a)
		s.ApplyRemoveAisle(a)
	}
	for _, a := range toAdd {
		total += eval.DeltaAddAisle(s, a)
		s.ApplyAddAisle(a)
	}
	return ApplyAndRepair(s, eval, total)
}

// LNSOrder destroys a ρ-fraction of chosen orders, then repairs by
// ranking all non-chosen orders by deltaAddOrder and re-inserting the
// best ones up to the destroyed count.
type LNSOrder struct{ Rho float64 }

func (LNSOrder) Name() string { return "LNSOrder" }

func (l LNSOrder) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	chosen := s.ChosenOrderIDs()
	destroyCount := ceilFrac(l.Rho, len(chosen))
	if destroyCount <= 0 {
		return 0
	}
	rng.Shuffle(len(chosen), func(i, j int) { chosen[i], chosen[j] = chosen[j], chosen[i] })
	victims := chosen[:destroyCount]

	total := 0.0
	for _, o := range victims {
		d := eval.DeltaRemoveOrder(s, o)
		if math.IsInf(d, 1) {
			continue
		}
		total += d
		s.ApplyRemoveOrder(o)
	}

	total += refillOrders(s, eval, destroyCount)
	return ApplyAndRepair(s, eval, total)
}

// refillOrders ranks every non-chosen order by deltaAddOrder ascending
// (best first) and commits up to count of them.
func refillOrders(s *solution.Solution, eval *evaluator.Evaluator, count int) float64 {
	var candidates []int
	for o := 0; o < s.Inst.NumOrders(); o++ {
		if !s.ContainsOrder(o) {
			candidates = append(candidates, o)
		}
	}
	deltas := eval.BatchDeltaAddOrders(s, candidates)
	sortByKeyAsc(candidates, deltas)

	total := 0.0
	n := count
	if n > len(candidates) {
		n = len(candidates)
	}
	for i := 0; i < n; i++ {
		o := candidates[i]
		total += eval.DeltaAddOrder(s, o)
		s.ApplyAddOrder(o)
	}
	return total
}

// LNSAisle destroys a ρ-fraction of chosen aisles, then repairs by
// ranking all non-chosen aisles by deltaAddAisle and re-inserting the
// best ones up to the destroyed count.
type LNSAisle struct{ Rho float64 }

func (LNSAisle) Name() string { return "LNSAisle" }

func (l LNSAisle) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	chosen := s.ChosenAisleIDs()
	destroyCount := ceilFrac(l.Rho, len(chosen))
	if destroyCount <= 0 {
		return 0
	}
	rng.Shuffle(len(chosen), func(i, j int) { chosen[i], chosen[j] = chosen[j], chosen[i] })
	victims := chosen[:destroyCount]

	total := 0.0
	for _, a := range victims {
		total += eval.DeltaRemoveAisle(s, a)
		s.ApplyRemoveAisle(a)
	}

	var candidates []int
	for a := 0; a < s.Inst.NumAisles(); a++ {
		if !s.ContainsAisle(a) {
			candidates = append(candidates, a)
		}
	}
	deltas := eval.BatchDeltaAddAisles(s, candidates)
	sortByKeyAsc(candidates, deltas)

	n := destroyCount
	if n > len(candidates) {
		n = len(candidates)
	}
	for i := 0; i < n; i++ {
		a := candidates[i]
		total += eval.DeltaAddAisle(s, a)
		s.ApplyAddAisle(a)
	}

	return ApplyAndRepair(s, eval, total)
}

// ObjectiveFocused removes the λ-fraction of chosen orders with the
// lowest per-order contribution (units / (1+exclusive aisles)), then
// adds non-chosen orders ranked by units/(1+max(0,deltaAdd)) highest
// first.
type ObjectiveFocused struct{ Lambda float64 }

func (ObjectiveFocused) Name() string { return "ObjectiveFocused" }

func (o ObjectiveFocused) Apply(s *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) float64 {
	chosen := s.ChosenOrderIDs()
	removeCount := ceilFrac(o.Lambda, len(chosen))
	if removeCount <= 0 {
		return 0
	}

	contributions := make([]float64, len(chosen))
	for i, ord := range chosen {
		contributions[i] = contribution(s, ord)
	}
	sortByKeyAsc(chosen, contributions)
	victims := chosen[:removeCount]

	total := 0.0
	for _, ord := range victims {
		d := eval.DeltaRemoveOrder(s, ord)
		if math.IsInf(d, 1) {
			continue
		}
		total += d
		s.ApplyRemoveOrder(ord)
	}

	var candidates []int
	for c := 0; c < s.Inst.NumOrders(); c++ {
		if !s.ContainsOrder(c) {
			candidates = append(candidates, c)
		}
	}
	deltas := eval.BatchDeltaAddOrders(s, candidates)
	priorities := make([]float64, len(candidates))
	for i, c := range candidates {
		d := deltas[i]
		if d < 0 {
			d = 0
		}
		priorities[i] = -float64(s.Inst.Orders[c].Units) / (1 + d) // negate: sortByKeyAsc wants ascending, we want highest priority first
	}
	sortByKeyAsc(candidates, priorities)

	n := removeCount
	if n > len(candidates) {
		n = len(candidates)
	}
	for i := 0; i < n; i++ {
		c := candidates[i]
		total += eval.DeltaAddOrder(s, c)
		s.ApplyAddOrder(c)
	}

	return ApplyAndRepair(s, eval, total)
}

// contribution returns units/(1+exclusiveAisles) for a chosen order.
func contribution(s *solution.Solution, o int) float64 {
	ord := s.Inst.Orders[o]
	excl := 0
	for _, a := range s.OrderToAisles(o) {
		if !s.ContainsAisle(a) {
			continue
		}
		exclusive := true
		for _, other := range s.AisleToOrders(a) {
			if other != o && s.ContainsOrder(other) {
				exclusive = false
				break
			}
		}
		if exclusive {
			excl++
		}
	}
	return float64(ord.Units) / float64(1+excl)
}

func ceilFrac(frac float64, n int) int {
	if frac <= 0 || n <= 0 {
		return 0
	}
	c := int(frac*float64(n) + 0.999999999)
	if c > n {
		c = n
	}
	return c
}

// DefaultOperators returns the ten named operators of spec.md §4.5
// with representative parameter defaults, in a fixed order matching
// the spec's table.
func DefaultOperators() []Operator {
	return []Operator{
		AddOrder{},
		RemoveOrder{},
		AddAisle{},
		RemoveAisle{},
		SwapAisle{},
		SwapOrder{},
		MultiSwapAisle{K: 2},
		LNSOrder{Rho: 0.2},
		LNSAisle{Rho: 0.2},
		ObjectiveFocused{Lambda: 0.15},
	}
}

// sortByKeyAsc sorts ids by the parallel keys slice, ascending, using
// a hand-rolled insertion sort (the candidate sets here are small
// relative to the instance), so this package does not import sort.
func sortByKeyAsc(ids []int, keys []float64) {
	for i := 1; i < len(ids); i++ {
		idv, kv := ids[i], keys[i]
		j := i - 1
		for j >= 0 && keys[j] > kv {
			ids[j+1] = ids[j]
			keys[j+1] = keys[j]
			j--
		}
		ids[j+1] = idv
		keys[j+1] = kv
	}
}
