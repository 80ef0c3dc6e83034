// Package repair implements the feasibility checks and the greedy
// set-cover repair/prune pass of spec.md §4.4.
package repair

import "github.com/r3b0rn/wavepick/internal/solution"

// Feasible reports the presence-based feasibility used during search:
// every item demanded by every chosen order is stocked in at least one
// chosen aisle (spec.md §4.4).
func Feasible(sol *solution.Solution) bool {
	for _, o := range sol.ChosenOrderIDs() {
		if !sol.OrderFullyCovered(o) {
			return false
		}
	}
	return true
}

// UnitFeasible is the stricter final gate (spec.md §9): every item
// demanded by every chosen order must be stocked in at least the
// demanded units, summed across currently chosen aisles.
func UnitFeasible(sol *solution.Solution) bool {
	chosenAisles := sol.ChosenAisleIDs()
	for _, o := range sol.ChosenOrderIDs() {
		ord := sol.Inst.Orders[o]
		for item, demand := range ord.Demand {
			if sol.Inst.ItemUnitsInAisles(item, chosenAisles) < demand {
				return false
			}
		}
	}
	return true
}

// WaveBoundsSatisfied reports whether the total picked units fall
// within [WaveLB, WaveUB] (spec.md, Glossary: "Feasible solution").
func WaveBoundsSatisfied(sol *solution.Solution) bool {
	units := sol.TotalUnits()
	return units >= sol.Inst.WaveLB && units <= sol.Inst.WaveUB
}

// CoverageQuality returns the fraction of chosen orders that are fully
// covered (presence-based). A solution with no chosen orders is
// vacuously fully covered.
func CoverageQuality(sol *solution.Solution) float64 {
	orders := sol.ChosenOrderIDs()
	if len(orders) == 0 {
		return 1.0
	}
	covered := 0
	for _, o := range orders {
		if sol.OrderFullyCovered(o) {
			covered++
		}
	}
	return float64(covered) / float64(len(orders))
}

// pair identifies one uncovered (order, item-index-within-order) slot.
type pair struct {
	order, idx, item int
}

// Repair greedily re-establishes presence feasibility by adding
// aisles to cover every uncovered (order,item) pair, then prunes any
// aisle whose removal leaves the solution still feasible (spec.md
// §4.4). It returns true iff the solution is feasible after repair.
func Repair(sol *solution.Solution) bool {
	uncovered := uncoveredPairs(sol)

	for len(uncovered) > 0 {
		bestAisle, bestGain := -1, 0
		for a := 0; a < sol.Inst.NumAisles(); a++ {
			if sol.ContainsAisle(a) {
				continue
			}
			gain := countCovered(sol, a, uncovered)
			if gain > bestGain {
				bestGain = gain
				bestAisle = a
			}
		}
		if bestAisle < 0 {
			break
		}
		sol.ApplyAddAisle(bestAisle)
		uncovered = uncoveredPairs(sol)
	}

	feasible := len(uncovered) == 0

	prune(sol)

	return feasible
}

// uncoveredPairs recomputes, from scratch, every (order,item) slot
// with coverage 0 among currently chosen orders.
func uncoveredPairs(sol *solution.Solution) []pair {
	var out []pair
	for _, o := range sol.ChosenOrderIDs() {
		ord := sol.Inst.Orders[o]
		cov := sol.Coverage[o]
		for k, item := range ord.Items {
			if cov[k] == 0 {
				out = append(out, pair{order: o, idx: k, item: item})
			}
		}
	}
	return out
}

// countCovered returns |U_a ∩ uncovered| for aisle a: the number of
// uncovered slots aisle a's stock would satisfy.
func countCovered(sol *solution.Solution, a int, uncovered []pair) int {
	ais := sol.Inst.Aisles[a]
	n := 0
	for _, p := range uncovered {
		if _, ok := ais.Stock[p.item]; ok {
			n++
		}
	}
	return n
}

// prune tentatively removes each currently chosen aisle, ascending by
// id for determinism (spec.md §4.4 leaves the pass order unspecified),
// keeping it out whenever the solution remains feasible without it.
func prune(sol *solution.Solution) {
	for a := 0; a < sol.Inst.NumAisles(); a++ {
		if !sol.ContainsAisle(a) {
			continue
		}
		sol.ApplyRemoveAisle(a)
		if !Feasible(sol) {
			sol.ApplyAddAisle(a)
		}
	}
}

// RemoveInfeasibleOrders drops every chosen order whose demand cannot
// be met by the currently chosen aisles even in total-unit terms
// (spec.md §4.4, §9; matches the units-based reading required by the
// "infeasible eviction" end-to-end scenario in spec.md §8). Returns
// the number of orders removed.
func RemoveInfeasibleOrders(sol *solution.Solution) int {
	chosenAisles := sol.ChosenAisleIDs()
	removed := 0
	for _, o := range sol.ChosenOrderIDs() {
		ord := sol.Inst.Orders[o]
		ok := true
		for item, demand := range ord.Demand {
			if sol.Inst.ItemUnitsInAisles(item, chosenAisles) < demand {
				ok = false
				break
			}
		}
		if !ok {
			sol.ApplyRemoveOrder(o)
			removed++
		}
	}
	return removed
}
