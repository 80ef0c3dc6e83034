package intensify

import (
	"github.com/r3b0rn/wavepick/internal/evaluator"
	"github.com/r3b0rn/wavepick/internal/operators"
	"github.com/r3b0rn/wavepick/internal/solution"
)

type moveKind int

const (
	addOrderMove moveKind = iota
	removeOrderMove
	addAisleMove
	removeAisleMove
	swapAisleMove
)

// move is one candidate neighbor: add/remove a single order or aisle,
// or (for swapAisleMove) remove id and add id2 in one step.
type move struct {
	kind moveKind
	id   int
	id2  int
}

// estimateDelta reads the exact cost change this move would realize,
// leaving sol's sets and coverage as they were (spec.md §4.3's delta
// functions; an aisle swap is simulated by a temporary remove/add on
// sol, which advances its version counters).
func estimateDelta(m move, sol *solution.Solution, eval *evaluator.Evaluator) float64 {
	switch m.kind {
	case addOrderMove:
		return eval.DeltaAddOrder(sol, m.id)
	case removeOrderMove:
		return eval.DeltaRemoveOrder(sol, m.id)
	case addAisleMove:
		return eval.DeltaAddAisle(sol, m.id)
	case removeAisleMove:
		return eval.DeltaRemoveAisle(sol, m.id)
	default:
		return eval.DeltaSwapAisle(sol, m.id, m.id2)
	}
}

// commit applies m and folds in any repair cost, returning the
// realized delta (spec.md §4.5's "leaves the solution in a repaired
// state" contract).
func commit(m move, sol *solution.Solution, eval *evaluator.Evaluator) float64 {
	delta := estimateDelta(m, sol, eval)
	switch m.kind {
	case addOrderMove:
		sol.ApplyAddOrder(m.id)
	case removeOrderMove:
		sol.ApplyRemoveOrder(m.id)
	case addAisleMove:
		sol.ApplyAddAisle(m.id)
	case removeAisleMove:
		sol.ApplyRemoveAisle(m.id)
	case swapAisleMove:
		sol.ApplyRemoveAisle(m.id)
		sol.ApplyAddAisle(m.id2)
	}
	return operators.ApplyAndRepair(sol, eval, delta)
}

// orderNeighborhood enumerates every add/remove-order move: one per
// order in the instance.
func orderNeighborhood(sol *solution.Solution) []move {
	moves := make([]move, 0, sol.Inst.NumOrders())
	for o := 0; o < sol.Inst.NumOrders(); o++ {
		if sol.ContainsOrder(o) {
			moves = append(moves, move{kind: removeOrderMove, id: o})
		} else {
			moves = append(moves, move{kind: addOrderMove, id: o})
		}
	}
	return moves
}

// aisleNeighborhood enumerates every add/remove-aisle move.
func aisleNeighborhood(sol *solution.Solution) []move {
	moves := make([]move, 0, sol.Inst.NumAisles())
	for a := 0; a < sol.Inst.NumAisles(); a++ {
		if sol.ContainsAisle(a) {
			moves = append(moves, move{kind: removeAisleMove, id: a})
		} else {
			moves = append(moves, move{kind: addAisleMove, id: a})
		}
	}
	return moves
}

// swapAisleNeighborhood enumerates every chosen-aisle/unchosen-aisle
// pair as one combined remove-then-add move (spec.md §4.7's "all aisle
// swaps").
func swapAisleNeighborhood(sol *solution.Solution) []move {
	var chosen, unchosen []int
	for a := 0; a < sol.Inst.NumAisles(); a++ {
		if sol.ContainsAisle(a) {
			chosen = append(chosen, a)
		} else {
			unchosen = append(unchosen, a)
		}
	}
	moves := make([]move, 0, len(chosen)*len(unchosen))
	for _, rm := range chosen {
		for _, add := range unchosen {
			moves = append(moves, move{swapAisleMove, rm, add})
		}
	}
	return moves
}

// neighborCacheCap bounds the memoized-neighborhood cache; entries
// beyond this are evicted (spec.md §4.7: "may be dropped under memory
// pressure").
const neighborCacheCap = 8

// neighborCache memoizes per-solution-identity neighborhoods, keyed by
// the Solution pointer and its version counters.
type neighborCache struct {
	order map[*solution.Solution]cachedMoves
	aisle map[*solution.Solution]cachedMoves
	swap  map[*solution.Solution]cachedMoves
}

type cachedMoves struct {
	ov, av uint64
	moves  []move
}

func newNeighborCache() *neighborCache {
	return &neighborCache{
		order: make(map[*solution.Solution]cachedMoves),
		aisle: make(map[*solution.Solution]cachedMoves),
		swap:  make(map[*solution.Solution]cachedMoves),
	}
}

func (c *neighborCache) orderMoves(sol *solution.Solution) []move {
	if cm, ok := c.order[sol]; ok && cm.ov == sol.OrderVersion && cm.av == sol.AisleVersion {
		return cm.moves
	}
	moves := orderNeighborhood(sol)
	evictIfFull(c.order)
	c.order[sol] = cachedMoves{ov: sol.OrderVersion, av: sol.AisleVersion, moves: moves}
	return moves
}

func (c *neighborCache) aisleMoves(sol *solution.Solution) []move {
	if cm, ok := c.aisle[sol]; ok && cm.ov == sol.OrderVersion && cm.av == sol.AisleVersion {
		return cm.moves
	}
	moves := aisleNeighborhood(sol)
	evictIfFull(c.aisle)
	c.aisle[sol] = cachedMoves{ov: sol.OrderVersion, av: sol.AisleVersion, moves: moves}
	return moves
}

func (c *neighborCache) swapAisleMoves(sol *solution.Solution) []move {
	if cm, ok := c.swap[sol]; ok && cm.ov == sol.OrderVersion && cm.av == sol.AisleVersion {
		return cm.moves
	}
	moves := swapAisleNeighborhood(sol)
	evictIfFull(c.swap)
	c.swap[sol] = cachedMoves{ov: sol.OrderVersion, av: sol.AisleVersion, moves: moves}
	return moves
}

func evictIfFull(m map[*solution.Solution]cachedMoves) {
	if len(m) < neighborCacheCap {
		return
	}
	for k := range m {
		delete(m, k)
		break
	}
}
