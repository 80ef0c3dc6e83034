package intensify

import (
	"math"
	"math/rand"

	"github.com/r3b0rn/wavepick/internal/evaluator"
	"github.com/r3b0rn/wavepick/internal/solution"
)

// tabuList is a fixed-capacity ring buffer of tabu move keys with a
// map for O(1) membership checks, the same structure the teacher
// solver uses for its own tabu list.
type tabuList struct {
	m   map[uint64]int // key -> expiry iteration
	key []uint64       // ring buffer of keys
	exp []int          // matching expiry iterations
	i   int
}

func newTabuList(capacity int) *tabuList {
	if capacity < 8 {
		capacity = 8
	}
	return &tabuList{
		m:   make(map[uint64]int, capacity*2),
		key: make([]uint64, capacity),
		exp: make([]int, capacity),
	}
}

func (t *tabuList) isTabu(k uint64, iter int) bool {
	exp, ok := t.m[k]
	return ok && exp > iter
}

func (t *tabuList) add(k uint64, expiry int) {
	oldKey := t.key[t.i]
	if curExp, ok := t.m[oldKey]; ok && curExp == t.exp[t.i] {
		delete(t.m, oldKey)
	}
	t.key[t.i] = k
	t.exp[t.i] = expiry
	t.m[k] = expiry

	t.i++
	if t.i >= len(t.key) {
		t.i = 0
	}
}

// moveKey packs a move into a single tabu key: the low two bits tag
// the move's family (order, aisle, or aisle-swap), the rest of the
// bits its id(s).
func moveKey(m move) uint64 {
	switch m.kind {
	case addAisleMove, removeAisleMove:
		return (uint64(m.id) << 2) | 1
	case swapAisleMove:
		return (uint64(m.id)<<20 | uint64(m.id2)<<2) | 2
	default:
		return uint64(m.id) << 2
	}
}

// reverseOf returns the move that would undo m.
func reverseOf(m move) move {
	switch m.kind {
	case addOrderMove:
		return move{kind: removeOrderMove, id: m.id}
	case removeOrderMove:
		return move{kind: addOrderMove, id: m.id}
	case addAisleMove:
		return move{kind: removeAisleMove, id: m.id}
	case removeAisleMove:
		return move{kind: addAisleMove, id: m.id}
	default:
		return move{kind: swapAisleMove, id: m.id2, id2: m.id}
	}
}

// TabuConfig holds the Memetic Tabu Intensification tunables (spec.md
// §4.7, §6).
type TabuConfig struct {
	Tenure        int // default 10
	MaxIterations int // default 100
}

// DefaultTabuConfig returns the spec.md §6 memetic tabu defaults.
func DefaultTabuConfig() TabuConfig {
	return TabuConfig{Tenure: 10, MaxIterations: 100}
}

// MemeticTabu runs a short tabu search seeded from sol, biased toward
// the moves that would close the symmetric difference with guide
// (spec.md §4.7's "memetic" crossover with an elite guide), with an
// aspiration criterion that admits a tabu move when it still beats
// the best cost seen. Mutates sol in place and returns the best cost
// reached.
func MemeticTabu(sol *solution.Solution, guide *solution.Solution, eval *evaluator.Evaluator, cfg TabuConfig, rng *rand.Rand) float64 {
	tabu := newTabuList(cfg.Tenure * 4)
	bestCost := requireCost(sol, eval)
	best := sol.DeepCopy()

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		candidates := candidateMoves(sol, guide)
		if len(candidates) == 0 {
			break
		}

		chosenIdx, chosenDelta := -1, 0.0
		for i, m := range candidates {
			d := estimateDelta(m, sol, eval)
			key := moveKey(m)
			curCost := requireCost(sol, eval)
			isTabu := tabu.isTabu(key, iter)
			aspiration := curCost+d < bestCost
			if isTabu && !aspiration {
				continue
			}
			if chosenIdx < 0 || d < chosenDelta {
				chosenIdx, chosenDelta = i, d
			}
		}
		if chosenIdx < 0 {
			break
		}

		chosen := candidates[chosenIdx]
		commit(chosen, sol, eval)
		tabu.add(moveKey(reverseOf(chosen)), iter+cfg.Tenure)

		cost := requireCost(sol, eval)
		if cost < bestCost {
			bestCost = cost
			best = sol.DeepCopy()
		}
	}

	sol.CopyFrom(best)
	return bestCost
}

// candidateMoves proposes the moves that close the symmetric
// difference between sol and guide; falling back to the full
// single-move-plus-aisle-swap neighborhood of spec.md §4.7 when sol
// already matches guide (or there is no guide at all).
func candidateMoves(sol, guide *solution.Solution) []move {
	if guide == nil {
		return fullNeighborhood(sol)
	}
	diff := symmetricDifferenceMoves(sol, guide)
	if len(diff) == 0 {
		return fullNeighborhood(sol)
	}
	return diff
}

// EliteMemeticTabu runs a short tabu search starting independently from
// every resident in archive (spec.md §4.7's "for each elite solution,
// run a short tabu search ... return the best solution found"),
// mirroring ElitePathRelink's all-residents loop. Each refined solution
// is offered back into the archive. Returns the single best
// (solution, cost) seen across every elite, or ok=false if the archive
// is empty.
func EliteMemeticTabu(archive *Archive, eval *evaluator.Evaluator, cfg TabuConfig, rng *rand.Rand) (*solution.Solution, float64, bool) {
	residents := archive.All()
	if len(residents) == 0 {
		return nil, 0, false
	}

	var overallBest *solution.Solution
	overallCost := math.Inf(1)

	for _, elite := range residents {
		refined := elite.DeepCopy()
		refined.SetCost(requireCost(elite, eval))
		cost := MemeticTabu(refined, nil, eval, cfg, rng)
		archive.Offer(refined, cost)
		if cost < overallCost {
			overallCost = cost
			overallBest = refined
		}
	}

	return overallBest, overallCost, overallBest != nil
}

// fullNeighborhood is the Memetic Tabu move universe: every single
// add/remove-order move, every single add/remove-aisle move, and
// every aisle swap (spec.md §4.7).
func fullNeighborhood(sol *solution.Solution) []move {
	moves := append(orderNeighborhood(sol), aisleNeighborhood(sol)...)
	return append(moves, swapAisleNeighborhood(sol)...)
}
