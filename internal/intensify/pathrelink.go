package intensify

import (
	"math"
	"math/rand"
	"sort"

	"github.com/r3b0rn/wavepick/internal/evaluator"
	"github.com/r3b0rn/wavepick/internal/solution"
)

// PathRelinkConfig holds the Path Relinking tunables (spec.md §4.7).
type PathRelinkConfig struct {
	// TopRankedFraction is the leading slice of the symmetric-difference
	// move list kept in strict delta order; the remainder is shuffled.
	TopRankedFraction float64
	Refine            bool
	RefineMode        ImprovementMode
}

// DefaultPathRelinkConfig returns the spec.md §6 Path Relinking
// defaults.
func DefaultPathRelinkConfig() PathRelinkConfig {
	return PathRelinkConfig{
		TopRankedFraction: 0.25,
		Refine:            true,
		RefineMode:        FirstImprovement,
	}
}

// PathRelink walks from source toward target/guide along the
// symmetric-difference move list, ranked best-first for a leading
// fraction and randomized for the rest, recording the best
// intermediate solution seen along the way. It does not mutate
// source or target. If cfg.Refine is set, the best intermediate is
// further polished by repeated cfg.RefineMode improvement steps (at
// most 2*(orders+aisles+1)), stopping at the first step that finds no
// improving move.
func PathRelink(source, target *solution.Solution, eval *evaluator.Evaluator, cfg PathRelinkConfig, rng *rand.Rand) (*solution.Solution, float64) {
	working := source.DeepCopy()
	working.UpdateCoverage()

	path := symmetricDifferenceMoves(working, target)
	if len(path) == 0 {
		cost, _ := working.Cost()
		return working, cost
	}
	path = rankMoves(path, working, eval, cfg.TopRankedFraction, rng)

	bestCost := requireCost(working, eval)
	best := working.DeepCopy()

	for _, m := range path {
		commit(m, working, eval)
		cost := requireCost(working, eval)
		if cost < bestCost {
			bestCost = cost
			best = working.DeepCopy()
		}
	}

	if cfg.Refine {
		cache := newNeighborCache()
		for i := 0; i < 2*(best.Inst.NumOrders()+best.Inst.NumAisles()+1); i++ {
			var delta float64
			var found bool
			if cfg.RefineMode == FirstImprovement {
				delta, found = stepFirstImprovement(best, eval, cache, rng, 1e-9)
			} else {
				delta, found = stepBestImprovement(best, eval, cache, 1e-9)
			}
			if !found {
				break
			}
			bestCost += delta
		}
	}

	return best, bestCost
}

func requireCost(sol *solution.Solution, eval *evaluator.Evaluator) float64 {
	if c, ok := sol.Cost(); ok {
		return c
	}
	c := eval.Cost(sol)
	sol.SetCost(c)
	return c
}

// symmetricDifferenceMoves returns the moves that, applied in any
// order, transform working's membership into target's.
func symmetricDifferenceMoves(working, target *solution.Solution) []move {
	var moves []move
	for o := 0; o < working.Inst.NumOrders(); o++ {
		in, want := working.ContainsOrder(o), target.ContainsOrder(o)
		if in == want {
			continue
		}
		if want {
			moves = append(moves, move{kind: addOrderMove, id: o})
		} else {
			moves = append(moves, move{kind: removeOrderMove, id: o})
		}
	}
	for a := 0; a < working.Inst.NumAisles(); a++ {
		in, want := working.ContainsAisle(a), target.ContainsAisle(a)
		if in == want {
			continue
		}
		if want {
			moves = append(moves, move{kind: addAisleMove, id: a})
		} else {
			moves = append(moves, move{kind: removeAisleMove, id: a})
		}
	}
	return moves
}

// ElitePathRelink runs PathRelink between every ordered pair of
// distinct residents in archive (both directions, spec.md §4.7), and
// offers every intermediate best found back into the archive. Returns
// the single best (solution, cost) seen across all pairs.
func ElitePathRelink(archive *Archive, eval *evaluator.Evaluator, cfg PathRelinkConfig, rng *rand.Rand) (*solution.Solution, float64, bool) {
	residents := archive.All()
	if len(residents) < 2 {
		return nil, 0, false
	}

	var overallBest *solution.Solution
	overallCost := math.Inf(1)

	for i := range residents {
		for j := range residents {
			if i == j {
				continue
			}
			candidate, cost := PathRelink(residents[i], residents[j], eval, cfg, rng)
			archive.Offer(candidate, cost)
			if cost < overallCost {
				overallCost = cost
				overallBest = candidate
			}
		}
	}

	return overallBest, overallCost, overallBest != nil
}

// rankMoves sorts the leading fraction of moves ascending by their
// current estimated delta and shuffles the remainder (spec.md §4.7).
func rankMoves(moves []move, sol *solution.Solution, eval *evaluator.Evaluator, topFraction float64, rng *rand.Rand) []move {
	type scored struct {
		m     move
		delta float64
	}
	all := make([]scored, len(moves))
	for i, m := range moves {
		all[i] = scored{m, estimateDelta(m, sol, eval)}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].delta < all[j].delta })

	k := int(math.Ceil(topFraction * float64(len(all))))
	if k > len(all) {
		k = len(all)
	}

	ranked := make([]move, 0, len(all))
	for i := 0; i < k; i++ {
		ranked = append(ranked, all[i].m)
	}
	tail := make([]move, 0, len(all)-k)
	for i := k; i < len(all); i++ {
		tail = append(tail, all[i].m)
	}
	shuffleMoves(tail, rng)
	ranked = append(ranked, tail...)
	return ranked
}
