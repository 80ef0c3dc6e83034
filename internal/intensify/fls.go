// Package intensify implements the deepening moves of spec.md §4.7:
// Focused Local Search (VND over the order/aisle neighborhoods), Path
// Relinking, the Elite Archive, and Memetic Tabu Intensification.
package intensify

import (
	"math/rand"

	"github.com/r3b0rn/wavepick/internal/evaluator"
	"github.com/r3b0rn/wavepick/internal/solution"
)

// ImprovementMode selects how FLS picks a move from a scanned
// neighborhood.
type ImprovementMode int

const (
	// BestImprovement scans every neighbor before committing to the
	// strictly best one.
	BestImprovement ImprovementMode = iota
	// FirstImprovement commits to the first strictly improving neighbor
	// found, in randomized scan order.
	FirstImprovement
)

// FLSConfig holds the Focused Local Search tunables (spec.md §4.7).
type FLSConfig struct {
	Mode ImprovementMode

	MaxIterations    int
	ImprovementEps   float64
	MaxNoImprovement int // stagnation window before a light-mutation restart
	PatienceFactor   float64
	AllowRestart     bool
}

// DefaultFLSConfig returns the spec.md §6 Focused Local Search
// defaults.
func DefaultFLSConfig() FLSConfig {
	return FLSConfig{
		Mode:             BestImprovement,
		MaxIterations:    500,
		ImprovementEps:   1e-9,
		MaxNoImprovement: 40,
		PatienceFactor:   0.5,
		AllowRestart:     true,
	}
}

// Result reports what one FLS run accomplished.
type Result struct {
	Improved   bool
	TotalDelta float64
	Iterations int
}

// FLS runs Variable Neighborhood Descent over the order and aisle
// neighborhoods against sol, mutating it in place. remaining, when
// non-nil, is consulted each iteration and the run stops as soon as it
// returns <= 0 (the ASA driver's time-oracle, spec.md §5).
func FLS(sol *solution.Solution, eval *evaluator.Evaluator, cfg FLSConfig, rng *rand.Rand, remaining func() float64) Result {
	cache := newNeighborCache()
	res := Result{}

	patience := int(cfg.PatienceFactor * float64(sol.Inst.NumOrders()+sol.Inst.NumAisles()))
	if patience < 1 {
		patience = 1
	}
	noImprove := 0

	best := sol.DeepCopy()
	bestDelta := 0.0

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if remaining != nil && remaining() <= 0 {
			break
		}
		res.Iterations++

		var delta float64
		var found bool
		switch cfg.Mode {
		case FirstImprovement:
			delta, found = stepFirstImprovement(sol, eval, cache, rng, cfg.ImprovementEps)
		default:
			delta, found = stepBestImprovement(sol, eval, cache, cfg.ImprovementEps)
		}

		if !found {
			noImprove++
		} else {
			res.TotalDelta += delta
			res.Improved = true
			noImprove = 0
			if res.TotalDelta < bestDelta {
				bestDelta = res.TotalDelta
				best.CopyFrom(sol)
			}
			// Improvements accumulated so far shrink the remaining
			// patience budget (spec.md §4.7: patience is "geometrically
			// reduced as the improvement ratio grows").
			patience = int(float64(patience) * 0.9)
			if patience < 1 {
				patience = 1
			}
		}

		if noImprove >= patience || noImprove >= cfg.MaxNoImprovement {
			if !cfg.AllowRestart {
				break
			}
			kickDelta, did := lightMutationRestart(sol, eval, rng)
			if !did {
				break
			}
			res.TotalDelta += kickDelta
			res.Improved = true
			noImprove = 0
		}
	}

	// A light-mutation restart can leave sol worse than the best state
	// reached; hand back that best state instead.
	if res.TotalDelta > bestDelta {
		sol.CopyFrom(best)
		res.TotalDelta = bestDelta
		res.Improved = bestDelta < 0
	}

	return res
}

// stepBestImprovement scans both neighborhoods in full and commits the
// single strictly-best move, if any exists.
func stepBestImprovement(sol *solution.Solution, eval *evaluator.Evaluator, cache *neighborCache, eps float64) (float64, bool) {
	best, bestDelta := move{}, 0.0
	hasBest := false

	for _, m := range cache.orderMoves(sol) {
		d := estimateDelta(m, sol, eval)
		if !hasBest || d < bestDelta {
			bestDelta, best, hasBest = d, m, true
		}
	}
	for _, m := range cache.aisleMoves(sol) {
		d := estimateDelta(m, sol, eval)
		if !hasBest || d < bestDelta {
			bestDelta, best, hasBest = d, m, true
		}
	}

	if !hasBest || bestDelta >= -eps {
		return 0, false
	}
	realized := commit(best, sol, eval)
	return realized, true
}

// stepFirstImprovement scans the order neighborhood then the aisle
// neighborhood, each in randomized order, committing to the first
// strictly improving move found.
func stepFirstImprovement(sol *solution.Solution, eval *evaluator.Evaluator, cache *neighborCache, rng *rand.Rand, eps float64) (float64, bool) {
	order := append([]move(nil), cache.orderMoves(sol)...)
	shuffleMoves(order, rng)
	for _, m := range order {
		if d := estimateDelta(m, sol, eval); d < -eps {
			return commit(m, sol, eval), true
		}
	}

	aisle := append([]move(nil), cache.aisleMoves(sol)...)
	shuffleMoves(aisle, rng)
	for _, m := range aisle {
		if d := estimateDelta(m, sol, eval); d < -eps {
			return commit(m, sol, eval), true
		}
	}

	return 0, false
}

func shuffleMoves(moves []move, rng *rand.Rand) {
	for i := len(moves) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		moves[i], moves[j] = moves[j], moves[i]
	}
}

// lightMutationRestart perturbs sol with a handful of random moves to
// escape a stagnant neighborhood (spec.md §4.7), returning the total
// realized cost delta across every kick so the caller's bookkeeping
// never drifts from sol's actual cost. Returns did=false if the
// instance is too small to perturb.
func lightMutationRestart(sol *solution.Solution, eval *evaluator.Evaluator, rng *rand.Rand) (total float64, did bool) {
	n := sol.Inst.NumOrders() + sol.Inst.NumAisles()
	if n == 0 {
		return 0, false
	}
	kicks := 2 + rng.Intn(3)
	for i := 0; i < kicks; i++ {
		if rng.Intn(2) == 0 && sol.Inst.NumOrders() > 0 {
			o := rng.Intn(sol.Inst.NumOrders())
			if sol.ContainsOrder(o) {
				total += commit(move{kind: removeOrderMove, id: o}, sol, eval)
			} else {
				total += commit(move{kind: addOrderMove, id: o}, sol, eval)
			}
			did = true
		} else if sol.Inst.NumAisles() > 0 {
			a := rng.Intn(sol.Inst.NumAisles())
			if sol.ContainsAisle(a) {
				total += commit(move{kind: removeAisleMove, id: a}, sol, eval)
			} else {
				total += commit(move{kind: addAisleMove, id: a}, sol, eval)
			}
			did = true
		}
	}
	return total, did
}
