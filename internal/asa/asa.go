// Package asa implements the Adaptive Search Algorithm driver of
// spec.md §5: the outer loop that ties the evaluator, move operators,
// bandit operator selector, and intensification mechanisms together.
package asa

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/r3b0rn/wavepick/internal/bandit"
	"github.com/r3b0rn/wavepick/internal/evaluator"
	"github.com/r3b0rn/wavepick/internal/instance"
	"github.com/r3b0rn/wavepick/internal/intensify"
	"github.com/r3b0rn/wavepick/internal/operators"
	"github.com/r3b0rn/wavepick/internal/opt"
	"github.com/r3b0rn/wavepick/internal/repair"
	"github.com/r3b0rn/wavepick/internal/solution"
)

// Driver runs the ASA outer loop. It is not safe for concurrent use.
type Driver struct {
	Cfg Config
	Rng *rand.Rand
}

// New returns a new Driver with a validated config, mirroring the
// teacher's per-algorithm New(cfg, rng) factories.
func New(cfg Config, rng *rand.Rand) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("rng must not be nil")
	}
	return &Driver{Cfg: cfg, Rng: rng}, nil
}

// Solve runs the ASA loop to termination: the time oracle going to
// zero, or noImprove iterations reaching MaxNoImprovementIterations.
// The returned Objective is the evaluator's surrogate cost of the best
// solution (lower is better); it is not the units-per-aisle ratio.
func (d *Driver) Solve(ctx context.Context, inst *instance.Instance) (opt.Result, error) {
	start := time.Now()
	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := d.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if d.Rng == nil {
		return opt.Result{}, fmt.Errorf("rng must not be nil")
	}

	eval := evaluator.New(d.Cfg.Weights)
	ops := operators.DefaultOperators()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name()
	}
	selector := bandit.New(names, d.Cfg.Bandit)
	archive := intensify.NewArchive(d.Cfg.Elite)

	curr := constructInitial(inst, d.Rng)
	curr.SetCost(eval.Cost(curr))
	currCost, _ := curr.Cost()

	best := curr.DeepCopy()
	bestCost := currCost
	archive.Offer(curr, currCost)

	deadlineMillis := float64(d.Cfg.MaxRuntimeMillis)
	remaining := func() float64 {
		return deadlineMillis - float64(time.Since(start).Milliseconds())
	}

	cand := curr.DeepCopy()

	noImprove := 0
	iterations := 0
	evaluations := 0
	maxNoImprove := float64(d.Cfg.MaxNoImprovementIterations)

	for remaining() > 0 && ctx.Err() == nil && noImprove < d.Cfg.MaxNoImprovementIterations {
		iterations++

		idx := selector.Select(d.Rng)
		op := ops[idx]

		preCost, _ := cand.Cost()
		delta := op.Apply(cand, eval, d.Rng)
		evaluations++
		postCost := preCost + delta

		accept := delta <= 0
		if !accept {
			temperature := d.Cfg.TemperatureScaleFactor * math.Max(preCost, 1)
			p := math.Exp(-delta / temperature)
			accept = d.Rng.Float64() < p
		}

		if accept {
			curr.CopyFrom(cand)
			currCost = postCost
			selector.Feedback(idx, delta, true)
		} else {
			cand.CopyFrom(curr)
			selector.Feedback(idx, delta, false)
		}

		if currCost < bestCost-1e-9 {
			bestCost = currCost
			best.CopyFrom(curr)
			noImprove = 0
		} else {
			noImprove++
		}

		if d.Cfg.DriftCorrectionInterval > 0 && iterations%d.Cfg.DriftCorrectionInterval == 0 {
			currCost = eval.Cost(curr)
			curr.SetCost(currCost)
			cand.CopyFrom(curr)
		}

		if d.Cfg.EliteUpdateFrequency > 0 && iterations%d.Cfg.EliteUpdateFrequency == 0 {
			archive.Offer(curr, currCost)
			archive.Offer(best, bestCost)
		}

		// Focused Local Search: periodic, or whenever the search has gone
		// stagnant for more than half the no-improvement budget. Deep
		// stagnation switches FLS from first- to best-improvement.
		if d.Cfg.IntensificationFrequency > 0 && iterations%d.Cfg.IntensificationFrequency == 0 ||
			float64(noImprove) > maxNoImprove/2 {
			flsCfg := d.Cfg.FLS
			if float64(noImprove) > maxNoImprove/2 {
				flsCfg.Mode = intensify.BestImprovement
			} else {
				flsCfg.Mode = intensify.FirstImprovement
			}

			res := intensify.FLS(curr, eval, flsCfg, d.Rng, remaining)
			if res.Improved {
				currCost += res.TotalDelta
				curr.SetCost(currCost)
				cand.CopyFrom(curr)
				if currCost < bestCost-1e-9 {
					bestCost = currCost
					best.CopyFrom(curr)
					noImprove = 0
				}
			}
		}

		// Elite Path Relinking: periodic, or once stagnation passes 70% of
		// the budget and the archive holds enough residents to pair up.
		if (d.Cfg.PathRelinkingFrequency > 0 && iterations%d.Cfg.PathRelinkingFrequency == 0 ||
			float64(noImprove) > 0.7*maxNoImprove) && archive.Len() >= 2 {
			if relinked, cost, ok := intensify.ElitePathRelink(archive, eval, d.Cfg.PathRelink, d.Rng); ok {
				if cost < currCost {
					curr.CopyFrom(relinked)
					currCost = cost
					curr.SetCost(currCost)
					cand.CopyFrom(curr)
				}
				if cost < bestCost-1e-9 {
					bestCost = cost
					best.CopyFrom(relinked)
					noImprove = 0
				}
			}
		}

		// Memetic Tabu Intensification: only once stagnation passes 80% of
		// the budget and the archive has at least one resident to refine.
		// Runs a short tabu search from every elite independently and
		// keeps the overall best, the way ElitePathRelink already does.
		if float64(noImprove) > 0.8*maxNoImprove && archive.Len() > 0 {
			if refined, cost, ok := intensify.EliteMemeticTabu(archive, eval, d.Cfg.Tabu, d.Rng); ok {
				if cost < currCost {
					curr.CopyFrom(refined)
					currCost = cost
					curr.SetCost(currCost)
					cand.CopyFrom(curr)
				}
				if cost < bestCost-1e-9 {
					bestCost = cost
					best.CopyFrom(refined)
					noImprove = 0
				}
			}
		}

		// Every 100 stagnation steps, escape with a strong destroy-and-
		// repair perturbation instead of waiting on the Metropolis walk.
		if noImprove > 0 && noImprove%100 == 0 {
			strongDelta := operators.LNSOrder{Rho: 0.3}.Apply(curr, eval, d.Rng)
			strongDelta += operators.LNSAisle{Rho: 0.3}.Apply(curr, eval, d.Rng)
			currCost += strongDelta
			curr.SetCost(currCost)
			cand.CopyFrom(curr)
			if currCost < bestCost-1e-9 {
				bestCost = currCost
				best.CopyFrom(curr)
				noImprove = 0
			}
		}
	}

	if bestArchived, archivedCost, ok := archive.Best(); ok && archivedCost < bestCost {
		best.CopyFrom(bestArchived)
		bestCost = archivedCost
	}

	repair.RemoveInfeasibleOrders(best)
	repair.Repair(best)
	bestCost = eval.Cost(best)
	best.SetCost(bestCost)

	return opt.Result{
		ChosenOrders: best.ChosenOrderIDs(),
		ChosenAisles: best.ChosenAisleIDs(),
		Objective:    bestCost,
		Evaluations:  evaluations,
		Iterations:   iterations,
		Duration:     time.Since(start),
		Meta: map[string]any{
			"unit_feasible":   repair.UnitFeasible(best),
			"wave_bounds_ok":  repair.WaveBoundsSatisfied(best),
			"bandit_snapshot": selector.Snapshot(),
		},
	}, nil
}

// constructInitial randomly selects 20-50% of orders, adds one random
// covering aisle per selected order plus a few extra random aisles,
// then repairs coverage (spec.md §4.8's construction phase).
func constructInitial(inst *instance.Instance, rng *rand.Rand) *solution.Solution {
	sol := solution.New(inst)
	orderToAisles, _ := inst.Adjacency()

	orderCount := inst.NumOrders()
	minOrders := int(float64(orderCount) * 0.2)
	maxOrdersOffset := int(float64(orderCount) * 0.3)
	ordersToSelect := minOrders
	if maxOrdersOffset > 0 {
		ordersToSelect += rng.Intn(maxOrdersOffset)
	}

	selectedOrders := make(map[int]bool, ordersToSelect)
	for i := 0; i < ordersToSelect && i < orderCount; i++ {
		selectedOrders[rng.Intn(orderCount)] = true
	}

	selectedAisles := make(map[int]bool)
	for o := range selectedOrders {
		sol.ApplyAddOrder(o)
		if covering := orderToAisles[o]; len(covering) > 0 {
			selectedAisles[covering[rng.Intn(len(covering))]] = true
		}
	}

	aisleCount := inst.NumAisles()
	maxAislesOffset := int(float64(aisleCount) * 0.1)
	moreAisles := 1
	if maxAislesOffset > 0 {
		moreAisles += rng.Intn(maxAislesOffset)
	}
	for i := 0; i < moreAisles && i < aisleCount; i++ {
		selectedAisles[rng.Intn(aisleCount)] = true
	}

	for a := range selectedAisles {
		sol.ApplyAddAisle(a)
	}

	repair.Repair(sol)
	return sol
}
