// Package evaluator computes the surrogate penalty-based cost used by
// the search (spec.md §4.3) and the exact deltas each Move Operator
// needs, with a per-(op,id) memo cache guarded by the Solution's
// order/aisle version counters.
package evaluator

import (
	"math"
	"runtime"
	"sync"

	"github.com/r3b0rn/wavepick/internal/instance"
	"github.com/r3b0rn/wavepick/internal/solution"
)

// Weights are the surrogate cost coefficients of spec.md §4.3.
type Weights struct {
	PMissing float64
	CAisle   float64
	WRatio   float64
}

// DefaultWeights returns the spec.md defaults: pMissing=1000, cAisle=10, wRatio=50.
func DefaultWeights() Weights {
	return Weights{PMissing: 1000, CAisle: 10, WRatio: 50}
}

// Evaluator computes surrogate cost and deltas for a given Solution.
// One Evaluator may be reused across many calls against the same or
// different Solutions; its memo caches are keyed by the Solution
// pointer and its version counters, so switching Solutions simply
// invalidates the cache rather than requiring a new Evaluator.
type Evaluator struct {
	Weights Weights

	orderAddCache    deltaCache
	orderRemoveCache deltaCache
	aisleAddCache    deltaCache
	aisleRemoveCache deltaCache
}

// New constructs an Evaluator with the given weights.
func New(w Weights) *Evaluator { return &Evaluator{Weights: w} }

// deltaCache memoizes deltas for one (operation, id) category. It is
// valid only while sol, its OrderVersion, and its AisleVersion are
// unchanged from the snapshot at which it was last populated — both
// versions are tracked because every delta formula depends on coverage
// (aisle-driven) as well as order/aisle counts (both-driven).
type deltaCache struct {
	sol    *solution.Solution
	ov, av uint64
	values map[int]float64
}

func (c *deltaCache) get(sol *solution.Solution, id int) (float64, bool) {
	if c.sol != sol || c.ov != sol.OrderVersion || c.av != sol.AisleVersion {
		c.sol = sol
		c.ov = sol.OrderVersion
		c.av = sol.AisleVersion
		c.values = make(map[int]float64)
		return 0, false
	}
	v, ok := c.values[id]
	return v, ok
}

func (c *deltaCache) put(id int, v float64) {
	if c.values == nil {
		c.values = make(map[int]float64)
	}
	c.values[id] = v
}

func ratio(nAisles, nOrders int) float64 {
	if nOrders < 1 {
		nOrders = 1
	}
	return float64(nAisles) / float64(nOrders)
}

// Cost performs a full recompute of the surrogate cost (spec.md §4.3).
// Used for periodic drift correction and as the baseline the delta
// functions are proved against.
func (e *Evaluator) Cost(sol *solution.Solution) float64 {
	nOrders := sol.NumChosenOrders()
	if nOrders == 0 {
		return math.Inf(1)
	}
	nAisles := sol.NumChosenAisles()

	missing := 0
	for _, o := range sol.ChosenOrderIDs() {
		if !sol.OrderFullyCovered(o) {
			missing++
		}
	}

	return float64(missing)*e.Weights.PMissing +
		e.Weights.CAisle*float64(nAisles) +
		e.Weights.WRatio*ratio(nAisles, nOrders)
}

// DeltaAddOrder returns the exact change in cost from adding order o,
// 0 if o is already chosen.
func (e *Evaluator) DeltaAddOrder(sol *solution.Solution, o int) float64 {
	if sol.ContainsOrder(o) {
		return 0
	}
	if v, ok := e.orderAddCache.get(sol, o); ok {
		return v
	}
	v := e.computeDeltaAddOrder(sol, o)
	e.orderAddCache.put(o, v)
	return v
}

func (e *Evaluator) computeDeltaAddOrder(sol *solution.Solution, o int) float64 {
	missing := 0.0
	if !sol.OrderFullyCovered(o) {
		missing = e.Weights.PMissing
	}
	nAisles := sol.NumChosenAisles()
	nOrdersBefore := sol.NumChosenOrders()
	deltaRatio := e.Weights.WRatio * (ratio(nAisles, nOrdersBefore+1) - ratio(nAisles, nOrdersBefore))
	return missing + deltaRatio
}

// DeltaRemoveOrder returns the exact change in cost from removing order
// o, 0 if o is not chosen, +Inf if removal would empty chosenOrders.
func (e *Evaluator) DeltaRemoveOrder(sol *solution.Solution, o int) float64 {
	if !sol.ContainsOrder(o) {
		return 0
	}
	if sol.NumChosenOrders() == 1 {
		return math.Inf(1)
	}
	if v, ok := e.orderRemoveCache.get(sol, o); ok {
		return v
	}
	v := e.computeDeltaRemoveOrder(sol, o)
	e.orderRemoveCache.put(o, v)
	return v
}

func (e *Evaluator) computeDeltaRemoveOrder(sol *solution.Solution, o int) float64 {
	missingDelta := 0.0
	if !sol.OrderFullyCovered(o) {
		missingDelta = -e.Weights.PMissing
	}
	nAisles := sol.NumChosenAisles()
	nOrdersBefore := sol.NumChosenOrders()
	deltaRatio := e.Weights.WRatio * (ratio(nAisles, nOrdersBefore-1) - ratio(nAisles, nOrdersBefore))
	return missingDelta + deltaRatio
}

// DeltaAddAisle returns the exact change in cost from adding aisle a,
// 0 if a is already chosen.
func (e *Evaluator) DeltaAddAisle(sol *solution.Solution, a int) float64 {
	if sol.ContainsAisle(a) {
		return 0
	}
	if v, ok := e.aisleAddCache.get(sol, a); ok {
		return v
	}
	v := e.computeDeltaAddAisle(sol, a)
	e.aisleAddCache.put(a, v)
	return v
}

func (e *Evaluator) computeDeltaAddAisle(sol *solution.Solution, a int) float64 {
	nAislesBefore := sol.NumChosenAisles()
	nOrders := sol.NumChosenOrders()
	deltaRatio := e.Weights.WRatio * (ratio(nAislesBefore+1, nOrders) - ratio(nAislesBefore, nOrders))

	ais := sol.Inst.Aisles[a]
	deltaMissing := 0.0
	for _, o := range sol.AisleToOrders(a) {
		if !sol.ContainsOrder(o) || sol.OrderFullyCovered(o) {
			continue
		}
		if wouldBecomeCovered(sol, o, ais) {
			deltaMissing -= e.Weights.PMissing
		}
	}

	return e.Weights.CAisle + deltaRatio + deltaMissing
}

// DeltaRemoveAisle returns the exact change in cost from removing
// aisle a, 0 if a is not chosen.
func (e *Evaluator) DeltaRemoveAisle(sol *solution.Solution, a int) float64 {
	if !sol.ContainsAisle(a) {
		return 0
	}
	if v, ok := e.aisleRemoveCache.get(sol, a); ok {
		return v
	}
	v := e.computeDeltaRemoveAisle(sol, a)
	e.aisleRemoveCache.put(a, v)
	return v
}

func (e *Evaluator) computeDeltaRemoveAisle(sol *solution.Solution, a int) float64 {
	nAislesBefore := sol.NumChosenAisles()
	nOrders := sol.NumChosenOrders()
	deltaRatio := e.Weights.WRatio * (ratio(nAislesBefore-1, nOrders) - ratio(nAislesBefore, nOrders))

	ais := sol.Inst.Aisles[a]
	deltaMissing := 0.0
	for _, o := range sol.AisleToOrders(a) {
		if !sol.ContainsOrder(o) || !sol.OrderFullyCovered(o) {
			continue
		}
		if isSoleProvider(sol, o, ais) {
			deltaMissing += e.Weights.PMissing
		}
	}

	return -e.Weights.CAisle + deltaRatio + deltaMissing
}

// wouldBecomeCovered reports whether order o, currently not fully
// covered, would become fully covered if aisle ais were added: every
// item with coverage[o][k]==0 must be stocked by ais.
func wouldBecomeCovered(sol *solution.Solution, o int, ais instance.Aisle) bool {
	ord := sol.Inst.Orders[o]
	cov := sol.Coverage[o]
	i, j := 0, 0
	for i < len(ord.Items) {
		if cov[i] > 0 {
			i++
			continue
		}
		for j < len(ais.Items) && ais.Items[j] < ord.Items[i] {
			j++
		}
		if j >= len(ais.Items) || ais.Items[j] != ord.Items[i] {
			return false
		}
		i++
	}
	return true
}

// isSoleProvider reports whether order o's coverage would drop to zero
// for some demanded item if aisle ais were removed.
func isSoleProvider(sol *solution.Solution, o int, ais instance.Aisle) bool {
	ord := sol.Inst.Orders[o]
	cov := sol.Coverage[o]
	i, j := 0, 0
	for i < len(ord.Items) && j < len(ais.Items) {
		switch {
		case ord.Items[i] == ais.Items[j]:
			if cov[i] == 1 {
				return true
			}
			i++
			j++
		case ord.Items[i] < ais.Items[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// DeltaSwapAisle returns deltaRemoveAisle(aRemove) evaluated in the
// current state, followed by deltaAddAisle(aAdd) evaluated in the
// state after the (internally simulated) removal; the Solution is
// restored to its original structural state before returning — the
// simulated intermediate state never leaks out (spec.md §4.3).
func (e *Evaluator) DeltaSwapAisle(sol *solution.Solution, aRemove, aAdd int) float64 {
	if aRemove == aAdd {
		return 0
	}
	removeDelta := e.DeltaRemoveAisle(sol, aRemove)
	sol.ApplyRemoveAisle(aRemove)
	addDelta := e.DeltaAddAisle(sol, aAdd)
	sol.ApplyAddAisle(aRemove)
	return removeDelta + addDelta
}

// DeltaSwapOrders returns deltaRemove(contained)+deltaAdd(notContained)
// if exactly one of o1, o2 is chosen; 0 otherwise.
func (e *Evaluator) DeltaSwapOrders(sol *solution.Solution, o1, o2 int) float64 {
	in1, in2 := sol.ContainsOrder(o1), sol.ContainsOrder(o2)
	if in1 == in2 {
		return 0
	}
	if in1 {
		removeDelta := e.DeltaRemoveOrder(sol, o1)
		sol.ApplyRemoveOrder(o1)
		addDelta := e.DeltaAddOrder(sol, o2)
		sol.ApplyAddOrder(o1)
		return removeDelta + addDelta
	}
	removeDelta := e.DeltaRemoveOrder(sol, o2)
	sol.ApplyRemoveOrder(o2)
	addDelta := e.DeltaAddOrder(sol, o1)
	sol.ApplyAddOrder(o2)
	return removeDelta + addDelta
}

// BatchDeltaAddOrders evaluates DeltaAddOrder for every id in ids in
// parallel. Each computation only reads sol; none mutates it, so this
// is safe without synchronization (spec.md §5). The memo cache is
// bypassed here to avoid concurrent map writes.
func (e *Evaluator) BatchDeltaAddOrders(sol *solution.Solution, ids []int) []float64 {
	return parallelMap(ids, func(o int) float64 { return e.computeDeltaAddOrderSafe(sol, o) })
}

func (e *Evaluator) computeDeltaAddOrderSafe(sol *solution.Solution, o int) float64 {
	if sol.ContainsOrder(o) {
		return 0
	}
	return e.computeDeltaAddOrder(sol, o)
}

// BatchDeltaAddAisles evaluates DeltaAddAisle for every id in ids in
// parallel, under the same read-only contract as BatchDeltaAddOrders.
func (e *Evaluator) BatchDeltaAddAisles(sol *solution.Solution, ids []int) []float64 {
	return parallelMap(ids, func(a int) float64 { return e.computeDeltaAddAisleSafe(sol, a) })
}

func (e *Evaluator) computeDeltaAddAisleSafe(sol *solution.Solution, a int) float64 {
	if sol.ContainsAisle(a) {
		return 0
	}
	return e.computeDeltaAddAisle(sol, a)
}

func parallelMap(ids []int, f func(int) float64) []float64 {
	out := make([]float64, len(ids))
	if len(ids) == 0 {
		return out
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > len(ids) {
		workers = len(ids)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	chunk := (len(ids) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if lo >= len(ids) {
			break
		}
		if hi > len(ids) {
			hi = len(ids)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				out[i] = f(ids[i])
			}
		}(lo, hi)
	}
	wg.Wait()
	return out
}
