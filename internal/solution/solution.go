// Package solution holds the mutable working solution for one
// wave-picking search: the chosen orders and aisles, the per-(order,
// item) coverage counters, and the cached objective cost.
package solution

import (
	"hash/maphash"

	"github.com/r3b0rn/wavepick/internal/instance"
)

// Solution is the mutable state mutated by Move Operators (§4.5). It
// holds a non-owning handle to its Instance; adjacency maps are
// computed once by the Instance and never mutated here.
type Solution struct {
	Inst *instance.Instance

	chosenOrders []bool
	chosenAisles []bool
	orderCount   int
	aisleCount   int

	// Coverage[o][k] is the number of chosen aisles stocking
	// Inst.Orders[o].Items[k]; aligned index-for-index with Items.
	Coverage [][]int

	currentCost float64
	costKnown   bool

	// OrderVersion/AisleVersion are bumped on every order/aisle
	// mutation respectively; evaluator delta caches key off these to
	// invalidate memoized deltas in their category (spec.md §4.3).
	OrderVersion uint64
	AisleVersion uint64

	orderToAisles [][]int
	aisleToOrders [][]int
}

// New constructs an empty Solution over inst with no orders or aisles chosen.
func New(inst *instance.Instance) *Solution {
	orderToAisles, aisleToOrders := inst.Adjacency()
	s := &Solution{
		Inst:          inst,
		chosenOrders:  make([]bool, inst.NumOrders()),
		chosenAisles:  make([]bool, inst.NumAisles()),
		Coverage:      make([][]int, inst.NumOrders()),
		orderToAisles: orderToAisles,
		aisleToOrders: aisleToOrders,
	}
	for o, ord := range inst.Orders {
		s.Coverage[o] = make([]int, len(ord.Items))
	}
	return s
}

// ContainsOrder reports whether order o is currently chosen. O(1).
func (s *Solution) ContainsOrder(o int) bool { return s.chosenOrders[o] }

// ContainsAisle reports whether aisle a is currently chosen. O(1).
func (s *Solution) ContainsAisle(a int) bool { return s.chosenAisles[a] }

// NumChosenOrders returns |chosenOrders|.
func (s *Solution) NumChosenOrders() int { return s.orderCount }

// NumChosenAisles returns |chosenAisles|.
func (s *Solution) NumChosenAisles() int { return s.aisleCount }

// ChosenOrderIDs returns the chosen order ids in ascending order.
func (s *Solution) ChosenOrderIDs() []int { return idsWhere(s.chosenOrders) }

// ChosenAisleIDs returns the chosen aisle ids in ascending order.
func (s *Solution) ChosenAisleIDs() []int { return idsWhere(s.chosenAisles) }

// AisleToOrders returns the (immutable, instance-derived) adjacency
// list of orders whose demand intersects aisle a's stock.
func (s *Solution) AisleToOrders(a int) []int { return s.aisleToOrders[a] }

// OrderToAisles returns the (immutable, instance-derived) adjacency
// list of aisles whose stock intersects order o's demand.
func (s *Solution) OrderToAisles(o int) []int { return s.orderToAisles[o] }

func idsWhere(chosen []bool) []int {
	out := make([]int, 0, len(chosen))
	for id, v := range chosen {
		if v {
			out = append(out, id)
		}
	}
	return out
}

// Cost returns the last value recorded by SetCost/AddCost, and whether
// it is known (a fresh Solution's cost is "unknown" per spec.md §3).
func (s *Solution) Cost() (cost float64, known bool) { return s.currentCost, s.costKnown }

// SetCost overwrites the cached cost (used after a full recompute).
func (s *Solution) SetCost(cost float64) {
	s.currentCost = cost
	s.costKnown = true
}

// AddCost applies a delta to the cached cost. Callers (Move Operators)
// compute the delta via the evaluator before mutating, then call this
// after the structural mutation.
func (s *Solution) AddCost(delta float64) {
	s.currentCost += delta
	s.costKnown = true
}

// ApplyAddOrder inserts o into chosenOrders. No-op if already chosen.
// Coverage counters are unaffected: they depend only on chosen aisles.
func (s *Solution) ApplyAddOrder(o int) {
	if s.chosenOrders[o] {
		return
	}
	s.chosenOrders[o] = true
	s.orderCount++
	s.OrderVersion++
}

// ApplyRemoveOrder removes o from chosenOrders. No-op if absent.
func (s *Solution) ApplyRemoveOrder(o int) {
	if !s.chosenOrders[o] {
		return
	}
	s.chosenOrders[o] = false
	s.orderCount--
	s.OrderVersion++
}

// ApplyAddAisle inserts a into chosenAisles and increments coverage
// counters for every order (chosen or not) whose demand intersects
// aisle a's stock (spec.md §4.2).
func (s *Solution) ApplyAddAisle(a int) {
	if s.chosenAisles[a] {
		return
	}
	s.chosenAisles[a] = true
	s.aisleCount++
	s.AisleVersion++

	ais := s.Inst.Aisles[a]
	for _, o := range s.aisleToOrders[a] {
		s.bumpCoverage(o, ais, +1)
	}
}

// ApplyRemoveAisle removes a from chosenAisles and decrements coverage
// counters symmetrically to ApplyAddAisle.
func (s *Solution) ApplyRemoveAisle(a int) {
	if !s.chosenAisles[a] {
		return
	}
	s.chosenAisles[a] = false
	s.aisleCount--
	s.AisleVersion++

	ais := s.Inst.Aisles[a]
	for _, o := range s.aisleToOrders[a] {
		s.bumpCoverage(o, ais, -1)
	}
}

func (s *Solution) bumpCoverage(o int, ais instance.Aisle, delta int) {
	ord := s.Inst.Orders[o]
	cov := s.Coverage[o]
	// ord.Items and ais.Items are both sorted; walk them together.
	i, j := 0, 0
	for i < len(ord.Items) && j < len(ais.Items) {
		switch {
		case ord.Items[i] == ais.Items[j]:
			cov[i] += delta
			i++
			j++
		case ord.Items[i] < ais.Items[j]:
			i++
		default:
			j++
		}
	}
}

// UpdateCoverage fully recomputes Coverage from chosenAisles, restoring
// the coverage-consistency invariant unconditionally (spec.md §4.2).
func (s *Solution) UpdateCoverage() {
	for o, ord := range s.Inst.Orders {
		cov := s.Coverage[o]
		for k := range cov {
			cov[k] = 0
		}
		_ = ord
	}
	for a, chosen := range s.chosenAisles {
		if !chosen {
			continue
		}
		ais := s.Inst.Aisles[a]
		for _, o := range s.aisleToOrders[a] {
			s.bumpCoverage(o, ais, +1)
		}
	}
}

// OrderFullyCovered reports whether every item demanded by order o has
// coverage[o][i] >= 1.
func (s *Solution) OrderFullyCovered(o int) bool {
	for _, c := range s.Coverage[o] {
		if c == 0 {
			return false
		}
	}
	return true
}

// TotalUnits returns the sum of demanded units over chosen orders —
// the quantity the wave bounds [WaveLB, WaveUB] constrain.
func (s *Solution) TotalUnits() int {
	total := 0
	for o, chosen := range s.chosenOrders {
		if chosen {
			total += s.Inst.Orders[o].Units
		}
	}
	return total
}

// DeepCopy produces an independent Solution with identical sets and
// coverage. Adjacency slices are shared (they are immutable).
func (s *Solution) DeepCopy() *Solution {
	cp := &Solution{
		Inst:          s.Inst,
		chosenOrders:  append([]bool(nil), s.chosenOrders...),
		chosenAisles:  append([]bool(nil), s.chosenAisles...),
		orderCount:    s.orderCount,
		aisleCount:    s.aisleCount,
		Coverage:      make([][]int, len(s.Coverage)),
		currentCost:   s.currentCost,
		costKnown:     s.costKnown,
		OrderVersion:  s.OrderVersion,
		AisleVersion:  s.AisleVersion,
		orderToAisles: s.orderToAisles,
		aisleToOrders: s.aisleToOrders,
	}
	for o, cov := range s.Coverage {
		cp.Coverage[o] = append([]int(nil), cov...)
	}
	return cp
}

// CopyFrom overwrites s's sets, coverage, cost, and version counters
// with other's, in place. Used by search components that explore away
// from a solution and need to restore the best state found without
// swapping pointers held by a caller.
func (s *Solution) CopyFrom(other *Solution) {
	s.Inst = other.Inst
	s.chosenOrders = append(s.chosenOrders[:0], other.chosenOrders...)
	s.chosenAisles = append(s.chosenAisles[:0], other.chosenAisles...)
	s.orderCount = other.orderCount
	s.aisleCount = other.aisleCount
	s.currentCost = other.currentCost
	s.costKnown = other.costKnown
	s.OrderVersion = other.OrderVersion
	s.AisleVersion = other.AisleVersion
	s.orderToAisles = other.orderToAisles
	s.aisleToOrders = other.aisleToOrders

	if len(s.Coverage) != len(other.Coverage) {
		s.Coverage = make([][]int, len(other.Coverage))
	}
	for o, cov := range other.Coverage {
		s.Coverage[o] = append(s.Coverage[o][:0], cov...)
	}
}

// Equal compares by instance identity and the (chosenOrders,
// chosenAisles) sets only, per spec.md §4.2.
func (s *Solution) Equal(other *Solution) bool {
	if other == nil || s.Inst != other.Inst {
		return false
	}
	return boolSlicesEqual(s.chosenOrders, other.chosenOrders) &&
		boolSlicesEqual(s.chosenAisles, other.chosenAisles)
}

func boolSlicesEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Hash returns a value-equality-consistent hash over (chosenOrders,
// chosenAisles), suitable for elite-archive duplicate detection.
func (s *Solution) Hash() uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	for _, id := range s.ChosenOrderIDs() {
		writeVarint(&h, id)
	}
	h.WriteByte(0xFF)
	for _, id := range s.ChosenAisleIDs() {
		writeVarint(&h, id)
	}
	return h.Sum64()
}

var hashSeed = maphash.MakeSeed()

func writeVarint(h *maphash.Hash, v int) {
	u := uint64(v)
	var buf [10]byte
	n := 0
	for u >= 0x80 {
		buf[n] = byte(u) | 0x80
		u >>= 7
		n++
	}
	buf[n] = byte(u)
	n++
	h.Write(buf[:n])
}

// JaccardDistance returns 0.4*jaccardDelta(orders)+0.6*jaccardDelta(aisles)
// as used by the elite archive's diversity score (spec.md §4.7), where
// jaccardDelta(A,B) = |A symdiff B| / (|A|+|B|).
func JaccardDistance(a, b *Solution) float64 {
	ordDelta := symDiffRatio(a.chosenOrders, b.chosenOrders)
	aisDelta := symDiffRatio(a.chosenAisles, b.chosenAisles)
	return 0.4*ordDelta + 0.6*aisDelta
}

func symDiffRatio(x, y []bool) float64 {
	symDiff, total := 0, 0
	for i := range x {
		xi, yi := x[i], y[i]
		if xi {
			total++
		}
		if yi {
			total++
		}
		if xi != yi {
			symDiff++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(symDiff) / float64(total)
}
