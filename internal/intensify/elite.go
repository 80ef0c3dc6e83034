package intensify

import (
	"math"

	"github.com/r3b0rn/wavepick/internal/repair"
	"github.com/r3b0rn/wavepick/internal/solution"
)

// EliteConfig holds the Elite Archive tunables (spec.md §4.7, §6).
type EliteConfig struct {
	Capacity        int     // default 5
	DiversityWeight float64 // w in the quality/diversity blend, default 0.3
	MinDistance     float64 // MIN_DISTANCE: minimum diversity admitting a direct-improvement replacement
}

// DefaultEliteConfig returns the spec.md §6 elite archive defaults.
func DefaultEliteConfig() EliteConfig {
	return EliteConfig{Capacity: 5, DiversityWeight: 0.3, MinDistance: 0.2}
}

// resident is one archived solution together with its cached cost.
type resident struct {
	sol  *solution.Solution
	cost float64
}

// Archive is the fixed-capacity, quality-and-diversity elite pool of
// spec.md §4.7. Residents are kept sorted ascending by cost.
type Archive struct {
	cfg       EliteConfig
	residents []resident
}

// NewArchive constructs an empty archive.
func NewArchive(cfg EliteConfig) *Archive {
	return &Archive{cfg: cfg}
}

// Len reports the current number of residents.
func (a *Archive) Len() int { return len(a.residents) }

// Best returns the lowest-cost resident, or nil if the archive is
// empty.
func (a *Archive) Best() (*solution.Solution, float64, bool) {
	if len(a.residents) == 0 {
		return nil, 0, false
	}
	return a.residents[0].sol, a.residents[0].cost, true
}

// Sample returns a uniformly random resident, or nil if the archive is
// empty. Callers supply the randomness so archive sampling stays
// reproducible under a single seeded rng (spec.md §9).
func (a *Archive) Sample(pick func(n int) int) (*solution.Solution, bool) {
	if len(a.residents) == 0 {
		return nil, false
	}
	return a.residents[pick(len(a.residents))].sol, true
}

// All returns every resident solution, best-cost first.
func (a *Archive) All() []*solution.Solution {
	out := make([]*solution.Solution, len(a.residents))
	for i, r := range a.residents {
		out[i] = r.sol
	}
	return out
}

// Offer proposes candidate for admission. It is admitted when:
//   - it is presence-feasible (infeasible candidates are always
//     rejected, spec.md §4.7), and it is not a duplicate of a current
//     resident, and
//   - the archive has spare capacity, or
//   - it beats the archive's worst resident under the quality/diversity
//     blended score ((1-w)*qualityScore + w*diversityScore, qualityScore
//     = -1/cost, diversityScore = min distance to the other residents,
//     w = DiversityWeight), or
//   - it strictly improves on the worst resident's cost while staying at
//     least MinDistance from every current resident.
//
// Admission evicts the resident with the highest blended score if the
// archive was already at capacity. Offer stores a defensive DeepCopy,
// never the candidate pointer itself, so later mutation by the caller
// cannot corrupt the archive.
func (a *Archive) Offer(candidate *solution.Solution, cost float64) bool {
	if !repair.Feasible(candidate) {
		return false
	}
	for _, r := range a.residents {
		if r.sol.Equal(candidate) {
			return false
		}
	}

	if len(a.residents) < a.cfg.Capacity {
		a.residents = append(a.residents, resident{sol: candidate.DeepCopy(), cost: cost})
		a.sortByCost()
		return true
	}

	minDistance := a.minDistanceTo(candidate)

	worstIdx := 0
	worstScore := -math.MaxFloat64
	for i := range a.residents {
		score := a.blendedScore(i)
		if score > worstScore {
			worstScore = score
			worstIdx = i
		}
	}
	worst := a.residents[worstIdx]

	candidateScore := a.blend(cost, minDistance)

	if candidateScore > worstScore || (cost < worst.cost && minDistance >= a.cfg.MinDistance) {
		a.residents[worstIdx] = resident{sol: candidate.DeepCopy(), cost: cost}
		a.sortByCost()
		return true
	}
	return false
}

// blend combines a quality and a diversity score with DiversityWeight,
// mirroring the updateElite combinedScore formula (spec.md §4.7).
func (a *Archive) blend(cost, diversityScore float64) float64 {
	qualityScore := -1.0 / cost
	w := a.cfg.DiversityWeight
	return (1-w)*qualityScore + w*diversityScore
}

// blendedScore returns resident i's combined score, using its min
// distance to every OTHER resident as the diversity term.
func (a *Archive) blendedScore(i int) float64 {
	minDistance := math.MaxFloat64
	for j, r := range a.residents {
		if i == j {
			continue
		}
		if d := solution.JaccardDistance(a.residents[i].sol, r.sol); d < minDistance {
			minDistance = d
		}
	}
	if minDistance == math.MaxFloat64 {
		minDistance = 0
	}
	return a.blend(a.residents[i].cost, minDistance)
}

// minDistanceTo returns candidate's minimum distance to every current
// resident.
func (a *Archive) minDistanceTo(candidate *solution.Solution) float64 {
	minDistance := math.MaxFloat64
	for _, r := range a.residents {
		if d := solution.JaccardDistance(r.sol, candidate); d < minDistance {
			minDistance = d
		}
	}
	if minDistance == math.MaxFloat64 {
		minDistance = 0
	}
	return minDistance
}

func (a *Archive) sortByCost() {
	for i := 1; i < len(a.residents); i++ {
		for j := i; j > 0 && a.residents[j].cost < a.residents[j-1].cost; j-- {
			a.residents[j], a.residents[j-1] = a.residents[j-1], a.residents[j]
		}
	}
}
