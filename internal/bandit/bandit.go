// Package bandit implements the Adaptive Operator Selector of
// spec.md §4.6: a multi-armed bandit over named operators with
// UCB1, ε-greedy, and Roulette strategies, atomic per-operator
// counters, and a reader/writer-guarded probability vector.
package bandit

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
)

// Strategy selects which bandit rule Select uses.
type Strategy int

const (
	UCB1 Strategy = iota
	EpsilonGreedy
	Roulette
)

// Config holds the selector's tunables (spec.md §6).
type Config struct {
	Strategy        Strategy
	UCBC            float64 // default sqrt(2)
	Epsilon         float64 // default 0.1
	UpdateFrequency int     // default 100
	Decay           float64 // default 0.95, used by the score accumulator
}

// DefaultConfig returns the spec.md §6 bandit defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:        UCB1,
		UCBC:            math.Sqrt2,
		Epsilon:         0.1,
		UpdateFrequency: 100,
		Decay:           0.95,
	}
}

// Stats is a point-in-time snapshot of one operator's bandit state.
type Stats struct {
	Name                 string
	Uses                 int64
	Successes            int64
	SumReward            float64
	Score                float64
	SelectionProbability float64
}

// Selector is the multi-armed bandit over a fixed set of named
// operators. Safe for concurrent Feedback calls; Select is intended to
// be called from the single-threaded ASA driver loop only.
type Selector struct {
	Cfg   Config
	names []string

	uses      []atomic.Int64
	successes []atomic.Int64

	rewardMu   []sync.Mutex
	sumReward  []float64
	score      []float64

	probMu        sync.RWMutex
	probabilities []float64

	totalFeedbacks atomic.Int64
}

// New constructs a Selector over the given operator names.
func New(names []string, cfg Config) *Selector {
	n := len(names)
	s := &Selector{
		Cfg:           cfg,
		names:         append([]string(nil), names...),
		uses:          make([]atomic.Int64, n),
		successes:     make([]atomic.Int64, n),
		rewardMu:      make([]sync.Mutex, n),
		sumReward:     make([]float64, n),
		score:         make([]float64, n),
		probabilities: uniform(n),
	}
	return s
}

func uniform(n int) []float64 {
	p := make([]float64, n)
	if n == 0 {
		return p
	}
	for i := range p {
		p[i] = 1.0 / float64(n)
	}
	return p
}

func (s *Selector) meanReward(i int) float64 {
	uses := s.uses[i].Load()
	if uses == 0 {
		return 0
	}
	s.rewardMu[i].Lock()
	sum := s.sumReward[i]
	s.rewardMu[i].Unlock()
	return sum / float64(uses)
}

// Select picks an operator index according to the configured strategy.
func (s *Selector) Select(rng *rand.Rand) int {
	n := len(s.names)
	if n == 0 {
		return -1
	}
	switch s.Cfg.Strategy {
	case EpsilonGreedy:
		if rng.Float64() < s.Cfg.Epsilon {
			return rng.Intn(n)
		}
		return s.argmaxMeanReward()
	case Roulette:
		return s.rouletteSelect(rng)
	default:
		return s.ucb1Select()
	}
}

func (s *Selector) ucb1Select() int {
	n := len(s.names)
	for i := 0; i < n; i++ {
		if s.uses[i].Load() == 0 {
			return i
		}
	}
	total := s.totalFeedbacks.Load()
	logTotal := math.Log(float64(total))

	best, bestScore := 0, math.Inf(-1)
	for i := 0; i < n; i++ {
		uses := float64(s.uses[i].Load())
		score := s.meanReward(i) + s.Cfg.UCBC*math.Sqrt(logTotal/uses)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

func (s *Selector) argmaxMeanReward() int {
	n := len(s.names)
	best, bestScore := 0, math.Inf(-1)
	for i := 0; i < n; i++ {
		if mr := s.meanReward(i); mr > bestScore {
			bestScore = mr
			best = i
		}
	}
	return best
}

func (s *Selector) rouletteSelect(rng *rand.Rand) int {
	s.probMu.RLock()
	probs := s.probabilities
	s.probMu.RUnlock()

	r := rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if r <= cum {
			return i
		}
	}
	return len(probs) - 1
}

// Feedback records the outcome of applying operator i: increments
// uses; if the move improved the solution (delta<0) or was accepted,
// increments successes and credits reward (1.0 on improvement, 0.1 on
// accept-without-improve, 0 otherwise); updates the exponentially
// decayed score. Every UpdateFrequency feedbacks, recomputes the
// Roulette probability vector (spec.md §4.6).
func (s *Selector) Feedback(i int, delta float64, accepted bool) {
	s.uses[i].Add(1)

	improved := delta < 0
	reward := 0.0
	switch {
	case improved:
		reward = 1.0
		s.successes[i].Add(1)
	case accepted:
		reward = 0.1
		s.successes[i].Add(1)
	}

	s.rewardMu[i].Lock()
	s.sumReward[i] += reward
	s.score[i] = s.score[i]*s.Cfg.Decay + reward
	s.rewardMu[i].Unlock()

	total := s.totalFeedbacks.Add(1)
	freq := int64(s.Cfg.UpdateFrequency)
	if freq > 0 && total%freq == 0 {
		s.updateWeights()
	}
}

// updateWeights recomputes the Roulette probability vector behind a
// short writer critical section (spec.md §5).
func (s *Selector) updateWeights() {
	n := len(s.names)
	means := make([]float64, n)
	minMean := math.Inf(1)
	for i := 0; i < n; i++ {
		means[i] = s.meanReward(i)
		if means[i] < minMean {
			minMean = means[i]
		}
	}

	shifted := make([]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		shifted[i] = means[i] - minMean
		total += shifted[i]
	}

	next := make([]float64, n)
	if total <= 0 {
		next = uniform(n)
	} else {
		for i := 0; i < n; i++ {
			next[i] = shifted[i] / total
		}
	}

	s.probMu.Lock()
	s.probabilities = next
	s.probMu.Unlock()
}

// Probabilities returns a snapshot of the current Roulette probability
// vector (also populated, as a uniform vector, under other strategies).
func (s *Selector) Probabilities() []float64 {
	s.probMu.RLock()
	defer s.probMu.RUnlock()
	return append([]float64(nil), s.probabilities...)
}

// Snapshot returns a point-in-time Stats slice, one per operator, in
// the same order names were supplied to New.
func (s *Selector) Snapshot() []Stats {
	probs := s.Probabilities()
	out := make([]Stats, len(s.names))
	for i, name := range s.names {
		s.rewardMu[i].Lock()
		sumR := s.sumReward[i]
		sc := s.score[i]
		s.rewardMu[i].Unlock()
		out[i] = Stats{
			Name:                 name,
			Uses:                 s.uses[i].Load(),
			Successes:            s.successes[i].Load(),
			SumReward:            sumR,
			Score:                sc,
			SelectionProbability: probs[i],
		}
	}
	return out
}

// TotalUses returns the sum of all per-operator use counts, equal to
// the number of Feedback calls made so far.
func (s *Selector) TotalUses() int64 { return s.totalFeedbacks.Load() }
