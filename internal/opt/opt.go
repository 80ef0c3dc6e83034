// Package opt defines the shared Optimizer/Result shape every search
// component in this module reports through.
package opt

import (
	"context"
	"time"

	"github.com/r3b0rn/wavepick/internal/instance"
)

// Optimizer is any algorithm that searches for a wave-picking
// solution over inst.
type Optimizer interface {
	Solve(ctx context.Context, inst *instance.Instance) (Result, error)
}

// Result is the outcome of one Solve call.
type Result struct {
	ChosenOrders []int
	ChosenAisles []int
	Objective    float64

	Evaluations int
	Iterations  int
	Duration    time.Duration
	Meta        map[string]any
}
