// Package bench runs repeated solver trials over fixed instances and
// summarizes objective/time statistics to CSV (adapted from the
// teacher's flow-shop benchmarking harness).
package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/r3b0rn/wavepick/internal/instance"
	"github.com/r3b0rn/wavepick/internal/opt"
)

// Algorithm names one Optimizer factory, parameterized by run seed.
type Algorithm struct {
	Name    string
	Factory func(seed int64) opt.Optimizer
}

// Case is one fixed instance to benchmark against, labeled for
// reporting.
type Case struct {
	Name string
	Inst *instance.Instance
}

// Record summarizes Runs trials of one algorithm against one case.
type Record struct {
	Algo   string
	Case   string
	Orders int
	Aisles int
	Runs   int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	ObjectiveBest float64
	ObjectiveMean float64
	ObjectiveStd  float64
}

// Runner drives Runs trials per (case, algorithm) pair.
type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
}

// RunCase executes r.Runs trials of algo against c.Inst, each with a
// distinct seed, and returns the summarized Record.
func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	objectives := make([]float64, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op := algo.Factory(runSeed)

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, c.Inst)
		dur := time.Since(start)
		cancel()

		if err != nil && runCtx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}

		objectives = append(objectives, res.Objective)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
	}

	objStats := CalcFloatStats(objectives)
	tStats := CalcFloatStats(timesMs)

	return Record{
		Algo:   algo.Name,
		Case:   c.Name,
		Orders: c.Inst.NumOrders(),
		Aisles: c.Inst.NumAisles(),
		Runs:   r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		ObjectiveBest: objStats.Best,
		ObjectiveMean: objStats.Mean,
		ObjectiveStd:  objStats.Std,
	}, nil
}

// WriteCSV writes records to path, creating parent directories as
// needed.
func WriteCSV(path string, records []Record) error {
	if dir := dirOf(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"algo", "case", "orders", "aisles", "runs",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"objective_best", "objective_mean", "objective_std",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Algo,
			r.Case,
			itoa(r.Orders),
			itoa(r.Aisles),
			itoa(r.Runs),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			ftoa(r.ObjectiveBest),
			ftoa(r.ObjectiveMean),
			ftoa(r.ObjectiveStd),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
