// Command bench runs repeated ASA trials, under each requested bandit
// strategy, against a set of wave-picking instance files and writes
// objective/time statistics to CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/r3b0rn/wavepick/internal/asa"
	"github.com/r3b0rn/wavepick/internal/bandit"
	"github.com/r3b0rn/wavepick/internal/bench"
	"github.com/r3b0rn/wavepick/internal/opt"
	"github.com/r3b0rn/wavepick/internal/reader"
)

func newASAFactory(base asa.Config, strategy bandit.Strategy) func(seed int64) opt.Optimizer {
	cfg := base
	cfg.Bandit.Strategy = strategy
	return func(seed int64) opt.Optimizer {
		driver, err := asa.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			// Config is validated once at startup; a per-seed factory
			// error here would mean the base config itself is invalid.
			panic(err)
		}
		return driver
	}
}

func main() {
	var (
		out          = flag.String("out", "artifacts/results.csv", "output CSV path")
		casesFlag    = flag.String("cases", "", "comma-separated instance file paths (required)")
		algosFlag    = flag.String("algos", "UCB1,EpsilonGreedy,Roulette", "comma-separated bandit strategies")
		runs         = flag.Int("runs", 10, "number of runs per (case, algorithm)")
		baseSeed     = flag.Int64("seed", 1000, "base rng seed for solver runs")
		perRunTO     = flag.Duration("per_run_timeout", 0, "per-run timeout; 0 disables")
		maxRuntimeMs = flag.Int("max_runtime_ms", 60000, "ASA max runtime per run, in milliseconds")
	)
	flag.Parse()

	ctx := context.Background()

	if *casesFlag == "" {
		fmt.Fprintln(os.Stderr, "missing required -cases flag")
		os.Exit(2)
	}

	cases, err := loadCases(*casesFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	baseCfg := asa.DefaultConfig()
	baseCfg.MaxRuntimeMillis = *maxRuntimeMs
	if err := baseCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid base config:", err)
		os.Exit(2)
	}

	available := map[string]bench.Algorithm{
		"UCB1":          {Name: "UCB1", Factory: newASAFactory(baseCfg, bandit.UCB1)},
		"EpsilonGreedy": {Name: "EpsilonGreedy", Factory: newASAFactory(baseCfg, bandit.EpsilonGreedy)},
		"Roulette":      {Name: "Roulette", Factory: newASAFactory(baseCfg, bandit.Roulette)},
	}

	var selected []bench.Algorithm
	for _, a := range splitCSV(*algosFlag) {
		algo, ok := available[a]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown algorithm %q; available: %v\n", a, keys(available))
			os.Exit(2)
		}
		selected = append(selected, algo)
	}

	runner := bench.Runner{
		Runs:          *runs,
		BaseSeed:      *baseSeed,
		PerRunTimeout: *perRunTO,
	}

	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			fmt.Printf("running %s on %s (%d orders, %d aisles, %d runs)...\n",
				a.Name, c.Name, c.Inst.NumOrders(), c.Inst.NumAisles(), runner.Runs)

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			records = append(records, rec)

			fmt.Printf("  objective: best=%.2f mean=%.2f std=%.2f | time: mean=%.2fms std=%.2fms\n",
				rec.ObjectiveBest, rec.ObjectiveMean, rec.ObjectiveStd,
				rec.TimeMeanMs, rec.TimeStdMs,
			)
		}
	}

	if err := bench.WriteCSV(*out, records); err != nil {
		fmt.Fprintln(os.Stderr, "error writing CSV:", err)
		os.Exit(1)
	}
	fmt.Println("saved:", *out)
}

func loadCases(pathsCSV string) ([]bench.Case, error) {
	paths := splitCSV(pathsCSV)
	cases := make([]bench.Case, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", p, err)
		}
		inst, err := reader.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", p, err)
		}
		if err := inst.Validate(); err != nil {
			return nil, fmt.Errorf("case %q: %w", p, err)
		}
		cases = append(cases, bench.Case{Name: caseName(p), Inst: inst})
	}
	return cases, nil
}

func caseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
