// Command solve runs the ASA driver once against a single wave-picking
// instance file and reports the best solution found.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/r3b0rn/wavepick/internal/asa"
	"github.com/r3b0rn/wavepick/internal/bandit"
	"github.com/r3b0rn/wavepick/internal/config"
	"github.com/r3b0rn/wavepick/internal/intensify"
	"github.com/r3b0rn/wavepick/internal/reader"
)

func main() {
	var (
		instPath   = flag.String("instance", "", "path to the instance file (required)")
		seed       = flag.Int64("seed", 0, "rng seed; 0 uses ASA_SEED from the environment")
		maxRuntime = flag.Int("max_runtime_ms", 0, "override ASA_MAX_RUNTIME_MILLIS; 0 keeps the configured value")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if *instPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -instance flag")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(2)
	}

	f, err := os.Open(*instPath)
	if err != nil {
		logger.Error("failed to open instance file", "path", *instPath, "err", err)
		os.Exit(1)
	}
	inst, err := reader.Parse(f)
	f.Close()
	if err != nil {
		logger.Error("failed to parse instance file", "path", *instPath, "err", err)
		os.Exit(1)
	}
	if err := inst.Validate(); err != nil {
		logger.Error("instance failed validation", "err", err)
		os.Exit(1)
	}

	logger.Info("loaded instance",
		"path", *instPath,
		"orders", inst.NumOrders(),
		"aisles", inst.NumAisles(),
		"items", inst.NumItems,
	)

	driverCfg := asaConfigFromEnv(cfg)
	if *maxRuntime > 0 {
		driverCfg.MaxRuntimeMillis = *maxRuntime
	}

	runSeed := *seed
	if runSeed == 0 {
		runSeed = cfg.ASA.Seed
	}
	rng := rand.New(rand.NewSource(runSeed))

	driver, err := asa.New(driverCfg, rng)
	if err != nil {
		logger.Error("invalid driver config", "err", err)
		os.Exit(2)
	}

	ctx := context.Background()
	result, err := driver.Solve(ctx, inst)
	if err != nil {
		logger.Error("solve failed", "err", err)
		os.Exit(1)
	}

	logger.Info("solved",
		"objective", result.Objective,
		"chosen_orders", len(result.ChosenOrders),
		"chosen_aisles", len(result.ChosenAisles),
		"iterations", result.Iterations,
		"evaluations", result.Evaluations,
		"duration", result.Duration,
	)

	fmt.Printf("objective: %.6f\n", result.Objective)
	fmt.Printf("orders: %s\n", joinInts(result.ChosenOrders))
	fmt.Printf("aisles: %s\n", joinInts(result.ChosenAisles))
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " ")
}

// asaConfigFromEnv builds an asa.Config from the environment-loaded
// surface, resolving the string-typed enum fields that env.Parse
// cannot map directly onto the intensify/bandit constants.
func asaConfigFromEnv(cfg *config.Config) asa.Config {
	d := asa.DefaultConfig()

	d.MaxRuntimeMillis = cfg.ASA.MaxRuntimeMillis
	d.MaxNoImprovementIterations = cfg.ASA.MaxNoImprovementIterations
	d.IntensificationFrequency = cfg.ASA.IntensificationFrequency
	d.PathRelinkingFrequency = cfg.ASA.PathRelinkingFrequency
	d.EliteUpdateFrequency = cfg.ASA.EliteUpdateFrequency
	d.TemperatureScaleFactor = cfg.ASA.TemperatureScaleFactor
	d.DriftCorrectionInterval = cfg.ASA.DriftCorrectionInterval

	d.Bandit.Strategy = banditStrategyFromString(cfg.Bandit.Strategy)
	d.Bandit.UCBC = cfg.Bandit.UCBC
	d.Bandit.Epsilon = cfg.Bandit.Epsilon
	d.Bandit.UpdateFrequency = cfg.Bandit.UpdateFrequency
	d.Bandit.Decay = cfg.Bandit.Decay

	d.Weights.PMissing = cfg.Weights.PMissing
	d.Weights.CAisle = cfg.Weights.CAisle
	d.Weights.WRatio = cfg.Weights.WRatio

	d.FLS.MaxIterations = cfg.FLS.MaxIterations
	d.FLS.ImprovementEps = cfg.FLS.ImprovementEps
	d.FLS.MaxNoImprovement = cfg.FLS.MaxNoImprovement
	d.FLS.PatienceFactor = cfg.FLS.PatienceFactor
	d.FLS.AllowRestart = cfg.FLS.AllowRestart
	if strings.EqualFold(cfg.FLS.Mode, "first") {
		d.FLS.Mode = intensify.FirstImprovement
	}

	d.PathRelink.TopRankedFraction = cfg.PathRelink.TopRankedFraction
	d.PathRelink.Refine = cfg.PathRelink.Refine
	if strings.EqualFold(cfg.PathRelink.RefineMode, "best") {
		d.PathRelink.RefineMode = intensify.BestImprovement
	}

	d.Elite.Capacity = cfg.Elite.Size
	d.Elite.DiversityWeight = cfg.Elite.DiversityWeight
	d.Elite.MinDistance = cfg.Elite.MinDistance

	d.Tabu.Tenure = cfg.Tabu.Tenure
	d.Tabu.MaxIterations = cfg.Tabu.MaxIterations

	return d
}

func banditStrategyFromString(s string) bandit.Strategy {
	switch strings.ToLower(s) {
	case "epsilongreedy", "epsilon_greedy", "epsilon-greedy":
		return bandit.EpsilonGreedy
	case "roulette":
		return bandit.Roulette
	default:
		return bandit.UCB1
	}
}
