package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qlp-hq/production-scheduler/internal/config"
	"github.com/qlp-hq/production-scheduler/internal/logger"
	"github.com/qlp-hq/production-scheduler/internal/optimizer"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search for a workforce configuration under a scheduling policy",
}

var (
	optPolicy         string
	optTargetLateness float64
	optTolerance       float64
	optMinMechanics   int
	optMaxMechanics   int
	optMinQuality     int
	optMaxQuality     int
	optMaxIter        int
)

func init() {
	optimizeCmd.Flags().StringVar(&optPolicy, "policy", "jit", "optimizer policy: jit or min-lateness")
	optimizeCmd.Flags().Float64Var(&optTargetLateness, "target-lateness", -1, "target signed lateness in days (jit policy)")
	optimizeCmd.Flags().Float64Var(&optTolerance, "tolerance", 2, "acceptable deviation from target lateness in days (jit policy)")
	optimizeCmd.Flags().IntVar(&optMinMechanics, "min-mechanics", 1, "floor on each mechanic team's headcount")
	optimizeCmd.Flags().IntVar(&optMaxMechanics, "max-mechanics", 50, "ceiling on each mechanic team's headcount")
	optimizeCmd.Flags().IntVar(&optMinQuality, "min-quality", 1, "floor on each quality team's headcount")
	optimizeCmd.Flags().IntVar(&optMaxQuality, "max-quality", 50, "ceiling on each quality team's headcount")
	optimizeCmd.Flags().IntVar(&optMaxIter, "max-iter", 200, "iteration cap for the jit policy's search")

	optimizeCmd.RunE = runOptimize
	rootCmd.AddCommand(optimizeCmd)
}

// optimizeOutput is the common shape both policies report through:
// the winning configuration plus the trial it was scored with.
type optimizeOutput struct {
	Policy         string             `json:"policy"`
	Mechanic       map[string]int     `json:"mechanic_teams"`
	Quality        map[string]int     `json:"quality_teams"`
	TotalWorkforce int                `json:"total_workforce"`
	Makespan       int                `json:"makespan_days"`
	MaxLateness    float64            `json:"max_lateness_days"`
	TotalLateness  float64            `json:"total_lateness_days"`
	AchievedMin    float64            `json:"achieved_min_lateness_days"`
	FeasibleFound  bool               `json:"feasible_found,omitempty"`
}

func runOptimize(cmd *cobra.Command, args []string) error {
	runCfg := config.LoadRunConfig()

	pipe, err := loadPipeline(runCfg.CatalogPath)
	if err != nil {
		return err
	}

	var out optimizeOutput
	switch optPolicy {
	case "jit":
		params := optimizer.JITParams{
			TargetLateness: optTargetLateness,
			Tolerance:      optTolerance,
			MinMechanics:   optMinMechanics,
			MaxMechanics:   optMaxMechanics,
			MinQuality:     optMinQuality,
			MaxQuality:     optMaxQuality,
			MaxIter:        optMaxIter,
		}
		res := optimizer.JITTarget(pipe.g, pipe.calc, pipe.built.Products, pipe.cat.MechanicTeams, pipe.cat.QualityTeams, pipe.schedCfg, params)
		logger.LogOptimizerIteration("jit", optMaxIter, res.Config.TotalWorkforce(), res.MaxDeviation)
		out = optimizeOutput{
			Policy:         "jit",
			Mechanic:       res.Config.Mechanic,
			Quality:        res.Config.Quality,
			TotalWorkforce: res.Config.TotalWorkforce(),
			Makespan:       res.Trial.Makespan,
			MaxLateness:    res.Trial.MaxLateness,
			TotalLateness:  res.Trial.TotalLateness,
			AchievedMin:    res.AchievedMin,
			FeasibleFound:  res.FeasibleFound,
		}
	case "min-lateness":
		params := optimizer.MinLatenessParams{
			MinMechanics: optMinMechanics,
			MaxMechanics: optMaxMechanics,
			MinQuality:   optMinQuality,
			MaxQuality:   optMaxQuality,
		}
		res := optimizer.MinLateness(pipe.g, pipe.calc, pipe.built.Products, pipe.cat.MechanicTeams, pipe.cat.QualityTeams, pipe.schedCfg, params)
		logger.LogOptimizerIteration("min-lateness", 0, res.Config.TotalWorkforce(), res.AchievedMin)
		out = optimizeOutput{
			Policy:         "min-lateness",
			Mechanic:       res.Config.Mechanic,
			Quality:        res.Config.Quality,
			TotalWorkforce: res.Config.TotalWorkforce(),
			Makespan:       res.Trial.Makespan,
			MaxLateness:    res.Trial.MaxLateness,
			TotalLateness:  res.Trial.TotalLateness,
			AchievedMin:    res.AchievedMin,
		}
	default:
		return fmt.Errorf("unknown optimizer policy %q (want jit or min-lateness)", optPolicy)
	}

	return writeOptimizeOutput(runCfg.OutputPath, out)
}

func writeOptimizeOutput(path string, out optimizeOutput) error {
	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if path == "" {
		fmt.Println(string(body))
		return nil
	}
	return os.WriteFile(path, body, 0644)
}
