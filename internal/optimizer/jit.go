package optimizer

import (
	"github.com/qlp-hq/production-scheduler/internal/graph"
	"github.com/qlp-hq/production-scheduler/internal/model"
	"github.com/qlp-hq/production-scheduler/internal/priority"
	"github.com/qlp-hq/production-scheduler/internal/scheduler"
)

// JITParams are the tunables of §4.6.2.
type JITParams struct {
	TargetLateness float64 // τ, typically -1
	Tolerance      float64 // ε, typically 2
	MinMechanics   int
	MaxMechanics   int
	MinQuality     int
	MaxQuality     int
	MaxIter        int
}

// JITResult is the optimizer's external output: the winning
// configuration, its metrics, and the policy-specific fields §6 names.
type JITResult struct {
	Config        Config
	Trial         *Trial
	AchievedMin   float64
	MaxDeviation  float64
	FeasibleFound bool
}

// JITTarget runs the two-phase just-in-time target optimizer: phase 1
// grows uniformly until a feasible configuration exists, phase 2
// shrinks underused teams while holding the tolerance.
func JITTarget(g *graph.Graph, calc *priority.Calculator, products []model.Product, mechanicTeams, qualityTeams map[string]*model.Team, schedCfg scheduler.Config, params JITParams) *JITResult {
	mechNames := sortedNames(mechanicTeams)
	qualNames := sortedNames(qualityTeams)

	var best *Trial
	considerBest := func(t *Trial) {
		if best == nil || betterConfig(t, best, params.TargetLateness, params.Tolerance) {
			best = t
		}
	}

	var feasible *Trial
	for level := params.MinMechanics; level <= params.MaxMechanics; level++ {
		cfg := Config{Mechanic: make(map[string]int, len(mechNames)), Quality: make(map[string]int, len(qualNames))}
		for _, name := range mechNames {
			cfg.Mechanic[name] = level
		}
		qualLevel := clampInt(level/5+1, params.MinQuality, params.MaxQuality)
		for _, name := range qualNames {
			cfg.Quality[name] = qualLevel
		}
		t := Run(g, calc, products, mechanicTeams, qualityTeams, schedCfg, cfg)
		considerBest(t)
		if meetsTolerance(t, params.TargetLateness, params.Tolerance) {
			feasible = t
			break
		}
	}

	if feasible == nil {
		return &JITResult{FeasibleFound: false, Trial: best, Config: best.Config}
	}

	current := feasible
	noImprovement := 0
	for iter := 0; iter < params.MaxIter && noImprovement < 30; iter++ {
		improved := false

		if meetsTolerance(current, params.TargetLateness, params.Tolerance) {
			floors := teamFloors(mechNames, qualNames, params)
			if name, ok := leastUtilizedReducible(current, floors); ok {
				trial := tryAdjust(g, calc, products, mechanicTeams, qualityTeams, schedCfg, current.Config, name, -1, floors)
				if trial != nil && meetsTolerance(trial, params.TargetLateness, params.Tolerance) {
					current = trial
					improved = true
				}
			}
		} else {
			productID, lateness, ok := productWithWorstLateness(current, params.TargetLateness)
			if ok {
				if lateness > params.TargetLateness+params.Tolerance {
					if name, ok := teamConsumingMostMinutes(g, current, productID); ok {
						cap := teamCap(name, mechNames, qualNames, params)
						trial := tryAdjust(g, calc, products, mechanicTeams, qualityTeams, schedCfg, current.Config, name, 1, map[string]int{name: cap})
						if trial != nil {
							current = trial
							improved = true
						}
					}
				} else if lateness < params.TargetLateness-2*params.Tolerance {
					pool := mergeNameSet(mechNames, qualNames)
					if name, ok := leastUtilizedTeam(current, pool); ok {
						floors := teamFloors(mechNames, qualNames, params)
						trial := tryAdjust(g, calc, products, mechanicTeams, qualityTeams, schedCfg, current.Config, name, -1, floors)
						if trial != nil {
							current = trial
							improved = true
						}
					}
				}
			}
		}

		considerBest(current)
		if improved {
			noImprovement = 0
		} else {
			noImprovement++
		}
	}

	return &JITResult{
		Config:        best.Config,
		Trial:         best,
		AchievedMin:   best.MaxLateness,
		MaxDeviation:  maxDeviation(best, params.TargetLateness),
		FeasibleFound: true,
	}
}

func sortedNames(m map[string]*model.Team) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func teamFloors(mechNames, qualNames []string, params JITParams) map[string]int {
	out := make(map[string]int, len(mechNames)+len(qualNames))
	for _, n := range mechNames {
		out[n] = params.MinMechanics
	}
	for _, n := range qualNames {
		out[n] = params.MinQuality
	}
	return out
}

func teamCap(name string, mechNames, qualNames []string, params JITParams) int {
	for _, n := range mechNames {
		if n == name {
			return params.MaxMechanics
		}
	}
	for _, n := range qualNames {
		if n == name {
			return params.MaxQuality
		}
	}
	return 0
}

func mergeNameSet(a, b []string) map[string]int {
	out := make(map[string]int, len(a)+len(b))
	for _, n := range a {
		out[n] = 0
	}
	for _, n := range b {
		out[n] = 0
	}
	return out
}

// leastUtilizedReducible finds the lowest-utilization team whose
// current level is above its floor.
func leastUtilizedReducible(t *Trial, floors map[string]int) (string, bool) {
	names := make([]string, 0, len(floors))
	for name := range floors {
		level := t.Config.Mechanic[name]
		if v, ok := t.Config.Quality[name]; ok {
			level = v
		}
		if level > floors[name] {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sortStrings(names)
	best := names[0]
	for _, n := range names[1:] {
		if t.Utilization[n] < t.Utilization[best] {
			best = n
		}
	}
	return best, true
}

// tryAdjust applies a ±1 delta to one team's capacity, bounded by
// bounds[name] (read as a ceiling for a positive delta, where 0 means
// no ceiling, and as a floor for a negative one), reruns the scheduler
// and returns the new trial, or nil if the delta would violate the
// bound.
func tryAdjust(g *graph.Graph, calc *priority.Calculator, products []model.Product, mechanicTeams, qualityTeams map[string]*model.Team, schedCfg scheduler.Config, base Config, name string, delta int, bounds map[string]int) *Trial {
	cfg := base.Clone()
	if v, ok := cfg.Mechanic[name]; ok {
		next := v + delta
		if delta > 0 && bounds[name] != 0 && next > bounds[name] {
			return nil
		}
		if delta < 0 && next < bounds[name] {
			return nil
		}
		cfg.Mechanic[name] = next
	} else if v, ok := cfg.Quality[name]; ok {
		next := v + delta
		if delta > 0 && bounds[name] != 0 && next > bounds[name] {
			return nil
		}
		if delta < 0 && next < bounds[name] {
			return nil
		}
		cfg.Quality[name] = next
	} else {
		return nil
	}
	return Run(g, calc, products, mechanicTeams, qualityTeams, schedCfg, cfg)
}

func maxDeviation(t *Trial, target float64) float64 {
	dev := 0.0
	for _, l := range t.Lateness {
		if d := absFloat(l - target); d > dev {
			dev = d
		}
	}
	return dev
}

// betterConfig orders two trials by (meets_tolerance, minimum total
// workforce, minimum max-deviation) lexicographically (§4.6.2 output
// rule).
func betterConfig(a, b *Trial, target, epsilon float64) bool {
	am, bm := meetsTolerance(a, target, epsilon), meetsTolerance(b, target, epsilon)
	if am != bm {
		return am
	}
	if a.TotalWorkforce != b.TotalWorkforce {
		return a.TotalWorkforce < b.TotalWorkforce
	}
	return maxDeviation(a, target) < maxDeviation(b, target)
}
