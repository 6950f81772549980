package optimizer

import (
	"github.com/qlp-hq/production-scheduler/internal/graph"
	"github.com/qlp-hq/production-scheduler/internal/model"
	"github.com/qlp-hq/production-scheduler/internal/priority"
	"github.com/qlp-hq/production-scheduler/internal/scheduler"
)

// MinLatenessParams are the tunables of §4.6.3: the per-pool floors
// and ceilings growth is bounded by.
type MinLatenessParams struct {
	MinMechanics int
	MaxMechanics int
	MinQuality   int
	MaxQuality   int
}

// MinLatenessResult mirrors JITResult's external shape for this policy.
type MinLatenessResult struct {
	Config       Config
	Trial        *Trial
	AchievedMin  float64
	TargetTotal  float64
}

const (
	noImprovementLimit = 20
	bottleneckRatio    = 0.9
	phase2TotalFactor  = 1.1
	phase2MaxRounds    = 50
	phase1MaxRounds    = 300
	utilizationFloor   = 0.70
)

// MinLateness runs the two-phase minimum-lateness multidimensional
// optimizer.
func MinLateness(g *graph.Graph, calc *priority.Calculator, products []model.Product, mechanicTeams, qualityTeams map[string]*model.Team, schedCfg scheduler.Config, params MinLatenessParams) *MinLatenessResult {
	mechNames := sortedNames(mechanicTeams)
	qualNames := sortedNames(qualityTeams)
	floors := teamFloors(mechNames, qualNames, JITParams{MinMechanics: params.MinMechanics, MinQuality: params.MinQuality})

	cfg := Config{Mechanic: make(map[string]int), Quality: make(map[string]int)}
	for _, n := range mechNames {
		cfg.Mechanic[n] = params.MinMechanics
	}
	for _, n := range qualNames {
		cfg.Quality[n] = params.MinQuality
	}

	current := Run(g, calc, products, mechanicTeams, qualityTeams, schedCfg, cfg)
	bestMaxLateness := current.MaxLateness
	noImprove := 0

	for iter := 0; iter < phase1MaxRounds; iter++ {
		blocking := blockingTeams(g, current)
		if len(blocking) > 0 {
			next := current.Config.Clone()
			grew := false
			for _, name := range blocking {
				if growTeam(next, name, 1, mechNames, qualNames, params) {
					grew = true
				}
			}
			if !grew {
				break
			}
			current = Run(g, calc, products, mechanicTeams, qualityTeams, schedCfg, next)
			noImprove = 0
			continue
		}

		if current.MaxLateness < bestMaxLateness {
			bestMaxLateness = current.MaxLateness
			noImprove = 0
		} else {
			noImprove++
		}

		if noImprove < noImprovementLimit {
			continue
		}

		next := current.Config.Clone()
		grew := false
		if name, ok := findBottleneck(current, mechNames, qualNames); ok {
			delta := 2
			if isQuality(name, qualNames) {
				delta = 1
			}
			grew = growTeam(next, name, delta, mechNames, qualNames, params)
		}
		if !grew {
			if name, ok := smallestTeam(current, mechNames, qualNames); ok {
				grew = growTeam(next, name, 1, mechNames, qualNames, params)
			}
		}
		if !grew {
			break // no growth helps
		}
		trial := Run(g, calc, products, mechanicTeams, qualityTeams, schedCfg, next)
		current = trial
		noImprove = 0
	}

	// Phase 2: shrink underutilized teams while holding both targets.
	targetMaxLateness := current.MaxLateness
	targetTotal := current.TotalLateness * phase2TotalFactor

	for round := 0; round < phase2MaxRounds; round++ {
		name, ok := mostUnderutilized(current, mechNames, qualNames, floors)
		if !ok {
			break
		}
		next := current.Config.Clone()
		if !growTeam(next, name, -1, mechNames, qualNames, params) {
			break
		}
		trial := Run(g, calc, products, mechanicTeams, qualityTeams, schedCfg, next)
		if trial.MaxLateness <= targetMaxLateness && trial.TotalLateness <= targetTotal {
			current = trial
			continue
		}
		break
	}

	return &MinLatenessResult{
		Config:      current.Config,
		Trial:       current,
		AchievedMin: current.MaxLateness,
		TargetTotal: targetTotal,
	}
}

func isQuality(name string, qualNames []string) bool {
	for _, n := range qualNames {
		if n == name {
			return true
		}
	}
	return false
}

// blockingTeams names the teams owning an unscheduled instance, sorted
// for determinism. QI instances carry no fixed team, so a failed QI
// blocks every quality team.
func blockingTeams(g *graph.Graph, t *Trial) []string {
	set := make(map[string]bool)
	for key := range t.Result.Failed {
		inst, ok := g.Instances[key]
		if !ok {
			continue
		}
		if inst.Kind == model.QualityInspection {
			for name := range t.Config.Quality {
				set[name] = true
			}
			continue
		}
		set[inst.Team] = true
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sortStrings(names)
	return names
}

// findBottleneck returns any team whose peak concurrent headcount
// meets or exceeds 0.9x its capacity (§9 glossary).
func findBottleneck(t *Trial, mechNames, qualNames []string) (string, bool) {
	for _, name := range append(append([]string{}, mechNames...), qualNames...) {
		capacity := t.Config.Mechanic[name]
		if v, ok := t.Config.Quality[name]; ok {
			capacity = v
		}
		if capacity == 0 {
			continue
		}
		if float64(t.PeakHeadcount[name]) >= bottleneckRatio*float64(capacity) {
			return name, true
		}
	}
	return "", false
}

func smallestTeam(t *Trial, mechNames, qualNames []string) (string, bool) {
	names := append(append([]string{}, mechNames...), qualNames...)
	if len(names) == 0 {
		return "", false
	}
	sortStrings(names)
	best := names[0]
	bestLevel := levelOf(t.Config, best)
	for _, n := range names[1:] {
		if lvl := levelOf(t.Config, n); lvl < bestLevel {
			best, bestLevel = n, lvl
		}
	}
	return best, true
}

func levelOf(cfg Config, name string) int {
	if v, ok := cfg.Mechanic[name]; ok {
		return v
	}
	return cfg.Quality[name]
}

// mostUnderutilized returns the lowest-utilization team below 70% that
// is still above its floor.
func mostUnderutilized(t *Trial, mechNames, qualNames []string, floors map[string]int) (string, bool) {
	names := append(append([]string{}, mechNames...), qualNames...)
	sortStrings(names)
	var best string
	bestUtil := 1.1
	found := false
	for _, n := range names {
		if t.Utilization[n] >= utilizationFloor {
			continue
		}
		if levelOf(t.Config, n) <= floors[n] {
			continue
		}
		if !found || t.Utilization[n] < bestUtil {
			best, bestUtil, found = n, t.Utilization[n], true
		}
	}
	return best, found
}

// growTeam applies delta to one named team, bounded by its pool's cap,
// returning false (no-op) if the delta would exceed it.
func growTeam(cfg Config, name string, delta int, mechNames, qualNames []string, params MinLatenessParams) bool {
	if _, ok := cfg.Mechanic[name]; ok {
		next := cfg.Mechanic[name] + delta
		if next > params.MaxMechanics || next < params.MinMechanics {
			return false
		}
		cfg.Mechanic[name] = next
		return true
	}
	if _, ok := cfg.Quality[name]; ok {
		next := cfg.Quality[name] + delta
		if next > params.MaxQuality || next < params.MinQuality {
			return false
		}
		cfg.Quality[name] = next
		return true
	}
	return false
}
