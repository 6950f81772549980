// Package optimizer implements the §4.6 workforce–lateness optimizers.
// Each one mutates a capacity overlay, reinvokes the scheduler over the
// same read-only graph, and restores the teams'
// original capacities on exit — no optimizer trial is allowed to leak
// state into the next one (§5).
package optimizer

import (
	"sort"

	"github.com/qlp-hq/production-scheduler/internal/graph"
	"github.com/qlp-hq/production-scheduler/internal/metrics"
	"github.com/qlp-hq/production-scheduler/internal/model"
	"github.com/qlp-hq/production-scheduler/internal/priority"
	"github.com/qlp-hq/production-scheduler/internal/scheduler"
)

// Config is a capacity overlay: team name to headcount, for both team
// pools.
type Config struct {
	Mechanic map[string]int
	Quality  map[string]int
}

// Clone returns a deep copy so a caller can mutate one trial's
// overlay without disturbing another's.
func (c Config) Clone() Config {
	out := Config{
		Mechanic: make(map[string]int, len(c.Mechanic)),
		Quality:  make(map[string]int, len(c.Quality)),
	}
	for k, v := range c.Mechanic {
		out.Mechanic[k] = v
	}
	for k, v := range c.Quality {
		out.Quality[k] = v
	}
	return out
}

// TotalWorkforce sums every team's headcount across both pools.
func (c Config) TotalWorkforce() int {
	total := 0
	for _, v := range c.Mechanic {
		total += v
	}
	for _, v := range c.Quality {
		total += v
	}
	return total
}

// Snapshot captures the capacity currently loaded on a team set.
func Snapshot(mechanicTeams, qualityTeams map[string]*model.Team) Config {
	cfg := Config{Mechanic: make(map[string]int, len(mechanicTeams)), Quality: make(map[string]int, len(qualityTeams))}
	for name, t := range mechanicTeams {
		cfg.Mechanic[name] = t.Capacity
	}
	for name, t := range qualityTeams {
		cfg.Quality[name] = t.Capacity
	}
	return cfg
}

// Apply writes a capacity overlay onto a team set.
func Apply(cfg Config, mechanicTeams, qualityTeams map[string]*model.Team) {
	for name, cap := range cfg.Mechanic {
		if t, ok := mechanicTeams[name]; ok {
			t.Capacity = cap
		}
	}
	for name, cap := range cfg.Quality {
		if t, ok := qualityTeams[name]; ok {
			t.Capacity = cap
		}
	}
}

// Trial is one scheduler invocation's outcome, enough to score and
// compare configurations without re-deriving anything from the raw
// assignment map.
type Trial struct {
	Config         Config
	Result         *scheduler.Result
	Lateness       map[string]float64 // productID -> signed whole days; unscheduled -> UnschedulableSentinel via ProductHasFailure
	MaxLateness    float64
	TotalLateness  float64
	Makespan       int
	Utilization    map[string]float64 // teamName -> fraction of available minutes committed
	PeakHeadcount  map[string]int     // teamName -> peak concurrent crew committed
	TotalWorkforce int
}

// Run executes one trial: apply cfg, run the scheduler to completion,
// restore the original capacities, and score the result. original is
// restored unconditionally, even if the caller discards the trial.
func Run(g *graph.Graph, calc *priority.Calculator, products []model.Product, mechanicTeams, qualityTeams map[string]*model.Team, schedCfg scheduler.Config, cfg Config) *Trial {
	original := Snapshot(mechanicTeams, qualityTeams)
	Apply(cfg, mechanicTeams, qualityTeams)
	defer Apply(original, mechanicTeams, qualityTeams)

	st := scheduler.New(g, calc, products, mechanicTeams, qualityTeams, schedCfg)
	result := st.Run()

	t := &Trial{
		Config:         cfg.Clone(),
		Result:         result,
		Lateness:       make(map[string]float64, len(products)),
		Makespan:       metrics.Makespan(result, products),
		Utilization:    make(map[string]float64),
		PeakHeadcount:  make(map[string]int),
		TotalWorkforce: cfg.TotalWorkforce(),
	}

	for _, p := range products {
		if metrics.ProductHasFailure(result, p.ID) {
			t.Lateness[p.ID] = float64(metrics.UnschedulableSentinel)
			continue
		}
		t.Lateness[p.ID] = metrics.Lateness(result, p)
	}
	for _, l := range t.Lateness {
		if l > t.MaxLateness {
			t.MaxLateness = l
		}
		t.TotalLateness += l
	}

	allTeams := make(map[string]*model.Team, len(mechanicTeams)+len(qualityTeams))
	for name, tm := range mechanicTeams {
		allTeams[name] = tm
	}
	for name, tm := range qualityTeams {
		allTeams[name] = tm
	}
	for name, tm := range allTeams {
		peak, minutesUsed := peakAndMinutes(g, result, name)
		t.PeakHeadcount[name] = peak
		available := availableMinutes(tm, t.Makespan)
		if available > 0 {
			t.Utilization[name] = float64(minutesUsed) / float64(available)
		}
	}

	return t
}

// peakAndMinutes scans every assignment on a team once, returning both
// its peak concurrent headcount (for bottleneck detection, §9
// glossary) and the total crew-minutes it committed (for utilization).
// Crew size isn't carried on model.Assignment itself (§4.4's output
// shape is team/shift/start/end only), so it's looked up from the
// instance the assignment was computed for.
func peakAndMinutes(g *graph.Graph, result *scheduler.Result, team string) (peak int, minutes int) {
	type point struct {
		at    int64
		delta int
	}
	var points []point
	for key, a := range result.Assignments {
		if a.Team != team {
			continue
		}
		inst, ok := g.Instances[key]
		if !ok {
			continue
		}
		crew := inst.Crew
		points = append(points, point{a.Start.Unix(), crew})
		points = append(points, point{a.End.Unix(), -crew})
		minutes += crew * int(a.End.Sub(a.Start).Minutes())
	}
	sort.Slice(points, func(i, j int) bool { return points[i].at < points[j].at })
	running := 0
	for _, p := range points {
		running += p.delta
		if running > peak {
			peak = running
		}
	}
	return peak, minutes
}

// availableMinutes is the §4.5 utilization denominator: the team's
// working minutes across the makespan, using its own shift count
// rather than assuming a single shift per day.
func availableMinutes(team *model.Team, makespanDays int) int {
	if makespanDays <= 0 || makespanDays == metrics.UnschedulableSentinel {
		return 0
	}
	shiftsWorked := 0
	for _, id := range model.ShiftOrder {
		if team.WorksShift(id) {
			shiftsWorked++
		}
	}
	const minutesPerShift = 8.5 * 60
	return int(float64(makespanDays*shiftsWorked)*minutesPerShift) * team.Capacity
}
