package optimizer

import (
	"github.com/qlp-hq/production-scheduler/internal/graph"
	"github.com/qlp-hq/production-scheduler/internal/model"
	"github.com/qlp-hq/production-scheduler/internal/priority"
	"github.com/qlp-hq/production-scheduler/internal/scheduler"
)

// CSVFixed runs the scheduler once at the capacities loaded from
// input (§4.6.1): no mutation, no search, just a single scored trial.
func CSVFixed(g *graph.Graph, calc *priority.Calculator, products []model.Product, mechanicTeams, qualityTeams map[string]*model.Team, schedCfg scheduler.Config) *Trial {
	baseline := Snapshot(mechanicTeams, qualityTeams)
	return Run(g, calc, products, mechanicTeams, qualityTeams, schedCfg, baseline)
}
