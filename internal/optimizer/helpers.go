package optimizer

import (
	"sort"

	"github.com/qlp-hq/production-scheduler/internal/graph"
)

// minutesByTeamForProduct sums crew-minutes committed per team, scoped
// to a single product, for the JIT optimizer's "team consuming the
// most minutes for that product" growth rule.
func minutesByTeamForProduct(g *graph.Graph, t *Trial, productID string) map[string]int {
	out := make(map[string]int)
	for key, a := range t.Result.Assignments {
		if key.Product != productID {
			continue
		}
		inst, ok := g.Instances[key]
		if !ok {
			continue
		}
		out[a.Team] += inst.Crew * int(a.End.Sub(a.Start).Minutes())
	}
	return out
}

// teamConsumingMostMinutes returns the team name with the highest
// crew-minute total for a product, breaking ties alphabetically for
// determinism.
func teamConsumingMostMinutes(g *graph.Graph, t *Trial, productID string) (string, bool) {
	byTeam := minutesByTeamForProduct(g, t, productID)
	if len(byTeam) == 0 {
		return "", false
	}
	names := make([]string, 0, len(byTeam))
	for name := range byTeam {
		names = append(names, name)
	}
	sort.Strings(names)
	best := names[0]
	for _, name := range names[1:] {
		if byTeam[name] > byTeam[best] {
			best = name
		}
	}
	return best, true
}

// leastUtilizedTeam returns the team name with the lowest utilization
// score among a pool, restricted to names present in pool (so a
// caller can scope the search to mechanic-only or quality-only pools),
// ties broken alphabetically.
func leastUtilizedTeam(t *Trial, pool map[string]int) (string, bool) {
	names := make([]string, 0, len(pool))
	for name := range pool {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "", false
	}
	best := names[0]
	bestUtil := t.Utilization[best]
	for _, name := range names[1:] {
		if u := t.Utilization[name]; u < bestUtil {
			best, bestUtil = name, u
		}
	}
	return best, true
}

// productWithWorstLateness returns the product whose |lateness-target|
// deviation is largest, ties broken by product id for determinism.
func productWithWorstLateness(t *Trial, target float64) (string, float64, bool) {
	if len(t.Lateness) == 0 {
		return "", 0, false
	}
	ids := make([]string, 0, len(t.Lateness))
	for id := range t.Lateness {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	best := ids[0]
	bestDev := absFloat(t.Lateness[best] - target)
	for _, id := range ids[1:] {
		dev := absFloat(t.Lateness[id] - target)
		if dev > bestDev {
			best, bestDev = id, dev
		}
	}
	return best, t.Lateness[best], true
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// meetsTolerance reports whether every product's lateness is within ε
// of target (§4.6.2).
func meetsTolerance(t *Trial, target, epsilon float64) bool {
	if len(t.Result.Failed) > 0 {
		return false
	}
	for _, l := range t.Lateness {
		if absFloat(l-target) > epsilon {
			return false
		}
	}
	return true
}
