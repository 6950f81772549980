// Package metrics implements the §4.5 run-level measurements: makespan
// in working days and per-product lateness, both derived purely from a
// scheduler.Result against the product and graph tables it was run
// against.
package metrics

import (
	"math"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/model"
	"github.com/qlp-hq/production-scheduler/internal/scheduler"
)

// UnschedulableSentinel is the fixed ∞-stand-in the spec's constants
// table names for makespan/lateness when a live instance could not be
// placed.
const UnschedulableSentinel = 999999

// Makespan counts the calendar days in [min(start), max(end)] for
// which at least one product's working-day predicate holds. If any
// live instance was left unscheduled, it returns UnschedulableSentinel
// instead (§4.5).
func Makespan(result *scheduler.Result, products []model.Product) int {
	if len(result.Failed) > 0 {
		return UnschedulableSentinel
	}
	if len(result.Assignments) == 0 {
		return 0
	}

	var min, max time.Time
	first := true
	for _, a := range result.Assignments {
		if first || a.Start.Before(min) {
			min = a.Start
		}
		if first || a.End.After(max) {
			max = a.End
		}
		first = false
	}

	count := 0
	for d := startOfDay(min); !d.After(startOfDay(max)); d = d.AddDate(0, 0, 1) {
		for _, p := range products {
			if p.IsWorkingDay(d) {
				count++
				break
			}
		}
	}
	return count
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Lateness returns last_end(P) - delivery(P) as a signed whole-day
// difference: both sides are truncated to their calendar day before
// subtracting, as calendar subtraction rather than an hour count (no
// flooring toward -∞ for an early finish — the sign is kept as-is). A
// product with no placed instance reports +∞; callers should check
// ProductHasFailure first.
func Lateness(result *scheduler.Result, product model.Product) float64 {
	var lastEnd time.Time
	found := false
	for key, a := range result.Assignments {
		if key.Product != product.ID {
			continue
		}
		if !found || a.End.After(lastEnd) {
			lastEnd = a.End
			found = true
		}
	}
	if !found {
		return math.Inf(1)
	}
	days := startOfDay(lastEnd).Sub(startOfDay(product.DeliveryDate)).Hours() / 24
	return math.Round(days)
}

// ProductHasFailure reports whether any of product's instances were
// permanently failed by the scheduler, in which case its lateness
// metric must report the unschedulable sentinel rather than a
// computed day difference.
func ProductHasFailure(result *scheduler.Result, productID string) bool {
	for key := range result.Failed {
		if key.Product == productID {
			return true
		}
	}
	return false
}

// OnTime reports whether a product's lateness is at or below zero.
func OnTime(latenessDays float64) bool {
	return latenessDays <= 0
}
