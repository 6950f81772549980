package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/model"
	"github.com/qlp-hq/production-scheduler/internal/scheduler"
)

func monday() time.Time {
	return time.Date(2025, time.September, 8, 6, 0, 0, 0, time.UTC)
}

func TestMakespanCountsOnlyWorkingDays(t *testing.T) {
	product := model.Product{ID: "A", Holidays: map[string]bool{}}
	start := monday()
	result := &scheduler.Result{
		Assignments: map[model.Key]model.Assignment{
			{Product: "A", TaskNum: 10}: {Key: model.Key{Product: "A", TaskNum: 10}, Start: start, End: start.Add(2 * time.Hour)},
			{Product: "A", TaskNum: 20}: {Key: model.Key{Product: "A", TaskNum: 20}, Start: start.AddDate(0, 0, 4), End: start.AddDate(0, 0, 4).Add(2 * time.Hour)},
		},
		Failed: map[model.Key]bool{},
	}

	// Monday through Friday (start+4 days) spans a weekend-free 5-day
	// working window.
	got := Makespan(result, []model.Product{product})
	if got != 5 {
		t.Errorf("Makespan = %d, want 5 (Mon-Fri span)", got)
	}
}

func TestMakespanReturnsSentinelOnAnyFailure(t *testing.T) {
	result := &scheduler.Result{
		Assignments: map[model.Key]model.Assignment{},
		Failed:      map[model.Key]bool{{Product: "A", TaskNum: 10}: true},
	}
	got := Makespan(result, []model.Product{{ID: "A", Holidays: map[string]bool{}}})
	if got != UnschedulableSentinel {
		t.Errorf("Makespan with a failure = %d, want sentinel %d", got, UnschedulableSentinel)
	}
}

func TestLatenessIsZeroWhenFinishedOnDeliveryDay(t *testing.T) {
	delivery := monday()
	product := model.Product{ID: "A", DeliveryDate: delivery, Holidays: map[string]bool{}}
	result := &scheduler.Result{
		Assignments: map[model.Key]model.Assignment{
			{Product: "A", TaskNum: 10}: {Key: model.Key{Product: "A", TaskNum: 10}, Start: delivery, End: delivery.Add(3 * time.Hour)},
		},
		Failed: map[model.Key]bool{},
	}

	got := Lateness(result, product)
	if got != 0 {
		t.Errorf("Lateness on delivery day = %v, want 0", got)
	}
	if !OnTime(got) {
		t.Errorf("a zero-lateness product should be considered on time")
	}
}

func TestLatenessIsPositiveWhenFinishedAfterDelivery(t *testing.T) {
	delivery := monday()
	finish := delivery.AddDate(0, 0, 3)
	product := model.Product{ID: "A", DeliveryDate: delivery, Holidays: map[string]bool{}}
	result := &scheduler.Result{
		Assignments: map[model.Key]model.Assignment{
			{Product: "A", TaskNum: 10}: {Key: model.Key{Product: "A", TaskNum: 10}, Start: finish, End: finish.Add(time.Hour)},
		},
		Failed: map[model.Key]bool{},
	}

	got := Lateness(result, product)
	if got != 3 {
		t.Errorf("Lateness = %v, want 3 days late", got)
	}
	if OnTime(got) {
		t.Errorf("a 3-day-late product should not be considered on time")
	}
}

func TestLatenessIsPositiveInfinityWithNoAssignment(t *testing.T) {
	product := model.Product{ID: "A", DeliveryDate: monday(), Holidays: map[string]bool{}}
	result := &scheduler.Result{
		Assignments: map[model.Key]model.Assignment{},
		Failed:      map[model.Key]bool{},
	}

	got := Lateness(result, product)
	if !math.IsInf(got, 1) {
		t.Errorf("Lateness with no placed instance should be +Inf, got %v", got)
	}
}

func TestProductHasFailureChecksProductScopedFailures(t *testing.T) {
	result := &scheduler.Result{
		Failed: map[model.Key]bool{
			{Product: "A", TaskNum: 10}: true,
		},
	}
	if !ProductHasFailure(result, "A") {
		t.Errorf("expected product A to be reported as having a failure")
	}
	if ProductHasFailure(result, "B") {
		t.Errorf("product B has no failed instances and should not be reported as failed")
	}
}
