package scheduler

import (
	"testing"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/builder"
	"github.com/qlp-hq/production-scheduler/internal/catalog"
	"github.com/qlp-hq/production-scheduler/internal/graph"
	"github.com/qlp-hq/production-scheduler/internal/model"
	"github.com/qlp-hq/production-scheduler/internal/priority"
)

var epoch = time.Date(2025, time.August, 22, 6, 0, 0, 0, time.UTC) // a Friday

func defaultConfig() Config {
	return Config{Epoch: epoch, LatePartDelay: 24 * time.Hour}
}

func run(t *testing.T, cat *catalog.Catalog, cfg Config) *Result {
	t.Helper()
	built := builder.Build(cat)
	g, err := graph.Build(built, cat)
	if err != nil {
		t.Fatalf("unexpected graph error: %v", err)
	}
	calc := priority.NewCalculator(g, built.Products, cfg.Epoch)
	s := New(g, calc, built.Products, cat.MechanicTeams, cat.QualityTeams, cfg)
	return s.Run()
}

func mechTeam(name string, capacity int, shifts ...model.ShiftID) *model.Team {
	m := map[model.ShiftID]bool{}
	for _, s := range shifts {
		m[s] = true
	}
	return &model.Team{Name: name, Kind: model.Mechanic, Capacity: capacity, Original: capacity, Shifts: m}
}

func qualTeam(name string, capacity int, shifts ...model.ShiftID) *model.Team {
	m := map[model.ShiftID]bool{}
	for _, s := range shifts {
		m[s] = true
	}
	return &model.Team{Name: name, Kind: model.Quality, Capacity: capacity, Original: capacity, Shifts: m}
}

// E1: a pure precedence chain with ample capacity must place every
// instance, each starting no earlier than its predecessor ends.
func TestPureChainRespectsPrecedence(t *testing.T) {
	cat := &catalog.Catalog{
		Templates: []model.TaskTemplate{
			{TaskNum: 10, DurationMin: 120, Team: "MechA", Crew: 1},
			{TaskNum: 20, DurationMin: 120, Team: "MechA", Crew: 1},
			{TaskNum: 30, DurationMin: 120, Team: "MechA", Crew: 1},
		},
		Products: []model.Product{
			{ID: "A", DeliveryDate: epoch.Add(60 * 24 * time.Hour), Incomplete: model.TaskRange{Low: 10, High: 30}, Holidays: map[string]bool{}},
		},
		PrecedenceEdges: []catalog.RawPrecedenceEdge{
			{First: 10, Second: 20, Relation: model.FinishToStart},
			{First: 20, Second: 30, Relation: model.FinishToStart},
		},
		MechanicTeams: map[string]*model.Team{"MechA": mechTeam("MechA", 4, model.S1)},
		QualityTeams:  map[string]*model.Team{},
	}

	result := run(t, cat, defaultConfig())

	if len(result.Failed) != 0 {
		t.Fatalf("expected no failures in a pure chain with ample capacity, got %v", result.Failed)
	}

	a10 := result.Assignments[model.Key{Product: "A", TaskNum: 10}]
	a20 := result.Assignments[model.Key{Product: "A", TaskNum: 20}]
	a30 := result.Assignments[model.Key{Product: "A", TaskNum: 30}]

	if a20.Start.Before(a10.End) {
		t.Errorf("task 20 starts (%v) before task 10 ends (%v)", a20.Start, a10.End)
	}
	if a30.Start.Before(a20.End) {
		t.Errorf("task 30 starts (%v) before task 20 ends (%v)", a30.Start, a20.End)
	}
}

// E2: a production task with a quality inspection attached must have
// the inspection pinned exactly to the end of the task it inspects.
func TestQualityInspectionIsPinnedToPrimaryEnd(t *testing.T) {
	cat := &catalog.Catalog{
		Templates: []model.TaskTemplate{
			{TaskNum: 10, DurationMin: 120, Team: "MechA", Crew: 1},
			{TaskNum: 20, DurationMin: 60, Team: "MechA", Crew: 1},
		},
		Products: []model.Product{
			{ID: "A", DeliveryDate: epoch.Add(60 * 24 * time.Hour), Incomplete: model.TaskRange{Low: 10, High: 20}, Holidays: map[string]bool{}},
		},
		PrecedenceEdges: []catalog.RawPrecedenceEdge{
			{First: 10, Second: 20, Relation: model.FinishToStart},
		},
		QualityInspections: []model.QualityInspectionSpec{
			{PrimaryTaskNum: 10, QITaskNum: 10 + model.QIOffset, DurationMin: 30, Crew: 1},
		},
		MechanicTeams: map[string]*model.Team{"MechA": mechTeam("MechA", 4, model.S1)},
		QualityTeams:  map[string]*model.Team{"QA": qualTeam("QA", 2, model.S1)},
	}

	result := run(t, cat, defaultConfig())
	if len(result.Failed) != 0 {
		t.Fatalf("expected no failures, got %v", result.Failed)
	}

	primary := result.Assignments[model.Key{Product: "A", TaskNum: 10}]
	qi := result.Assignments[model.Key{Product: "A", TaskNum: 10 + model.QIOffset}]

	if !qi.Start.Equal(primary.End) {
		t.Errorf("quality inspection must start exactly when its primary ends: qi.Start=%v primary.End=%v", qi.Start, primary.End)
	}
}

// E3: two tasks on the same team that exceed its capacity if run
// concurrently must not overlap in a way that exceeds capacity.
func TestCapacityContentionNeverExceedsTeamCapacity(t *testing.T) {
	cat := &catalog.Catalog{
		Templates: []model.TaskTemplate{
			{TaskNum: 10, DurationMin: 120, Team: "MechA", Crew: 1},
			{TaskNum: 11, DurationMin: 120, Team: "MechA", Crew: 1},
		},
		Products: []model.Product{
			{ID: "A", DeliveryDate: epoch.Add(60 * 24 * time.Hour), Incomplete: model.TaskRange{Low: 10, High: 11}, Holidays: map[string]bool{}},
		},
		MechanicTeams: map[string]*model.Team{"MechA": mechTeam("MechA", 1, model.S1)},
		QualityTeams:  map[string]*model.Team{},
	}

	result := run(t, cat, defaultConfig())
	if len(result.Failed) != 0 {
		t.Fatalf("expected both tasks to eventually place given enough calendar days, got failures %v", result.Failed)
	}

	a10 := result.Assignments[model.Key{Product: "A", TaskNum: 10}]
	a11 := result.Assignments[model.Key{Product: "A", TaskNum: 11}]

	overlap := a10.Start.Before(a11.End) && a11.Start.Before(a10.End)
	if overlap {
		t.Errorf("two crew-1 tasks on a capacity-1 team must not overlap: %v-%v vs %v-%v", a10.Start, a10.End, a11.Start, a11.End)
	}
}

// E4: a late-part instance must never start before its on-dock date
// plus the configured delay, snapped to 06:00.
func TestLatePartGatedByOnDockDatePlusDelay(t *testing.T) {
	onDock := epoch.Add(10 * 24 * time.Hour)
	cat := &catalog.Catalog{
		Templates: []model.TaskTemplate{
			{TaskNum: 20, DurationMin: 60, Team: "MechA", Crew: 1},
		},
		Products: []model.Product{
			{ID: "A", DeliveryDate: epoch.Add(60 * 24 * time.Hour), Incomplete: model.TaskRange{Low: 20, High: 20}, Holidays: map[string]bool{}},
		},
		LateParts: []catalog.RawLatePart{
			{First: 5, Second: 20, OnDock: onDock},
		},
		LatePartDetails: []model.TaskDetail{
			{TaskNum: 5, DurationMin: 30, Team: "MechA", Crew: 1},
		},
		MechanicTeams: map[string]*model.Team{"MechA": mechTeam("MechA", 4, model.S1)},
		QualityTeams:  map[string]*model.Team{},
	}

	cfg := defaultConfig()
	result := run(t, cat, cfg)
	if len(result.Failed) != 0 {
		t.Fatalf("expected no failures, got %v", result.Failed)
	}

	latePart := result.Assignments[model.Key{Product: "A", TaskNum: 5}]
	floor := onDock.Add(cfg.LatePartDelay)
	floorDay := time.Date(floor.Year(), floor.Month(), floor.Day(), 6, 0, 0, 0, floor.Location())

	if latePart.Start.Before(floorDay) {
		t.Errorf("late part started at %v, before its gated floor %v", latePart.Start, floorDay)
	}
}

// A task whose earliest feasible minute falls after midnight inside an
// S3 occurrence must still be bounded by that shift's true same-day
// end, not pushed a spurious day later: a task too long to fit before
// 06:00 must roll to the next S3 occurrence entirely rather than
// overrun the boundary (§8 Testable Property 3).
func TestS3ShiftBoundaryIsRespectedAcrossMidnight(t *testing.T) {
	postMidnight := time.Date(2025, time.September, 9, 2, 0, 0, 0, time.UTC) // a Tuesday
	cat := &catalog.Catalog{
		Templates: []model.TaskTemplate{
			{TaskNum: 10, DurationMin: 300, Team: "Night", Crew: 1},
		},
		Products: []model.Product{
			{ID: "A", DeliveryDate: postMidnight.Add(60 * 24 * time.Hour), Incomplete: model.TaskRange{Low: 10, High: 10}, Holidays: map[string]bool{}},
		},
		MechanicTeams: map[string]*model.Team{"Night": mechTeam("Night", 1, model.S3)},
		QualityTeams:  map[string]*model.Team{},
	}

	cfg := Config{Epoch: postMidnight, LatePartDelay: 24 * time.Hour}
	result := run(t, cat, cfg)
	if len(result.Failed) != 0 {
		t.Fatalf("expected no failures, got %v", result.Failed)
	}

	a := result.Assignments[model.Key{Product: "A", TaskNum: 10}]
	wantStart := time.Date(2025, time.September, 9, 23, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, time.September, 10, 4, 0, 0, 0, time.UTC)
	if !a.Start.Equal(wantStart) || !a.End.Equal(wantEnd) {
		t.Errorf("a 5h task that can't fit before 06:00 from a 02:00 floor should roll to the next S3 occurrence: got start=%v end=%v, want start=%v end=%v", a.Start, a.End, wantStart, wantEnd)
	}
}

// Two runs over the same input must produce byte-identical
// assignments (§8 idempotence property).
func TestSchedulingIsDeterministic(t *testing.T) {
	cat := &catalog.Catalog{
		Templates: []model.TaskTemplate{
			{TaskNum: 10, DurationMin: 90, Team: "MechA", Crew: 2},
			{TaskNum: 20, DurationMin: 45, Team: "MechB", Crew: 1},
		},
		Products: []model.Product{
			{ID: "A", DeliveryDate: epoch.Add(30 * 24 * time.Hour), Incomplete: model.TaskRange{Low: 10, High: 20}, Holidays: map[string]bool{}},
			{ID: "B", DeliveryDate: epoch.Add(40 * 24 * time.Hour), Incomplete: model.TaskRange{Low: 10, High: 20}, Holidays: map[string]bool{}},
		},
		PrecedenceEdges: []catalog.RawPrecedenceEdge{
			{First: 10, Second: 20, Relation: model.FinishToStart},
		},
		MechanicTeams: map[string]*model.Team{
			"MechA": mechTeam("MechA", 2, model.S1, model.S2),
			"MechB": mechTeam("MechB", 1, model.S1),
		},
		QualityTeams: map[string]*model.Team{},
	}

	first := run(t, cat, defaultConfig())
	second := run(t, cat, defaultConfig())

	if len(first.Assignments) != len(second.Assignments) {
		t.Fatalf("two runs produced different assignment counts: %d vs %d", len(first.Assignments), len(second.Assignments))
	}
	for k, a1 := range first.Assignments {
		a2, ok := second.Assignments[k]
		if !ok || !a1.Start.Equal(a2.Start) || !a1.End.Equal(a2.End) || a1.Team != a2.Team {
			t.Errorf("assignment for %v differs between runs: %+v vs %+v", k, a1, a2)
		}
	}
}
