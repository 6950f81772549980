package graph

import (
	"testing"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/builder"
	"github.com/qlp-hq/production-scheduler/internal/catalog"
	"github.com/qlp-hq/production-scheduler/internal/model"
)

func chainCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Templates: []model.TaskTemplate{
			{TaskNum: 10, DurationMin: 60, Team: "MechA", Crew: 1},
			{TaskNum: 20, DurationMin: 60, Team: "MechA", Crew: 1},
			{TaskNum: 30, DurationMin: 60, Team: "MechB", Crew: 1},
		},
		Products: []model.Product{
			{ID: "A", DeliveryDate: time.Now().Add(30 * 24 * time.Hour), Incomplete: model.TaskRange{Low: 10, High: 30}, Holidays: map[string]bool{}},
		},
		PrecedenceEdges: []catalog.RawPrecedenceEdge{
			{First: 10, Second: 20, Relation: model.FinishToStart},
			{First: 20, Second: 30, Relation: model.FinishToStart},
		},
		QualityInspections: []model.QualityInspectionSpec{
			{PrimaryTaskNum: 20, QITaskNum: 20 + model.QIOffset, DurationMin: 15, Crew: 1},
		},
		MechanicTeams: map[string]*model.Team{
			"MechA": {Name: "MechA", Capacity: 1, Original: 1, Shifts: map[model.ShiftID]bool{model.S1: true}},
			"MechB": {Name: "MechB", Capacity: 1, Original: 1, Shifts: map[model.ShiftID]bool{model.S1: true}},
		},
		QualityTeams: map[string]*model.Team{
			"QA": {Name: "QA", Capacity: 1, Original: 1, Shifts: map[model.ShiftID]bool{model.S1: true}},
		},
	}
}

func TestBuildRoutesPrecedenceThroughQualityInspection(t *testing.T) {
	cat := chainCatalog()
	built := builder.Build(cat)
	g, err := Build(built, cat)
	if err != nil {
		t.Fatalf("unexpected error building graph: %v", err)
	}

	task20 := model.Key{Product: "A", TaskNum: 20}
	qi := model.Key{Product: "A", TaskNum: 20 + model.QIOffset}
	task30 := model.Key{Product: "A", TaskNum: 30}

	inst20 := g.Instances[task20]

	foundPinned := false
	for _, e := range g.Out[inst20.Node] {
		if e.ToKey == qi && e.Relation == model.FinishEqualsStart {
			foundPinned = true
		}
	}
	if !foundPinned {
		t.Errorf("expected a pinned F=S edge from task 20 to its quality inspection")
	}

	foundRouted := false
	qiInst := g.Instances[qi]
	for _, e := range g.Out[qiInst.Node] {
		if e.ToKey == task30 {
			foundRouted = true
		}
	}
	if !foundRouted {
		t.Errorf("expected the baseline 20->30 edge to route through the quality inspection")
	}

	for _, e := range g.Out[inst20.Node] {
		if e.ToKey == task30 {
			t.Errorf("task 20 should not have a direct edge to task 30 once QI routing applies")
		}
	}
}

func TestBuildDetectsCycle(t *testing.T) {
	cat := chainCatalog()
	cat.PrecedenceEdges = append(cat.PrecedenceEdges, catalog.RawPrecedenceEdge{
		First: 30, Second: 10, Relation: model.FinishToStart,
	})

	built := builder.Build(cat)
	_, err := Build(built, cat)
	if err == nil {
		t.Fatalf("expected a cycle error, got nil")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Errorf("expected a *CycleError, got %T: %v", err, err)
	}
}
