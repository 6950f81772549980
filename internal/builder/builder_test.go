package builder

import (
	"testing"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/catalog"
	"github.com/qlp-hq/production-scheduler/internal/model"
)

func baseCatalog() *catalog.Catalog {
	onDock := time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC)
	return &catalog.Catalog{
		Templates: []model.TaskTemplate{
			{TaskNum: 10, DurationMin: 60, Team: "MechA", Crew: 2},
			{TaskNum: 20, DurationMin: 90, Team: "MechA", Crew: 1},
			{TaskNum: 30, DurationMin: 45, Team: "MechB", Crew: 1},
		},
		Products: []model.Product{
			{ID: "A", DeliveryDate: time.Date(2025, time.September, 20, 0, 0, 0, 0, time.UTC), Incomplete: model.TaskRange{Low: 10, High: 30}, Holidays: map[string]bool{}},
		},
		LateParts: []catalog.RawLatePart{
			{First: 5, Second: 10, OnDock: onDock},
		},
		LatePartDetails: []model.TaskDetail{
			{TaskNum: 5, DurationMin: 30, Team: "MechA", Crew: 1},
		},
		QualityInspections: []model.QualityInspectionSpec{
			{PrimaryTaskNum: 10, QITaskNum: 10 + model.QIOffset, DurationMin: 15, Crew: 1},
		},
		MechanicTeams: map[string]*model.Team{
			"MechA": {Name: "MechA", Kind: model.Mechanic, Capacity: 2, Original: 2, Shifts: map[model.ShiftID]bool{model.S1: true}},
			"MechB": {Name: "MechB", Kind: model.Mechanic, Capacity: 2, Original: 2, Shifts: map[model.ShiftID]bool{model.S1: true}},
		},
		QualityTeams: map[string]*model.Team{
			"QA": {Name: "QA", Kind: model.Quality, Capacity: 1, Original: 1, Shifts: map[model.ShiftID]bool{model.S1: true}},
		},
	}
}

func TestBuildExpandsProductionInstancesOverIncompleteRange(t *testing.T) {
	res := Build(baseCatalog())

	for _, num := range []int{10, 20, 30} {
		key := model.Key{Product: "A", TaskNum: num}
		if _, ok := res.Instances[key]; !ok {
			t.Errorf("expected production instance for task %d, not found", num)
		}
	}
}

func TestBuildInjectsLatePartWithOnDockDate(t *testing.T) {
	res := Build(baseCatalog())

	key := model.Key{Product: "A", TaskNum: 5}
	inst, ok := res.Instances[key]
	if !ok {
		t.Fatalf("expected late-part instance for task 5, not found")
	}
	if inst.Kind != model.LatePart {
		t.Errorf("expected Kind LatePart, got %v", inst.Kind)
	}
	if inst.OnDockDate == nil {
		t.Fatalf("expected OnDockDate to be set for a late part")
	}
}

func TestBuildInjectsQualityInspectionAtOffset(t *testing.T) {
	res := Build(baseCatalog())

	qiKey := model.Key{Product: "A", TaskNum: 10 + model.QIOffset}
	qi, ok := res.Instances[qiKey]
	if !ok {
		t.Fatalf("expected quality-inspection instance at task %d, not found", 10+model.QIOffset)
	}
	if qi.Kind != model.QualityInspection {
		t.Errorf("expected Kind QualityInspection, got %v", qi.Kind)
	}
	if qi.PrimaryRef == nil || qi.PrimaryRef.TaskNum != 10 {
		t.Errorf("expected PrimaryRef to point at task 10, got %v", qi.PrimaryRef)
	}
}

func TestBuildSkipsUnknownTemplateWithWarning(t *testing.T) {
	cat := baseCatalog()
	cat.Products[0].Incomplete = model.TaskRange{Low: 10, High: 999}

	res := Build(cat)

	key := model.Key{Product: "A", TaskNum: 999}
	if _, ok := res.Instances[key]; ok {
		t.Errorf("task 999 has no template and should have been skipped")
	}
	if len(res.Warnings) == 0 {
		t.Errorf("expected a warning for the missing template")
	}
}
