package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/model"
)

// document is the on-disk shape a catalog file is decoded from. The
// ingestion layer that produces this file (a CSV importer, a
// dashboard form, a test fixture) is out of scope (§6); this loader is
// the one concrete entry point the CLI needs to turn a file into a
// Catalog.
type document struct {
	Templates []model.TaskTemplate `json:"task_templates"`
	Products  []struct {
		ProductID    string   `json:"product_id"`
		DeliveryDate string   `json:"delivery_date"`
		Incomplete   [2]int   `json:"incomplete"`
		Holidays     []string `json:"holidays"`
	} `json:"products"`
	PrecedenceEdges []struct {
		First    int    `json:"first"`
		Second   int    `json:"second"`
		Relation string `json:"relation"`
	} `json:"precedence_edges"`
	LateParts []struct {
		First   int     `json:"first"`
		Second  int     `json:"second"`
		OnDock  string  `json:"on_dock"`
		Product *string `json:"product,omitempty"`
	} `json:"late_parts"`
	LatePartDetails []model.TaskDetail `json:"late_part_details"`
	Rework          []struct {
		First    int     `json:"first"`
		Second   int     `json:"second"`
		Relation *string `json:"relation,omitempty"`
		Product  *string `json:"product,omitempty"`
	} `json:"rework"`
	ReworkDetails      []model.TaskDetail            `json:"rework_details"`
	QualityInspections []model.QualityInspectionSpec `json:"quality_inspections"`
	MechanicTeams      []teamDoc                     `json:"mechanic_teams"`
	QualityTeams       []teamDoc                     `json:"quality_teams"`
}

type teamDoc struct {
	Name     string   `json:"name"`
	Capacity int      `json:"capacity"`
	Shifts   []string `json:"shifts"`
}

const dateLayout = "2006-01-02"

// LoadJSON decodes a catalog document from path into a Catalog.
func LoadJSON(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	cat := &Catalog{
		Templates:          doc.Templates,
		LatePartDetails:    doc.LatePartDetails,
		ReworkDetails:      doc.ReworkDetails,
		QualityInspections: doc.QualityInspections,
		MechanicTeams:      make(map[string]*model.Team, len(doc.MechanicTeams)),
		QualityTeams:       make(map[string]*model.Team, len(doc.QualityTeams)),
	}

	for _, p := range doc.Products {
		delivery, err := time.Parse(dateLayout, p.DeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("product %s: invalid delivery_date %q: %w", p.ProductID, p.DeliveryDate, err)
		}
		holidays := make(map[string]bool, len(p.Holidays))
		for _, h := range p.Holidays {
			holidays[h] = true
		}
		cat.Products = append(cat.Products, model.Product{
			ID:           p.ProductID,
			DeliveryDate: delivery,
			Incomplete:   model.TaskRange{Low: p.Incomplete[0], High: p.Incomplete[1]},
			Holidays:     holidays,
		})
	}

	for _, e := range doc.PrecedenceEdges {
		rel, err := parseRelation(e.Relation)
		if err != nil {
			return nil, fmt.Errorf("precedence edge %d->%d: %w", e.First, e.Second, err)
		}
		cat.PrecedenceEdges = append(cat.PrecedenceEdges, RawPrecedenceEdge{First: e.First, Second: e.Second, Relation: rel})
	}

	for _, lp := range doc.LateParts {
		onDock, err := time.Parse(dateLayout, lp.OnDock)
		if err != nil {
			return nil, fmt.Errorf("late part %d: invalid on_dock %q: %w", lp.First, lp.OnDock, err)
		}
		cat.LateParts = append(cat.LateParts, RawLatePart{First: lp.First, Second: lp.Second, OnDock: onDock, Product: lp.Product})
	}

	for _, rw := range doc.Rework {
		var rel *model.Relation
		if rw.Relation != nil {
			parsed, err := parseRelation(*rw.Relation)
			if err != nil {
				return nil, fmt.Errorf("rework %d->%d: %w", rw.First, rw.Second, err)
			}
			rel = &parsed
		}
		cat.Rework = append(cat.Rework, RawRework{First: rw.First, Second: rw.Second, Relation: rel, Product: rw.Product})
	}

	for _, t := range doc.MechanicTeams {
		cat.MechanicTeams[t.Name] = newTeam(t, model.Mechanic)
	}
	for _, t := range doc.QualityTeams {
		cat.QualityTeams[t.Name] = newTeam(t, model.Quality)
	}

	return cat, nil
}

func newTeam(t teamDoc, kind model.TeamKind) *model.Team {
	shifts := make(map[model.ShiftID]bool, len(t.Shifts))
	for _, s := range t.Shifts {
		shifts[model.ShiftID(s)] = true
	}
	return &model.Team{
		Name:     t.Name,
		Kind:     kind,
		Capacity: t.Capacity,
		Original: t.Capacity,
		Shifts:   shifts,
	}
}

func parseRelation(s string) (model.Relation, error) {
	switch s {
	case "F<=S", "FinishToStart":
		return model.FinishToStart, nil
	case "F=S", "FinishEqualsStart":
		return model.FinishEqualsStart, nil
	case "S<=S", "StartToStart":
		return model.StartToStart, nil
	default:
		return "", fmt.Errorf("unknown relation %q", s)
	}
}
