// Package builder implements the Instance Builder (§4.1): it expands
// task templates against each product's incomplete range, and attaches
// late-part, rework and quality-inspection instances synthesized from
// their respective tables.
package builder

import (
	"fmt"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/catalog"
	"github.com/qlp-hq/production-scheduler/internal/model"
)

// Result is everything downstream components need: the instance set
// keyed by public identity, the product registration order (load-bearing
// for dense node ids, §9), and any non-fatal warnings collected along
// the way (malformed rows, missing templates — §7's "skip with warning").
type Result struct {
	Instances    map[model.Key]*model.Instance
	ProductIndex map[string]int
	Products     []model.Product
	Warnings     []string
}

// Build expands the catalog into the full set of live task instances.
func Build(cat *catalog.Catalog) *Result {
	res := &Result{
		Instances:    make(map[model.Key]*model.Instance),
		ProductIndex: make(map[string]int, len(cat.Products)),
		Products:     cat.Products,
	}
	for i, p := range cat.Products {
		res.ProductIndex[p.ID] = i
	}

	templates := cat.TemplateByNum()
	lateDetails := cat.LatePartDetailByNum()
	reworkDetails := cat.ReworkDetailByNum()
	qiByPrimary := cat.QualityInspectionByPrimary()

	res.buildProductionInstances(cat, templates)
	res.buildLatePartInstances(cat, lateDetails)
	res.buildReworkInstances(cat, reworkDetails)
	res.buildQualityInspections(qiByPrimary)

	return res
}

func (r *Result) node(product string, taskNum int) model.NodeID {
	return model.PackNodeID(r.ProductIndex[product], taskNum)
}

func (r *Result) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) buildProductionInstances(cat *catalog.Catalog, templates map[int]model.TaskTemplate) {
	for _, product := range cat.Products {
		for n := product.Incomplete.Low; n <= product.Incomplete.High; n++ {
			tmpl, ok := templates[n]
			if !ok {
				r.warnf("product %s: no template for task %d, skipping", product.ID, n)
				continue
			}
			key := model.Key{Product: product.ID, TaskNum: n}
			r.Instances[key] = &model.Instance{
				Key:         key,
				Node:        r.node(product.ID, n),
				DurationMin: tmpl.DurationMin,
				Team:        tmpl.Team,
				Crew:        tmpl.Crew,
				Kind:        model.Production,
			}
		}
	}
}

func (r *Result) buildLatePartInstances(cat *catalog.Catalog, details map[int]model.TaskDetail) {
	for _, row := range cat.LateParts {
		detail, ok := details[row.First]
		if !ok {
			r.warnf("late part %d: no detail row, skipping", row.First)
			continue
		}
		if row.Product != nil {
			if _, ok := r.ProductIndex[*row.Product]; !ok {
				r.warnf("late part %d: unknown product %q, skipping", row.First, *row.Product)
				continue
			}
			if !r.incomplete(*row.Product, cat, row.Second) {
				continue
			}
			onDock := row.OnDock
			r.addInjected(*row.Product, row.First, detail, model.LatePart, &onDock)
			continue
		}
		for _, p := range cat.Products {
			if p.Incomplete.Contains(row.Second) {
				onDock := row.OnDock
				r.addInjected(p.ID, row.First, detail, model.LatePart, &onDock)
			}
		}
	}
}

func (r *Result) buildReworkInstances(cat *catalog.Catalog, details map[int]model.TaskDetail) {
	for _, row := range cat.Rework {
		detail, ok := details[row.First]
		if !ok {
			r.warnf("rework %d: no detail row, skipping", row.First)
			continue
		}
		if row.Product != nil {
			if _, ok := r.ProductIndex[*row.Product]; !ok {
				r.warnf("rework %d: unknown product %q, skipping", row.First, *row.Product)
				continue
			}
			if !r.incomplete(*row.Product, cat, row.Second) {
				continue
			}
			r.addInjected(*row.Product, row.First, detail, model.Rework, nil)
			continue
		}
		for _, p := range cat.Products {
			if p.Incomplete.Contains(row.Second) {
				r.addInjected(p.ID, row.First, detail, model.Rework, nil)
			}
		}
	}
}

func (r *Result) incomplete(productID string, cat *catalog.Catalog, taskNum int) bool {
	for _, p := range cat.Products {
		if p.ID == productID {
			return p.Incomplete.Contains(taskNum)
		}
	}
	return false
}

func (r *Result) addInjected(productID string, taskNum int, detail model.TaskDetail, kind model.Kind, onDock *time.Time) {
	key := model.Key{Product: productID, TaskNum: taskNum}
	if _, exists := r.Instances[key]; exists {
		return
	}
	r.Instances[key] = &model.Instance{
		Key:         key,
		Node:        r.node(productID, taskNum),
		DurationMin: detail.DurationMin,
		Team:        detail.Team,
		Crew:        detail.Crew,
		Kind:        kind,
		OnDockDate:  onDock,
	}
}

func (r *Result) buildQualityInspections(qiByPrimary map[int]model.QualityInspectionSpec) {
	// snapshot keys first: we are about to add QI instances to the same map
	primaries := make([]*model.Instance, 0, len(r.Instances))
	for _, inst := range r.Instances {
		if inst.Kind == model.Production || inst.Kind == model.Rework {
			primaries = append(primaries, inst)
		}
	}
	for _, inst := range primaries {
		spec, ok := qiByPrimary[inst.Key.TaskNum]
		if !ok {
			continue
		}
		qiTaskNum := inst.Key.TaskNum + model.QIOffset
		qiKey := model.Key{Product: inst.Key.Product, TaskNum: qiTaskNum}
		primaryKey := inst.Key
		r.Instances[qiKey] = &model.Instance{
			Key:         qiKey,
			Node:        r.node(inst.Key.Product, qiTaskNum),
			DurationMin: spec.DurationMin,
			Team:        "",
			Crew:        spec.Crew,
			Kind:        model.QualityInspection,
			PrimaryRef:  &primaryKey,
		}
	}
}
