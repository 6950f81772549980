// Package catalog defines the core inputs of §6: the structured tables
// an ingestion layer (CSV import, a dashboard form, a test fixture — all
// out of scope here) hands to the engine. It is the one Go type that
// stands in for "supplied by the ingestion layer" so the rest of the
// engine has something concrete to depend on, mirroring the
// SchedulingInput/SchedulingDecision split the design notes call for:
// pure data in, pure decision out, no I/O in between.
package catalog

import (
	"time"

	"github.com/qlp-hq/production-scheduler/internal/model"
)

// RawPrecedenceEdge is one row of the baseline precedence table,
// task-number to task-number (not yet product-scoped or QI-redirected).
type RawPrecedenceEdge struct {
	First    int
	Second   int
	Relation model.Relation
}

// RawLatePart is one row of the late-part arrival table. Product is nil
// when the row applies to every product whose incomplete range
// contains Second (§4.1 fan-out rule).
type RawLatePart struct {
	First   int // the late-part task number
	Second  int // the dependent task number
	OnDock  time.Time
	Product *string
}

// RawRework is one row of the rework table; Relation defaults to
// FinishToStart when nil, matching the baseline default relationship.
type RawRework struct {
	First    int
	Second   int
	Relation *model.Relation
	Product  *string
}

// Catalog is the complete, immutable set of tables loaded for one
// scheduling problem. Products is ordered and that order is load-bearing:
// a product's position in the slice is its registration index, used to
// pack dense node ids (§9).
type Catalog struct {
	Templates           []model.TaskTemplate
	Products             []model.Product
	PrecedenceEdges      []RawPrecedenceEdge
	LateParts            []RawLatePart
	LatePartDetails      []model.TaskDetail
	Rework               []RawRework
	ReworkDetails        []model.TaskDetail
	QualityInspections   []model.QualityInspectionSpec
	MechanicTeams        map[string]*model.Team
	QualityTeams         map[string]*model.Team
}

// TemplateByNum indexes the template catalog by task number for O(1)
// lookup; callers that need repeated lookups should build this once.
func (c *Catalog) TemplateByNum() map[int]model.TaskTemplate {
	out := make(map[int]model.TaskTemplate, len(c.Templates))
	for _, t := range c.Templates {
		out[t.TaskNum] = t
	}
	return out
}

// LatePartDetailByNum indexes the late-part detail table by task number.
func (c *Catalog) LatePartDetailByNum() map[int]model.TaskDetail {
	out := make(map[int]model.TaskDetail, len(c.LatePartDetails))
	for _, d := range c.LatePartDetails {
		out[d.TaskNum] = d
	}
	return out
}

// ReworkDetailByNum indexes the rework detail table by task number.
func (c *Catalog) ReworkDetailByNum() map[int]model.TaskDetail {
	out := make(map[int]model.TaskDetail, len(c.ReworkDetails))
	for _, d := range c.ReworkDetails {
		out[d.TaskNum] = d
	}
	return out
}

// QualityInspectionByPrimary indexes the QI table by the primary task
// number it inspects.
func (c *Catalog) QualityInspectionByPrimary() map[int]model.QualityInspectionSpec {
	out := make(map[int]model.QualityInspectionSpec, len(c.QualityInspections))
	for _, q := range c.QualityInspections {
		out[q.PrimaryTaskNum] = q
	}
	return out
}

// AllTeams returns mechanic and quality teams combined, for code that
// doesn't care about the distinction (e.g. total-workforce accounting).
func (c *Catalog) AllTeams() map[string]*model.Team {
	out := make(map[string]*model.Team, len(c.MechanicTeams)+len(c.QualityTeams))
	for k, v := range c.MechanicTeams {
		out[k] = v
	}
	for k, v := range c.QualityTeams {
		out[k] = v
	}
	return out
}
