package model

import "time"

// Instance is a schedulable task instance: a template paired with a
// product, or a late-part/rework/quality-inspection row injected
// directly. Instances are created once by the builder and are
// read-only for the rest of a run.
type Instance struct {
	Key          Key
	Node         NodeID
	DurationMin  int
	Team         string // empty for QualityInspection; resolved at schedule time
	Crew         int
	Kind         Kind
	OnDockDate   *time.Time // set only for LatePart
	PrimaryRef   *Key       // set only for QualityInspection: the instance it inspects
}

// DisplayName renders the external boundary identifier, e.g. "A_80".
func (i *Instance) DisplayName() string {
	return i.Key.String()
}

// IsQualityInspection reports whether this instance is a QI companion.
func (i *Instance) IsQualityInspection() bool {
	return i.Kind == QualityInspection
}
