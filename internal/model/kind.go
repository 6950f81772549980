package model

// Kind distinguishes the four flavors of task instance the builder can
// produce. Only Production instances exist on the template catalog;
// the other three are synthesized from the late-part, rework and
// quality-inspection tables.
type Kind string

const (
	Production        Kind = "production"
	LatePart          Kind = "late_part"
	Rework             Kind = "rework"
	QualityInspection Kind = "quality_inspection"
)

// TeamKind distinguishes the two team pools a task instance can be
// staffed from.
type TeamKind string

const (
	Mechanic TeamKind = "mechanic"
	Quality  TeamKind = "quality"
)

// ShiftID names one of the three fixed daily shifts.
type ShiftID string

const (
	S1 ShiftID = "S1"
	S2 ShiftID = "S2"
	S3 ShiftID = "S3"
)
