package model

// TaskTemplate is a catalog entry: the immutable blueprint for one
// production task number, shared by every product that still has it
// incomplete.
type TaskTemplate struct {
	TaskNum     int    `json:"task_num"`
	DurationMin int    `json:"duration_min"`
	Team        string `json:"team"`
	Crew        int    `json:"crew"`
}

// TaskDetail is the narrower attribute set carried by the late-part and
// rework tables (§4.1): a task number plus duration/team/crew, with no
// notion of an incomplete range since these tasks are injected directly.
type TaskDetail struct {
	TaskNum     int    `json:"task_num"`
	DurationMin int    `json:"duration_min"`
	Team        string `json:"team"`
	Crew        int    `json:"crew"`
}

// QualityInspectionSpec is one row of the quality-inspection table:
// the primary task it inspects, its own task number (always
// primary+QIOffset by convention, but carried explicitly since the
// catalog is the source of truth), duration and crew.
type QualityInspectionSpec struct {
	PrimaryTaskNum int `json:"primary_task_num"`
	QITaskNum      int `json:"qi_task_num"`
	DurationMin    int `json:"duration_min"`
	Crew           int `json:"crew"`
}
