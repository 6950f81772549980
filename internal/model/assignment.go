package model

import "time"

// Assignment is the scheduler's output for one task instance: the
// team/shift it was placed on and its minute-aligned start/end. End is
// always Start plus the instance's duration.
type Assignment struct {
	Key   Key       `json:"key"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Team  string    `json:"team"`
	Shift ShiftID   `json:"shift"`
}

// PriorityListEntry is one row of the §6 priority_list output: an
// assignment enriched with its computed rank and slack.
type PriorityListEntry struct {
	Assignment   Assignment `json:"assignment"`
	Kind         Kind       `json:"kind"`
	DisplayName  string     `json:"display_name"`
	PriorityRank int        `json:"priority_rank"`
	SlackHours   float64    `json:"slack_hours"`
}
