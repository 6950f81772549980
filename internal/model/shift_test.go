package model

import (
	"testing"
	"time"
)

func TestShiftWindowWraps(t *testing.T) {
	if Shifts[S1].Wraps() {
		t.Errorf("S1 should not wrap")
	}
	if Shifts[S2].Wraps() {
		t.Errorf("S2 should not wrap")
	}
	if !Shifts[S3].Wraps() {
		t.Errorf("S3 should wrap past midnight")
	}
}

func TestShiftWindowCovers(t *testing.T) {
	day := time.Date(2025, time.September, 8, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		shift ShiftID
		at    time.Time
		want  bool
	}{
		{S1, day.Add(6 * time.Hour), true},
		{S1, day.Add(14*time.Hour + 29*time.Minute), true},
		{S1, day.Add(14*time.Hour + 30*time.Minute), false},
		{S2, day.Add(14*time.Hour + 30*time.Minute), true},
		{S2, day.Add(23 * time.Hour), false},
		{S3, day.Add(23 * time.Hour), true},
		{S3, day.Add(2 * time.Hour), true},  // past midnight, still S3
		{S3, day.Add(5*time.Hour + 59*time.Minute), true},
		{S3, day.Add(6 * time.Hour), false}, // S1 starts
	}
	for _, c := range cases {
		w := Shifts[c.shift]
		if got := w.Covers(c.at); got != c.want {
			t.Errorf("%s.Covers(%s) = %v, want %v", c.shift, c.at.Format(time.RFC3339), got, c.want)
		}
	}
}
