package model

import (
	"testing"
	"time"
)

func TestTaskRangeContains(t *testing.T) {
	r := TaskRange{Low: 10, High: 20}
	cases := []struct {
		n    int
		want bool
	}{
		{9, false},
		{10, true},
		{15, true},
		{20, true},
		{21, false},
	}
	for _, c := range cases {
		if got := r.Contains(c.n); got != c.want {
			t.Errorf("TaskRange{10,20}.Contains(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestProductIsWorkingDay(t *testing.T) {
	p := &Product{
		ID:       "A",
		Holidays: map[string]bool{"2025-09-01": true},
	}

	monday := time.Date(2025, time.September, 8, 10, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, time.September, 6, 10, 0, 0, 0, time.UTC)
	holiday := time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC)

	if !p.IsWorkingDay(monday) {
		t.Errorf("Monday should be a working day")
	}
	if p.IsWorkingDay(saturday) {
		t.Errorf("Saturday should not be a working day")
	}
	if p.IsWorkingDay(holiday) {
		t.Errorf("a listed holiday should not be a working day")
	}
}
