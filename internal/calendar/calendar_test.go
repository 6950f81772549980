package calendar

import (
	"testing"
	"time"

	"github.com/qlp-hq/production-scheduler/internal/model"
)

func allShiftsTeam(name string) *model.Team {
	return &model.Team{
		Name:     name,
		Kind:     model.Mechanic,
		Capacity: 2,
		Original: 2,
		Shifts:   map[model.ShiftID]bool{model.S1: true, model.S2: true, model.S3: true},
	}
}

func s1OnlyTeam(name string) *model.Team {
	return &model.Team{
		Name:     name,
		Kind:     model.Mechanic,
		Capacity: 2,
		Original: 2,
		Shifts:   map[model.ShiftID]bool{model.S1: true},
	}
}

func TestNextWorkingMinuteAlreadyValid(t *testing.T) {
	team := allShiftsTeam("T1")
	product := &model.Product{ID: "A", Holidays: map[string]bool{}}

	monday := time.Date(2025, time.September, 8, 7, 0, 0, 0, time.UTC)
	got := NextWorkingMinute(team, product, monday)
	if !got.Equal(monday) {
		t.Errorf("NextWorkingMinute should not move an already-valid minute: got %v, want %v", got, monday)
	}
}

func TestNextWorkingMinuteSkipsWeekend(t *testing.T) {
	team := s1OnlyTeam("T1")
	product := &model.Product{ID: "A", Holidays: map[string]bool{}}

	saturdayMorning := time.Date(2025, time.September, 6, 7, 0, 0, 0, time.UTC)
	got := NextWorkingMinute(team, product, saturdayMorning)

	monday := time.Date(2025, time.September, 8, 6, 0, 0, 0, time.UTC)
	if !got.Equal(monday) {
		t.Errorf("NextWorkingMinute from Saturday should land on Monday 06:00, got %v", got)
	}
}

func TestNextWorkingMinuteSkipsTeamsOffShift(t *testing.T) {
	team := s1OnlyTeam("T1")
	product := &model.Product{ID: "A", Holidays: map[string]bool{}}

	mondayEvening := time.Date(2025, time.September, 8, 20, 0, 0, 0, time.UTC)
	got := NextWorkingMinute(team, product, mondayEvening)

	tuesday := time.Date(2025, time.September, 9, 6, 0, 0, 0, time.UTC)
	if !got.Equal(tuesday) {
		t.Errorf("team only staffing S1 should advance to the next day's S1 start, got %v", got)
	}
}

func TestSnapToSixAM(t *testing.T) {
	mid := time.Date(2025, time.September, 8, 13, 45, 0, 0, time.UTC)
	got := SnapToSixAM(mid)
	want := time.Date(2025, time.September, 8, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("SnapToSixAM(%v) = %v, want %v", mid, got, want)
	}
}

func TestShiftEndWrapsForS3(t *testing.T) {
	anchor := time.Date(2025, time.September, 8, 23, 0, 0, 0, time.UTC)
	end := ShiftEnd(model.Shifts[model.S3], anchor)
	want := time.Date(2025, time.September, 9, 6, 0, 0, 0, time.UTC)
	if !end.Equal(want) {
		t.Errorf("ShiftEnd(S3) = %v, want %v (next calendar day)", end, want)
	}
}

func TestShiftEndDoesNotWrapForPostMidnightAnchor(t *testing.T) {
	anchor := time.Date(2025, time.September, 9, 2, 0, 0, 0, time.UTC)
	end := ShiftEnd(model.Shifts[model.S3], anchor)
	want := time.Date(2025, time.September, 9, 6, 0, 0, 0, time.UTC)
	if !end.Equal(want) {
		t.Errorf("ShiftEnd(S3) for a post-midnight anchor = %v, want %v (same calendar day)", end, want)
	}
}
