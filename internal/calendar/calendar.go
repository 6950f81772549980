// Package calendar implements the shift and holiday model of §3/§4.4:
// the "next working minute" oracle the scheduler advances candidate
// start times through, and the shift-lookup helpers the capacity
// search uses.
package calendar

import (
	"time"

	"github.com/qlp-hq/production-scheduler/internal/model"
)

// ShiftCovering returns the shift window (if any) that a team works
// and whose clock-time span covers t.
func ShiftCovering(team *model.Team, t time.Time) (model.ShiftWindow, bool) {
	for _, id := range model.ShiftOrder {
		if !team.WorksShift(id) {
			continue
		}
		w := model.Shifts[id]
		if w.Covers(t) {
			return w, true
		}
	}
	return model.ShiftWindow{}, false
}

// FirstShiftAtOrAfter returns the earliest shift (in priority order)
// the team works whose window covers t, or if none covers t directly,
// the earliest working-day/working-shift minute at or after t.
func FirstShiftAtOrAfter(team *model.Team, product *model.Product, t time.Time) (time.Time, model.ShiftWindow, bool) {
	cursor := t
	for i := 0; i < 24*60*400; i++ { // bounded: ~400 days of minute-steps
		if product.IsWorkingDay(cursor) {
			if w, ok := ShiftCovering(team, cursor); ok {
				return cursor, w, true
			}
		}
		cursor = cursor.Add(time.Minute)
	}
	return time.Time{}, model.ShiftWindow{}, false
}

// NextWorkingMinute advances t to the next minute that falls on a
// working day for product AND within a shift the team works,
// returning t unchanged if it already qualifies.
func NextWorkingMinute(team *model.Team, product *model.Product, t time.Time) time.Time {
	if product.IsWorkingDay(t) {
		if _, ok := ShiftCovering(team, t); ok {
			return t
		}
	}
	next, _, ok := FirstShiftAtOrAfter(team, product, t)
	if !ok {
		return t
	}
	return next
}

// SnapToSixAM returns 06:00 of the calendar day containing t.
func SnapToSixAM(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 6, 0, 0, 0, t.Location())
}

// ShiftEnd returns the time shift window w ends, relative to
// the calendar day anchor (the day containing anchorStart, accounting
// for S3 wrapping past midnight).
//
// A wrapping shift has two occurrences of "today" depending on which
// side of midnight anchorStart falls: an anchor in the pre-midnight
// segment (offset >= w.Start, e.g. 23:30) ends the following calendar
// day, but an anchor already past midnight (offset < w.End, e.g.
// 02:00) ends that same calendar day — the wrap already happened.
func ShiftEnd(w model.ShiftWindow, anchorStart time.Time) time.Time {
	dayStart := time.Date(anchorStart.Year(), anchorStart.Month(), anchorStart.Day(), 0, 0, 0, 0, anchorStart.Location())
	end := dayStart.Add(w.End)
	if w.Wraps() && anchorStart.Sub(dayStart) >= w.Start {
		end = end.Add(24 * time.Hour)
	}
	return end
}
