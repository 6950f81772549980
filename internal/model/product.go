package model

import "time"

// TaskRange is the inclusive [Low, High] window of task numbers a
// product still has incomplete.
type TaskRange struct {
	Low  int
	High int
}

// Contains reports whether n falls within the range.
func (r TaskRange) Contains(n int) bool {
	return n >= r.Low && n <= r.High
}

// Product is a catalog entry: a delivery date, the range of task
// numbers it still needs, and a set of holiday dates on top of
// weekends.
type Product struct {
	ID            string
	DeliveryDate  time.Time
	Incomplete    TaskRange
	Holidays      map[string]bool // date-only keys, format "2006-01-02"
}

// IsHoliday reports whether the calendar day of t is in this product's
// holiday set.
func (p *Product) IsHoliday(t time.Time) bool {
	return p.Holidays[t.Format("2006-01-02")]
}

// IsWorkingDay reports whether t's calendar day is a weekday that is
// not one of this product's holidays.
func (p *Product) IsWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !p.IsHoliday(t)
}
