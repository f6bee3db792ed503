// Package trading runs simulated equity traders backed by SQLite accounts.
package trading

import (
	"time"
	_ "time/tzdata"
)

// Clock returns the current time. Tests substitute fixed clocks.
type Clock func() time.Time

var newYork = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

const (
	openMinute  = 9*60 + 30
	closeMinute = 16 * 60
)

// IsMarketOpen reports whether the NYSE regular session is in progress at t:
// 09:30 to 16:00 New York time on a weekday that is not an exchange holiday.
func IsMarketOpen(t time.Time) bool {
	ny := t.In(newYork)
	if ny.Weekday() == time.Saturday || ny.Weekday() == time.Sunday {
		return false
	}
	if IsHoliday(ny) {
		return false
	}
	minute := ny.Hour()*60 + ny.Minute()
	return minute >= openMinute && minute < closeMinute
}

// IsHoliday reports whether the New York calendar date of t is a full-day
// exchange holiday.
func IsHoliday(t time.Time) bool {
	ny := t.In(newYork)
	y, m, d := ny.Date()
	for _, h := range Holidays(y) {
		hy, hm, hd := h.Date()
		if hy == y && hm == m && hd == d {
			return true
		}
	}
	return false
}

// Holidays returns the observed full-day NYSE holidays for year, in date order.
func Holidays(year int) []time.Time {
	days := []time.Time{}

	// New Year's Day falling on a Saturday is not observed on the Friday before.
	if ny := date(year, time.January, 1); ny.Weekday() != time.Saturday {
		days = append(days, observed(ny))
	}
	days = append(days,
		nthWeekday(year, time.January, time.Monday, 3),
		nthWeekday(year, time.February, time.Monday, 3),
		easter(year).AddDate(0, 0, -2),
		lastWeekday(year, time.May, time.Monday),
	)
	if year >= 2022 {
		days = append(days, observed(date(year, time.June, 19)))
	}
	days = append(days,
		observed(date(year, time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.November, time.Thursday, 4),
		observed(date(year, time.December, 25)),
	)
	return days
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, newYork)
}

// observed moves a Saturday holiday to Friday and a Sunday holiday to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// easter returns Easter Sunday using the anonymous Gregorian algorithm.
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}
