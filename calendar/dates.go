package calendar

import (
	"time"

	"cloud.google.com/go/civil"
)

// Weekday is an ISO day of week: Monday=1 ... Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return "Weekday(?)"
	}
	return [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}[w-1]
}

// Date builds a civil.Date without the struct literal noise.
func Date(year int, month time.Month, day int) civil.Date {
	return civil.Date{Year: year, Month: month, Day: day}
}

// Compare returns -1, 0 or +1 depending on whether a is before, equal to or after b.
func Compare(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// DayOfWeek returns the ISO weekday of d.
func DayOfWeek(d civil.Date) Weekday {
	wd := d.In(time.UTC).Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// IsWeekday reports whether d falls on Monday through Friday.
func IsWeekday(d civil.Date) bool {
	return DayOfWeek(d) < Saturday
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

var commonYearDaysInMonth = [...]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	if month == time.February && IsLeapYear(year) {
		return 29
	}
	return commonYearDaysInMonth[month]
}

// FirstDayOfMonth returns the 1st of the given month.
func FirstDayOfMonth(year int, month time.Month) civil.Date {
	return Date(year, month, 1)
}

// NextMonth returns the month following (year, month).
func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// PreviousMonth returns the month preceding (year, month).
func PreviousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// AddMonths steps n months forward (or backward when n is negative).
func AddMonths(year int, month time.Month, n int) (int, time.Month) {
	for ; n > 0; n-- {
		year, month = NextMonth(year, month)
	}
	for ; n < 0; n++ {
		year, month = PreviousMonth(year, month)
	}
	return year, month
}

// offsetAtOrAfter is in [0, 6].
func offsetAtOrAfter(desired, current Weekday) int {
	return (int(desired) - int(current) + 7) % 7
}

// offsetAfter is in [1, 7].
func offsetAfter(desired, current Weekday) int {
	if off := offsetAtOrAfter(desired, current); off != 0 {
		return off
	}
	return 7
}

// offsetAtOrBefore is in [-6, 0].
func offsetAtOrBefore(desired, current Weekday) int {
	return -((int(current) - int(desired) + 7) % 7)
}

// offsetBefore is in [-7, -1].
func offsetBefore(desired, current Weekday) int {
	if off := offsetAtOrBefore(desired, current); off != 0 {
		return off
	}
	return -7
}

// NthWeekdayAfter returns the nth wd strictly after d.
//
//	NthWeekdayAfter(1, Friday, 2012-02-18) = 2012-02-24
//	NthWeekdayAfter(4, Wednesday, 2012-02-18) = 2012-03-14
func NthWeekdayAfter(n int, wd Weekday, d civil.Date) civil.Date {
	return d.AddDays(offsetAfter(wd, DayOfWeek(d)) + 7*(n-1))
}

// NthWeekdayAtOrAfter returns the nth wd on or after d.
func NthWeekdayAtOrAfter(n int, wd Weekday, d civil.Date) civil.Date {
	return d.AddDays(offsetAtOrAfter(wd, DayOfWeek(d)) + 7*(n-1))
}

// NthWeekdayBefore returns the nth wd strictly before d.
//
//	NthWeekdayBefore(2, Friday, 2012-03-02) = 2012-02-17
func NthWeekdayBefore(n int, wd Weekday, d civil.Date) civil.Date {
	return d.AddDays(offsetBefore(wd, DayOfWeek(d)) - 7*(n-1))
}

// NthWeekdayAtOrBefore returns the nth wd on or before d.
func NthWeekdayAtOrBefore(n int, wd Weekday, d civil.Date) civil.Date {
	return d.AddDays(offsetAtOrBefore(wd, DayOfWeek(d)) - 7*(n-1))
}

// NthWeekdayOfMonth returns e.g. the 3rd Monday of January 2012 (2012-01-16).
func NthWeekdayOfMonth(n int, wd Weekday, year int, month time.Month) civil.Date {
	return NthWeekdayAtOrAfter(n, wd, FirstDayOfMonth(year, month))
}

// LastWeekday returns the last wd of the month.
func LastWeekday(wd Weekday, year int, month time.Month) civil.Date {
	days := DaysInMonth(year, month)
	last := Date(year, month, days)
	return Date(year, month, days-(int(DayOfWeek(last))-int(wd)+7)%7)
}

// Series lists every calendar day in [start, end).
func Series(start, end civil.Date) []civil.Date {
	var out []civil.Date
	for d := start; d.Before(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// SeriesInclusive lists every calendar day in [start, end].
func SeriesInclusive(start, end civil.Date) []civil.Date {
	return Series(start, end.AddDays(1))
}
