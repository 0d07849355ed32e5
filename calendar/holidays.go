package calendar

import (
	"time"

	"cloud.google.com/go/civil"
)

// Easter computes Gregorian Easter Sunday with integer arithmetic only
// (McClendon's form of the Computus).
func Easter(year int) civil.Date {
	g := year%19 + 1              // golden number
	c := year/100 + 1             // century
	x := 3*c/4 - 12               // solar correction
	z := (8*c+5)/25 - 5           // lunar correction
	d := 5*year/4 - x - 10        // dominical letter
	e := (11*g + 20 + z - x) % 30 // epact
	if e < 0 {
		e += 30
	}
	if (e == 25 && g > 11) || e == 24 {
		e++
	}
	n := 44 - e // paschal full moon as a day of March
	if n < 21 {
		n += 30
	}
	n = n + 7 - (d+n)%7 // following Sunday
	if n > 31 {
		return Date(year, time.April, n-31)
	}
	return Date(year, time.March, n)
}

func GoodFriday(year int) civil.Date { return Easter(year).AddDays(-2) }

func NewYearsDay(year int) civil.Date { return Date(year, time.January, 1) }

func MartinLutherKingDay(year int) civil.Date {
	return NthWeekdayOfMonth(3, Monday, year, time.January)
}

func PresidentsDay(year int) civil.Date {
	return NthWeekdayOfMonth(3, Monday, year, time.February)
}

func MemorialDay(year int) civil.Date { return LastWeekday(Monday, year, time.May) }

func IndependenceDay(year int) civil.Date { return Date(year, time.July, 4) }

func LaborDay(year int) civil.Date {
	return NthWeekdayOfMonth(1, Monday, year, time.September)
}

func ColumbusDay(year int) civil.Date {
	return NthWeekdayOfMonth(2, Monday, year, time.October)
}

func Thanksgiving(year int) civil.Date {
	return NthWeekdayOfMonth(4, Thursday, year, time.November)
}

func Christmas(year int) civil.Date { return Date(year, time.December, 25) }

// Holiday is a named yearly rule.
type Holiday struct {
	Name string
	On   func(year int) civil.Date
}

// Is reports whether d is this holiday in d's year.
func (h Holiday) Is(d civil.Date) bool {
	return h.On(d.Year) == d
}

// USHolidays are the ten named holidays the CBOE schedule is built from.
var USHolidays = []Holiday{
	{"New Year's Day", NewYearsDay},
	{"Martin Luther King Jr. Day", MartinLutherKingDay},
	{"Presidents' Day", PresidentsDay},
	{"Good Friday", GoodFriday},
	{"Memorial Day", MemorialDay},
	{"Independence Day", IndependenceDay},
	{"Labor Day", LaborDay},
	{"Columbus Day", ColumbusDay},
	{"Thanksgiving", Thanksgiving},
	{"Christmas", Christmas},
}

// IsHoliday reports whether d is one of USHolidays (no weekend shifting).
func IsHoliday(d civil.Date) bool {
	_, ok := HolidayName(d)
	return ok
}

// HolidayName returns the name of the holiday falling on d, if any.
func HolidayName(d civil.Date) (string, bool) {
	for _, h := range USHolidays {
		if h.Is(d) {
			return h.Name, true
		}
	}
	return "", false
}

func IsGoodFriday(d civil.Date) bool      { return GoodFriday(d.Year) == d }
func IsIndependenceDay(d civil.Date) bool { return IndependenceDay(d.Year) == d }
func IsChristmas(d civil.Date) bool       { return Christmas(d.Year) == d }
