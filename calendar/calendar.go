package calendar

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/marketdata/cboe"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// CBOE is the CBOE Futures Exchange schedule used by the VIX futures indices.
	CBOE CalendarID = "CBOE"
	// Weekends closes on Saturday and Sunday only.
	Weekends CalendarID = "WEEKENDS"
)

// ErrUnknownCalendar is returned by ForID for an unrecognised id.
var ErrUnknownCalendar = errors.New("unknown calendar")

// ErrStepExhausted is the panic value (wrapped) raised when business-day
// stepping finds no open day within maxStepDays. Only a malformed custom
// HolidayRule can trigger it.
var ErrStepExhausted = errors.New("business day search exhausted")

const maxStepDays = 366

// HolidayRule decides whether a day is a market holiday. includeClosures
// selects whether ad hoc, unscheduled closures count.
type HolidayRule interface {
	IsHoliday(d civil.Date, includeClosures bool) bool
}

// CBOERule applies the CFE holiday schedule: the ten US holidays, Friday
// closures when Good Friday, Independence Day or Christmas lands on a
// Saturday, Monday closures when any holiday lands on a Sunday, plus the
// unscheduled closure list.
type CBOERule struct {
	closures map[civil.Date]struct{}
}

// NewCBOERule builds the rule with the given unscheduled closures.
func NewCBOERule(closures []civil.Date) *CBOERule {
	set := make(map[civil.Date]struct{}, len(closures))
	for _, d := range closures {
		set[d] = struct{}{}
	}
	return &CBOERule{closures: set}
}

func (r *CBOERule) IsHoliday(d civil.Date, includeClosures bool) bool {
	if IsHoliday(d) {
		return true
	}
	switch DayOfWeek(d) {
	case Friday:
		sat := d.AddDays(1)
		if IsGoodFriday(sat) || IsIndependenceDay(sat) || IsChristmas(sat) {
			return true
		}
	case Monday:
		if IsHoliday(d.AddDays(-1)) {
			return true
		}
	}
	if includeClosures {
		_, closed := r.closures[d]
		return closed
	}
	return false
}

type weekendsOnly struct{}

func (weekendsOnly) IsHoliday(civil.Date, bool) bool { return false }

var cboeRule *CBOERule

func init() {
	closures := make([]civil.Date, 0, len(cboe.UnscheduledClosures))
	for _, s := range cboe.UnscheduledClosures {
		d, err := civil.ParseDate(s)
		if err != nil {
			panic(fmt.Sprintf("calendar: bad unscheduled closure %q: %v", s, err))
		}
		closures = append(closures, d)
	}
	cboeRule = NewCBOERule(closures)
}

// Calendar answers business-day questions for one holiday rule. It holds no
// mutable state and is safe to share.
type Calendar struct {
	id   CalendarID
	rule HolidayRule
}

// New wraps a custom rule, typically a test double.
func New(id CalendarID, rule HolidayRule) *Calendar {
	return &Calendar{id: id, rule: rule}
}

// ForID returns a built-in calendar.
func ForID(id CalendarID) (*Calendar, error) {
	switch id {
	case CBOE:
		return New(CBOE, cboeRule), nil
	case Weekends:
		return New(Weekends, weekendsOnly{}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCalendar, id)
	}
}

// NewCBOE is shorthand for ForID(CBOE).
func NewCBOE() *Calendar {
	return New(CBOE, cboeRule)
}

func (c *Calendar) ID() CalendarID { return c.id }

// IsHoliday checks the rule, counting unscheduled closures.
func (c *Calendar) IsHoliday(d civil.Date) bool {
	return c.rule.IsHoliday(d, true)
}

// IsScheduledHoliday checks the rule, ignoring unscheduled closures.
func (c *Calendar) IsScheduledHoliday(d civil.Date) bool {
	return c.rule.IsHoliday(d, false)
}

// IsBusinessDay checks weekends and holidays, unscheduled closures included.
func (c *Calendar) IsBusinessDay(d civil.Date) bool {
	return IsWeekday(d) && !c.IsHoliday(d)
}

// IsScheduledBusinessDay is IsBusinessDay with unscheduled closures treated as open.
func (c *Calendar) IsScheduledBusinessDay(d civil.Date) bool {
	return IsWeekday(d) && !c.IsScheduledHoliday(d)
}

// priorWeekday jumps Monday -> Friday, otherwise one day back.
func priorWeekday(d civil.Date) civil.Date {
	if DayOfWeek(d) == Monday {
		return d.AddDays(-3)
	}
	return d.AddDays(-1)
}

// nextWeekday jumps Friday -> Monday, otherwise one day forward.
func nextWeekday(d civil.Date) civil.Date {
	if DayOfWeek(d) == Friday {
		return d.AddDays(3)
	}
	return d.AddDays(1)
}

// PriorBusinessDay steps back over weekends and holidays. Stepping from a
// Sunday lands on Saturday, matching the exchange methodology's day stepper;
// callers pass business days in practice.
func (c *Calendar) PriorBusinessDay(d civil.Date) civil.Date {
	return c.step(d, priorWeekday)
}

// NextBusinessDay steps forward over weekends and holidays.
func (c *Calendar) NextBusinessDay(d civil.Date) civil.Date {
	return c.step(d, nextWeekday)
}

func (c *Calendar) step(from civil.Date, next func(civil.Date) civil.Date) civil.Date {
	d := next(from)
	for c.IsHoliday(d) {
		d = next(d)
		if abs(d.DaysSince(from)) > maxStepDays {
			panic(fmt.Errorf("%w: no open day within %d days of %s on calendar %s", ErrStepExhausted, maxStepDays, from, c.id))
		}
	}
	return d
}

// BusinessDays lists business days in [start, end).
func (c *Calendar) BusinessDays(start, end civil.Date) []civil.Date {
	var out []civil.Date
	for d := start; d.Before(end); d = d.AddDays(1) {
		if c.IsBusinessDay(d) {
			out = append(out, d)
		}
	}
	return out
}

// BusinessDaysInclusive lists business days in [start, end].
func (c *Calendar) BusinessDaysInclusive(start, end civil.Date) []civil.Date {
	return c.BusinessDays(start, end.AddDays(1))
}

// CountBusinessDays counts business days in [start, end).
func (c *Calendar) CountBusinessDays(start, end civil.Date) int {
	n := 0
	for d := start; d.Before(end); d = d.AddDays(1) {
		if c.IsBusinessDay(d) {
			n++
		}
	}
	return n
}

// CountBusinessDaysInclusive counts business days in [start, end].
func (c *Calendar) CountBusinessDaysInclusive(start, end civil.Date) int {
	return c.CountBusinessDays(start, end.AddDays(1))
}

// CountScheduledBusinessDaysInclusive counts days in [start, end] that are
// open under the published schedule, ignoring unscheduled closures.
func (c *Calendar) CountScheduledBusinessDaysInclusive(start, end civil.Date) int {
	n := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if c.IsScheduledBusinessDay(d) {
			n++
		}
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
