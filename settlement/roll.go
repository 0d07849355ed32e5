package settlement

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/calendar"
)

// RollPeriod is [Start, End) measured at the market close. Start is the day
// before a settlement date, End the day before the next one.
type RollPeriod struct {
	Start civil.Date
	End   civil.Date
}

// Contains reports whether d lies in [Start, End).
func (p RollPeriod) Contains(d civil.Date) bool {
	return !d.Before(p.Start) && d.Before(p.End)
}

func (p RollPeriod) String() string {
	return fmt.Sprintf("[%s, %s)", p.Start, p.End)
}

// RollStart is the first day of the roll period beginning in (year, month):
// the day before that month's settlement date.
func (r *Resolver) RollStart(year int, month time.Month) civil.Date {
	return r.SettlementDate(year, month).AddDays(-1)
}

// RollPeriodStartingWith returns the roll period that starts in (year, month).
func (r *Resolver) RollPeriodStartingWith(year int, month time.Month) RollPeriod {
	ny, nm := calendar.NextMonth(year, month)
	return RollPeriod{Start: r.RollStart(year, month), End: r.RollStart(ny, nm)}
}

// RollPeriodForDate returns the roll period containing d.
func (r *Resolver) RollPeriodForDate(d civil.Date) RollPeriod {
	if d.Before(r.RollStart(d.Year, d.Month)) {
		py, pm := calendar.PreviousMonth(d.Year, d.Month)
		return r.RollPeriodStartingWith(py, pm)
	}
	return r.RollPeriodStartingWith(d.Year, d.Month)
}

// TotalDays (dt) counts the business days of d's roll period, from the
// settlement date through End. Unscheduled closures are counted as open so
// the total stays fixed when the market closes unexpectedly.
func (r *Resolver) TotalDays(d civil.Date) int {
	p := r.RollPeriodForDate(d)
	return r.cal.CountScheduledBusinessDaysInclusive(p.Start.AddDays(1), p.End)
}

// RemainingDays (dr) counts the business days from the day after d through
// the end of d's roll period.
func (r *Resolver) RemainingDays(d civil.Date) int {
	p := r.RollPeriodForDate(d)
	return r.cal.CountBusinessDaysInclusive(r.cal.NextBusinessDay(d), p.End)
}

// Weight (crw) is the percentage allocated to contract i (1 = front, 2 =
// next) at the close of d. It moves linearly from 100/0 at the start of the
// roll period to 0/100 at its end.
func (r *Resolver) Weight(i int, d civil.Date) (float64, error) {
	dt := float64(r.TotalDays(d))
	dr := float64(r.RemainingDays(d))
	switch i {
	case 1:
		return 100 * (dr / dt), nil
	case 2:
		return 100 * ((dt - dr) / dt), nil
	default:
		return 0, fmt.Errorf("weight on %s: %w: %d", d, ErrInvalidContractIndex, i)
	}
}
