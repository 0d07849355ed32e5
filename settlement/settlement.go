// Package settlement resolves VIX futures final settlement dates, the roll
// periods between them and the front/next contract weights.
package settlement

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/calendar"
	"github.com/meenmo/spvix/marketdata/cboe"
)

// ErrInvalidContractIndex is returned for a relative contract index outside
// the range an operation accepts (zero for settlement dates, anything but 1
// or 2 for weights).
var ErrInvalidContractIndex = errors.New("invalid contract index")

// Resolver computes settlement and roll dates on a holiday calendar.
type Resolver struct {
	cal *calendar.Calendar
}

func NewResolver(cal *calendar.Calendar) *Resolver {
	return &Resolver{cal: cal}
}

func (r *Resolver) Calendar() *calendar.Calendar { return r.cal }

// SettlementDate is the final settlement (expiration) date of the contract
// for (year, month): the Wednesday thirty days before the third Friday of
// the following month. When that Friday is an exchange holiday the thirty
// days are counted from the business day before it.
func (r *Resolver) SettlementDate(year int, month time.Month) civil.Date {
	y, m := calendar.NextMonth(year, month)
	friday := calendar.NthWeekdayOfMonth(3, calendar.Friday, y, m)
	if r.cal.IsHoliday(friday) {
		friday = r.cal.PriorBusinessDay(friday)
	}
	return friday.AddDays(-30)
}

// SettlementDateOf is SettlementDate keyed by contract month.
func (r *Resolver) SettlementDateOf(c cboe.ContractMonth) civil.Date {
	return r.SettlementDate(c.Year(), c.Month())
}

// ContractMonth resolves the nominal month of the i-th contract relative to
// d. Positive i counts forward from the front month (1 = front); negative i
// counts backward from the last contract that settled strictly before d
// (-1). On a settlement date the contract expiring that day is neither 1
// nor -1.
func (r *Resolver) ContractMonth(i int, d civil.Date) (cboe.ContractMonth, error) {
	if i == 0 {
		return 0, fmt.Errorf("contract month for %s: %w: 0", d, ErrInvalidContractIndex)
	}
	settle := r.SettlementDate(d.Year, d.Month)
	offset := i
	switch {
	case i > 0 && d.Before(settle):
		// front month expires this month
		offset = i - 1
	case i < 0 && !d.After(settle):
		// this month's contract has not settled before d
		offset = i
	case i < 0:
		offset = i + 1
	}
	y, m := calendar.AddMonths(d.Year, d.Month, offset)
	return cboe.NewContractMonth(y, m), nil
}

// ContractSettlementDate is the settlement date of the i-th contract relative to d.
func (r *Resolver) ContractSettlementDate(i int, d civil.Date) (civil.Date, error) {
	c, err := r.ContractMonth(i, d)
	if err != nil {
		return civil.Date{}, err
	}
	return r.SettlementDateOf(c), nil
}
