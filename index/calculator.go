// Package index computes the S&P 500 VIX Short-Term Futures Index in its
// excess-return (SPVXSP) and total-return (SPVXSTR) forms.
package index

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/calendar"
	"github.com/meenmo/spvix/futures"
	"github.com/meenmo/spvix/marketdata/treasury"
	"github.com/meenmo/spvix/settlement"
	"github.com/meenmo/spvix/utils"
)

var (
	// ErrNotBusinessDay is returned when an index level is requested for a
	// day the exchange was closed.
	ErrNotBusinessDay = errors.New("not a business day")
	// ErrBeforeBaseDate is returned for dates earlier than the base date.
	ErrBeforeBaseDate = errors.New("date precedes index base date")
)

// Published base of both index variants.
var (
	BaseDate  = civil.Date{Year: 2005, Month: 12, Day: 20}
	BaseValue = 100000.0
)

// Variant selects the excess-return or total-return index.
type Variant int

const (
	TotalReturn Variant = iota
	ExcessReturn
)

// Ticker returns the published ticker of the variant.
func (v Variant) Ticker() string {
	if v == ExcessReturn {
		return "SPVXSP"
	}
	return "SPVXSTR"
}

func (v Variant) String() string { return v.Ticker() }

// Point is one index level.
type Point struct {
	Date  civil.Date
	Value float64
}

// Options configures a Calculator. Zero fields take the published defaults.
type Options struct {
	BaseDate  civil.Date
	BaseValue float64
	Observer  Observer
}

// Calculator evaluates index levels on demand and memoizes every level it
// computes. It is not safe for concurrent use.
type Calculator struct {
	cal      *calendar.Calendar
	resolver *settlement.Resolver
	prices   *futures.PriceResolver
	rates    *treasury.WeeklyHigh
	base     Point
	obs      Observer
	levels   map[Variant]map[civil.Date]float64
}

// NewCalculator wires a calculator over loaded bar and rate tables.
func NewCalculator(bars *futures.Repository, rates *treasury.WeeklyHigh, opts Options) *Calculator {
	base := Point{Date: BaseDate, Value: BaseValue}
	if !opts.BaseDate.IsZero() {
		base.Date = opts.BaseDate
	}
	if opts.BaseValue != 0 {
		base.Value = opts.BaseValue
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	resolver := bars.Resolver()
	return &Calculator{
		cal:      resolver.Calendar(),
		resolver: resolver,
		prices:   futures.NewPriceResolver(bars),
		rates:    rates,
		base:     base,
		obs:      obs,
		levels: map[Variant]map[civil.Date]float64{
			TotalReturn:  {base.Date: base.Value},
			ExcessReturn: {base.Date: base.Value},
		},
	}
}

// Base returns the base date and value.
func (c *Calculator) Base() Point { return c.base }

// CDR is the contract daily return on t: today's prices weighted with the
// previous business day's roll weights, over the previous day's weighted
// prices, minus one.
func (c *Calculator) CDR(t civil.Date) (float64, error) {
	prev := c.cal.PriorBusinessDay(t)
	w1, err := c.resolver.Weight(1, prev)
	if err != nil {
		return 0, err
	}
	w2, err := c.resolver.Weight(2, prev)
	if err != nil {
		return 0, err
	}
	var p [2][2]float64 // [day][contract]
	for day, d := range [2]civil.Date{t, prev} {
		for k := 0; k < 2; k++ {
			if p[day][k], err = c.dcrp(k+1, d); err != nil {
				return 0, fmt.Errorf("cdr(%s): %w", t, err)
			}
		}
	}
	return (w1*p[0][0]+w2*p[0][1])/(w1*p[1][0]+w2*p[1][1]) - 1, nil
}

// TBR is the treasury bill return accrued from the previous business day
// to t at the weekly high 13-week bill rate:
//
//	(1 / (1 - 91/360 * r)) ^ (Δ/91) - 1
//
// where Δ counts calendar days. The power keeps the sign of its base.
func (c *Calculator) TBR(t civil.Date) (float64, error) {
	prev := c.cal.PriorBusinessDay(t)
	r, weeks, err := c.rates.RateAt(prev)
	if err != nil {
		return 0, fmt.Errorf("tbr(%s): %w", t, err)
	}
	c.obs.RateResolved(prev, weeks)
	delta := float64(t.DaysSince(prev))
	term := float64(treasury.BillTermDays)
	return utils.SignedPow(1/(1-(term/360)*r), delta/term) - 1, nil
}

// TotalReturn returns the SPVXSTR level on t.
func (c *Calculator) TotalReturn(t civil.Date) (float64, error) {
	return c.Level(TotalReturn, t)
}

// ExcessReturn returns the SPVXSP level on t.
func (c *Calculator) ExcessReturn(t civil.Date) (float64, error) {
	return c.Level(ExcessReturn, t)
}

// Level returns the index level on t:
//
//	level(t) = level(t-1) * (1 + cdr(t) [+ tbr(t)])
//
// Missing levels between the latest memoized day and t are filled in date
// order, so the chain never recurses.
func (c *Calculator) Level(v Variant, t civil.Date) (float64, error) {
	levels := c.levels[v]
	if val, ok := levels[t]; ok {
		return val, nil
	}

	var pending []civil.Date
	d := t
	for {
		if _, ok := levels[d]; ok {
			break
		}
		if d.Before(c.base.Date) {
			return 0, fmt.Errorf("%s on %s: %w %s", v, t, ErrBeforeBaseDate, c.base.Date)
		}
		if !c.cal.IsBusinessDay(d) {
			return 0, fmt.Errorf("%s on %s: %w", v, d, ErrNotBusinessDay)
		}
		pending = append(pending, d)
		d = c.cal.PriorBusinessDay(d)
	}

	prevLevel := levels[d]
	for k := len(pending) - 1; k >= 0; k-- {
		day := pending[k]
		growth, err := c.growth(v, day)
		if err != nil {
			return 0, fmt.Errorf("%s on %s: %w", v, day, err)
		}
		prevLevel *= 1 + growth
		levels[day] = prevLevel
		c.obs.DayComputed(v, Point{Date: day, Value: prevLevel})
	}
	return prevLevel, nil
}

func (c *Calculator) growth(v Variant, t civil.Date) (float64, error) {
	cdr, err := c.CDR(t)
	if err != nil {
		return 0, err
	}
	if v == ExcessReturn {
		return cdr, nil
	}
	tbr, err := c.TBR(t)
	if err != nil {
		return 0, err
	}
	return cdr + tbr, nil
}

// BuildTable returns the SPVXSTR series from the base date through end.
func (c *Calculator) BuildTable(end civil.Date) ([]Point, error) {
	return c.Series(TotalReturn, end)
}

// BuildExcessTable returns the SPVXSP series from the base date through end.
func (c *Calculator) BuildExcessTable(end civil.Date) ([]Point, error) {
	return c.Series(ExcessReturn, end)
}

// Series returns the base point followed by every business day after the
// base date through end, in ascending order.
func (c *Calculator) Series(v Variant, end civil.Date) ([]Point, error) {
	days := c.cal.BusinessDaysInclusive(c.base.Date.AddDays(1), end)
	out := make([]Point, 0, len(days)+1)
	out = append(out, c.base)
	for _, d := range days {
		val, err := c.Level(v, d)
		if err != nil {
			return nil, err
		}
		out = append(out, Point{Date: d, Value: val})
	}
	return out, nil
}

func (c *Calculator) dcrp(i int, t civil.Date) (float64, error) {
	q, err := c.prices.Resolve(i, t)
	if err != nil {
		return 0, err
	}
	c.obs.PriceResolved(i, t, q.Strategy)
	return q.Price, nil
}
