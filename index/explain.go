package index

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/futures"
	"github.com/meenmo/spvix/settlement"
)

// Breakdown lists the intermediate quantities of one index step.
type Breakdown struct {
	Date           civil.Date
	Prior          civil.Date
	Settlement     [2]civil.Date // contracts 1 and 2, relative to Date
	RollPeriod     settlement.RollPeriod
	Bars           [2]*futures.Bar // contracts 1 and 2 on Date; nil when unlisted
	PriorQuotes    [2]futures.Quote
	Quotes         [2]futures.Quote
	PriorRemaining int // dr(t-1)
	PriorTotal     int // dt(t-1)
	Remaining      int // dr(t)
	Total          int // dt(t)
	CDR            float64
	TBR            float64
	PriorLevel     float64
	Level          float64
}

// Explain evaluates the total-return step into t and reports every input.
func (c *Calculator) Explain(t civil.Date) (Breakdown, error) {
	b := Breakdown{
		Date:       t,
		Prior:      c.cal.PriorBusinessDay(t),
		RollPeriod: c.resolver.RollPeriodForDate(t),
	}
	bars := c.prices.Repository()
	for k := 0; k < 2; k++ {
		var err error
		if b.Settlement[k], err = c.resolver.ContractSettlementDate(k+1, t); err != nil {
			return b, err
		}
		bar, ok, err := bars.EodBar(k+1, t)
		if err != nil {
			return b, err
		}
		if ok {
			b.Bars[k] = &bar
		}
		if b.PriorQuotes[k], err = c.prices.Resolve(k+1, b.Prior); err != nil {
			return b, fmt.Errorf("explain %s: %w", t, err)
		}
		if b.Quotes[k], err = c.prices.Resolve(k+1, t); err != nil {
			return b, fmt.Errorf("explain %s: %w", t, err)
		}
	}
	b.PriorRemaining = c.resolver.RemainingDays(b.Prior)
	b.PriorTotal = c.resolver.TotalDays(b.Prior)
	b.Remaining = c.resolver.RemainingDays(t)
	b.Total = c.resolver.TotalDays(t)

	var err error
	if b.CDR, err = c.CDR(t); err != nil {
		return b, err
	}
	if b.TBR, err = c.TBR(t); err != nil {
		return b, err
	}
	if b.PriorLevel, err = c.Level(TotalReturn, b.Prior); err != nil {
		return b, err
	}
	b.Level = b.PriorLevel * (1 + b.CDR + b.TBR)
	return b, nil
}
