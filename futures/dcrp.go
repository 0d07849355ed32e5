package futures

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/utils"
)

var (
	// ErrMissingFrontMonth is returned when the front month contract has no
	// quote; the methodology has nothing to interpolate it from.
	ErrMissingFrontMonth = errors.New("front month contract not listed")
	// ErrInterpolationImpossible is returned when no pair of neighbouring
	// contracts is listed.
	ErrInterpolationImpossible = errors.New("cannot interpolate contract price")
)

// Strategy records how a reference price was obtained.
type Strategy int

const (
	// Listed is the contract's own settlement price.
	Listed Strategy = iota
	// Bracketed interpolates between contracts i-1 and i+1.
	Bracketed
	// Skipped interpolates between contracts i-1 and i+2.
	Skipped
	// Extrapolated extends the curve from contracts i-2 and i-1.
	Extrapolated
)

func (s Strategy) String() string {
	switch s {
	case Listed:
		return "listed"
	case Bracketed:
		return "bracketed"
	case Skipped:
		return "skipped"
	case Extrapolated:
		return "extrapolated"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Quote is a daily contract reference price.
type Quote struct {
	Price    float64
	Strategy Strategy
}

// PriceResolver computes the daily contract reference price (DCRP).
type PriceResolver struct {
	bars *Repository
}

func NewPriceResolver(bars *Repository) *PriceResolver {
	return &PriceResolver{bars: bars}
}

func (p *PriceResolver) Repository() *Repository { return p.bars }

// DCRP returns the reference price of the i-th contract (i >= 1) on t.
func (p *PriceResolver) DCRP(i int, t civil.Date) (float64, error) {
	q, err := p.Resolve(i, t)
	return q.Price, err
}

// Resolve returns the settlement price of the i-th contract on t. When that
// contract is not listed the price is interpolated in variance space between
// listed neighbours, weighted by business days between settlement dates:
//
//	x² = pa² + bd(ta, ti)/bd(ta, tb) · (pb² − pa²)
//
// trying (i-1, i+1), then (i-1, i+2), then extrapolating from (i-2, i-1).
func (p *PriceResolver) Resolve(i int, t civil.Date) (Quote, error) {
	bar, ok, err := p.bars.EodBar(i, t)
	if err != nil {
		return Quote{}, err
	}
	if ok {
		return Quote{Price: bar.Settle, Strategy: Listed}, nil
	}
	if i == 1 {
		return Quote{}, fmt.Errorf("dcrp(1, %s): %w", t, ErrMissingFrontMonth)
	}

	prev, prevOK, err := p.bars.EodBar(i-1, t)
	if err != nil {
		return Quote{}, err
	}
	next, nextOK, err := p.bars.EodBar(i+1, t)
	if err != nil {
		return Quote{}, err
	}
	after, afterOK, err := p.bars.EodBar(i+2, t)
	if err != nil {
		return Quote{}, err
	}

	switch {
	case prevOK && nextOK:
		x, err := p.interpolate(t, i, i-1, prev.Settle, i+1, next.Settle)
		return Quote{Price: x, Strategy: Bracketed}, err
	case prevOK && afterOK:
		x, err := p.interpolate(t, i, i-1, prev.Settle, i+2, after.Settle)
		return Quote{Price: x, Strategy: Skipped}, err
	}

	if !prevOK {
		return Quote{}, fmt.Errorf("dcrp(%d, %s): %w: contract %d not listed", i, t, ErrInterpolationImpossible, i-1)
	}
	if i-2 < 1 {
		return Quote{}, fmt.Errorf("dcrp(%d, %s): %w: no contract before %d to extrapolate from", i, t, ErrInterpolationImpossible, i-1)
	}
	prev2, prev2OK, err := p.bars.EodBar(i-2, t)
	if err != nil {
		return Quote{}, err
	}
	if !prev2OK {
		return Quote{}, fmt.Errorf("dcrp(%d, %s): %w: contract %d not listed", i, t, ErrInterpolationImpossible, i-2)
	}
	x, err := p.extrapolate(t, i, prev2.Settle, prev.Settle)
	return Quote{Price: x, Strategy: Extrapolated}, err
}

func (p *PriceResolver) interpolate(t civil.Date, i, a int, pa float64, b int, pb float64) (float64, error) {
	dates, err := p.settlementDates(t, a, i, b)
	if err != nil {
		return 0, err
	}
	ta, ti, tb := dates[0], dates[1], dates[2]
	cal := p.bars.resolver.Calendar()
	span := cal.CountBusinessDays(ta, tb)
	if span == 0 {
		return 0, fmt.Errorf("dcrp(%d, %s): %w: contracts %d and %d settle on %s", i, t, ErrInterpolationImpossible, a, b, ta)
	}
	frac := float64(cal.CountBusinessDays(ta, ti)) / float64(span)
	return utils.SignedPow(pa*pa+frac*(pb*pb-pa*pa), 0.5), nil
}

func (p *PriceResolver) extrapolate(t civil.Date, i int, p2, p1 float64) (float64, error) {
	dates, err := p.settlementDates(t, i-2, i-1, i)
	if err != nil {
		return 0, err
	}
	t2, t1, ti := dates[0], dates[1], dates[2]
	cal := p.bars.resolver.Calendar()
	span := cal.CountBusinessDays(t2, t1)
	if span == 0 {
		return 0, fmt.Errorf("dcrp(%d, %s): %w: contracts %d and %d settle on %s", i, t, ErrInterpolationImpossible, i-2, i-1, t2)
	}
	frac := float64(cal.CountBusinessDays(t1, ti)) / float64(span)
	return utils.SignedPow(p1*p1+frac*(p1*p1-p2*p2), 0.5), nil
}

func (p *PriceResolver) settlementDates(t civil.Date, contracts ...int) ([]civil.Date, error) {
	out := make([]civil.Date, len(contracts))
	for k, c := range contracts {
		d, err := p.bars.resolver.ContractSettlementDate(c, t)
		if err != nil {
			return nil, fmt.Errorf("dcrp on %s: %w", t, err)
		}
		out[k] = d
	}
	return out, nil
}
