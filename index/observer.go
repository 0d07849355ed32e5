package index

import (
	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/futures"
)

// Observer receives progress callbacks while levels are computed.
type Observer interface {
	// DayComputed fires once per newly memoized level.
	DayComputed(v Variant, p Point)
	// PriceResolved fires for every reference price used.
	PriceResolved(contract int, t civil.Date, s futures.Strategy)
	// RateResolved fires for every bill rate used; weeksBack counts the
	// missing weeks skipped.
	RateResolved(weekEnd civil.Date, weeksBack int)
}

type nopObserver struct{}

func (nopObserver) DayComputed(Variant, Point)                      {}
func (nopObserver) PriceResolved(int, civil.Date, futures.Strategy) {}
func (nopObserver) RateResolved(civil.Date, int)                    {}

// Observers fans callbacks out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var out multiObserver
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) DayComputed(v Variant, p Point) {
	for _, o := range m {
		o.DayComputed(v, p)
	}
}

func (m multiObserver) PriceResolved(contract int, t civil.Date, s futures.Strategy) {
	for _, o := range m {
		o.PriceResolved(contract, t, s)
	}
}

func (m multiObserver) RateResolved(weekEnd civil.Date, weeksBack int) {
	for _, o := range m {
		o.RateResolved(weekEnd, weeksBack)
	}
}
