package futures

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/calendar"
	"github.com/meenmo/spvix/marketdata/cboe"
	"github.com/meenmo/spvix/settlement"
	"github.com/meenmo/spvix/utils"
)

// Repository holds futures bars grouped by contract month, each group sorted
// by date. It is built once and never modified.
type Repository struct {
	resolver *settlement.Resolver
	byMonth  map[cboe.ContractMonth][]Bar
	months   []cboe.ContractMonth
}

// NewRepository groups bars by contract month and sorts each group by date.
// The input slice is not retained.
func NewRepository(bars []Bar, resolver *settlement.Resolver) *Repository {
	byMonth := make(map[cboe.ContractMonth][]Bar)
	for _, b := range bars {
		byMonth[b.ContractMonth] = append(byMonth[b.ContractMonth], b)
	}
	months := make([]cboe.ContractMonth, 0, len(byMonth))
	for m, group := range byMonth {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Date.Before(group[j].Date)
		})
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
	return &Repository{resolver: resolver, byMonth: byMonth, months: months}
}

func (r *Repository) Resolver() *settlement.Resolver { return r.resolver }

// Months lists the contract months present, ascending.
func (r *Repository) Months() []cboe.ContractMonth {
	return append([]cboe.ContractMonth(nil), r.months...)
}

// BarsByMonth returns the sorted bars of the (year, month) contract, or nil
// when no such contract was loaded. Callers must not modify the slice.
func (r *Repository) BarsByMonth(year int, month time.Month) []Bar {
	return r.byMonth[cboe.NewContractMonth(year, month)]
}

// LastDate is the date of the latest bar of the (year, month) contract.
func (r *Repository) LastDate(year int, month time.Month) (civil.Date, bool) {
	bars := r.BarsByMonth(year, month)
	if len(bars) == 0 {
		return civil.Date{}, false
	}
	return bars[len(bars)-1].Date, true
}

// ContractMonth picks the contract month holding the i-th contract on d.
// Bars roll to the next month from the start of the roll period, the day
// before settlement.
func (r *Repository) ContractMonth(i int, d civil.Date) (cboe.ContractMonth, error) {
	if i < 1 {
		return 0, fmt.Errorf("eod bar for %s: %w: %d (must be >= 1)", d, settlement.ErrInvalidContractIndex, i)
	}
	offset := i
	if d.Before(r.resolver.RollStart(d.Year, d.Month)) {
		offset = i - 1
	}
	y, m := calendar.AddMonths(d.Year, d.Month, offset)
	return cboe.NewContractMonth(y, m), nil
}

// EodBar returns the bar of the i-th contract (i >= 1) dated exactly d. The
// second result is false when no bar exists for that date or when the row
// is the unlisted placeholder.
func (r *Repository) EodBar(i int, d civil.Date) (Bar, bool, error) {
	month, err := r.ContractMonth(i, d)
	if err != nil {
		return Bar{}, false, err
	}
	bars := r.byMonth[month]
	idx, ok := utils.BinarySearch(bars, func(b Bar) int {
		return calendar.Compare(d, b.Date)
	})
	if !ok || bars[idx].Unlisted() {
		return Bar{}, false, nil
	}
	return bars[idx], true, nil
}
