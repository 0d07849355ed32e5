package futures

import (
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/spvix/calendar"
	"github.com/meenmo/spvix/marketdata/cboe"
	"github.com/meenmo/spvix/settlement"
)

func d(y int, m time.Month, day int) civil.Date { return calendar.Date(y, m, day) }

func listed(date civil.Date, month cboe.ContractMonth, settle float64) Bar {
	return Bar{
		Date: date, ContractMonth: month,
		Open: settle, High: settle, Low: settle, Close: settle, Settle: settle,
		Volume: 100, OpenInterest: 1000,
	}
}

func newRepo(bars ...Bar) *Repository {
	return NewRepository(bars, settlement.NewResolver(calendar.NewCBOE()))
}

func TestBarUnlisted(t *testing.T) {
	t.Parallel()

	assert.True(t, Bar{Date: d(2014, 1, 2), ContractMonth: 201409}.Unlisted())
	assert.True(t, Bar{Change: 0.5}.Unlisted(), "change is not part of the placeholder test")
	assert.False(t, Bar{OpenInterest: 1}.Unlisted())
	assert.False(t, listed(d(2014, 1, 2), 201401, 14).Unlisted())
}

func TestRepositoryGroupsAndSorts(t *testing.T) {
	t.Parallel()

	repo := newRepo(
		listed(d(2014, 1, 3), 201402, 15),
		listed(d(2014, 1, 2), 201402, 14),
		listed(d(2014, 1, 2), 201401, 13),
	)
	assert.Equal(t, []cboe.ContractMonth{201401, 201402}, repo.Months())

	feb := repo.BarsByMonth(2014, time.February)
	require.Len(t, feb, 2)
	assert.Equal(t, d(2014, 1, 2), feb[0].Date)
	assert.Equal(t, d(2014, 1, 3), feb[1].Date)
	assert.Nil(t, repo.BarsByMonth(2014, time.March))

	last, ok := repo.LastDate(2014, time.February)
	require.True(t, ok)
	assert.Equal(t, d(2014, 1, 3), last)
	_, ok = repo.LastDate(2015, time.February)
	assert.False(t, ok)
}

func TestEodBar(t *testing.T) {
	t.Parallel()

	repo := newRepo(
		listed(d(2014, 1, 17), 201401, 12.5),
		listed(d(2014, 1, 17), 201402, 13.5),
		listed(d(2014, 1, 21), 201402, 14.0),
		listed(d(2014, 1, 21), 201403, 15.0),
		Bar{Date: d(2014, 1, 21), ContractMonth: 201404},
	)

	tests := []struct {
		i      int
		date   civil.Date
		ok     bool
		settle float64
	}{
		{1, d(2014, 1, 17), true, 12.5},
		{2, d(2014, 1, 17), true, 13.5},
		// the roll period starts the day before settlement
		{1, d(2014, 1, 21), true, 14.0},
		{2, d(2014, 1, 21), true, 15.0},
		{3, d(2014, 1, 21), false, 0}, // unlisted placeholder
		{1, d(2014, 1, 20), false, 0}, // no row
		{4, d(2014, 1, 21), false, 0}, // no contract
	}
	for _, tc := range tests {
		bar, ok, err := repo.EodBar(tc.i, tc.date)
		require.NoError(t, err)
		if ok != tc.ok || bar.Settle != tc.settle {
			t.Fatalf("EodBar(%d, %s) = (%v, %v), want (%v, %v)", tc.i, tc.date, bar.Settle, ok, tc.settle, tc.ok)
		}
	}

	_, _, err := repo.EodBar(0, d(2014, 1, 21))
	require.Error(t, err)
	assert.True(t, errors.Is(err, settlement.ErrInvalidContractIndex))
}

func TestEodBarOnSettlementDate(t *testing.T) {
	t.Parallel()

	resolver := settlement.NewResolver(calendar.NewCBOE())
	type lookup struct {
		i     int
		date  civil.Date
		month cboe.ContractMonth
	}
	var (
		bars    []Bar
		lookups []lookup
	)
	for y := 2012; y <= 2015; y++ {
		for m := time.January; m <= time.December; m++ {
			s := resolver.SettlementDate(y, m)
			for i := 1; i <= 3; i++ {
				c, err := resolver.ContractMonth(i, s)
				require.NoError(t, err)
				bars = append(bars, listed(s, c, 10+float64(i)))
				lookups = append(lookups, lookup{i, s, c})
			}
		}
	}
	repo := NewRepository(bars, resolver)

	for _, l := range lookups {
		bar, ok, err := repo.EodBar(l.i, l.date)
		require.NoError(t, err)
		require.True(t, ok, "EodBar(%d, %s)", l.i, l.date)
		assert.Equal(t, l.date, bar.Date)
		assert.Equal(t, l.month, bar.ContractMonth, "EodBar(%d, %s)", l.i, l.date)
	}
}

func TestRepositoryContractMonthDiffersFromSettlementRule(t *testing.T) {
	t.Parallel()

	repo := newRepo()
	// 2014-01-21 is the day before the January settlement: bars have rolled
	// while the settlement-date lookup has not.
	c, err := repo.ContractMonth(1, d(2014, 1, 21))
	require.NoError(t, err)
	assert.Equal(t, cboe.ContractMonth(201402), c)

	s, err := repo.Resolver().ContractMonth(1, d(2014, 1, 21))
	require.NoError(t, err)
	assert.Equal(t, cboe.ContractMonth(201401), s)
}

// On 2014-01-17 contracts 1..4 are Jan, Feb, Mar and Apr 2014, settling
// 01-22, 02-19, 03-18 and 04-16. Business days: [01-22, 02-19) = 19,
// [02-19, 03-18) = 19, [03-18, 04-16) = 21.
var trade = d(2014, 1, 17)

func TestResolveListed(t *testing.T) {
	t.Parallel()

	p := NewPriceResolver(newRepo(listed(trade, 201401, 15)))
	q, err := p.Resolve(1, trade)
	require.NoError(t, err)
	assert.Equal(t, Quote{Price: 15, Strategy: Listed}, q)

	x, err := p.DCRP(1, trade)
	require.NoError(t, err)
	assert.Equal(t, 15.0, x)
}

func TestResolveBracketed(t *testing.T) {
	t.Parallel()

	p := NewPriceResolver(newRepo(
		listed(trade, 201401, 15),
		Bar{Date: trade, ContractMonth: 201402},
		listed(trade, 201403, 17),
	))
	q, err := p.Resolve(2, trade)
	require.NoError(t, err)
	assert.Equal(t, Bracketed, q.Strategy)
	assert.InDelta(t, math.Sqrt(225+19.0/38*(289-225)), q.Price, 1e-9)
}

func TestResolveSkipped(t *testing.T) {
	t.Parallel()

	p := NewPriceResolver(newRepo(
		listed(trade, 201401, 15),
		listed(trade, 201404, 19),
	))
	q, err := p.Resolve(2, trade)
	require.NoError(t, err)
	assert.Equal(t, Skipped, q.Strategy)
	assert.InDelta(t, math.Sqrt(225+19.0/59*(361-225)), q.Price, 1e-9)
}

func TestResolveExtrapolated(t *testing.T) {
	t.Parallel()

	p := NewPriceResolver(newRepo(
		listed(trade, 201401, 15),
		listed(trade, 201402, 16),
	))
	q, err := p.Resolve(3, trade)
	require.NoError(t, err)
	assert.Equal(t, Extrapolated, q.Strategy)
	assert.InDelta(t, math.Sqrt(256+19.0/19*(256-225)), q.Price, 1e-9)
}

func TestResolveExtrapolatedNegativeSquareKeepsSign(t *testing.T) {
	t.Parallel()

	p := NewPriceResolver(newRepo(
		listed(trade, 201401, 30),
		listed(trade, 201402, 10),
	))
	q, err := p.Resolve(3, trade)
	require.NoError(t, err)
	// 100 + (100 - 900) = -700
	assert.InDelta(t, -math.Sqrt(700), q.Price, 1e-9)
	assert.False(t, math.IsNaN(q.Price))
}

func TestResolveFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bars []Bar
		i    int
		want error
	}{
		{"front month missing", []Bar{listed(trade, 201402, 16)}, 1, ErrMissingFrontMonth},
		{"neighbour missing", []Bar{listed(trade, 201401, 15)}, 3, ErrInterpolationImpossible},
		{"no contract before front month", []Bar{listed(trade, 201401, 15)}, 2, ErrInterpolationImpossible},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPriceResolver(newRepo(tc.bars...)).Resolve(tc.i, trade)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), err)
		})
	}

	_, err := NewPriceResolver(newRepo()).Resolve(0, trade)
	assert.True(t, errors.Is(err, settlement.ErrInvalidContractIndex))
}

func TestStrategyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "listed", Listed.String())
	assert.Equal(t, "bracketed", Bracketed.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "extrapolated", Extrapolated.String())
	assert.Equal(t, "Strategy(9)", Strategy(9).String())
}
