package treasury

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/calendar"
)

// ErrMissingRateData is returned when the weekly backward search runs past
// its lookback bound without finding a published rate.
var ErrMissingRateData = errors.New("no t-bill rate within lookback")

// DefaultMaxLookbackWeeks bounds the weekly backward search to one year.
const DefaultMaxLookbackWeeks = 52

// Rate is a 13-week bill discount rate as a decimal fraction (0.03 is 3%).
type Rate struct {
	Date civil.Date
	Rate float64
}

// RateFeed supplies bill rates by exact date.
type RateFeed interface {
	RateOn(date civil.Date) (float64, bool)
}

// MapRateFeed is a map-backed feed built once from the rate table.
type MapRateFeed struct {
	rates map[civil.Date]float64
}

// NewMapRateFeed indexes rates by date; a later entry for the same date wins.
func NewMapRateFeed(rates []Rate) *MapRateFeed {
	m := make(map[civil.Date]float64, len(rates))
	for _, r := range rates {
		m[r.Date] = r.Rate
	}
	return &MapRateFeed{rates: m}
}

func (m *MapRateFeed) RateOn(date civil.Date) (float64, bool) {
	val, ok := m.rates[date]
	return val, ok
}

func (m *MapRateFeed) Len() int { return len(m.rates) }

// WeeklyHigh finds the most recent weekly auction high rate in effect at
// weekEnd. Treasury announces on Mondays, so the lookup date is the Monday
// on or before weekEnd; on a holiday Monday the previous Monday's rate
// applies. Missing weeks are skipped backwards up to maxWeeks times.
type WeeklyHigh struct {
	feed     RateFeed
	cal      *calendar.Calendar
	maxWeeks int
}

func NewWeeklyHigh(feed RateFeed, cal *calendar.Calendar, maxWeeks int) *WeeklyHigh {
	if maxWeeks <= 0 {
		maxWeeks = DefaultMaxLookbackWeeks
	}
	return &WeeklyHigh{feed: feed, cal: cal, maxWeeks: maxWeeks}
}

// RateAt returns the rate and the number of weeks searched back to find it.
func (w *WeeklyHigh) RateAt(weekEnd civil.Date) (float64, int, error) {
	d := weekEnd
	for weeks := 0; weeks <= w.maxWeeks; weeks++ {
		monday := calendar.NthWeekdayAtOrBefore(1, calendar.Monday, d)
		if w.cal.IsHoliday(monday) {
			monday = calendar.NthWeekdayBefore(1, calendar.Monday, monday)
		}
		if rate, ok := w.feed.RateOn(monday); ok {
			return rate, weeks, nil
		}
		d = monday.AddDays(-7)
	}
	return 0, w.maxWeeks, fmt.Errorf("weekly high rate for %s: %w: searched %d weeks back", weekEnd, ErrMissingRateData, w.maxWeeks)
}
