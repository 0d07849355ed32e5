package inspect

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/spvix/calendar"
	"github.com/meenmo/spvix/futures"
	"github.com/meenmo/spvix/index"
	"github.com/meenmo/spvix/settlement"
)

func TestWriteMonth(t *testing.T) {
	t.Parallel()

	res := settlement.NewResolver(calendar.NewCBOE())
	var buf bytes.Buffer
	WriteMonth(&buf, res, 2014, time.January, civil.Date{Year: 2014, Month: time.January, Day: 16})

	want := "2014/1\n" +
		" Mon | Tue | Wed | Thu | Fri | Sat | Sun |\n" +
		"               1H|   2 |   3 |   4 |   5 |\n" +
		"   6 |   7 |   8 |   9 |  10 |  11 |  12 |\n" +
		"  13 |  14 |  15 |  16*|  17 |  18 |  19 |\n" +
		"  20H|  21 |  22S|  23 |  24 |  25 |  26 |\n" +
		"  27 |  28 |  29 |  30 |  31 |\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteMonthEndingOnSunday(t *testing.T) {
	t.Parallel()

	res := settlement.NewResolver(calendar.NewCBOE())
	var buf bytes.Buffer
	// August 2014 ends on a Sunday
	WriteMonth(&buf, res, 2014, time.August, civil.Date{})
	assert.True(t, strings.HasSuffix(buf.String(), "  31 |\n"))
	assert.False(t, strings.HasSuffix(buf.String(), "\n\n"))
}

func TestWriteGrids(t *testing.T) {
	t.Parallel()

	res := settlement.NewResolver(calendar.NewCBOE())
	var buf bytes.Buffer
	WriteGrids(&buf, res, civil.Date{Year: 2014, Month: time.January, Day: 16})
	out := buf.String()
	for _, month := range []string{"2013/12\n", "2014/1\n", "2014/2\n", "2014/3\n"} {
		assert.Contains(t, out, month)
	}
	assert.NotContains(t, out, "2014/4\n")
}

func TestWriteBreakdown(t *testing.T) {
	t.Parallel()

	d := func(day int) civil.Date { return civil.Date{Year: 2014, Month: time.January, Day: day} }
	jan := futures.Bar{Date: d(16), ContractMonth: 201401, Settle: 12.5, Volume: 10, OpenInterest: 100}
	b := index.Breakdown{
		Date:        d(16),
		Prior:       d(15),
		Settlement:  [2]civil.Date{d(22), {Year: 2014, Month: time.February, Day: 19}},
		RollPeriod:  settlement.RollPeriod{Start: civil.Date{Year: 2013, Month: time.December, Day: 17}, End: d(21)},
		Bars:        [2]*futures.Bar{&jan, nil},
		PriorQuotes: [2]futures.Quote{{Price: 13}, {Price: 14.5}},
		Quotes:      [2]futures.Quote{{Price: 12.5}, {Price: 14, Strategy: futures.Bracketed}},
		Remaining:   2,
		Total:       22,
	}

	var buf bytes.Buffer
	WriteBreakdown(&buf, b)
	out := buf.String()
	assert.Contains(t, out, "t-1                       = 2014-01-15\n")
	assert.Contains(t, out, "settlement(2, t)          = 2014-02-19\n")
	assert.Contains(t, out, "roll period               = [2013-12-17, 2014-01-21)\n")
	assert.Contains(t, out, "bar(1, t)                 = 2014-01-16 F (Jan 14) settle=12.5 volume=10 oi=100\n")
	assert.Contains(t, out, "bar(2, t)                 = not listed\n")
	assert.Contains(t, out, "dcrp(2, t)                = 14 (bracketed)\n")
	assert.Contains(t, out, "dr(t) / dt(t)             = 2 / 22\n")
}

func TestRunCalendarOnly(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"-date", "2014-01-16", "-calendar"}, nil, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "  16*|")

	assert.Equal(t, 2, Run(nil, nil, &stdout, &stderr))
	assert.Equal(t, 2, Run([]string{"-date", "01/16/2014"}, nil, &stdout, &stderr))
}
