package inspect

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/meenmo/spvix/calendar"
	"github.com/meenmo/spvix/cmd/spvix/internal/setup"
	"github.com/meenmo/spvix/futures"
	"github.com/meenmo/spvix/index"
	"github.com/meenmo/spvix/provider"
	"github.com/meenmo/spvix/settlement"
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := setup.RegisterFlags(fs)
	dateFlag := fs.String("date", "", "date to inspect YYYY-MM-DD (required)")
	gridOnly := fs.Bool("calendar", false, "print the calendar grids only; no data files needed")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		fs.PrintDefaults()
		return 0
	}
	if strings.TrimSpace(*dateFlag) == "" {
		usage(stderr)
		return 2
	}
	t, err := setup.ParseDate("date", *dateFlag)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	cfg, err := common.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	cal, err := calendar.ForID(calendar.CalendarID(cfg.Index.Calendar))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	WriteGrids(stdout, settlement.NewResolver(cal), t)
	if *gridOnly {
		return 0
	}

	log, err := setup.Logger(cfg, "inspect", stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	tables, err := setup.LoadTables(context.Background(), cfg, provider.NewFiles(cfg.Data.Dir))
	if err != nil {
		log.WithError(err).Error("load tables")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	calc, err := tables.Calculator(cfg, nil)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	b, err := calc.Explain(t)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	WriteBreakdown(stdout, b)
	return 0
}

// WriteGrids prints the months before, of and the two after t.
func WriteGrids(w io.Writer, res *settlement.Resolver, t civil.Date) {
	for n := -1; n <= 2; n++ {
		year, month := calendar.AddMonths(t.Year, t.Month, n)
		WriteMonth(w, res, year, month, t)
		fmt.Fprintln(w)
	}
}

// WriteMonth prints one month with Monday-first rows. Day markers: H for a
// CBOE holiday, * for current, S for the month's settlement date.
func WriteMonth(w io.Writer, res *settlement.Resolver, year int, month time.Month, current civil.Date) {
	cal := res.Calendar()
	first := calendar.FirstDayOfMonth(year, month)
	last := first.AddDays(calendar.DaysInMonth(year, month) - 1)
	settle := res.SettlementDate(year, month)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d/%d\n", year, int(month))
	sb.WriteString(" Mon | Tue | Wed | Thu | Fri | Sat | Sun |\n")
	sb.WriteString(strings.Repeat(" ", 6*(int(calendar.DayOfWeek(first))-1)))
	for _, d := range calendar.SeriesInclusive(first, last) {
		mark := ' '
		switch {
		case cal.IsHoliday(d):
			mark = 'H'
		case d == current:
			mark = '*'
		case d == settle:
			mark = 'S'
		}
		fmt.Fprintf(&sb, "%4d%c|", d.Day, mark)
		if calendar.DayOfWeek(d) == calendar.Sunday {
			sb.WriteByte('\n')
		}
	}
	if calendar.DayOfWeek(last) != calendar.Sunday {
		sb.WriteByte('\n')
	}
	io.WriteString(w, sb.String())
}

// WriteBreakdown prints every quantity behind the index step into b.Date.
func WriteBreakdown(w io.Writer, b index.Breakdown) {
	fmt.Fprintf(w, "t                         = %s\n", b.Date)
	fmt.Fprintf(w, "t-1                       = %s\n", b.Prior)
	for k := 0; k < 2; k++ {
		fmt.Fprintf(w, "settlement(%d, t)          = %s\n", k+1, b.Settlement[k])
	}
	fmt.Fprintf(w, "roll period               = %s\n", b.RollPeriod)
	for k := 0; k < 2; k++ {
		fmt.Fprintf(w, "bar(%d, t)                 = %s\n", k+1, formatBar(b.Bars[k]))
	}
	for k := 0; k < 2; k++ {
		fmt.Fprintf(w, "dcrp(%d, t-1)              = %s\n", k+1, formatQuote(b.PriorQuotes[k]))
	}
	for k := 0; k < 2; k++ {
		fmt.Fprintf(w, "dcrp(%d, t)                = %s\n", k+1, formatQuote(b.Quotes[k]))
	}
	fmt.Fprintf(w, "dr(t-1) / dt(t-1)         = %d / %d\n", b.PriorRemaining, b.PriorTotal)
	fmt.Fprintf(w, "dr(t) / dt(t)             = %d / %d\n", b.Remaining, b.Total)
	fmt.Fprintf(w, "tr(t-1) * (1 + cdr + tbr) = %v * (1 + %v + %v) = %v\n", b.PriorLevel, b.CDR, b.TBR, b.Level)
}

func formatBar(b *futures.Bar) string {
	if b == nil {
		return "not listed"
	}
	return fmt.Sprintf("%s %s settle=%v volume=%d oi=%d", b.Date, b.ContractMonth.Label(), b.Settle, b.Volume, b.OpenInterest)
}

func formatQuote(q futures.Quote) string {
	if q.Strategy == futures.Listed {
		return fmt.Sprintf("%v", q.Price)
	}
	return fmt.Sprintf("%v (%s)", q.Price, q.Strategy)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  spvix inspect -date YYYY-MM-DD [-calendar]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the surrounding calendar grids and the inputs of the index step into -date.")
}
