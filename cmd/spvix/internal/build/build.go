package build

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/meenmo/spvix/cmd/spvix/internal/setup"
	"github.com/meenmo/spvix/index"
	"github.com/meenmo/spvix/logging"
	"github.com/meenmo/spvix/metrics"
	"github.com/meenmo/spvix/provider"
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := setup.RegisterFlags(fs)
	series := fs.String("series", "tr", "tr (SPVXSTR) or er (SPVXSP)")
	endFlag := fs.String("end", "", "last date YYYY-MM-DD (default: last bar of the current month contract)")
	outPath := fs.String("out", "", "output CSV path (default stdout)")
	metricsPath := fs.String("metrics", "", "node exporter textfile (overrides config)")
	header := fs.Bool("header", false, "write a date,<ticker> header line")
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

	var variant index.Variant
	switch strings.ToLower(strings.TrimSpace(*series)) {
	case "tr", "spvxstr":
		variant = index.TotalReturn
	case "er", "spvxsp":
		variant = index.ExcessReturn
	default:
		fmt.Fprintf(stderr, "error: unknown -series %q\n", *series)
		return 2
	}

	cfg, err := common.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	log, err := setup.Logger(cfg, "build", stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	ctx := context.Background()
	tables, err := setup.LoadTables(ctx, cfg, provider.NewFiles(cfg.Data.Dir))
	if err != nil {
		log.WithError(err).Error("load tables")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	log.WithField("bars", tables.NumBars).WithField("rates", tables.NumRates).Info("tables loaded")

	var end civil.Date
	if strings.TrimSpace(*endFlag) != "" {
		if end, err = setup.ParseDate("end", *endFlag); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
	} else if end, err = tables.DefaultEnd(setup.Today()); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	rec := metrics.NewRecorder()
	calc, err := tables.Calculator(cfg, index.Observers(rec, logging.NewObserver(log, 0)))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	log.WithField("ticker", variant.Ticker()).
		WithField("from", calc.Base().Date.String()).
		WithField("to", end.String()).
		Info("calculating")
	points, err := calc.Series(variant, end)
	if err != nil {
		log.WithError(err).Error("calculation failed")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if err := writeOutput(*outPath, stdout, variant, points, cfg.Index.Decimals, *header); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	textfile := cfg.Metrics.Textfile
	if *metricsPath != "" {
		textfile = *metricsPath
	}
	if textfile != "" {
		if err := rec.WriteTextfile(textfile); err != nil {
			log.WithError(err).Warn("metrics not written")
		}
	}
	log.WithField("points", len(points)).Info("done")
	return 0
}

func writeOutput(path string, stdout io.Writer, v index.Variant, points []index.Point, decimals int32, header bool) error {
	w := stdout
	var f *os.File
	if path != "" {
		var err error
		if f, err = os.Create(path); err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := WriteSeries(w, v, points, decimals, header); err != nil {
		return err
	}
	if f != nil {
		return f.Close()
	}
	return nil
}

// WriteSeries writes one "date,value" line per point with the value rounded
// half away from zero to decimals places.
func WriteSeries(w io.Writer, v index.Variant, points []index.Point, decimals int32, header bool) error {
	bw := bufio.NewWriter(w)
	if header {
		fmt.Fprintf(bw, "date,%s\n", v.Ticker())
	}
	for _, p := range points {
		fmt.Fprintf(bw, "%s,%s\n", p.Date, decimal.NewFromFloat(p.Value).StringFixed(decimals))
	}
	return bw.Flush()
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  spvix build [-series tr|er] [-end YYYY-MM-DD] [-out file.csv]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recompute the index from the base date through -end and print date,value lines.")
}
