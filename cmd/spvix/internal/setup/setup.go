// Package setup holds the flag, config and table loading shared by the
// spvix subcommands.
package setup

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"

	"github.com/meenmo/spvix/calendar"
	"github.com/meenmo/spvix/config"
	"github.com/meenmo/spvix/futures"
	"github.com/meenmo/spvix/index"
	"github.com/meenmo/spvix/logging"
	"github.com/meenmo/spvix/marketdata/treasury"
	"github.com/meenmo/spvix/provider"
	"github.com/meenmo/spvix/settlement"
)

// ErrNoBars is returned when the default end date cannot be derived.
var ErrNoBars = errors.New("no futures bars for the current month contract")

// Flags are the options every subcommand accepts.
type Flags struct {
	ConfigPath string
	EnvFile    string
	DataDir    string
	LogLevel   string
}

func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "YAML config file (optional)")
	fs.StringVar(&f.EnvFile, "env", ".env", "dotenv file loaded before SPVIX_* overrides")
	fs.StringVar(&f.DataDir, "data", "", "data directory (overrides config)")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level (overrides config)")
	return f
}

// Load resolves the config: defaults, file, .env, environment, then flags.
func (f *Flags) Load() (config.Config, error) {
	cfg, err := config.Load(f.ConfigPath, f.EnvFile)
	if err != nil {
		return config.Config{}, err
	}
	if strings.TrimSpace(f.DataDir) != "" {
		cfg.Data.Dir = f.DataDir
	}
	if strings.TrimSpace(f.LogLevel) != "" {
		cfg.Logging.Level = f.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Logger builds the run's log entry on stderr (or the configured file).
func Logger(cfg config.Config, command string, stderr io.Writer) (*logrus.Entry, error) {
	logger, err := logging.New(cfg.Logging, stderr)
	if err != nil {
		return nil, err
	}
	return logging.WithRun(logger, command), nil
}

// Tables are the loaded, read-only inputs of a calculation.
type Tables struct {
	Calendar *calendar.Calendar
	Resolver *settlement.Resolver
	Bars     *futures.Repository
	Rates    *treasury.WeeklyHigh
	NumBars  int
	NumRates int
}

// LoadTables reads both CSV tables from the data directory.
func LoadTables(ctx context.Context, cfg config.Config, p provider.Provider) (*Tables, error) {
	cal, err := calendar.ForID(calendar.CalendarID(cfg.Index.Calendar))
	if err != nil {
		return nil, err
	}
	bars, err := p.FuturesBars(ctx)
	if err != nil {
		return nil, fmt.Errorf("load futures: %w", err)
	}
	rates, err := p.TBillRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load t-bill rates: %w", err)
	}
	resolver := settlement.NewResolver(cal)
	return &Tables{
		Calendar: cal,
		Resolver: resolver,
		Bars:     futures.NewRepository(bars, resolver),
		Rates:    treasury.NewWeeklyHigh(treasury.NewMapRateFeed(rates), cal, cfg.Rates.MaxLookbackWeeks),
		NumBars:  len(bars),
		NumRates: len(rates),
	}, nil
}

// Calculator builds an index calculator over the tables.
func (t *Tables) Calculator(cfg config.Config, obs index.Observer) (*index.Calculator, error) {
	base, err := cfg.BaseDate()
	if err != nil {
		return nil, err
	}
	return index.NewCalculator(t.Bars, t.Rates, index.Options{
		BaseDate:  base,
		BaseValue: cfg.Index.BaseValue,
		Observer:  obs,
	}), nil
}

// DefaultEnd is the last trade date of the contract expiring in today's
// month, i.e. the most recent date the futures file covers.
func (t *Tables) DefaultEnd(today civil.Date) (civil.Date, error) {
	d, ok := t.Bars.LastDate(today.Year, today.Month)
	if !ok {
		return civil.Date{}, fmt.Errorf("%w: %d-%02d", ErrNoBars, today.Year, int(today.Month))
	}
	return d, nil
}

// ParseDate reads a YYYY-MM-DD flag value.
func ParseDate(name, s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid -%s %q: want YYYY-MM-DD", name, s)
	}
	return d, nil
}

// Today is the local calendar date.
func Today() civil.Date { return civil.DateOf(time.Now()) }
