// Package provider loads the futures and t-bill tables the index is computed
// from, either from CSV files in a data directory or by downloading them.
package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meenmo/spvix/futures"
	"github.com/meenmo/spvix/marketdata/cboe"
	"github.com/meenmo/spvix/marketdata/treasury"
	"github.com/meenmo/spvix/utils"
)

const (
	FuturesFileName = "vix_futures.csv"
	RatesFileName   = "tbill13week.csv"
)

// ErrInvalidNumber is returned for a numeric CSV field that does not parse.
var ErrInvalidNumber = errors.New("invalid numeric field")

// ParseError locates a bad token in a source file.
type ParseError struct {
	File  string
	Line  int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %q: %v", e.File, e.Line, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Provider supplies the raw tables.
type Provider interface {
	FuturesBars(ctx context.Context) ([]futures.Bar, error)
	TBillRates(ctx context.Context) ([]treasury.Rate, error)
}

// Files reads vix_futures.csv and tbill13week.csv from Dir.
type Files struct {
	Dir string
}

func NewFiles(dir string) *Files { return &Files{Dir: dir} }

func (f *Files) FuturesPath() string { return filepath.Join(f.Dir, FuturesFileName) }
func (f *Files) RatesPath() string   { return filepath.Join(f.Dir, RatesFileName) }

func (f *Files) FuturesBars(ctx context.Context) ([]futures.Bar, error) {
	var bars []futures.Bar
	err := readCSV(ctx, f.FuturesPath(), func(line int, rec []string) error {
		// Disclaimer and header lines precede the rows in CFE files.
		if len(rec) == 0 || !utils.LooksLikeSlashDate(strings.TrimSpace(rec[0])) {
			return nil
		}
		bar, err := parseBar(f.FuturesPath(), line, rec)
		if err != nil {
			return err
		}
		bars = append(bars, bar)
		return nil
	})
	return bars, err
}

func (f *Files) TBillRates(ctx context.Context) ([]treasury.Rate, error) {
	var rates []treasury.Rate
	path := f.RatesPath()
	err := readCSV(ctx, path, func(line int, rec []string) error {
		if len(rec) < 2 || strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			return nil
		}
		d, err := utils.ParseISODate(rec[0])
		if err != nil {
			return &ParseError{File: path, Line: line, Token: rec[0], Err: err}
		}
		r, err := parseDecimal(rec[1])
		if err != nil {
			return &ParseError{File: path, Line: line, Token: rec[1], Err: err}
		}
		rates = append(rates, treasury.Rate{Date: d, Rate: r.InexactFloat64()})
		return nil
	})
	return rates, err
}

// futures row: trade date, label, open, high, low, close, settle, change,
// total volume, efp, open interest
const futuresFields = 11

func parseBar(path string, line int, rec []string) (futures.Bar, error) {
	if len(rec) < futuresFields {
		return futures.Bar{}, &ParseError{File: path, Line: line, Token: strings.Join(rec, ","),
			Err: fmt.Errorf("expected %d fields, got %d", futuresFields, len(rec))}
	}
	d, err := utils.ParseSlashDate(rec[0])
	if err != nil {
		return futures.Bar{}, &ParseError{File: path, Line: line, Token: rec[0], Err: err}
	}
	month, err := cboe.ParseContractLabel(rec[1])
	if err != nil {
		return futures.Bar{}, &ParseError{File: path, Line: line, Token: rec[1], Err: err}
	}

	var nums [9]decimal.Decimal
	for k := range nums {
		tok := rec[k+2]
		if nums[k], err = parseDecimal(tok); err != nil {
			return futures.Bar{}, &ParseError{File: path, Line: line, Token: tok, Err: err}
		}
	}
	return futures.Bar{
		Date:          d,
		ContractMonth: month,
		Open:          nums[0].InexactFloat64(),
		High:          nums[1].InexactFloat64(),
		Low:           nums[2].InexactFloat64(),
		Close:         nums[3].InexactFloat64(),
		Settle:        nums[4].InexactFloat64(),
		Change:        nums[5].InexactFloat64(),
		Volume:        nums[6].IntPart(),
		EFP:           nums[7].IntPart(),
		OpenInterest:  nums[8].IntPart(),
	}, nil
}

// parseDecimal reads a numeric field; an empty field is zero.
func parseDecimal(tok string) (decimal.Decimal, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(tok)
	if err != nil {
		return decimal.Zero, ErrInvalidNumber
	}
	return d, nil
}

func readCSV(ctx context.Context, path string, fn func(line int, rec []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		line, _ := r.FieldPos(0)
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}
