package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/spvix/marketdata/cboe"
	"github.com/meenmo/spvix/utils"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestFilesFuturesBars(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, FuturesFileName, `CFE data is compiled for the convenience of site visitors
Trade Date,Futures,Open,High,Low,Close,Settle,Change,Total Volume,EFP,Open Interest
3/26/2004,K (May 04),212.4,212.5,202.7,202.7,203.2,0,216,0,144

07/08/2014,G (Feb 15),16.90,17.14,16.80,16.90,16.90,0.05,1309,0,3298
7/9/2014,G (Feb 15),0,0,0,0,0,0,0,0,0
`)

	bars, err := NewFiles(dir).FuturesBars(context.Background())
	require.NoError(t, err)
	require.Len(t, bars, 3)

	first := bars[0]
	assert.Equal(t, civil.Date{Year: 2004, Month: time.March, Day: 26}, first.Date)
	assert.Equal(t, cboe.ContractMonth(200405), first.ContractMonth)
	assert.InDelta(t, 203.2, first.Settle, 1e-12)
	assert.Equal(t, int64(216), first.Volume)
	assert.Equal(t, int64(144), first.OpenInterest)
	assert.False(t, first.Unlisted())

	assert.Equal(t, cboe.ContractMonth(201502), bars[1].ContractMonth)
	assert.InDelta(t, 0.05, bars[1].Change, 1e-12)
	assert.True(t, bars[2].Unlisted())
}

func TestFilesFuturesBarsBadLabel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, FuturesFileName, "Trade Date,Futures\n3/26/2004,May 04,1,1,1,1,1,0,1,0,1\n")

	_, err := NewFiles(dir).FuturesBars(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, cboe.ErrInvalidContractLabel))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "May 04", pe.Token)
}

func TestFilesFuturesBarsBadNumber(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, FuturesFileName, "3/26/2004,K (May 04),1,1,abc,1,1,0,1,0,1\n")

	_, err := NewFiles(dir).FuturesBars(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidNumber))
}

func TestFilesTBillRates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, RatesFileName, "Date,Value\n2014-08-18,0.0300\n2005-01-03T00:00:00,0.0222\n")

	rates, err := NewFiles(dir).TBillRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, civil.Date{Year: 2014, Month: time.August, Day: 18}, rates[0].Date)
	assert.InDelta(t, 0.03, rates[0].Rate, 1e-12)
	assert.Equal(t, civil.Date{Year: 2005, Month: time.January, Day: 3}, rates[1].Date)
}

func TestFilesTBillRatesBadDate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, RatesFileName, "Date,Value\n2014-13-45,0.03\n")

	_, err := NewFiles(dir).TBillRates(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrInvalidDateToken))
}

func TestFilesMissing(t *testing.T) {
	t.Parallel()

	_, err := NewFiles(t.TempDir()).TBillRates(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
