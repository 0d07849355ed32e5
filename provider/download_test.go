package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/spvix/marketdata/cboe"
)

const auctionsJSON = `{
  "totalResultsCount": 3,
  "securityList": [
    {"auctionDate": "2014-08-18T00:00:00", "highPrice": "99.992417", "securityTerm": "13-Week"},
    {"auctionDate": "2014-08-25T00:00:00", "highPrice": "", "securityTerm": "13-Week"},
    {"auctionDate": "2014-08-11T00:00:00", "highPrice": "99.974722", "securityTerm": "13-Week"}
  ]
}`

func fastOptions(srv *httptest.Server, today civil.Date) DownloaderOptions {
	return DownloaderOptions{
		CFEBaseURL:        srv.URL + "/vx/",
		TreasuryURL:       srv.URL + "/auctions",
		RequestsPerSecond: 1000,
		Burst:             10,
		Timeout:           5 * time.Second,
		Retry: RetryConfig{
			MaxRetries:  2,
			InitialWait: time.Millisecond,
			MaxWait:     5 * time.Millisecond,
			Factor:      2,
		},
		Today: today,
	}
}

func TestFetchTBillRates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, auctionsJSON)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, fastOptions(srv, civil.Date{Year: 2014, Month: 9, Day: 1}))
	n, err := d.FetchTBillRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rates, err := NewFiles(dir).TBillRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, civil.Date{Year: 2014, Month: 8, Day: 18}, rates[0].Date)
	assert.InDelta(t, 360*(1-0.99992417)/91, rates[0].Rate, 1e-12)
	assert.InDelta(t, 360*(1-0.99974722)/91, rates[1].Rate, 1e-12)
}

func TestFetchContractSkipsExpiredFiles(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprintf(w, "Trade Date,Futures\n%s\n", strings.TrimPrefix(r.URL.Path, "/vx/"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(dir, fastOptions(srv, civil.Date{Year: 2014, Month: 8, Day: 5}))

	expired := cboe.NewContractMonth(2014, 7)
	writeFile(t, dir, expired.FileName(), "cached")
	fetched, err := d.FetchContract(context.Background(), expired)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, int32(0), hits.Load())

	live := cboe.NewContractMonth(2014, 8)
	writeFile(t, dir, live.FileName(), "stale")
	fetched, err = d.FetchContract(context.Background(), live)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, int32(1), hits.Load())

	raw, err := os.ReadFile(filepath.Join(dir, live.FileName()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "CFE_Q14_VX.csv")
}

func TestFetchContractRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), fastOptions(srv, civil.Date{Year: 2014, Month: 8, Day: 5}))
	fetched, err := d.FetchContract(context.Background(), cboe.NewContractMonth(2014, 9))
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchContractDoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := NewDownloader(t.TempDir(), fastOptions(srv, civil.Date{Year: 2014, Month: 8, Day: 5}))
	_, err := d.FetchContract(context.Background(), cboe.NewContractMonth(2014, 9))
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBuildComposite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "CFE_F05_VX.csv", "Disclaimer\nTrade Date,Futures\n12/1/2004,F (Jan 05),1,1,1,1,14.5,0,1,0,1\n")
	writeFile(t, dir, "CFE_K04_VX.csv", "Trade Date,Futures\n3/26/2004,K (May 04),1,1,1,1,20.3,0,1,0,1\n\n")
	writeFile(t, dir, "CFE_Z04_VX.csv", "Disclaimer\nTrade Date,Futures\n  6/1/2004,Z (Dec 04),1,1,1,1,18.1,0,1,0,1  \n")
	writeFile(t, dir, "notes.csv", "ignored")

	d := NewDownloader(dir, DownloaderOptions{Today: civil.Date{Year: 2014, Month: 8, Day: 5}})
	path, err := d.BuildComposite(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Trade Date,Futures",
		"3/26/2004,K (May 04),1,1,1,1,20.3,0,1,0,1",
		"6/1/2004,Z (Dec 04),1,1,1,1,18.1,0,1,0,1",
		"12/1/2004,F (Jan 05),1,1,1,1,14.5,0,1,0,1",
	}, "\n")+"\n", string(raw))

	bars, err := NewFiles(dir).FuturesBars(context.Background())
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, cboe.ContractMonth(200501), bars[2].ContractMonth)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, IsRetryable(&StatusError{Code: http.StatusTooManyRequests}))
	assert.True(t, IsRetryable(&StatusError{Code: http.StatusBadGateway}))
	assert.False(t, IsRetryable(&StatusError{Code: http.StatusForbidden}))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(fmt.Errorf("fetch: %w", context.DeadlineExceeded)))
	assert.False(t, IsRetryable(nil))
}
