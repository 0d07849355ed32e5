package provider

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/meenmo/spvix/marketdata/cboe"
	"github.com/meenmo/spvix/marketdata/treasury"
	"github.com/meenmo/spvix/utils"
)

const (
	DefaultCFEBaseURL  = "https://cdn.cboe.com/data/us/futures/market_statistics/historical_data/VX/"
	DefaultTreasuryURL = "https://www.treasurydirect.gov/TA_WS/securities/jqsearch?format=json" +
		"&filtervalue0=Bill&filtercondition0=EQUAL&filteroperator0=1&filterdatafield0=securityType" +
		"&filtervalue1=13&filtercondition1=CONTAINS&filteroperator1=1&filterdatafield1=securityTerm" +
		"&filterscount=2&groupscount=0&pagenum=0&pagesize=5000&recordstartindex=0&recordendindex=5000"
)

// DownloaderOptions configures where and how fast files are fetched.
type DownloaderOptions struct {
	CFEBaseURL        string
	TreasuryURL       string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	Retry             RetryConfig
	// Today decides which contracts are still trading and must be fetched
	// again. Zero means the current local date.
	Today civil.Date
}

// Report lists what a download run did.
type Report struct {
	Fetched  []string
	Skipped  []string
	Failed   map[string]error
	Rates    int
	BarsFile string
}

// Downloader refreshes the data directory from CFE and TreasuryDirect.
type Downloader struct {
	dir     string
	client  *http.Client
	limiter *rate.Limiter
	opts    DownloaderOptions
}

func NewDownloader(dir string, opts DownloaderOptions) *Downloader {
	if opts.CFEBaseURL == "" {
		opts.CFEBaseURL = DefaultCFEBaseURL
	}
	if opts.TreasuryURL == "" {
		opts.TreasuryURL = DefaultTreasuryURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.Factor == 0 {
		opts.Retry = DefaultRetryConfig()
	}
	if opts.Today.IsZero() {
		opts.Today = civil.DateOf(time.Now())
	}
	return &Downloader{
		dir:     dir,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		opts:    opts,
	}
}

// Run fetches the rate table, every contract from January of fromYear to
// December of toYear, and rebuilds the composite futures file. A contract
// that fails to download is reported and skipped; rate and composite
// failures abort the run.
func (d *Downloader) Run(ctx context.Context, fromYear, toYear int) (Report, error) {
	rep := Report{Failed: map[string]error{}}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return rep, fmt.Errorf("create data dir: %w", err)
	}

	n, err := d.FetchTBillRates(ctx)
	if err != nil {
		return rep, err
	}
	rep.Rates = n

	for year := fromYear; year <= toYear; year++ {
		for month := time.January; month <= time.December; month++ {
			c := cboe.NewContractMonth(year, month)
			fetched, err := d.FetchContract(ctx, c)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return rep, ctx.Err()
				}
				rep.Failed[c.FileName()] = err
			case fetched:
				rep.Fetched = append(rep.Fetched, c.FileName())
			default:
				rep.Skipped = append(rep.Skipped, c.FileName())
			}
		}
	}

	path, err := d.BuildComposite(ctx)
	if err != nil {
		return rep, err
	}
	rep.BarsFile = path
	return rep, nil
}

// FetchContract downloads one contract history file. Files of expired
// contracts are kept once present; contracts at or after the current month
// are always fetched again.
func (d *Downloader) FetchContract(ctx context.Context, c cboe.ContractMonth) (bool, error) {
	path := filepath.Join(d.dir, c.FileName())
	current := cboe.NewContractMonth(d.opts.Today.Year, d.opts.Today.Month)
	if c < current {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	body, err := d.get(ctx, d.opts.CFEBaseURL+c.FileName())
	if err != nil {
		return false, fmt.Errorf("fetch %s: %w", c.Code(), err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

type auctionResults struct {
	TotalResultsCount int       `json:"totalResultsCount"`
	SecurityList      []auction `json:"securityList"`
}

type auction struct {
	AuctionDate string `json:"auctionDate"`
	HighPrice   string `json:"highPrice"`
}

// FetchTBillRates downloads 13-week bill auction results and writes the
// rate table. Each rate is the bank discount rate implied by the auction
// high price. Announced auctions without a result are left out.
func (d *Downloader) FetchTBillRates(ctx context.Context) (int, error) {
	body, err := d.get(ctx, d.opts.TreasuryURL)
	if err != nil {
		return 0, fmt.Errorf("fetch t-bill auctions: %w", err)
	}
	var res auctionResults
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, fmt.Errorf("decode t-bill auctions: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("Date,Value\n")
	n := 0
	for _, a := range res.SecurityList {
		if strings.TrimSpace(a.HighPrice) == "" {
			continue
		}
		date, err := utils.ParseISODate(a.AuctionDate)
		if err != nil {
			return 0, fmt.Errorf("auction date: %w", err)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(a.HighPrice))
		if err != nil {
			return 0, fmt.Errorf("auction %s: %w: high price %q", date, ErrInvalidNumber, a.HighPrice)
		}
		r := treasury.DiscountRate(price, treasury.BillTermDays)
		fmt.Fprintf(&buf, "%s,%s\n", date, r.String())
		n++
	}

	path := filepath.Join(d.dir, RatesFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return n, nil
}

// BuildComposite concatenates every CFE_<code><yy>_VX.csv in the data
// directory, oldest contract first, into vix_futures.csv. The first file
// keeps its header; later files contribute data rows only.
func (d *Downloader) BuildComposite(ctx context.Context) (string, error) {
	paths, err := filepath.Glob(filepath.Join(d.dir, "CFE_*_VX.csv"))
	if err != nil {
		return "", err
	}
	type entry struct {
		month cboe.ContractMonth
		path  string
	}
	var files []entry
	for _, p := range paths {
		c, err := cboe.ParseFileName(filepath.Base(p))
		if err != nil {
			continue
		}
		files = append(files, entry{month: c, path: p})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].month < files[j].month })

	var buf bytes.Buffer
	for k, e := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := appendContractFile(&buf, e.path, k == 0); err != nil {
			return "", err
		}
	}

	out := filepath.Join(d.dir, FuturesFileName)
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}

func appendContractFile(w io.Writer, path string, withHeader bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	inData := withHeader
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !inData && utils.LooksLikeSlashDate(line) {
			inData = true
		}
		if !inData || line == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func (d *Downloader) get(ctx context.Context, url string) ([]byte, error) {
	return withRetry(ctx, d.opts.Retry, func(ctx context.Context) ([]byte, error) {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{URL: url, Code: resp.StatusCode}
		}
		return io.ReadAll(resp.Body)
	})
}
