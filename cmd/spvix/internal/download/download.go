package download

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/meenmo/spvix/cmd/spvix/internal/setup"
	"github.com/meenmo/spvix/config"
	"github.com/meenmo/spvix/provider"
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := setup.RegisterFlags(fs)
	from := fs.Int("from", 0, "first contract year (default from config)")
	to := fs.Int("to", 0, "last contract year (default: next year)")
	composite := fs.Bool("composite-only", false, "rebuild vix_futures.csv from files already on disk")
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

	cfg, err := common.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	log, err := setup.Logger(cfg, "download", stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	today := setup.Today()
	fromYear, toYear := *from, *to
	if fromYear == 0 {
		fromYear = cfg.Download.FromYear
	}
	if toYear == 0 {
		toYear = today.Year + 1
	}
	if fromYear > toYear {
		fmt.Fprintf(stderr, "error: -from %d is after -to %d\n", fromYear, toYear)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	d := provider.NewDownloader(cfg.Data.Dir, Options(cfg.Download))
	if *composite {
		path, err := d.BuildComposite(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		log.WithField("file", path).Info("composite rebuilt")
		fmt.Fprintf(stdout, "%s\n", path)
		return 0
	}

	log.WithField("dir", cfg.Data.Dir).WithField("from", fromYear).WithField("to", toYear).Info("downloading")
	rep, err := d.Run(ctx, fromYear, toYear)
	failed := make([]string, 0, len(rep.Failed))
	for name := range rep.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		log.WithField("file", name).WithError(rep.Failed[name]).Warn("contract not downloaded")
	}
	if err != nil {
		log.WithError(err).Error("download failed")
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	log.WithField("rates", rep.Rates).
		WithField("fetched", len(rep.Fetched)).
		WithField("skipped", len(rep.Skipped)).
		WithField("failed", len(failed)).
		WithField("file", rep.BarsFile).
		Info("done")
	fmt.Fprintf(stdout, "%s\n", rep.BarsFile)
	return 0
}

// Options maps the download config section onto downloader options.
func Options(c config.DownloadConfig) provider.DownloaderOptions {
	retry := provider.DefaultRetryConfig()
	retry.MaxRetries = c.MaxRetries
	return provider.DownloaderOptions{
		CFEBaseURL:        c.CFEBaseURL,
		TreasuryURL:       c.TreasuryURL,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		Timeout:           c.Timeout,
		Retry:             retry,
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  spvix download [-from 2004] [-to 2027] [-composite-only]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch CFE VX contract histories and 13-week t-bill auctions into the data directory.")
}
