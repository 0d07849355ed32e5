// Package logging builds the logrus logger used by the command line tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/meenmo/spvix/config"
	"github.com/meenmo/spvix/futures"
	"github.com/meenmo/spvix/index"
)

// LogFileName is the rotated log file written when output is "file".
const LogFileName = "spvix.log"

// New returns a logger configured from cfg. console receives stdout/stderr
// output, so callers can redirect it.
func New(cfg config.LoggingConfig, console io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	switch strings.ToLower(cfg.Output) {
	case "file":
		dir := cfg.Dir
		if dir == "" {
			dir = "logs"
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		writer := &lumberjack.Logger{
			Filename:   filepath.Join(dir, LogFileName),
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if level >= logrus.DebugLevel {
			logger.SetOutput(io.MultiWriter(writer, console))
		} else {
			logger.SetOutput(writer)
		}
	default:
		logger.SetOutput(console)
	}
	return logger, nil
}

// WithRun tags every entry of one CLI invocation with a fresh run_id.
func WithRun(logger *logrus.Logger, command string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"run_id":  uuid.NewString(),
		"command": command,
	})
}

// Observer logs calculator progress: each computed level at debug, one
// info line per progressEvery levels, and every fallback the calculator had
// to take (interpolated prices, stale rates).
type Observer struct {
	entry         *logrus.Entry
	progressEvery int
	computed      int
}

func NewObserver(entry *logrus.Entry, progressEvery int) *Observer {
	if progressEvery <= 0 {
		progressEvery = 250
	}
	return &Observer{entry: entry, progressEvery: progressEvery}
}

var _ index.Observer = (*Observer)(nil)

func (o *Observer) DayComputed(v index.Variant, p index.Point) {
	o.computed++
	fields := logrus.Fields{"ticker": v.Ticker(), "date": p.Date.String(), "level": p.Value}
	o.entry.WithFields(fields).Debug("level computed")
	if o.computed%o.progressEvery == 0 {
		o.entry.WithFields(fields).WithField("computed", o.computed).Info("progress")
	}
}

func (o *Observer) PriceResolved(contract int, t civil.Date, s futures.Strategy) {
	if s == futures.Listed {
		return
	}
	o.entry.WithFields(logrus.Fields{
		"contract": contract,
		"date":     t.String(),
		"strategy": s.String(),
	}).Debug("contract price interpolated")
}

func (o *Observer) RateResolved(weekEnd civil.Date, weeksBack int) {
	if weeksBack == 0 {
		return
	}
	o.entry.WithFields(logrus.Fields{
		"week_end":   weekEnd.String(),
		"weeks_back": weeksBack,
	}).Debug("t-bill rate taken from an earlier week")
}
