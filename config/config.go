// Package config holds the settings of an index build. Values start from
// DefaultConfig, are overlaid by an optional YAML file and then by SPVIX_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/spvix/calendar"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Data     DataConfig     `yaml:"data"`
	Index    IndexConfig    `yaml:"index"`
	Rates    RatesConfig    `yaml:"rates"`
	Download DownloadConfig `yaml:"download"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type DataConfig struct {
	// Dir holds vix_futures.csv, tbill13week.csv and the per-contract files.
	Dir string `yaml:"dir"`
}

type IndexConfig struct {
	// BaseDate is YYYY-MM-DD.
	BaseDate  string  `yaml:"base_date"`
	BaseValue float64 `yaml:"base_value"`
	Calendar  string  `yaml:"calendar"`
	// Decimals is the number of places written for each level.
	Decimals int32 `yaml:"decimals"`
}

type RatesConfig struct {
	// MaxLookbackWeeks bounds the search for a published weekly rate.
	MaxLookbackWeeks int `yaml:"max_lookback_weeks"`
}

type DownloadConfig struct {
	CFEBaseURL        string        `yaml:"cfe_base_url"`
	TreasuryURL       string        `yaml:"treasury_url"`
	FromYear          int           `yaml:"from_year"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	Dir        string `yaml:"dir"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

type MetricsConfig struct {
	// Textfile is written after a build when set, for the node exporter
	// textfile collector.
	Textfile string `yaml:"textfile"`
}

// DefaultConfig reproduces the published index.
var DefaultConfig = Config{
	Data: DataConfig{Dir: "data"},
	Index: IndexConfig{
		BaseDate:  "2005-12-20",
		BaseValue: 100000.0,
		Calendar:  string(calendar.CBOE),
		Decimals:  6,
	},
	Rates: RatesConfig{MaxLookbackWeeks: 52},
	Download: DownloadConfig{
		FromYear:          2004,
		RequestsPerSecond: 2,
		Burst:             1,
		Timeout:           30 * time.Second,
		MaxRetries:        3,
	},
	Logging: LoggingConfig{
		Level:      "info",
		Format:     "text",
		Output:     "stderr",
		Dir:        "logs",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     30,
	},
}

// Load reads path over DefaultConfig (an empty path skips the file), loads
// any .env files and applies environment overrides. The result is validated.
func Load(path string, envFiles ...string) (Config, error) {
	c := DefaultConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// Variables already set in the environment win over .env entries.
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SPVIX_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("SPVIX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SPVIX_BASE_DATE"); v != "" {
		c.Index.BaseDate = v
	}
	if v := os.Getenv("SPVIX_BASE_VALUE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: SPVIX_BASE_VALUE %q", ErrInvalidConfig, v)
		}
		c.Index.BaseValue = f
	}
	return nil
}

// BaseDate parses Index.BaseDate.
func (c Config) BaseDate() (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(c.Index.BaseDate))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: index.base_date %q", ErrInvalidConfig, c.Index.BaseDate)
	}
	return d, nil
}

// Validate rejects settings no build can run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Data.Dir) == "" {
		return fmt.Errorf("%w: data.dir is empty", ErrInvalidConfig)
	}
	cal, err := calendar.ForID(calendar.CalendarID(c.Index.Calendar))
	if err != nil {
		return fmt.Errorf("%w: index.calendar: %v", ErrInvalidConfig, err)
	}
	base, err := c.BaseDate()
	if err != nil {
		return err
	}
	// Levels chain back to the base through business days only.
	if !cal.IsBusinessDay(base) {
		return fmt.Errorf("%w: index.base_date %s is not a %s business day", ErrInvalidConfig, base, cal.ID())
	}
	if c.Index.BaseValue <= 0 {
		return fmt.Errorf("%w: index.base_value must be positive, got %v", ErrInvalidConfig, c.Index.BaseValue)
	}
	if c.Index.Decimals < 0 {
		return fmt.Errorf("%w: index.decimals must not be negative", ErrInvalidConfig)
	}
	if c.Rates.MaxLookbackWeeks <= 0 {
		return fmt.Errorf("%w: rates.max_lookback_weeks must be positive", ErrInvalidConfig)
	}
	if c.Download.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: download.requests_per_second must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr", "file":
	default:
		return fmt.Errorf("%w: logging.output %q", ErrInvalidConfig, c.Logging.Output)
	}
	return nil
}
