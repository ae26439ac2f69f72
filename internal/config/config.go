package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"sectorrotation/internal/domain"
	"sectorrotation/internal/util"

	"gopkg.in/yaml.v3"
)

const (
	PriceSourceYahoo    = "yahoo"
	PriceSourcePostgres = "postgres"
	PriceSourceCsv      = "csv"
	PriceSourceAlpaca   = "alpaca"
)

// Config is the on-disk configuration shape (YAML)
type Config struct {
	StartDate string `yaml:"start_date"`
	// empty means today
	EndDate string `yaml:"end_date"`

	LookbackDays        int      `yaml:"lookback_days"`
	RebalanceFrequency  string   `yaml:"rebalance_frequency"`
	TopNSectors         int      `yaml:"top_n_sectors"`
	MovingAverageWindow int      `yaml:"moving_average_window"`
	UseMA200Filter      bool     `yaml:"use_ma200_filter"`
	UseVolatilityFilter bool     `yaml:"use_volatility_filter"`
	StopLoss            float64  `yaml:"stop_loss"`
	SelectedSectors     []string `yaml:"selected_sectors"`

	SectorETFs   []string `yaml:"sector_etfs"`
	BenchmarkETF string   `yaml:"benchmark_etf"`

	PriceSource PriceSourceConfig `yaml:"price_source"`
}

type PriceSourceConfig struct {
	Kind string `yaml:"kind"`
	// csv file for kind=csv
	Path string `yaml:"path"`
}

// Default mirrors the settings the strategy was originally tuned with
func Default() Config {
	return Config{
		StartDate:           "2010-01-01",
		LookbackDays:        60,
		RebalanceFrequency:  "M",
		TopNSectors:         3,
		MovingAverageWindow: domain.DefaultMovingAverageWindow,
		UseMA200Filter:      true,
		UseVolatilityFilter: false,
		StopLoss:            -0.10,
		SelectedSectors:     []string{"XLK", "XLV"},
		SectorETFs: []string{
			"XLB", "XLC", "XLE", "XLF", "XLI", "XLK",
			"XLP", "XLRE", "XLU", "XLV", "XLY",
		},
		BenchmarkETF: "SPY",
		PriceSource: PriceSourceConfig{
			Kind: PriceSourceYahoo,
		},
	}
}

// Load reads path over the defaults and validates the result
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the config without validating it
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return &c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	rc, err := c.ToRotationConfig()
	if err != nil {
		return err
	}
	if err := rc.Validate(); err != nil {
		return err
	}
	start, end, err := c.DateRange(time.Now())
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return domain.ConfigError{Field: "end_date", Reason: "must be after start_date"}
	}
	switch c.PriceSource.Kind {
	case PriceSourceYahoo, PriceSourcePostgres, PriceSourceAlpaca:
	case PriceSourceCsv:
		if c.PriceSource.Path == "" {
			return domain.ConfigError{Field: "price_source.path", Reason: "is required for csv"}
		}
	default:
		return domain.ConfigError{Field: "price_source.kind", Reason: fmt.Sprintf("unsupported value %q", c.PriceSource.Kind)}
	}
	return nil
}

func (c Config) ToRotationConfig() (domain.RotationConfig, error) {
	freq, err := domain.ParseRebalanceFrequency(c.RebalanceFrequency)
	if err != nil {
		return domain.RotationConfig{}, domain.ConfigError{Field: "rebalance_frequency", Reason: err.Error()}
	}
	return domain.RotationConfig{
		LookbackDays:        c.LookbackDays,
		RebalanceFrequency:  freq,
		TopN:                c.TopNSectors,
		MovingAverageWindow: c.MovingAverageWindow,
		UseTrendFilter:      c.UseMA200Filter,
		UseVolatilityFilter: c.UseVolatilityFilter,
		StopLoss:            c.StopLoss,
		Benchmark:           c.BenchmarkETF,
		Universe:            append([]string{}, c.SectorETFs...),
		SelectedSectors:     append([]string{}, c.SelectedSectors...),
	}, nil
}

// DateRange resolves start and end, defaulting end to now
func (c Config) DateRange(now time.Time) (time.Time, time.Time, error) {
	start, err := util.ParseDate(c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ConfigError{Field: "start_date", Reason: err.Error()}
	}
	end, err := util.ParseDate(c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ConfigError{Field: "end_date", Reason: err.Error()}
	}
	if end.IsZero() {
		end = util.ToDate(now)
	}
	return start, end, nil
}
