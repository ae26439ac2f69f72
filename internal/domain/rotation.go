package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const DefaultMovingAverageWindow = 200

type RebalanceFrequency string

const (
	RebalanceDaily     RebalanceFrequency = "D"
	RebalanceWeekly    RebalanceFrequency = "W"
	RebalanceMonthly   RebalanceFrequency = "M"
	RebalanceQuarterly RebalanceFrequency = "Q"
	RebalanceAnnual    RebalanceFrequency = "A"
)

// ParseRebalanceFrequency accepts the pandas-style aliases used by
// older configs (ME, QE, Y, YE) as well as the canonical values
func ParseRebalanceFrequency(s string) (RebalanceFrequency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D", "B":
		return RebalanceDaily, nil
	case "W", "W-SUN":
		return RebalanceWeekly, nil
	case "M", "ME", "BM", "BME":
		return RebalanceMonthly, nil
	case "Q", "QE", "BQ":
		return RebalanceQuarterly, nil
	case "A", "Y", "YE", "AE":
		return RebalanceAnnual, nil
	}
	return "", fmt.Errorf("unsupported rebalance frequency %q", s)
}

// PeriodEnd returns the label of the rebalance period containing t.
// Labels are calendar period ends (month end for M, Sunday for W),
// not the last trading day inside the period
func (f RebalanceFrequency) PeriodEnd(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch f {
	case RebalanceWeekly:
		offset := (7 - int(d.Weekday())) % 7
		return d.AddDate(0, 0, offset)
	case RebalanceMonthly:
		return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	case RebalanceQuarterly:
		lastMonth := ((int(d.Month())-1)/3 + 1) * 3
		return time.Date(d.Year(), time.Month(lastMonth)+1, 0, 0, 0, 0, 0, time.UTC)
	case RebalanceAnnual:
		return time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return d
}

func (f RebalanceFrequency) PeriodsPerYear() float64 {
	switch f {
	case RebalanceDaily:
		return 252
	case RebalanceWeekly:
		return 52
	case RebalanceMonthly:
		return 12
	case RebalanceQuarterly:
		return 4
	case RebalanceAnnual:
		return 1
	}
	return 0
}

type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// RotationConfig is the immutable parameter object handed to every
// stage of the backtest. It is passed by value
type RotationConfig struct {
	LookbackDays        int
	RebalanceFrequency  RebalanceFrequency
	TopN                int
	MovingAverageWindow int
	UseTrendFilter      bool
	UseVolatilityFilter bool
	// floor applied to each period's realized return, e.g. -0.1
	StopLoss  float64
	Benchmark string
	// instruments eligible for selection, in source order
	Universe []string
	// only used for post-backtest holdings reporting
	SelectedSectors []string
}

func (c RotationConfig) Validate() error {
	if c.LookbackDays <= 0 {
		return ConfigError{Field: "lookback_days", Reason: "must be > 0"}
	}
	if c.TopN < 1 {
		return ConfigError{Field: "top_n_sectors", Reason: "must be >= 1"}
	}
	if c.MovingAverageWindow <= 0 {
		return ConfigError{Field: "moving_average_window", Reason: "must be > 0"}
	}
	if c.RebalanceFrequency.PeriodsPerYear() == 0 {
		return ConfigError{Field: "rebalance_frequency", Reason: fmt.Sprintf("unsupported value %q", c.RebalanceFrequency)}
	}
	if math.IsNaN(c.StopLoss) || math.IsInf(c.StopLoss, 0) {
		return ConfigError{Field: "stop_loss", Reason: "must be a finite number"}
	}
	if len(c.Universe) == 0 {
		return ConfigError{Field: "sector_etfs", Reason: "must not be empty"}
	}
	seen := map[string]bool{}
	for _, symbol := range c.Universe {
		if strings.TrimSpace(symbol) == "" {
			return ConfigError{Field: "sector_etfs", Reason: "contains an empty symbol"}
		}
		if seen[symbol] {
			return ConfigError{Field: "sector_etfs", Reason: fmt.Sprintf("contains %s twice", symbol)}
		}
		seen[symbol] = true
	}
	if strings.TrimSpace(c.Benchmark) == "" {
		return ConfigError{Field: "benchmark_etf", Reason: "is required"}
	}
	return nil
}

// Symbols is the sorted set of instruments a run needs prices for:
// the universe plus the benchmark
func (c RotationConfig) Symbols() []string {
	set := map[string]bool{c.Benchmark: true}
	for _, s := range c.Universe {
		set[s] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
