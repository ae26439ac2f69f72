package l2_service

import (
	"fmt"
	"sectorrotation/internal/domain"
	"time"

	"github.com/montanaflynn/stats"
)

// Indicators holds every per-instrument series the rebalance loop reads,
// already lagged and resampled to the rebalance calendar. Index i of each
// slice belongs to RebalanceDates[i]. Values are never recomputed once
// built
type Indicators struct {
	Frequency      domain.RebalanceFrequency
	RebalanceDates []time.Time
	// selectable instruments in source order. the benchmark is only in
	// here if it is also part of the universe
	Universe []string

	momentum      map[string][]*float64
	volatility    map[string][]*float64
	trend         map[string][]*float64
	prices        map[string][]*float64
	periodReturns map[string][]*float64
}

// ComputeIndicators derives momentum, volatility and moving average for
// every symbol of the series on the daily calendar, lags each by one row
// and resamples them to the rebalance calendar. Rebalance prices and
// period returns are computed for every symbol, including the benchmark
func ComputeIndicators(series domain.PriceSeries, cfg domain.RotationConfig) (*Indicators, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	periods := groupByPeriod(series.Dates, cfg.RebalanceFrequency)

	out := &Indicators{
		Frequency:      cfg.RebalanceFrequency,
		RebalanceDates: make([]time.Time, len(periods)),
		Universe:       []string{},
		momentum:       map[string][]*float64{},
		volatility:     map[string][]*float64{},
		trend:          map[string][]*float64{},
		prices:         map[string][]*float64{},
		periodReturns:  map[string][]*float64{},
	}
	for i, p := range periods {
		out.RebalanceDates[i] = p.label
	}
	computed := map[string]bool{}
	for _, symbol := range series.Symbols {
		computed[symbol] = true
	}
	for _, symbol := range cfg.Universe {
		if computed[symbol] {
			out.Universe = append(out.Universe, symbol)
		}
	}

	for _, symbol := range series.Symbols {
		closes := series.Closes(symbol)
		if len(closes) != series.Len() {
			return nil, fmt.Errorf("series for %s has %d rows, expected %d", symbol, len(closes), series.Len())
		}

		momentum := momentumSeries(closes, cfg.LookbackDays)
		volatility, err := volatilitySeries(closes, cfg.LookbackDays)
		if err != nil {
			return nil, fmt.Errorf("failed to compute volatility for %s: %w", symbol, err)
		}
		trend, err := movingAverageSeries(closes, cfg.MovingAverageWindow)
		if err != nil {
			return nil, fmt.Errorf("failed to compute moving average for %s: %w", symbol, err)
		}

		out.momentum[symbol] = resampleLast(lag(momentum), periods)
		out.volatility[symbol] = resampleLast(lag(volatility), periods)
		out.trend[symbol] = resampleLast(lag(trend), periods)

		rebalancePrices := resampleLast(defined(closes), periods)
		out.prices[symbol] = rebalancePrices
		out.periodReturns[symbol] = pctChange(rebalancePrices)
	}

	return out, nil
}

func (i Indicators) Len() int {
	return len(i.RebalanceDates)
}

// Index returns the position of date on the rebalance calendar
func (i Indicators) Index(date time.Time) (int, bool) {
	for idx, d := range i.RebalanceDates {
		if d.Equal(date) {
			return idx, true
		}
	}
	return 0, false
}

// Snapshot returns the indicator readings of every universe instrument on
// the rebalance date at index idx
func (i Indicators) Snapshot(idx int) domain.IndicatorSnapshot {
	snapshot := domain.IndicatorSnapshot{
		Date:    i.RebalanceDates[idx],
		Symbols: i.Universe,
		Values:  map[string]domain.IndicatorValues{},
	}
	for _, symbol := range i.Universe {
		snapshot.Values[symbol] = domain.IndicatorValues{
			Momentum:       i.momentum[symbol][idx],
			Volatility:     i.volatility[symbol][idx],
			TrendReference: i.trend[symbol][idx],
			Price:          i.prices[symbol][idx],
		}
	}
	return snapshot
}

// PeriodReturns returns price(idx)/price(idx-1) - 1 for every symbol with
// prices. Symbols whose return is undefined map to nil
func (i Indicators) PeriodReturns(idx int) map[string]*float64 {
	out := map[string]*float64{}
	for symbol, returns := range i.periodReturns {
		out[symbol] = returns[idx]
	}
	return out
}

// PeriodReturn is nil when symbol has no prices or idx is the first period
func (i Indicators) PeriodReturn(symbol string, idx int) *float64 {
	returns, ok := i.periodReturns[symbol]
	if !ok {
		return nil
	}
	return returns[idx]
}

type period struct {
	label time.Time
	// daily rows [start, end)
	start int
	end   int
}

func groupByPeriod(dates []time.Time, frequency domain.RebalanceFrequency) []period {
	out := []period{}
	for i, d := range dates {
		label := frequency.PeriodEnd(d)
		if len(out) > 0 && out[len(out)-1].label.Equal(label) {
			out[len(out)-1].end = i + 1
			continue
		}
		out = append(out, period{
			label: label,
			start: i,
			end:   i + 1,
		})
	}
	return out
}

func defined(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}

// lag shifts values forward one row so the reading on row i only depends
// on rows before i
func lag(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	if len(values) > 1 {
		copy(out[1:], values[:len(values)-1])
	}
	return out
}

// resampleLast takes the last defined value inside each period
func resampleLast(values []*float64, periods []period) []*float64 {
	out := make([]*float64, len(periods))
	for i, p := range periods {
		for row := p.end - 1; row >= p.start; row-- {
			if values[row] != nil {
				out[i] = values[row]
				break
			}
		}
	}
	return out
}

func pctChange(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if prev == nil || cur == nil || *prev == 0 {
			continue
		}
		ret := *cur / *prev - 1
		out[i] = &ret
	}
	return out
}

// momentumSeries is closes[i]/closes[i-lookback] - 1, unlagged
func momentumSeries(closes []float64, lookback int) []*float64 {
	out := make([]*float64, len(closes))
	for i := lookback; i < len(closes); i++ {
		base := closes[i-lookback]
		if base == 0 {
			continue
		}
		m := closes[i]/base - 1
		out[i] = &m
	}
	return out
}

// volatilitySeries is the unlagged sample standard deviation of the last
// lookback daily returns. The first daily return is on row 1, so row i is
// defined once i >= lookback
func volatilitySeries(closes []float64, lookback int) ([]*float64, error) {
	out := make([]*float64, len(closes))
	if lookback < 2 {
		return out, nil
	}
	returns := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			returns[i] = closes[i]/closes[i-1] - 1
		}
	}
	for i := lookback; i < len(closes); i++ {
		stdev, err := stats.StandardDeviationSample(returns[i-lookback+1 : i+1])
		if err != nil {
			return nil, err
		}
		out[i] = &stdev
	}
	return out, nil
}

func movingAverageSeries(closes []float64, window int) ([]*float64, error) {
	out := make([]*float64, len(closes))
	for i := window - 1; i < len(closes); i++ {
		mean, err := stats.Mean(closes[i-window+1 : i+1])
		if err != nil {
			return nil, err
		}
		out[i] = &mean
	}
	return out, nil
}
