package l3_service

import (
	"fmt"
	"io"
	"sectorrotation/internal/domain"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

type EquityCsvRow struct {
	Date            string  `csv:"date"`
	StrategyReturn  float64 `csv:"strategy_return"`
	BenchmarkReturn float64 `csv:"benchmark_return"`
	StrategyEquity  float64 `csv:"strategy_equity"`
	BenchmarkEquity float64 `csv:"benchmark_equity"`
	Selection       string  `csv:"selection"`
}

// WriteEquityCsv writes one row per rebalance date with both return
// series, both equity lines and the instruments held
func WriteEquityCsv(w io.Writer, result *BacktestResult) error {
	if len(result.Strategy) != len(result.Benchmark) || len(result.Strategy) != len(result.Selections) {
		return fmt.Errorf("misaligned backtest result: %d strategy, %d benchmark, %d selections", len(result.Strategy), len(result.Benchmark), len(result.Selections))
	}

	strategyEquity := domain.NewEquityCurve(result.Strategy)
	benchmarkEquity := domain.NewEquityCurve(result.Benchmark)

	rows := make([]EquityCsvRow, 0, len(result.Strategy))
	for i, r := range result.Strategy {
		if !r.Date.Equal(result.Benchmark[i].Date) {
			return fmt.Errorf("strategy and benchmark dates differ at row %d", i)
		}
		rows = append(rows, EquityCsvRow{
			Date:            r.Date.Format(time.DateOnly),
			StrategyReturn:  r.Return,
			BenchmarkReturn: result.Benchmark[i].Return,
			StrategyEquity:  strategyEquity[i].Value,
			BenchmarkEquity: benchmarkEquity[i].Value,
			Selection:       strings.Join(result.Selections[i].Symbols, " "),
		})
	}

	return gocsv.Marshal(rows, w)
}
