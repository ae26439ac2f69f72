package l3_service

import (
	"fmt"
	"math"
	"sectorrotation/internal/domain"

	"github.com/montanaflynn/stats"
)

type CalculateMetricsResult struct {
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	AnnualizedStdev  float64 `json:"annualizedStdev"`
	SharpeRatio      float64 `json:"sharpeRatio"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
}

// CalculateMetrics summarizes a series of period returns. Annualization
// uses the number of rebalance periods per year for frequency and the risk
// free rate is taken as zero
func CalculateMetrics(returns []domain.ReturnPoint, frequency domain.RebalanceFrequency) (*CalculateMetricsResult, error) {
	if len(returns) < 2 {
		return nil, fmt.Errorf("cannot calculate metrics on < 2 returns")
	}
	periodsPerYear := frequency.PeriodsPerYear()
	if periodsPerYear == 0 {
		return nil, fmt.Errorf("unsupported rebalance frequency %q", frequency)
	}

	values := make([]float64, len(returns))
	for i, r := range returns {
		values[i] = r.Return
	}

	stdev, err := stats.StandardDeviationSample(values)
	if err != nil {
		return nil, err
	}
	annualizedStdev := stdev * math.Sqrt(periodsPerYear)

	curve := domain.NewEquityCurve(returns)
	endValue := curve.Final()
	numYears := float64(len(returns)) / periodsPerYear
	annualizedReturn := math.Pow(endValue/domain.EquityBase, 1/numYears) - 1
	if endValue <= 0 {
		annualizedReturn = -1
	}

	sharpeRatio := 0.0
	if annualizedStdev > 0 {
		sharpeRatio = annualizedReturn / annualizedStdev
	}

	return &CalculateMetricsResult{
		TotalReturn:      endValue/domain.EquityBase - 1,
		AnnualizedReturn: annualizedReturn,
		AnnualizedStdev:  annualizedStdev,
		SharpeRatio:      sharpeRatio,
		MaxDrawdown:      maxDrawdown(curve),
	}, nil
}

// maxDrawdown is the largest peak-to-trough decline of the curve as a
// negative fraction. The base value counts as the first peak
func maxDrawdown(curve domain.EquityCurve) float64 {
	peak := domain.EquityBase
	worst := 0.0
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if dd := p.Value/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

type PerformanceReport struct {
	Strategy        CalculateMetricsResult `json:"strategy"`
	Benchmark       CalculateMetricsResult `json:"benchmark"`
	StrategyEquity  domain.EquityCurve     `json:"strategyEquity"`
	BenchmarkEquity domain.EquityCurve     `json:"benchmarkEquity"`
}

func NewPerformanceReport(result *BacktestResult, frequency domain.RebalanceFrequency) (*PerformanceReport, error) {
	strategy, err := CalculateMetrics(result.Strategy, frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate strategy metrics: %w", err)
	}
	benchmark, err := CalculateMetrics(result.Benchmark, frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate benchmark metrics: %w", err)
	}

	return &PerformanceReport{
		Strategy:        *strategy,
		Benchmark:       *benchmark,
		StrategyEquity:  domain.NewEquityCurve(result.Strategy),
		BenchmarkEquity: domain.NewEquityCurve(result.Benchmark),
	}, nil
}
