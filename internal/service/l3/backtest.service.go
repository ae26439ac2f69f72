package l3_service

import (
	"context"
	"fmt"
	"sectorrotation/internal/domain"
	"sectorrotation/internal/logger"
	l1_service "sectorrotation/internal/service/l1"
	l2_service "sectorrotation/internal/service/l2"
	"time"
)

type BacktestInput struct {
	RotationConfig domain.RotationConfig
	Start          time.Time
	End            time.Time
}

type BacktestResult struct {
	// Strategy and Benchmark share the same strictly increasing dates
	Strategy   []domain.ReturnPoint
	Benchmark  []domain.ReturnPoint
	Selections []domain.Selection
	// universe symbols the price source had nothing for
	Missing []string
}

type CurrentSelectionResult struct {
	Snapshot  domain.IndicatorSnapshot
	Selection domain.Selection
	// last trading day that went into the snapshot
	AsOf time.Time
}

type BacktestService interface {
	Backtest(ctx context.Context, in BacktestInput) (*BacktestResult, error)
	CurrentSelection(ctx context.Context, in BacktestInput) (*CurrentSelectionResult, error)
}

type backtestServiceHandler struct {
	PriceService l1_service.PriceService
}

func NewBacktestService(priceService l1_service.PriceService) BacktestService {
	return backtestServiceHandler{
		PriceService: priceService,
	}
}

func (h backtestServiceHandler) loadSeries(ctx context.Context, in BacktestInput) (*domain.PriceSeries, error) {
	if err := in.RotationConfig.Validate(); err != nil {
		return nil, err
	}
	if !in.End.After(in.Start) {
		return nil, fmt.Errorf("end date %s must be after start date %s", in.End.Format(time.DateOnly), in.Start.Format(time.DateOnly))
	}

	series, err := h.PriceService.LoadPriceSeries(ctx, in.RotationConfig.Symbols(), in.Start, in.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load price series: %w", err)
	}
	return series, nil
}

func (h backtestServiceHandler) Backtest(ctx context.Context, in BacktestInput) (*BacktestResult, error) {
	log := logger.FromContext(ctx)

	series, err := h.loadSeries(ctx, in)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := RunBacktest(*series, in.RotationConfig)
	if err != nil {
		return nil, err
	}
	log.Infof("backtest completed %d rebalances in %s", len(result.Strategy), time.Since(start).String())

	return result, nil
}

// RunBacktest walks the rebalance calendar once, selecting and
// aggregating each date independently of the others
func RunBacktest(series domain.PriceSeries, cfg domain.RotationConfig) (*BacktestResult, error) {
	indicators, err := l2_service.ComputeIndicators(series, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute indicators: %w", err)
	}

	result := &BacktestResult{
		Strategy:   []domain.ReturnPoint{},
		Benchmark:  []domain.ReturnPoint{},
		Selections: []domain.Selection{},
		Missing:    missingFromUniverse(series, cfg),
	}

	// the first rebalance date has no period return
	for i := 1; i < indicators.Len(); i++ {
		date := indicators.RebalanceDates[i]

		selection := l2_service.Select(indicators.Snapshot(i), cfg)
		result.Selections = append(result.Selections, selection)
		result.Strategy = append(result.Strategy, l2_service.Aggregate(selection, indicators.PeriodReturns(i), cfg))

		benchmarkReturn := 0.0
		if r := indicators.PeriodReturn(cfg.Benchmark, i); r != nil {
			benchmarkReturn = *r
		}
		result.Benchmark = append(result.Benchmark, domain.ReturnPoint{
			Date:   date,
			Return: benchmarkReturn,
		})
	}

	return result, nil
}

func missingFromUniverse(series domain.PriceSeries, cfg domain.RotationConfig) []string {
	out := []string{}
	for _, symbol := range cfg.Universe {
		if !series.Has(symbol) {
			out = append(out, symbol)
		}
	}
	return out
}

// CurrentSelection reports what the strategy would hold for the latest
// rebalance period, which is usually still in progress
func (h backtestServiceHandler) CurrentSelection(ctx context.Context, in BacktestInput) (*CurrentSelectionResult, error) {
	series, err := h.loadSeries(ctx, in)
	if err != nil {
		return nil, err
	}
	return SelectionAt(*series, in.RotationConfig, in.End)
}

// SelectionAt reports the selection for the period containing asOf using
// only closes on or before asOf
func SelectionAt(series domain.PriceSeries, cfg domain.RotationConfig, asOf time.Time) (*CurrentSelectionResult, error) {
	series = series.Truncate(asOf)
	if series.Len() == 0 {
		return nil, fmt.Errorf("no prices on or before %s", asOf.Format(time.DateOnly))
	}
	indicators, err := l2_service.ComputeIndicators(series, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute indicators: %w", err)
	}

	lastClose := series.Dates[series.Len()-1]
	idx, ok := indicators.Index(cfg.RebalanceFrequency.PeriodEnd(lastClose))
	if !ok {
		return nil, fmt.Errorf("no rebalance date for %s", lastClose.Format(time.DateOnly))
	}

	snapshot := indicators.Snapshot(idx)
	return &CurrentSelectionResult{
		Snapshot:  snapshot,
		Selection: l2_service.Select(snapshot, cfg),
		AsOf:      lastClose,
	}, nil
}
