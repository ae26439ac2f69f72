package l2_service

import (
	"sectorrotation/internal/domain"
	"sort"
)

type candidate struct {
	Symbol string
	Values domain.IndicatorValues
}

// selectionStage narrows or reorders the candidates of one rebalance date.
// Stages never add instruments
type selectionStage func(candidates []candidate, cfg domain.RotationConfig) []candidate

// selectionPipeline returns the stages enabled by cfg, in the order they
// run: momentum rank, trend filter, volatility filter
func selectionPipeline(cfg domain.RotationConfig) []selectionStage {
	stages := []selectionStage{rankByMomentum}
	if cfg.UseTrendFilter {
		stages = append(stages, filterByTrend)
	}
	if cfg.UseVolatilityFilter {
		stages = append(stages, selectByVolatility)
	}
	return stages
}

// Select runs the selection pipeline over one snapshot. An empty
// selection is a normal outcome and means cash for the period
func Select(snapshot domain.IndicatorSnapshot, cfg domain.RotationConfig) domain.Selection {
	candidates := make([]candidate, 0, len(snapshot.Symbols))
	for _, symbol := range snapshot.Symbols {
		candidates = append(candidates, candidate{
			Symbol: symbol,
			Values: snapshot.Values[symbol],
		})
	}

	for _, stage := range selectionPipeline(cfg) {
		candidates = stage(candidates, cfg)
	}

	symbols := make([]string, 0, len(candidates))
	for _, c := range candidates {
		symbols = append(symbols, c.Symbol)
	}
	return domain.Selection{
		Date:    snapshot.Date,
		Symbols: symbols,
	}
}

// rankByMomentum drops instruments without a momentum reading and keeps
// the TopN strongest. Equal momentum is ordered by symbol
func rankByMomentum(candidates []candidate, cfg domain.RotationConfig) []candidate {
	out := []candidate{}
	for _, c := range candidates {
		if c.Values.Momentum != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].Values.Momentum, *out[j].Values.Momentum
		if a != b {
			return a > b
		}
		return out[i].Symbol < out[j].Symbol
	})
	return truncate(out, cfg.TopN)
}

// filterByTrend keeps instruments whose price is strictly above their
// moving average. It does not promote lower-ranked instruments
func filterByTrend(candidates []candidate, cfg domain.RotationConfig) []candidate {
	out := []candidate{}
	for _, c := range candidates {
		price, ma := c.Values.Price, c.Values.TrendReference
		if price == nil || ma == nil {
			continue
		}
		if *price > *ma {
			out = append(out, c)
		}
	}
	return out
}

// selectByVolatility re-ranks the survivors by ascending volatility and
// keeps up to TopN. Instruments without a volatility reading are dropped
func selectByVolatility(candidates []candidate, cfg domain.RotationConfig) []candidate {
	out := []candidate{}
	for _, c := range candidates {
		if c.Values.Volatility != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].Values.Volatility, *out[j].Values.Volatility
		if a != b {
			return a < b
		}
		return out[i].Symbol < out[j].Symbol
	})
	return truncate(out, cfg.TopN)
}

func truncate(candidates []candidate, n int) []candidate {
	if len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}
