package domain

import "time"

// IndicatorValues are the lagged indicator readings for one instrument
// on one rebalance date. nil means the value is undefined (usually not
// enough history) and must never be read as zero
type IndicatorValues struct {
	Momentum       *float64 `json:"momentum"`
	Volatility     *float64 `json:"volatility"`
	TrendReference *float64 `json:"trendReference"`
	Price          *float64 `json:"price"`
}

type IndicatorSnapshot struct {
	Date time.Time
	// instruments in source order
	Symbols []string
	Values  map[string]IndicatorValues
}
