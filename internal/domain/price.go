package domain

import (
	"sectorrotation/internal/util"
	"time"

	"github.com/shopspring/decimal"
)

// AssetPrice is a single close as returned by a price source
type AssetPrice struct {
	Symbol string
	Price  decimal.Decimal
	Date   time.Time
}

// PriceSeries holds closing prices for a set of instruments on a
// shared, strictly increasing calendar. Prices[symbol][i] is the
// close on Dates[i]; gaps have already been forward-filled and
// leading incomplete rows dropped
type PriceSeries struct {
	Symbols []string
	Dates   []time.Time
	Prices  map[string][]float64

	// symbols that were requested but never appeared in the feed
	Missing []string
}

func (p PriceSeries) Len() int {
	return len(p.Dates)
}

func (p PriceSeries) Has(symbol string) bool {
	_, ok := p.Prices[symbol]
	return ok
}

// Closes returns the aligned closes for symbol, or nil if the symbol
// is not part of the series
func (p PriceSeries) Closes(symbol string) []float64 {
	return p.Prices[symbol]
}

// Truncate returns a copy of the series containing only rows on or
// before the calendar day of end. The underlying slices are shared
func (p PriceSeries) Truncate(end time.Time) PriceSeries {
	n := 0
	for n < len(p.Dates) && util.DateLte(p.Dates[n], end) {
		n++
	}
	out := PriceSeries{
		Symbols: p.Symbols,
		Dates:   p.Dates[:n],
		Prices:  map[string][]float64{},
		Missing: p.Missing,
	}
	for symbol, closes := range p.Prices {
		out.Prices[symbol] = closes[:n]
	}
	return out
}
