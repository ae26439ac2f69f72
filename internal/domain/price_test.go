package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPriceSeries_Truncate(t *testing.T) {
	d1 := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)
	series := PriceSeries{
		Symbols: []string{"XLK", "SPY"},
		Dates:   []time.Time{d1, d2, d3},
		Prices: map[string][]float64{
			"XLK": {1, 2, 3},
			"SPY": {10, 20, 30},
		},
		Missing: []string{"XLE"},
	}

	t.Run("keeps rows through the end day", func(t *testing.T) {
		out := series.Truncate(time.Date(2020, 1, 3, 16, 0, 0, 0, time.UTC))
		require.Equal(t, []time.Time{d1, d2}, out.Dates)
		require.Equal(t, []float64{1, 2}, out.Closes("XLK"))
		require.Equal(t, []float64{10, 20}, out.Closes("SPY"))
		require.Equal(t, series.Symbols, out.Symbols)
		require.Equal(t, []string{"XLE"}, out.Missing)
		require.Equal(t, 3, series.Len())
	})

	t.Run("end before the first row", func(t *testing.T) {
		out := series.Truncate(time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC))
		require.Equal(t, 0, out.Len())
		require.Empty(t, out.Closes("XLK"))
	})
}
