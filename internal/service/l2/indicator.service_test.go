package l2_service

import (
	"math"
	"sectorrotation/internal/domain"
	"sectorrotation/internal/util"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestComputeIndicators(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-12)

	t.Run("daily indicators are lagged one row", func(t *testing.T) {
		dates := []time.Time{
			util.NewDate(2020, 1, 6),
			util.NewDate(2020, 1, 7),
			util.NewDate(2020, 1, 8),
			util.NewDate(2020, 1, 9),
			util.NewDate(2020, 1, 10),
		}
		series := domain.PriceSeries{
			Symbols: []string{"XLK", "SPY"},
			Dates:   dates,
			Prices: map[string][]float64{
				"XLK": {10, 11, 12, 12, 15},
				"SPY": {100, 100, 100, 100, 110},
			},
		}
		cfg := domain.RotationConfig{
			LookbackDays:        2,
			RebalanceFrequency:  domain.RebalanceDaily,
			TopN:                1,
			MovingAverageWindow: 3,
			Benchmark:           "SPY",
			Universe:            []string{"XLK"},
			StopLoss:            -0.1,
		}

		indicators, err := ComputeIndicators(series, cfg)
		require.NoError(t, err)
		require.Equal(t, dates, indicators.RebalanceDates)
		require.Equal(t, []string{"XLK"}, indicators.Universe)

		r1, r2 := 0.1, 12.0/11-1
		expectedVol := math.Abs(r1-r2) / math.Sqrt(2)

		snapshots := []domain.IndicatorSnapshot{}
		for i := 0; i < indicators.Len(); i++ {
			snapshots = append(snapshots, indicators.Snapshot(i))
		}
		require.Equal(t, "", cmp.Diff([]domain.IndicatorSnapshot{
			{
				Date:    dates[0],
				Symbols: []string{"XLK"},
				Values:  map[string]domain.IndicatorValues{"XLK": {Price: p(10)}},
			},
			{
				Date:    dates[1],
				Symbols: []string{"XLK"},
				Values:  map[string]domain.IndicatorValues{"XLK": {Price: p(11)}},
			},
			{
				Date:    dates[2],
				Symbols: []string{"XLK"},
				Values:  map[string]domain.IndicatorValues{"XLK": {Price: p(12)}},
			},
			{
				Date:    dates[3],
				Symbols: []string{"XLK"},
				Values: map[string]domain.IndicatorValues{"XLK": {
					Momentum:       p(0.2),
					Volatility:     p(expectedVol),
					TrendReference: p(11),
					Price:          p(12),
				}},
			},
			{
				Date:    dates[4],
				Symbols: []string{"XLK"},
				Values: map[string]domain.IndicatorValues{"XLK": {
					Momentum:       p(12.0/11 - 1),
					Volatility:     p(math.Abs(r2-0) / math.Sqrt(2)),
					TrendReference: p(35.0 / 3),
					Price:          p(15),
				}},
			},
		}, snapshots, approx))

		require.Nil(t, indicators.PeriodReturn("XLK", 0))
		require.InDelta(t, 0.1, *indicators.PeriodReturn("XLK", 1), 1e-12)
		require.InDelta(t, 0.25, *indicators.PeriodReturn("XLK", 4), 1e-12)
		require.InDelta(t, 0.1, *indicators.PeriodReturn("SPY", 4), 1e-12)
		require.Nil(t, indicators.PeriodReturn("XLE", 4))
	})

	t.Run("monthly resampling uses period end labels", func(t *testing.T) {
		series := domain.PriceSeries{
			Symbols: []string{"XLK"},
			Dates: []time.Time{
				util.NewDate(2020, 1, 30),
				util.NewDate(2020, 1, 31),
				util.NewDate(2020, 2, 3),
				util.NewDate(2020, 2, 28),
				util.NewDate(2020, 3, 2),
			},
			Prices: map[string][]float64{
				"XLK": {1, 2, 3, 4, 5},
			},
		}
		cfg := domain.RotationConfig{
			LookbackDays:        1,
			RebalanceFrequency:  domain.RebalanceMonthly,
			TopN:                1,
			MovingAverageWindow: 200,
			Benchmark:           "XLK",
			Universe:            []string{"XLK"},
			StopLoss:            -0.1,
		}

		indicators, err := ComputeIndicators(series, cfg)
		require.NoError(t, err)
		require.Equal(t, []time.Time{
			util.NewDate(2020, 1, 31),
			util.NewDate(2020, 2, 29),
			util.NewDate(2020, 3, 31),
		}, indicators.RebalanceDates)

		// last momentum inside february is row 3, lagged from row 2: 3/2 - 1
		feb := indicators.Snapshot(1).Values["XLK"]
		require.InDelta(t, 0.5, *feb.Momentum, 1e-12)
		require.InDelta(t, 4, *feb.Price, 1e-12)
		require.Nil(t, feb.TrendReference)
		require.Nil(t, feb.Volatility)

		require.Equal(t, "", cmp.Diff(map[string]*float64{"XLK": nil}, indicators.PeriodReturns(0)))
		require.Equal(t, "", cmp.Diff(map[string]*float64{"XLK": p(1)}, indicators.PeriodReturns(1), approx))
		require.Equal(t, "", cmp.Diff(map[string]*float64{"XLK": p(0.25)}, indicators.PeriodReturns(2), approx))

		idx, ok := indicators.Index(util.NewDate(2020, 2, 29))
		require.True(t, ok)
		require.Equal(t, 1, idx)
		_, ok = indicators.Index(util.NewDate(2020, 2, 28))
		require.False(t, ok)
	})

	t.Run("insufficient history stays undefined", func(t *testing.T) {
		series := domain.PriceSeries{
			Symbols: []string{"XLK"},
			Dates:   []time.Time{util.NewDate(2020, 1, 6), util.NewDate(2020, 1, 7)},
			Prices:  map[string][]float64{"XLK": {1, 2}},
		}
		cfg := testConfig()
		cfg.Universe = []string{"XLK"}
		cfg.RebalanceFrequency = domain.RebalanceDaily

		indicators, err := ComputeIndicators(series, cfg)
		require.NoError(t, err)
		for i := 0; i < indicators.Len(); i++ {
			v := indicators.Snapshot(i).Values["XLK"]
			require.Nil(t, v.Momentum)
			require.Nil(t, v.Volatility)
			require.Nil(t, v.TrendReference)
			require.NotNil(t, v.Price)
		}
	})

	t.Run("universe symbols without prices are absent", func(t *testing.T) {
		series := domain.PriceSeries{
			Symbols: []string{"A"},
			Dates:   []time.Time{util.NewDate(2020, 1, 6)},
			Prices:  map[string][]float64{"A": {1}},
			Missing: []string{"B"},
		}
		indicators, err := ComputeIndicators(series, testConfig())
		require.NoError(t, err)
		require.Equal(t, []string{"A"}, indicators.Snapshot(0).Symbols)
		_, ok := indicators.Snapshot(0).Values["B"]
		require.False(t, ok)
	})

	t.Run("prices outside the symbol list are not part of the universe", func(t *testing.T) {
		series := domain.PriceSeries{
			Symbols: []string{"A"},
			Dates:   []time.Time{util.NewDate(2020, 1, 6), util.NewDate(2020, 1, 7)},
			Prices: map[string][]float64{
				"A": {1, 2},
				"B": {3, 4},
			},
		}
		indicators, err := ComputeIndicators(series, testConfig())
		require.NoError(t, err)
		require.Equal(t, []string{"A"}, indicators.Universe)

		var snapshot domain.IndicatorSnapshot
		require.NotPanics(t, func() {
			snapshot = indicators.Snapshot(indicators.Len() - 1)
		})
		require.Equal(t, []string{"A"}, snapshot.Symbols)
		_, ok := snapshot.Values["B"]
		require.False(t, ok)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.TopN = 0
		_, err := ComputeIndicators(domain.PriceSeries{}, cfg)
		require.ErrorAs(t, err, &domain.ConfigError{})
	})
}
