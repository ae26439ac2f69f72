package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sectorrotation/internal/domain"
	"sectorrotation/internal/util"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
lookback_days: 90
rebalance_frequency: W
top_n_sectors: 2
use_ma200_filter: false
use_volatility_filter: true
stop_loss: -0.05
sector_etfs: [XLK, XLE]
end_date: "2020-01-01"
`)
		c, err := Load(path)
		require.NoError(t, err)

		rc, err := c.ToRotationConfig()
		require.NoError(t, err)
		require.Equal(t, domain.RotationConfig{
			LookbackDays:        90,
			RebalanceFrequency:  domain.RebalanceWeekly,
			TopN:                2,
			MovingAverageWindow: 200,
			UseTrendFilter:      false,
			UseVolatilityFilter: true,
			StopLoss:            -0.05,
			Benchmark:           "SPY",
			Universe:            []string{"XLK", "XLE"},
			SelectedSectors:     []string{"XLK", "XLV"},
		}, rc)
	})

	t.Run("empty path uses defaults", func(t *testing.T) {
		c, err := Load("")
		require.NoError(t, err)
		require.Equal(t, 60, c.LookbackDays)
		require.True(t, c.UseMA200Filter)
	})

	t.Run("rejects zero top_n", func(t *testing.T) {
		path := writeConfig(t, "top_n_sectors: 0\n")
		_, err := Load(path)
		var cfgErr domain.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		require.Equal(t, "top_n_sectors", cfgErr.Field)
	})

	t.Run("rejects empty universe", func(t *testing.T) {
		path := writeConfig(t, "sector_etfs: []\n")
		_, err := Load(path)
		require.ErrorContains(t, err, "sector_etfs")
	})

	t.Run("rejects unknown frequency", func(t *testing.T) {
		path := writeConfig(t, "rebalance_frequency: hourly\n")
		_, err := Load(path)
		require.ErrorContains(t, err, "rebalance_frequency")
	})

	t.Run("csv source needs a path", func(t *testing.T) {
		path := writeConfig(t, "price_source:\n  kind: csv\n")
		_, err := Load(path)
		require.ErrorContains(t, err, "price_source.path")
	})

	t.Run("alpaca source", func(t *testing.T) {
		path := writeConfig(t, "price_source:\n  kind: alpaca\n")
		c, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, PriceSourceAlpaca, c.PriceSource.Kind)
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		path := writeConfig(t, "price_source:\n  kind: bloomberg\n")
		_, err := Load(path)
		require.ErrorContains(t, err, "price_source.kind")
	})

	t.Run("end before start", func(t *testing.T) {
		path := writeConfig(t, "start_date: \"2020-01-01\"\nend_date: \"2019-01-01\"\n")
		_, err := Load(path)
		require.ErrorContains(t, err, "end_date")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "lookback_days: [\n")
		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestConfig_DateRange(t *testing.T) {
	c := Default()
	now := time.Date(2024, 5, 6, 13, 0, 0, 0, time.UTC)
	start, end, err := c.DateRange(now)
	require.NoError(t, err)
	require.Equal(t, util.NewDate(2010, 1, 1), start)
	require.Equal(t, util.NewDate(2024, 5, 6), end)
}
