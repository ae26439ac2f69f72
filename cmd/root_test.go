package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFixture writes a csv price file with a steady trend per symbol and
// a config pointing at it
func writeFixture(t *testing.T, endDate string) string {
	dir := t.TempDir()
	drift := map[string]float64{"SPY": 0.0005, "XLE": -0.001, "XLK": 0.0015}

	lines := []string{"date,symbol,close"}
	price := map[string]float64{"SPY": 100, "XLE": 100, "XLK": 100}
	n := 0
	for d := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC); n < 300; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		n++
		for _, s := range []string{"SPY", "XLE", "XLK"} {
			price[s] *= 1 + drift[s]
			lines = append(lines, fmt.Sprintf("%s,%s,%.4f", d.Format(time.DateOnly), s, price[s]))
		}
	}
	pricesPath := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(pricesPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`
start_date: "2019-01-01"
end_date: "%s"
lookback_days: 20
moving_average_window: 50
top_n_sectors: 1
sector_etfs: [XLE, XLK]
selected_sectors: [XLK]
price_source:
  kind: csv
  path: %s
`, endDate, pricesPath)), 0o644))

	return configPath
}

func runCli(t *testing.T, args ...string) (string, error) {
	t.Setenv("SECTOR_SECRETS", filepath.Join(t.TempDir(), "missing.json"))
	root := newRootCmd(context.Background())
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCli(t *testing.T) {
	configPath := writeFixture(t, "2020-03-31")

	t.Run("backtest", func(t *testing.T) {
		csvPath := filepath.Join(t.TempDir(), "equity.csv")
		out, err := runCli(t, "backtest", "--config", configPath, "--skip-holdings", "--out", csvPath)
		require.NoError(t, err)
		require.Contains(t, out, "total return")
		require.Contains(t, out, "SPY")

		raw, err := os.ReadFile(csvPath)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(string(raw), "date,strategy_return,benchmark_return"))
		require.Contains(t, string(raw), "XLK")
	})

	t.Run("backtest with a single return skips statistics", func(t *testing.T) {
		shortConfig := writeFixture(t, "2019-02-15")
		csvPath := filepath.Join(t.TempDir(), "equity.csv")
		out, err := runCli(t, "backtest", "--config", shortConfig, "--skip-holdings", "--out", csvPath)
		require.NoError(t, err)
		require.Contains(t, out, "2019-02-28")
		require.NotContains(t, out, "total return")

		raw, err := os.ReadFile(csvPath)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
		require.Len(t, lines, 2)
		require.True(t, strings.HasPrefix(lines[1], "2019-02-28,"))
	})

	t.Run("current", func(t *testing.T) {
		out, err := runCli(t, "current", "--config", configPath)
		require.NoError(t, err)
		require.Contains(t, out, "hold: XLK")
	})

	t.Run("current as of an earlier date", func(t *testing.T) {
		out, err := runCli(t, "current", "--config", configPath, "--as-of", "2019-06-14")
		require.NoError(t, err)
		require.Contains(t, out, "selection for period ending 2019-06-30 (prices through 2019-06-14)")
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("top_n_sectors: 0\n"), 0o644))

		_, err := runCli(t, "backtest", "--config", bad)
		require.ErrorContains(t, err, "top_n_sectors")
	})

	t.Run("alpaca needs secrets", func(t *testing.T) {
		t.Setenv("SECTOR_SECRETS", filepath.Join(t.TempDir(), "missing.json"))
		alpacaConfig := filepath.Join(t.TempDir(), "alpaca.yaml")
		require.NoError(t, os.WriteFile(alpacaConfig, []byte("price_source:\n  kind: alpaca\n"), 0o644))

		_, err := NewDependencies(alpacaConfig)
		require.ErrorContains(t, err, "alpaca secrets")
	})

	t.Run("yahoo has nowhere to ingest", func(t *testing.T) {
		deps, err := NewDependencies("")
		require.NoError(t, err)
		_, err = deps.NewIngestService()
		require.Error(t, err)
	})
}
