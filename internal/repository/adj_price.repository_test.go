package repository

import (
	"context"
	"database/sql"
	"sectorrotation/internal/domain"
	"sectorrotation/internal/util"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newTestDb connects to the database named by the test secrets, skipping
// when none is configured
func newTestDb(t *testing.T) *sql.DB {
	t.Setenv("SECTOR_ENV", "test")
	secrets, err := util.LoadSecrets()
	require.NoError(t, err)
	if !secrets.Db.IsSet() {
		t.Skip("no test database configured")
	}
	db, err := sql.Open("postgres", secrets.Db.ToConnectionStr())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	if err := db.Ping(); err != nil {
		t.Skipf("test database unreachable: %s", err.Error())
	}
	return db
}

func Test_adjustedPriceRepositoryHandler(t *testing.T) {
	db := newTestDb(t)
	ctx := context.Background()
	repo := NewAdjustedPriceRepository(db)

	symbol := "TEST_" + util.NewDate(2020, 1, 2).Format("20060102")
	_, err := db.Exec("DELETE FROM adjusted_price WHERE symbol = $1", symbol)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Exec("DELETE FROM adjusted_price WHERE symbol = $1", symbol)
	})

	err = repo.Save(ctx, []domain.AssetPrice{
		{Symbol: symbol, Date: util.NewDate(2020, 1, 2), Price: decimal.NewFromFloat(10.5)},
		{Symbol: symbol, Date: util.NewDate(2020, 1, 3), Price: decimal.NewFromFloat(11)},
	})
	require.NoError(t, err)

	// saving the same day again overwrites it
	err = repo.Save(ctx, []domain.AssetPrice{
		{Symbol: symbol, Date: util.NewDate(2020, 1, 3), Price: decimal.NewFromFloat(12)},
	})
	require.NoError(t, err)

	prices, err := repo.List(ctx, []string{symbol}, util.NewDate(2020, 1, 1), util.NewDate(2020, 1, 31))
	require.NoError(t, err)

	require.Len(t, prices, 2)
	require.Equal(t, "", cmp.Diff(
		[]string{"2020-01-02", "2020-01-03"},
		[]string{prices[0].Date.Format("2006-01-02"), prices[1].Date.Format("2006-01-02")},
	))
	require.True(t, decimal.NewFromFloat(10.5).Equal(prices[0].Price))
	require.True(t, decimal.NewFromFloat(12).Equal(prices[1].Price))
}
