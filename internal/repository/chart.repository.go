package repository

import (
	"context"
	"fmt"
	"time"

	"sectorrotation/internal/domain"
	"sectorrotation/internal/util"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// chartRepositoryHandler pulls daily adjusted closes from the Yahoo
// chart endpoint
type chartRepositoryHandler struct{}

func NewChartRepository() PriceSource {
	return chartRepositoryHandler{}
}

func (h chartRepositoryHandler) List(ctx context.Context, symbols []string, start, end time.Time) ([]domain.AssetPrice, error) {
	out := []domain.AssetPrice{}
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prices, err := h.listSymbol(symbol, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, prices...)
	}
	return out, nil
}

func (h chartRepositoryHandler) listSymbol(symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	// the chart end bound is exclusive
	exclusiveEnd := end.AddDate(0, 0, 1)
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&exclusiveEnd),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	out := []domain.AssetPrice{}
	for iter.Next() {
		bar := iter.Bar()
		price := bar.AdjClose
		if price.IsZero() {
			price = bar.Close
		}
		if price.IsZero() {
			continue
		}
		out = append(out, domain.AssetPrice{
			Symbol: symbol,
			Date:   util.ToDate(time.Unix(int64(bar.Timestamp), 0).UTC()),
			Price:  price,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", symbol, err)
	}

	return out, nil
}
